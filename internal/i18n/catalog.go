// Package i18n holds the client-side message catalog for the portal and the console.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys.
const (
	KeyRequestFailed   = "error.request_failed"
	KeyNetworkFailed   = "error.network_failed"
	KeySessionExpired  = "error.session_expired"
	KeyRoleAdmin       = "role.admin"
	KeyRoleVolunteer   = "role.volunteer"
	KeyRoleOrganizer   = "role.organizer"
	KeyRoleUnknown     = "role.unknown"
	KeyUsernameTaken   = "username.taken"
	KeyUsernameFree    = "username.available"
	KeyAdminOnlyLogin  = "login.admin_only"
	KeyUnsupportedRole = "login.unsupported_role"
)

var messages = map[language.Tag]map[string]string{
	language.English: {
		KeyRequestFailed:   "Request failed",
		KeyNetworkFailed:   "Network request failed, please check your connection",
		KeySessionExpired:  "Your session has expired, please sign in again",
		KeyRoleAdmin:       "Administrator",
		KeyRoleVolunteer:   "Volunteer",
		KeyRoleOrganizer:   "NPO organization",
		KeyRoleUnknown:     "Unknown type",
		KeyUsernameTaken:   "Username %s is already taken",
		KeyUsernameFree:    "Username %s is available",
		KeyAdminOnlyLogin:  "Only administrators can sign in to the console",
		KeyUnsupportedRole: "Unsupported account type",
	},
	language.SimplifiedChinese: {
		KeyRequestFailed:   "请求失败",
		KeyNetworkFailed:   "网络请求失败，请检查网络连接",
		KeySessionExpired:  "登录已过期，请重新登录",
		KeyRoleAdmin:       "管理员",
		KeyRoleVolunteer:   "志愿者",
		KeyRoleOrganizer:   "NPO组织",
		KeyRoleUnknown:     "未知类型",
		KeyUsernameTaken:   "用户名 %s 已被占用",
		KeyUsernameFree:    "用户名 %s 可用",
		KeyAdminOnlyLogin:  "只有管理员可以登录管理端",
		KeyUnsupportedRole: "不支持的用户类型",
	},
}

// Supported lists the catalog languages, English first as the fallback.
var Supported = []language.Tag{language.English, language.SimplifiedChinese}

var (
	builder = newBuilder()
	matcher = language.NewMatcher(Supported)
)

func newBuilder() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, entries := range messages {
		for key, msg := range entries {
			_ = b.SetString(tag, key, msg)
		}
	}
	return b
}

// Match picks the best supported language for an Accept-Language style value.
func Match(preferred string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(strings.TrimSpace(preferred))
	if err != nil || len(tags) == 0 {
		return language.English
	}
	_, idx, _ := matcher.Match(tags...)
	return Supported[idx]
}

// Translator renders catalog messages in one language.
type Translator struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns a translator for the best match of preferred.
func New(preferred string) *Translator {
	tag := Match(preferred)
	return &Translator{tag: tag, printer: message.NewPrinter(tag, message.Catalog(builder))}
}

// Tag is the negotiated language.
func (t *Translator) Tag() language.Tag {
	if t == nil {
		return language.English
	}
	return t.tag
}

// T renders key with args.
func (t *Translator) T(key string, args ...any) string {
	if t == nil {
		t = New("")
	}
	return t.printer.Sprintf(key, args...)
}
