package auth

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the account category, encoded by the backend as the integer "Character".
type Role int

const (
	// RoleUnknown marks a principal whose Character is missing or out of range.
	RoleUnknown Role = -1
	// RoleAdmin is Character 0.
	RoleAdmin Role = 0
	// RoleVolunteer is Character 1.
	RoleVolunteer Role = 1
	// RoleOrganizer is Character 2, shown as NPO in the portal.
	RoleOrganizer Role = 2
)

// ParseRole accepts role names, the "npo" alias and numeric Character values.
func ParseRole(raw string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "admin", "0":
		return RoleAdmin, nil
	case "volunteer", "1":
		return RoleVolunteer, nil
	case "organizer", "npo", "2":
		return RoleOrganizer, nil
	default:
		return RoleUnknown, fmt.Errorf("auth: unknown role %q", raw)
	}
}

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleVolunteer || r == RoleOrganizer
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleVolunteer:
		return "volunteer"
	case RoleOrganizer:
		return "organizer"
	default:
		return "unknown"
	}
}

// Slug is the path segment the backend and the portal router use for the role.
func (r Role) Slug() string {
	if r == RoleOrganizer {
		return "npo"
	}
	return r.String()
}

// MarshalJSON encodes the role as its Character value.
func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(r))
}

// UnmarshalJSON decodes a Character value; anything out of range becomes RoleUnknown.
func (r *Role) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("auth: decode role: %w", err)
	}
	role := Role(n)
	if !role.Valid() {
		role = RoleUnknown
	}
	*r = role
	return nil
}

// Principal is a logged-in identity as returned by the accounts endpoints.
type Principal struct {
	ID         int64      `json:"id"`
	Username   string     `json:"username"`
	Email      string     `json:"email,omitempty"`
	Role       Role       `json:"Character"`
	FirstName  string     `json:"first_name,omitempty"`
	LastName   string     `json:"last_name,omitempty"`
	IsActive   bool       `json:"is_active"`
	DateJoined *time.Time `json:"date_joined,omitempty"`
	LastLogin  *time.Time `json:"last_login,omitempty"`
}

// UnmarshalJSON treats a missing Character as RoleUnknown so a corrupt record can
// never decode to the zero value, which is the admin role.
func (p *Principal) UnmarshalJSON(data []byte) error {
	type plain Principal
	var raw struct {
		plain
		Role     *Role `json:"Character"`
		IsActive *bool `json:"is_active"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Principal(raw.plain)
	p.Role = RoleUnknown
	if raw.Role != nil {
		p.Role = *raw.Role
	}
	// The login views omit is_active; an issued token implies an active account.
	p.IsActive = raw.IsActive == nil || *raw.IsActive
	return nil
}

// DisplayName prefers the full name and falls back to the username.
func (p Principal) DisplayName() string {
	full := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if full != "" {
		return full
	}
	return p.Username
}

// TokenPair is the access/refresh credential issued at login.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Complete reports whether both tokens are present.
func (t TokenPair) Complete() bool {
	return t.Access != "" && t.Refresh != ""
}

// AccessExpiry reads the exp claim of a JWT access token without verifying it.
// Opaque tokens report false.
func (t TokenPair) AccessExpiry() (time.Time, bool) {
	if t.Access == "" {
		return time.Time{}, false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(t.Access, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.UTC(), true
}

// SessionState is the derived view used by guards and menus.
type SessionState struct {
	Principal *Principal
	Tokens    *TokenPair
	LoggedIn  bool
}

// LoggedOut is the empty state.
func LoggedOut() SessionState {
	return SessionState{}
}

// HasRole reports whether the state is logged in with one of roles.
func (s SessionState) HasRole(roles ...Role) bool {
	if !s.LoggedIn || s.Principal == nil {
		return false
	}
	for _, r := range roles {
		if s.Principal.Role == r {
			return true
		}
	}
	return false
}
