// Package guard decides whether a page route may be shown for the current session.
package guard

import (
	"strings"

	"github.com/volunteerhub/portal/internal/auth"
)

// Access is the protection level of a route.
type Access int

const (
	// Public routes are always shown.
	Public Access = iota
	// Authenticated routes need any session of the table's namespace.
	Authenticated
	// Restricted routes need a session whose role is listed on the route.
	Restricted
)

func (a Access) String() string {
	switch a {
	case Public:
		return "public"
	case Authenticated:
		return "authenticated"
	case Restricted:
		return "restricted"
	default:
		return "unknown"
	}
}

// Route is one page of a frontend.
type Route struct {
	Name   string
	Path   string
	Access Access
	Roles  []auth.Role
}

// HasRoleParam reports whether the path carries the {role} segment.
func (r Route) HasRoleParam() bool {
	return strings.Contains(r.Path, "{"+RoleParam+"}")
}

// RoleParam is the path parameter naming the portal role.
const RoleParam = "role"

// NotFoundPath is where an invalid role parameter is sent.
const NotFoundPath = "/404"

// Table is the route list of one frontend together with its redirect targets.
type Table struct {
	Name string
	// Prefix is the mount point of the frontend; redirects issued by the
	// middleware are prefixed with it.
	Prefix string
	Routes []Route
	login  func(roleSlug string) string
	home   func(p *auth.Principal) string
}

// Lookup returns the route called name.
func (t *Table) Lookup(name string) (Route, bool) {
	for _, r := range t.Routes {
		if r.Name == name {
			return r, true
		}
	}
	return Route{}, false
}

// LoginPath is the sign-in page for roleSlug (ignored by the console).
func (t *Table) LoginPath(roleSlug string) string {
	return t.login(roleSlug)
}

// HomePath is the landing page of principal.
func (t *Table) HomePath(p *auth.Principal) string {
	return t.home(p)
}

var (
	volunteerOnly = []auth.Role{auth.RoleVolunteer}
	npoOnly       = []auth.Role{auth.RoleOrganizer}
)

// Portal is the volunteer and NPO site.
var Portal = &Table{
	Name: "portal",
	Routes: []Route{
		{Name: "home", Path: "/", Access: Public},
		{Name: "login", Path: "/login/{role}", Access: Public},
		{Name: "register", Path: "/register/{role}", Access: Public},
		{Name: "notFound", Path: NotFoundPath, Access: Public},
		{Name: "publicHome", Path: "/home/{role}", Access: Public},
		{Name: "publicActivityZone", Path: "/activity-zone/{role}", Access: Public},
		{Name: "publicActivityZoneDetail", Path: "/activity-zone-detail/{role}", Access: Public},
		{Name: "publicOrganizationDetail", Path: "/organization-detail/{role}", Access: Public},
		{Name: "publicBackground", Path: "/background/{role}", Access: Public},
		{Name: "publicRules", Path: "/rules/{role}", Access: Public},
		{Name: "publicCertificate", Path: "/certificate/{role}", Access: Public},
		{Name: "publicMyActivity", Path: "/my-activity/{role}", Access: Authenticated},
		{Name: "publicUserProfile", Path: "/user-profile/{role}", Access: Authenticated},
		{Name: "submittedActivity", Path: "/submitted-activity/{role}", Access: Restricted, Roles: npoOnly},
		{Name: "submittedActivityDetail", Path: "/submitted-activity-detail/{role}", Access: Restricted, Roles: npoOnly},
		{Name: "newActivity", Path: "/new-activity/{role}", Access: Restricted, Roles: npoOnly},
		{Name: "volunteerDashboard", Path: "/dashboard/volunteer", Access: Restricted, Roles: volunteerOnly},
		{Name: "npoDashboard", Path: "/dashboard/npo", Access: Restricted, Roles: npoOnly},
	},
	login: func(roleSlug string) string {
		if !validPortalSlug(roleSlug) {
			roleSlug = auth.RoleVolunteer.Slug()
		}
		return "/login/" + roleSlug
	},
	home: func(p *auth.Principal) string {
		if p == nil || !validPortalSlug(p.Role.Slug()) {
			return "/"
		}
		return "/home/" + p.Role.Slug()
	},
}

// Console is the administrator site.
var Console = &Table{
	Name:   "console",
	Prefix: "/admin",
	Routes: []Route{
		{Name: "Home", Path: "/", Access: Public},
		{Name: "Login", Path: "/login", Access: Public},
		{Name: "Dashboard", Path: "/dashboard", Access: Authenticated},
		{Name: "Rules", Path: "/rules", Access: Authenticated},
		{Name: "Certificate", Path: "/certificate", Access: Authenticated},
		{Name: "Background", Path: "/background", Access: Authenticated},
		{Name: "UserProfile", Path: "/user-profile", Access: Authenticated},
		{Name: "Workplace", Path: "/workplace", Access: Authenticated},
		{Name: "Approvals", Path: "/approvals", Access: Authenticated},
		{Name: "ApprovalsDetail", Path: "/approvals/{id}", Access: Authenticated},
		{Name: "ReviewedActivities", Path: "/reviewed-activities", Access: Authenticated},
	},
	login: func(string) string { return "/login" },
	home:  func(*auth.Principal) string { return "/dashboard" },
}

func validPortalSlug(slug string) bool {
	return slug == auth.RoleVolunteer.Slug() || slug == auth.RoleOrganizer.Slug()
}
