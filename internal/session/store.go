// Package session manages the persisted principal and token pair of one namespace.
package session

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/volunteerhub/portal/internal/auth"
	"github.com/volunteerhub/portal/internal/platform/storage"
	"github.com/volunteerhub/portal/internal/shared"
)

// Namespace isolates one application's session keys from another's.
type Namespace string

const (
	// NamespaceUser holds the public portal session.
	NamespaceUser Namespace = "user"
	// NamespaceAdmin holds the administrator console session.
	NamespaceAdmin Namespace = "admin"
)

const (
	accessTokenSuffix  = "_access_token"
	refreshTokenSuffix = "_refresh_token"
	userInfoSuffix     = "_user_info"
)

// AccessTokenKey returns the storage key of the access token.
func (n Namespace) AccessTokenKey() string { return string(n) + accessTokenSuffix }

// RefreshTokenKey returns the storage key of the refresh token.
func (n Namespace) RefreshTokenKey() string { return string(n) + refreshTokenSuffix }

// UserInfoKey returns the storage key of the JSON principal.
func (n Namespace) UserInfoKey() string { return string(n) + userInfoSuffix }

// Keys lists every key the namespace owns.
func (n Namespace) Keys() []string {
	return []string{n.AccessTokenKey(), n.RefreshTokenKey(), n.UserInfoKey()}
}

// Allows reports whether a principal with role may hold a session in n.
func (n Namespace) Allows(role auth.Role) bool {
	switch n {
	case NamespaceAdmin:
		return role == auth.RoleAdmin
	case NamespaceUser:
		return role == auth.RoleVolunteer || role == auth.RoleOrganizer
	default:
		return false
	}
}

// Store is the session lifecycle for a single namespace. It holds no state of its
// own: every call reads or writes the backend, so a clear is visible to the next reader.
type Store struct {
	ns      Namespace
	backend storage.Storage
	logger  *slog.Logger
}

// NewStore binds a namespace to a storage backend.
func NewStore(ns Namespace, backend storage.Storage, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{ns: ns, backend: backend, logger: logger.With(slog.String("namespace", string(ns)))}
}

// Namespace returns the namespace the store manages.
func (s *Store) Namespace() Namespace {
	return s.ns
}

// AllowsRole reports whether the store's namespace accepts role.
func (s *Store) AllowsRole(role auth.Role) bool {
	return s.ns.Allows(role)
}

// Restore derives the session state from storage. It never fails: missing,
// partial, corrupt or role-invalid records all read as logged out.
func (s *Store) Restore(ctx context.Context) auth.SessionState {
	values, err := s.backend.GetMany(ctx, s.ns.Keys()...)
	if err != nil {
		s.logger.Warn("session restore failed", slog.Any("error", err))
		return auth.LoggedOut()
	}

	tokens := auth.TokenPair{
		Access:  values[s.ns.AccessTokenKey()],
		Refresh: values[s.ns.RefreshTokenKey()],
	}
	raw := values[s.ns.UserInfoKey()]
	if !tokens.Complete() || raw == "" {
		return auth.LoggedOut()
	}

	var principal auth.Principal
	if err := json.Unmarshal([]byte(raw), &principal); err != nil {
		s.logger.Warn("stored principal is corrupt", slog.Any("error", err))
		return auth.LoggedOut()
	}
	if !s.ns.Allows(principal.Role) {
		s.logger.Warn("stored principal role not allowed", slog.String("role", principal.Role.String()))
		return auth.LoggedOut()
	}
	return auth.SessionState{Principal: &principal, Tokens: &tokens, LoggedIn: true}
}

// SetAuth persists principal and tokens together. Nothing is written when the
// tokens are incomplete, the role is not allowed, or the backend fails.
func (s *Store) SetAuth(ctx context.Context, principal auth.Principal, tokens auth.TokenPair) error {
	if !tokens.Complete() {
		return shared.ValidationError("access and refresh tokens are both required", nil)
	}
	if !s.ns.Allows(principal.Role) {
		return shared.RoleMismatchError("role " + principal.Role.String() + " cannot sign in to the " + string(s.ns) + " namespace")
	}
	payload, err := json.Marshal(principal)
	if err != nil {
		return shared.ValidationError("principal cannot be encoded: "+err.Error(), nil)
	}

	if err := s.backend.SetMany(ctx, map[string]string{
		s.ns.AccessTokenKey():  tokens.Access,
		s.ns.RefreshTokenKey(): tokens.Refresh,
		s.ns.UserInfoKey():     string(payload),
	}); err != nil {
		s.logger.Error("session persist failed", slog.Any("error", err))
		return shared.StorageUnavailableError("set", err)
	}
	s.logger.Info("session stored", slog.String("username", principal.Username), slog.String("role", principal.Role.String()))
	return nil
}

// ClearAuth removes every key of the namespace. Clearing an empty namespace is a no-op.
func (s *Store) ClearAuth(ctx context.Context) error {
	if err := s.backend.Delete(ctx, s.ns.Keys()...); err != nil {
		s.logger.Error("session clear failed", slog.Any("error", err))
		return shared.StorageUnavailableError("clear", err)
	}
	return nil
}

// IsLoggedIn reports whether both tokens and a role-valid principal are stored.
func (s *Store) IsLoggedIn(ctx context.Context) bool {
	return s.Restore(ctx).LoggedIn
}

// CurrentPrincipal returns the stored principal when it passes the namespace role check.
func (s *Store) CurrentPrincipal(ctx context.Context) (*auth.Principal, bool) {
	state := s.Restore(ctx)
	if !state.LoggedIn {
		return nil, false
	}
	return state.Principal, true
}

// Tokens returns the stored token pair of a logged-in session.
func (s *Store) Tokens(ctx context.Context) (auth.TokenPair, bool) {
	state := s.Restore(ctx)
	if !state.LoggedIn {
		return auth.TokenPair{}, false
	}
	return *state.Tokens, true
}

// UpdatePrincipal replaces the stored principal after a profile edit, keeping the tokens.
// The write only lands while the access token read here is still stored, so a
// concurrent clear is never undone.
func (s *Store) UpdatePrincipal(ctx context.Context, principal auth.Principal) error {
	state := s.Restore(ctx)
	if !state.LoggedIn {
		return shared.ValidationError("no active session to update", nil)
	}
	if principal.ID != state.Principal.ID {
		return shared.RoleMismatchError("profile belongs to a different account")
	}
	if !s.ns.Allows(principal.Role) {
		return shared.RoleMismatchError("role " + principal.Role.String() + " cannot sign in to the " + string(s.ns) + " namespace")
	}
	payload, err := json.Marshal(principal)
	if err != nil {
		return shared.ValidationError("principal cannot be encoded: "+err.Error(), nil)
	}

	written, err := s.backend.SetManyIf(ctx, s.ns.AccessTokenKey(), state.Tokens.Access, map[string]string{
		s.ns.UserInfoKey(): string(payload),
	})
	if err != nil {
		s.logger.Error("session update failed", slog.Any("error", err))
		return shared.StorageUnavailableError("update", err)
	}
	if !written {
		s.logger.Info("session cleared during profile update", slog.String("username", principal.Username))
		return shared.ValidationError("no active session to update", nil)
	}
	return nil
}
