package auth

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/volunteerhub/portal/internal/shared"
)

// Gateway is the subset of the backend API the account flows call.
type Gateway interface {
	Login(ctx context.Context, role Role, creds Credentials) (*AuthResponse, error)
	Register(ctx context.Context, role Role, reg Registration) (*AuthResponse, error)
	FindUserByUsername(ctx context.Context, username string) (*UsernameAvailability, error)
	UpdateProfile(ctx context.Context, changes ProfileUpdate) (*Principal, error)
}

// SessionStore persists the outcome of the account flows.
type SessionStore interface {
	Restore(ctx context.Context) SessionState
	SetAuth(ctx context.Context, principal Principal, tokens TokenPair) error
	ClearAuth(ctx context.Context) error
	UpdatePrincipal(ctx context.Context, principal Principal) error
	AllowsRole(role Role) bool
}

// Service wraps the login, registration and profile flows of one session namespace.
type Service struct {
	gateway   Gateway
	store     SessionStore
	validator *Validator
	logger    *slog.Logger
	lookups   singleflight.Group
}

// NewService constructs a new Service.
func NewService(gateway Gateway, store SessionStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gateway: gateway, store: store, validator: NewValidator(), logger: logger}
}

// Login validates creds, authenticates against the role's endpoint and stores the session.
// A principal whose role the namespace forbids is never stored.
func (s *Service) Login(ctx context.Context, role Role, creds Credentials) (*Principal, error) {
	if !s.store.AllowsRole(role) {
		return nil, shared.ValidationError("invalid input", map[string][]string{
			"Character": {"account type " + role.String() + " cannot sign in here"},
		})
	}
	if err := s.validator.Struct(creds); err != nil {
		return nil, err
	}
	resp, err := s.gateway.Login(ctx, role, creds)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetAuth(ctx, resp.User, resp.Tokens()); err != nil {
		s.logger.Warn("login not stored", slog.String("username", resp.User.Username), slog.Any("error", err))
		return nil, err
	}
	user := resp.User
	return &user, nil
}

// Register creates a volunteer or NPO account. When the backend issues tokens the
// new account is signed in straight away.
func (s *Service) Register(ctx context.Context, role Role, reg Registration) (*Principal, bool, error) {
	if err := PortalRole(role); err != nil {
		return nil, false, err
	}
	if err := s.validator.Struct(reg); err != nil {
		return nil, false, err
	}
	resp, err := s.gateway.Register(ctx, role, reg)
	if err != nil {
		return nil, false, err
	}
	user := resp.User
	if !resp.Tokens().Complete() {
		return &user, false, nil
	}
	if err := s.store.SetAuth(ctx, user, resp.Tokens()); err != nil {
		return nil, false, err
	}
	return &user, true, nil
}

// CheckUsername asks the backend whether username is free. Concurrent checks of
// the same name share one request.
func (s *Service) CheckUsername(ctx context.Context, username string) (*UsernameAvailability, error) {
	if err := s.validator.Username(username); err != nil {
		return nil, err
	}
	// The shared lookup outlives any single caller; each caller stops waiting
	// on its own context.
	flight := s.lookups.DoChan(username, func() (any, error) {
		return s.gateway.FindUserByUsername(context.WithoutCancel(ctx), username)
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-flight:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	answer, ok := res.Val.(*UsernameAvailability)
	if !ok || answer == nil {
		return nil, fmt.Errorf("auth: check username: empty answer")
	}
	out := *answer
	return &out, nil
}

// Logout clears the namespace.
func (s *Service) Logout(ctx context.Context) error {
	return s.store.ClearAuth(ctx)
}

// UpdateProfile saves changes and refreshes the stored principal.
func (s *Service) UpdateProfile(ctx context.Context, changes ProfileUpdate) (*Principal, error) {
	state := s.store.Restore(ctx)
	if !state.LoggedIn {
		return nil, shared.ValidationError("no active session", nil)
	}
	if err := s.validator.Struct(changes); err != nil {
		return nil, err
	}
	updated, err := s.gateway.UpdateProfile(ctx, changes)
	if err != nil {
		return nil, err
	}
	next := *updated
	// The update view may omit Character.
	if next.Role == RoleUnknown {
		next.Role = state.Principal.Role
	}
	if err := s.store.UpdatePrincipal(ctx, next); err != nil {
		return nil, err
	}
	return &next, nil
}
