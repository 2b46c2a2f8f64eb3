package session

import (
	"context"

	"github.com/volunteerhub/portal/internal/auth"
)

type stateContextKey struct{}

// ContextWithState stores the restored session state in context.
func ContextWithState(ctx context.Context, state auth.SessionState) context.Context {
	return context.WithValue(ctx, stateContextKey{}, state)
}

// StateFromContext extracts the session state, reporting logged out when absent.
func StateFromContext(ctx context.Context) auth.SessionState {
	state, _ := ctx.Value(stateContextKey{}).(auth.SessionState)
	return state
}
