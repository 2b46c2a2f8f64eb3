package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/volunteerhub/portal/internal/apiclient"
	"github.com/volunteerhub/portal/internal/auth"
	"github.com/volunteerhub/portal/internal/observability"
	"github.com/volunteerhub/portal/internal/platform/storage"
	"github.com/volunteerhub/portal/internal/session"
)

// OpenStorage opens the backend selected by STORAGE_DRIVER.
func OpenStorage(ctx context.Context, cfg *Config) (storage.Storage, error) {
	switch cfg.StorageDriver {
	case StorageMemory:
		return storage.NewMemory(), nil
	case StorageSQLite:
		return storage.OpenSQLite(cfg.SQLitePath)
	case StorageRedis:
		client, err := storage.ConnectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, err
		}
		return storage.NewRedis(client, cfg.RedisPrefix), nil
	default:
		return nil, fmt.Errorf("app: unknown storage driver %q", cfg.StorageDriver)
	}
}

// Frontend bundles the session pieces of one namespace.
type Frontend struct {
	Store   *session.Store
	Client  *apiclient.Client
	Service *auth.Service
}

// Runtime holds everything built at startup. Both namespaces share one backend.
type Runtime struct {
	Storage storage.Storage
	Metrics *observability.Metrics
	User    Frontend
	Admin   Frontend
}

// RuntimeOptions overrides parts of the bootstrap, mainly for tests.
type RuntimeOptions struct {
	Storage    storage.Storage
	HTTPClient *http.Client
}

// NewRuntime wires the stores, API clients and account services.
func NewRuntime(ctx context.Context, cfg *Config, logger *slog.Logger, opts RuntimeOptions) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}
	backend := opts.Storage
	if backend == nil {
		opened, err := OpenStorage(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("app: open storage: %w", err)
		}
		backend = opened
	}

	rt := &Runtime{Storage: backend, Metrics: observability.NewMetrics()}
	var err error
	if rt.User, err = newFrontend(session.NamespaceUser, cfg, logger, rt, opts.HTTPClient); err != nil {
		return nil, errors.Join(err, backend.Close())
	}
	if rt.Admin, err = newFrontend(session.NamespaceAdmin, cfg, logger, rt, opts.HTTPClient); err != nil {
		return nil, errors.Join(err, backend.Close())
	}
	return rt, nil
}

func newFrontend(ns session.Namespace, cfg *Config, logger *slog.Logger, rt *Runtime, httpClient *http.Client) (Frontend, error) {
	store := session.NewStore(ns, rt.Storage, logger)
	client, err := apiclient.New(store, apiclient.Options{
		BaseURL:    cfg.APIBaseURL,
		HTTPClient: httpClient,
		Timeout:    cfg.APITimeout,
		Language:   cfg.Language,
		Logger:     logger,
		Metrics:    rt.Metrics,
	})
	if err != nil {
		return Frontend{}, err
	}
	return Frontend{Store: store, Client: client, Service: auth.NewService(client, store, logger)}, nil
}

// Frontend returns the admin or user bundle.
func (rt *Runtime) Frontend(admin bool) Frontend {
	if admin {
		return rt.Admin
	}
	return rt.User
}

// Close releases the storage backend.
func (rt *Runtime) Close() error {
	return rt.Storage.Close()
}
