package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/commitquest"
	"github.com/aretw0/commitquest/internal/config"
	"github.com/aretw0/commitquest/pkg/adapters/file"
	"github.com/aretw0/commitquest/pkg/adapters/llm"
	"github.com/aretw0/commitquest/pkg/adapters/memory"
	"github.com/aretw0/commitquest/pkg/adapters/process"
	"github.com/aretw0/commitquest/pkg/adapters/redis"
	"github.com/aretw0/commitquest/pkg/adapters/remote"
	"github.com/aretw0/commitquest/pkg/adapters/sqlite"
	"github.com/aretw0/commitquest/pkg/domain"
	"github.com/aretw0/commitquest/pkg/persistence/middleware"
	"github.com/aretw0/commitquest/pkg/ports"
	"github.com/aretw0/commitquest/pkg/session"
)

// NewBackend builds the backend selected by cfg.Backend.Kind.
func NewBackend(cfg *config.Config) (ports.Backend, error) {
	switch cfg.Backend.Kind {
	case config.BackendHTTP:
		return remote.New(cfg.Backend.URL), nil
	case config.BackendProcess:
		return process.NewRunner(cfg.Backend.Command,
			process.WithArgs(cfg.Backend.Args...),
			process.WithEnv(cfg.Backend.Env),
		), nil
	case config.BackendLLM:
		return llm.New(llm.Config{
			APIKey:  cfg.Backend.APIKey,
			BaseURL: cfg.Backend.BaseURL,
			Model:   cfg.Backend.Model,
			Profile: llm.Profile{
				Language:       cfg.Profile.Language,
				Framework:      cfg.Profile.Framework,
				Specialization: cfg.Profile.Specialization,
			},
		}), nil
	}
	return nil, domain.NewConfigurationError("backend.kind", "unknown backend %q", cfg.Backend.Kind)
}

// NewEngine builds the quest engine from cfg.
func NewEngine(cfg *config.Config, logger *slog.Logger, hooks ...domain.LifecycleHooks) (*commitquest.Engine, error) {
	backend, err := NewBackend(cfg)
	if err != nil {
		return nil, err
	}

	opts := []commitquest.Option{
		commitquest.WithBackend(backend),
		commitquest.WithLogger(logger),
		commitquest.WithTimeout(cfg.TimeoutDuration()),
		commitquest.WithWelcomeOnClear(cfg.WelcomeOnClear),
		commitquest.WithProjectDir(cfg.ProjectDir),
		commitquest.WithAutoCommit(cfg.AutoCommit),
	}
	for _, h := range hooks {
		opts = append(opts, commitquest.WithLifecycleHooks(h))
	}
	return commitquest.New(opts...), nil
}

// Persistence bundles a store with what must be released on exit.
type Persistence struct {
	Store   ports.StateStore
	Locker  ports.DistributedLocker
	LockTTL time.Duration
	close   func() error
}

// Close releases connections held by the store.
func (p *Persistence) Close() error {
	if p.close == nil {
		return nil
	}
	return p.close()
}

// ManagerOptions returns the session options implied by the store.
func (p *Persistence) ManagerOptions() []session.Option {
	if p.Locker == nil {
		return nil
	}
	return []session.Option{session.WithLocker(p.Locker), session.WithLockTTL(p.LockTTL)}
}

// NewPersistence opens the store selected by cfg.Store.Kind and applies
// redaction and encryption when configured.
// Redis also provides a distributed locker so replicas share sessions safely.
func NewPersistence(cfg *config.Config) (*Persistence, error) {
	p, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	var mws []middleware.Middleware
	patterns := cfg.Store.Redact
	if cfg.Store.RedactSecrets {
		patterns = append(append([]string{}, patterns...), middleware.SecretPatterns...)
	}
	if len(patterns) > 0 {
		mws = append(mws, middleware.NewRedactMiddleware(patterns))
	}

	active, fallbacks, err := cfg.EncryptionKeys()
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	if active != nil {
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallbacks,
		}))
	}

	p.Store = middleware.Chain(p.Store, mws...)
	return p, nil
}

func openStore(cfg *config.Config) (*Persistence, error) {
	switch cfg.Store.Kind {
	case config.StoreMemory, "":
		return &Persistence{Store: memory.NewStore()}, nil
	case config.StoreFile:
		return &Persistence{Store: file.New(cfg.Store.Dir)}, nil
	case config.StoreRedis:
		prefix := cfg.Store.RedisPrefix + ":session:"
		store := redis.New(cfg.Store.RedisAddr, "", 0,
			redis.WithPrefix(prefix),
			redis.WithTTL(cfg.StoreTTL()),
		)
		return &Persistence{
			Store:   store,
			Locker:  redis.NewLocker(store.Client(), cfg.Store.RedisPrefix+":"),
			LockTTL: session.LockTTLFor(cfg.TimeoutDuration()),
			close:   store.Client().Close,
		}, nil
	case config.StoreSQLite:
		store, err := sqlite.Open(cfg.Store.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return &Persistence{Store: store, close: store.Close}, nil
	}
	return nil, domain.NewConfigurationError("store.kind", "unknown store %q", cfg.Store.Kind)
}
