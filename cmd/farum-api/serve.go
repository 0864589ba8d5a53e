package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	httpadapter "github.com/PabloGalante/farum-wellness/internal/adapters/http"
	"github.com/PabloGalante/farum-wellness/internal/adapters/identity"
	"github.com/PabloGalante/farum-wellness/internal/adapters/llm"
	ratestore "github.com/PabloGalante/farum-wellness/internal/adapters/ratelimit"
	firestorestore "github.com/PabloGalante/farum-wellness/internal/adapters/storage/firestore"
	memstore "github.com/PabloGalante/farum-wellness/internal/adapters/storage/memory"
	sqlstore "github.com/PabloGalante/farum-wellness/internal/adapters/storage/sql"
	"github.com/PabloGalante/farum-wellness/internal/app/account"
	"github.com/PabloGalante/farum-wellness/internal/app/conversation"
	"github.com/PabloGalante/farum-wellness/internal/app/mood"
	"github.com/PabloGalante/farum-wellness/internal/app/ratelimit"
	"github.com/PabloGalante/farum-wellness/internal/app/tasks"
	"github.com/PabloGalante/farum-wellness/internal/config"
	"github.com/PabloGalante/farum-wellness/internal/domain"
	"github.com/PabloGalante/farum-wellness/internal/observability"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			observability.Init(cfg.Log.Level)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

// closers run in reverse order on shutdown.
type closers []func() error

func (c *closers) add(f func() error) { *c = append(*c, f) }

func (c closers) close() {
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](); err != nil {
			observability.Logger().Warn("close failed", "error", err)
		}
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := observability.Logger()
	var cleanup closers
	defer cleanup.close()

	completion, err := buildCompletionClient(ctx, cfg.LLM)
	if err != nil {
		return err
	}
	completion = llm.NewInstrumented(completion)

	store, err := buildStore(ctx, cfg.Storage, &cleanup)
	if err != nil {
		return err
	}

	rates, err := buildRateStore(ctx, cfg.RateLimit, &cleanup)
	if err != nil {
		return err
	}

	loc, err := cfg.Tasks.Location()
	if err != nil {
		return err
	}

	dispatcher := mood.NewDispatcher(mood.NewScorer(completion, store), cfg.Mood.Workers, cfg.Mood.Timeout)

	if cfg.Mode == config.ModeLocal {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	handler := httpadapter.NewServer(httpadapter.Deps{
		Conversation: conversation.NewService(completion, store, store, dispatcher),
		Generator:    tasks.NewGenerator(completion, store, loc),
		Board:        tasks.NewBoard(store, loc),
		Moods:        mood.NewHistory(store),
		Accounts:     account.NewService(store, store, buildAdmin(cfg.Auth)),
		Governor:     ratelimit.NewGovernor(rates),
		Auth:         buildAuthenticator(cfg),
		Policies: httpadapter.Policies{
			Chat:  policy("chat", cfg.RateLimit.Chat),
			Tasks: policy("tasks", cfg.RateLimit.Tasks),
			Read:  policy("read", cfg.RateLimit.Read),
		},
		TrustedProxies: cfg.Server.TrustedProxies,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("farum api listening",
			"addr", srv.Addr,
			"mode", cfg.Mode,
			"llm", cfg.LLM.Provider,
			"storage", cfg.Storage.Backend,
			"ratelimit", cfg.RateLimit.Backend,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		httpErr := srv.Shutdown(sctx)
		moodErr := dispatcher.Shutdown(sctx)
		return errors.Join(httpErr, moodErr)
	})
	return g.Wait()
}

func policy(name string, p config.PolicyConfig) ratelimit.Policy {
	return ratelimit.Policy{Name: name, Window: p.Window, Max: p.Max}
}

func buildCompletionClient(ctx context.Context, c config.LLMConfig) (domain.CompletionClient, error) {
	log := observability.Logger()

	switch c.Provider {
	case "mock":
		log.Info("using mock completion client")
		return llm.NewMockLLM(), nil
	case "openai":
		log.Info("using openai-compatible completion client", "base_url", c.BaseURL, "model", c.Model)
		return llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:  c.APIKey,
			BaseURL: c.BaseURL,
			Model:   c.Model,
			Timeout: c.Timeout,
		}), nil
	case "gemini":
		log.Info("using gemini completion client", "model", c.Model)
		return llm.NewGenAIClient(ctx, llm.GenAIConfig{Model: c.Model, APIKey: c.APIKey})
	case "vertex":
		log.Info("using vertex completion client", "project", c.GCPProject, "location", c.GCPLocation)
		return llm.NewGenAIClient(ctx, llm.GenAIConfig{
			Model:    c.Model,
			Project:  c.GCPProject,
			Location: c.GCPLocation,
		})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", c.Provider)
	}
}

func buildStore(ctx context.Context, c config.StorageConfig, cleanup *closers) (domain.Store, error) {
	log := observability.Logger()

	switch c.Backend {
	case "memory":
		log.Info("using in-memory storage")
		return memstore.NewStore(), nil
	case "postgres", "sqlite":
		log.Info("using sql storage", "driver", c.Backend)
		db, err := sqlstore.Open(sqlConfig(c))
		if err != nil {
			return nil, err
		}
		if sqlDB, err := db.DB(); err == nil {
			cleanup.add(sqlDB.Close)
		}
		if c.AutoMigrate {
			if err := sqlstore.Migrate(db); err != nil {
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		return sqlstore.NewStore(db), nil
	case "firestore":
		log.Info("using firestore storage", "project", c.GCPProject)
		fs, err := firestorestore.NewStore(ctx, c.GCPProject)
		if err != nil {
			return nil, err
		}
		cleanup.add(fs.Close)
		return fs, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", c.Backend)
	}
}

func buildRateStore(ctx context.Context, c config.RateLimitConfig, cleanup *closers) (domain.RateStore, error) {
	if c.Backend != "redis" {
		return ratestore.NewMemoryStore(c.SweepProbability), nil
	}

	client, err := ratestore.DialRedis(ctx, c.RedisAddr, c.RedisPassword, c.RedisDB)
	if err != nil {
		return nil, err
	}
	cleanup.add(client.Close)
	observability.Logger().Info("using redis rate store", "addr", c.RedisAddr)
	return ratestore.NewRedisStore(client, c.RedisPrefix), nil
}

func buildAuthenticator(cfg *config.Config) httpadapter.Authenticator {
	if cfg.Auth.JWTSecret != "" {
		return identity.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.Audience)
	}
	observability.Logger().Warn("no jwt secret configured, trusting X-User-ID (local mode only)")
	return identity.HeaderAuthenticator{Fallback: "local-user"}
}

func buildAdmin(c config.AuthConfig) domain.IdentityAdmin {
	if c.AdminURL != "" {
		return identity.NewAdminClient(c.AdminURL, c.ServiceKey)
	}
	return identity.LocalAdmin{}
}
