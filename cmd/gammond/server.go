package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/lox/gammond/internal/auth"
	"github.com/lox/gammond/internal/board"
	"github.com/lox/gammond/internal/game"
	"github.com/lox/gammond/internal/gnubg"
	"github.com/lox/gammond/internal/httpapi"
	"github.com/lox/gammond/internal/randutil"
	"github.com/lox/gammond/internal/server"
	"github.com/lox/gammond/internal/store"
)

// ServerCmd runs the game server.
type ServerCmd struct {
	Config   string `short:"c" default:"gammond.hcl" help:"Path to HCL configuration file"`
	Addr     string `short:"a" help:"Server address to bind to (overrides config)"`
	LogLevel string `short:"l" help:"Log level (overrides config)"`
	Seed     *int64 `help:"Deterministic RNG seed for the server (optional)"`
}

func (c *ServerCmd) Run() error {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if c.Addr != "" {
		cfg.Server.Addr = c.Addr
	}
	if c.LogLevel != "" {
		cfg.Server.LogLevel = c.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, closeLog, err := setupLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	seed := time.Now().UnixNano()
	if c.Seed != nil {
		seed = *c.Seed
	}
	logger.Info("starting gammond",
		"addr", cfg.Server.Addr,
		"db", cfg.Store.DBPath,
		"engine", cfg.Gnubg.Binary,
		"seed", seed)

	st, err := store.Open(cfg.Store.DBPath, logger)
	if err != nil {
		return fmt.Errorf("opening user store: %w", err)
	}
	defer func() { _ = st.Close() }()

	statsLog := store.NewStatsLog(cfg.Store.StatsPath, logger)

	secret := []byte(cfg.Auth.Secret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return fmt.Errorf("generating auth secret: %w", err)
		}
		logger.Warn("auth secret not configured, using an ephemeral one; tokens will not survive a restart")
	}
	authority := auth.New(secret, cfg.TokenTTL(), nil)

	chooser := &timeoutChooser{
		adapter: gnubg.New(gnubg.NewProcessRunner(cfg.Gnubg.Binary, cfg.Gnubg.Args), logger),
		budget:  cfg.EngineTimeout(),
	}

	pool := server.NewWorkerPool(0, logger)
	defer pool.Stop()

	queue := server.NewNotificationQueue()
	gateway := server.NewGateway(authority, logger)
	stats := server.NewStats(st, statsLog, nil, logger)

	svc := server.NewGameService(server.ServiceConfig{
		Logger:  logger,
		Seed:    seed,
		Queue:   queue,
		Pool:    pool,
		Chooser: chooser,
		Stats:   stats,
		Profiles: func(username string) any {
			profile, err := st.PlayerData(username)
			if err != nil {
				logger.Error("profile lookup failed", "username", username, "error", err)
				return nil
			}
			return profile
		},
		UserBySID: gateway.UserBySID,
		Emit:      gateway.Emit,
		Rewards: game.RewardsConfig{
			EloWin:   cfg.Rewards.EloWin,
			MoneyWin: cfg.Rewards.MoneyWin,
			EloLoss:  cfg.Rewards.EloLoss,
		},
		DisconnectTimeout: cfg.DisconnectTimeout(),
		ThinkMin:          cfg.ThinkMin(),
		ThinkMax:          cfg.ThinkMax(),
		SetupDelay:        cfg.SetupDelay(),
		FirstRollPacing:   cfg.FirstRollPacing(),
	})
	defer svc.Close()
	gateway.SetService(svc)

	consumer := server.NewConsumer(queue, gateway.Emit, nil, randutil.New(seed+1), logger)

	var assets *httpapi.Assets
	if cfg.Server.AssetsDir != "" {
		assets = httpapi.NewAssets(cfg.Server.AssetsDir, logger)
		if err := assets.Scan(); err != nil {
			return fmt.Errorf("scanning assets: %w", err)
		}
	}
	api := httpapi.New(st, authority, assets, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gateway.HandleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	api.Routes(mux)

	httpServer := &http.Server{Addr: cfg.Server.Addr, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return consumer.Run(ctx)
	})
	g.Go(func() error {
		logger.Info("listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		gateway.Close()
		queue.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// setupLogger builds the server logger, teeing to the configured log file
// when one is set.
func setupLogger(cfg *server.Config) (*log.Logger, func(), error) {
	var w io.Writer = os.Stderr
	closeLog := func() {}
	if cfg.Server.LogFile != "" {
		f, err := os.OpenFile(cfg.Server.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		w = io.MultiWriter(os.Stderr, f)
		closeLog = func() { _ = f.Close() }
	}

	logger := log.New(w)
	switch cfg.Server.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}
	return logger, closeLog, nil
}

// timeoutChooser bounds every engine call with the configured budget so a
// hung engine process cannot hold a pool worker forever.
type timeoutChooser struct {
	adapter *gnubg.Adapter
	budget  time.Duration
}

func (t *timeoutChooser) ChooseTurn(ctx context.Context, b board.Board, dice []int, sign int) (board.Turn, error) {
	ctx, cancel := context.WithTimeout(ctx, t.budget)
	defer cancel()
	return t.adapter.ChooseTurn(ctx, b, dice, sign)
}
