package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/masqueradebot/masquerade/internal/discord"
	"github.com/masqueradebot/masquerade/internal/factory"
	redisregistry "github.com/masqueradebot/masquerade/internal/registry/redis"
	"github.com/masqueradebot/masquerade/internal/status"
)

type runOptions struct {
	token       string
	storageType string
	redisURL    string
	statusAddr  string
	maxAttempts int
}

func newRunCmd() *cobra.Command {
	opts := runOptions{
		token:       os.Getenv("DISCORD_TOKEN"),
		storageType: envOr("STORAGE_TYPE", factory.StorageTypeMemory),
		redisURL:    os.Getenv("REDIS_URL"),
		statusAddr:  envOr("STATUS_ADDR", ":8080"),
	}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(opts)
		},
	}

	cmd.Flags().StringVar(&opts.token, "token", opts.token, "Discord bot token (env: DISCORD_TOKEN)")
	cmd.Flags().StringVar(&opts.storageType, "storage", opts.storageType, "Registry backend: memory, redis (env: STORAGE_TYPE)")
	cmd.Flags().StringVar(&opts.redisURL, "redis-url", opts.redisURL, "Redis URL when --storage=redis (env: REDIS_URL)")
	cmd.Flags().StringVar(&opts.statusAddr, "status-addr", opts.statusAddr, "Status server listen address (env: STATUS_ADDR)")
	cmd.Flags().IntVar(&opts.maxAttempts, "max-attempts", 0, "Shuffle retry cap before constructive search (0 = default)")

	return cmd
}

func runBot(opts runOptions) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if opts.token == "" {
		return errors.New("a Discord token is required (--token or DISCORD_TOKEN)")
	}

	session, err := discord.NewSession(opts.token)
	if err != nil {
		return err
	}

	cfg := factory.Config{
		Logger:             logger,
		StorageType:        opts.storageType,
		MaxShuffleAttempts: opts.maxAttempts,
		Messenger:          discord.NewMessenger(session),
	}

	if cfg.StorageType == factory.StorageTypeRedis {
		if opts.redisURL == "" {
			return errors.New("REDIS_URL required when storage is redis")
		}
		redisCfg := redisregistry.DefaultConfig()
		redisCfg.URL = opts.redisURL
		cfg.RedisConfig = &redisCfg
	}

	app, err := factory.New(cfg)
	if err != nil {
		return err
	}

	gateway := discord.NewGateway(session, app.RoundController, logger)
	if err := gateway.Open(); err != nil {
		return err
	}
	defer func() {
		if err := gateway.Close(); err != nil {
			logger.Error("gateway close error", slog.String("error", err.Error()))
		}
	}()

	serverConfig := status.DefaultServerConfig()
	serverConfig.Addr = opts.statusAddr
	server := status.NewServer(status.NewRouter(status.RouterConfig{
		Logger:          logger,
		RoundController: app.RoundController,
	}), serverConfig, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("bot started", slog.String("status_addr", server.Addr()))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		if err := server.Shutdown(context.Background()); err != nil {
			return err
		}
	}

	logger.Info("bot stopped")
	return nil
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
