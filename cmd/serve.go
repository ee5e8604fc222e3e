package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/jobguide/internal/keepalive"
	"github.com/spigell/jobguide/internal/line"
	"github.com/spigell/jobguide/internal/notify"
	"github.com/spigell/jobguide/internal/secrets"
	"github.com/spigell/jobguide/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the LINE webhook server",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 0, "port to listen on (default 5001 or $PORT)")
	serveCmd.Flags().Bool("metrics", false, "expose prometheus metrics on /metrics")

	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.metrics", serveCmd.Flags().Lookup("metrics"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := newLogger()
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the jobguide", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	channelSecret, err := secrets.Load(secrets.Source{
		Name:  "line channel secret",
		Value: config.Line.ChannelSecret,
		Env:   "LINE_CHANNEL_SECRET",
		File:  config.Line.ChannelSecretFile,
	})
	if err != nil {
		logger.Fatal("loading line channel secret", zap.Error(err),
			zap.String("hint", "set LINE_CHANNEL_SECRET_FILE environment variable or the 'line.channel-secret-file' key"),
		)
	}

	channelToken, err := secrets.Load(secrets.Source{
		Name:  "line channel access token",
		Value: config.Line.ChannelToken,
		Env:   "LINE_CHANNEL_ACCESS_TOKEN",
		File:  config.Line.ChannelTokenFile,
	})
	if err != nil {
		logger.Fatal("loading line channel access token", zap.Error(err),
			zap.String("hint", "set LINE_CHANNEL_TOKEN_FILE environment variable or the 'line.channel-token-file' key"),
		)
	}

	client, err := line.NewClient(channelToken, line.Options{Endpoint: config.Line.Endpoint}, logger)
	if err != nil {
		logger.Fatal("creating line client", zap.Error(err))
	}

	application, err := buildApplication(ctx, config, client, logger)
	if err != nil {
		logger.Fatal("building the bot", zap.Error(err))
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Warn("closing resources", zap.Error(err))
		}
	}()

	if config.Features.Notifications {
		scheduler, err := newScheduler(config, application, client, logger)
		if err != nil {
			logger.Fatal("creating the scheduler", zap.Error(err))
		}
		if err := scheduler.Start(ctx); err != nil {
			logger.Fatal("starting the scheduler", zap.Error(err))
		}
		defer scheduler.Stop()
	}

	webhook := line.NewWebhook(channelSecret, application.bot, client, logger)
	srv := server.New(config.Server, webhook, application.metrics, version, logger)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped", zap.Error(err))
	}

	logger.Info("waiting for background searches")
	application.bot.Wait()
	logger.Info("exiting", zap.String("reason", "shutdown"))
}

func newScheduler(config *Config, a *application, client *line.Client, log *zap.Logger) (*notify.Scheduler, error) {
	deps := notify.Deps{
		Users:    a.users,
		Searcher: a.searcher,
		Parser:   a.extractor,
		Notifier: client,
		Logger:   log,
	}

	if url := config.Notifications.KeepAliveURL; url != "" {
		pinger, err := keepalive.New(url, log)
		if err != nil {
			return nil, err
		}
		deps.Pinger = pinger
	}

	return notify.New(config.Notifications, deps)
}

// redacted returns a copy of the config that is safe to log.
func redacted(config *Config) Config {
	c := *config
	if c.Line.ChannelSecret != "" {
		c.Line.ChannelSecret = "***"
	}
	if c.Line.ChannelToken != "" {
		c.Line.ChannelToken = "***"
	}
	if c.AI != nil && c.AI.Gemini != nil && c.AI.Gemini.APIKey != "" {
		ai := *c.AI
		gem := *ai.Gemini
		gem.APIKey = "***"
		ai.Gemini = &gem
		c.AI = &ai
	}
	return c
}
