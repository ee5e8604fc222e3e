package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/jobguide/internal/bot"
	"github.com/spigell/jobguide/internal/logger"
	"github.com/spigell/jobguide/internal/notify"
	"github.com/spigell/jobguide/internal/server"
)

const (
	app = "jobguide"
)

type Config struct {
	Server        server.Config      `mapstructure:"server"`
	Line          LineConfig         `mapstructure:"line"`
	Features      bot.Features       `mapstructure:"features"`
	Conversation  ConversationConfig `mapstructure:"conversation"`
	Extractor     ExtractorConfig    `mapstructure:"extractor"`
	Search        SearchConfig       `mapstructure:"search"`
	Storage       StorageConfig      `mapstructure:"storage"`
	Notifications notify.Config      `mapstructure:"notifications"`
	AI            *AIConfig          `mapstructure:"ai"`
}

type LineConfig struct {
	ChannelSecret     string `mapstructure:"channel-secret"`
	ChannelSecretFile string `mapstructure:"channel-secret-file"`
	ChannelToken      string `mapstructure:"channel-token"`
	ChannelTokenFile  string `mapstructure:"channel-token-file"`
	Endpoint          string `mapstructure:"endpoint"`
}

type ConversationConfig struct {
	// Store is either memory or redis.
	Store     string        `mapstructure:"store"`
	MaxTurns  int           `mapstructure:"max-turns"`
	TTL       time.Duration `mapstructure:"ttl"`
	RedisURL  string        `mapstructure:"redis-url"`
	KeyPrefix string        `mapstructure:"key-prefix"`
}

type ExtractorConfig struct {
	Segmenter string `mapstructure:"segmenter"`
}

type SearchConfig struct {
	bot.SearchOptions `mapstructure:",squash"`
	ExcludeCompanies  []string `mapstructure:"exclude-companies"`
	ExcludeFile       string   `mapstructure:"exclude-file"`
	DisabledFilters   []string `mapstructure:"disabled-filters"`
}

type StorageConfig struct {
	Source   string `mapstructure:"source"`
	Jobs     string `mapstructure:"jobs"`
	UserData string `mapstructure:"user-data"`
}

type AIConfig struct {
	Provider        string        `mapstructure:"provider"`
	MinimumFitScore float64       `mapstructure:"minimum-fit-score"`
	MaxListings     int           `mapstructure:"max-listings"`
	Gemini          *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string  `mapstructure:"api-key"`
	APIKeyFile   string  `mapstructure:"api-key-file"`
	Model        string  `mapstructure:"model"`
	Endpoint     string  `mapstructure:"endpoint"`
	Temperature  float32 `mapstructure:"temperature"`
	MaxRetries   int     `mapstructure:"max-retries"`
	MaxLogLength int     `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobguide is a chat bot that turns free-form job requests into ranked listings",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envs := map[string]string{
		"line.channel-secret-file": "LINE_CHANNEL_SECRET_FILE",
		"line.channel-token-file":  "LINE_CHANNEL_TOKEN_FILE",
		"ai.gemini.api-key-file":   "GEMINI_API_KEY_FILE",
		"conversation.redis-url":   "REDIS_URL",
		"server.port":              "PORT",
	}
	for key, env := range envs {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetDefault("storage.jobs", "jobs.json")
	viper.SetDefault("storage.user-data", "user_data.json")
	viper.SetDefault("conversation.store", "memory")
	viper.SetDefault("conversation.ttl", "24h")

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobguide.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Only the long running commands need a config.
	if serveCmd.CalledAs() == "" && chatCmd.CalledAs() == "" && excludeCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Without an explicit --config a missing file means defaults plus environment.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		return nil, errors.New("config is empty")
	}

	return config, nil
}

func newLogger() (*zap.Logger, error) {
	return logger.New(logger.Options{
		JSON:    viper.GetBool("json"),
		Debug:   viper.GetBool("debug"),
		Service: app,
	})
}
