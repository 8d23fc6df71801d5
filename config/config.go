/* config.go
 * Contains the configuration for every run mode. Values come from config/config.yaml, then a .env file if present,
 * then the environment: SURVIVOR_<SECTION>_<KEY> for any key, plus MONGO_URI, DISCORD_TOKEN and FEED_API_KEY for the
 * secrets
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"survivor-pool/api/logic"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	Mongo    MongoConfig    `mapstructure:"mongo"`
	Discord  DiscordConfig  `mapstructure:"discord"`
	Server   ServerConfig   `mapstructure:"server"`
	Feed     FeedConfig     `mapstructure:"feed"`
	Survivor SurvivorConfig `mapstructure:"survivor"`
	Log      LogConfig      `mapstructure:"log"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type DiscordConfig struct {
	Token string `mapstructure:"token"`
	// AdminIDs are the Discord user ids allowed to run $reconcile, $audit and $sync
	AdminIDs []string `mapstructure:"admin_ids"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	// Mode is the gin mode: debug, release or test
	Mode string `mapstructure:"mode"`
	// WebhookSecret, when set, must be sent in the X-Webhook-Secret header of webhook and admin requests
	WebhookSecret string `mapstructure:"webhook_secret"`
	// WebhookRPS limits how often webhooks are accepted, <= 0 disables the limit
	WebhookRPS float64 `mapstructure:"webhook_rps"`
}

type FeedConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

type SurvivorConfig struct {
	TiePolicy    string `mapstructure:"tie_policy"`
	NoPickPolicy string `mapstructure:"no_pick_policy"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads the configuration.
// Preconditions: Receives the path of a yaml config file, or "" to look for config/config.yaml and ./config.yaml
// Postconditions: Returns the Config with defaults applied, or an error if an explicit file can't be read or the
// values can't be decoded. A missing default config file is not an error
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // .env is optional

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("SURVIVOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.database", "survivor_pool")
	v.SetDefault("discord.token", "")
	v.SetDefault("discord.admin_ids", []string{})
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.webhook_secret", "")
	v.SetDefault("server.webhook_rps", 1.0)
	v.SetDefault("feed.base_url", "")
	v.SetDefault("feed.api_key", "")
	v.SetDefault("feed.requests_per_second", 2.0)
	v.SetDefault("feed.timeout", 15*time.Second)
	v.SetDefault("survivor.tie_policy", "eliminate")
	v.SetDefault("survivor.no_pick_policy", "kickoff")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// overrideFromEnv applies the bare secret variables, which win over everything else
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("MONGO_URI"); v != "" {
		cfg.Mongo.URI = v
	}
	if v := os.Getenv("DISCORD_TOKEN"); v != "" {
		cfg.Discord.Token = v
	}
	if v := os.Getenv("FEED_API_KEY"); v != "" {
		cfg.Feed.APIKey = v
	}
}

// Validate checks the values every run mode depends on
func (c *Config) Validate() error {
	var problems []string
	if c.Mongo.URI == "" {
		problems = append(problems, "mongo.uri is required")
	}
	if c.Mongo.Database == "" {
		problems = append(problems, "mongo.database is required")
	}
	if _, err := c.Policy(); err != nil {
		problems = append(problems, err.Error())
	}
	if _, err := logrus.ParseLevel(c.Log.Level); c.Log.Level != "" && err != nil {
		problems = append(problems, fmt.Sprintf("invalid log level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("invalid log format %q, expected text or json", c.Log.Format))
	}
	switch c.Server.Mode {
	case "", "debug", "release", "test":
	default:
		problems = append(problems, fmt.Sprintf("invalid server mode %q", c.Server.Mode))
	}
	if c.Feed.RequestsPerSecond < 0 {
		problems = append(problems, "feed.requests_per_second cannot be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Policy returns the reconciliation policy described by the survivor section
func (c *Config) Policy() (logic.Policy, error) {
	tie, err := logic.ParseTiePolicy(c.Survivor.TiePolicy)
	if err != nil {
		return logic.Policy{}, err
	}
	noPick, err := logic.ParseNoPickPolicy(c.Survivor.NoPickPolicy)
	if err != nil {
		return logic.Policy{}, err
	}
	return logic.Policy{Tie: tie, NoPick: noPick}, nil
}

// IsAdmin reports whether the Discord user id is listed in discord.admin_ids
func (c *Config) IsAdmin(userID string) bool {
	for _, id := range c.Discord.AdminIDs {
		if strings.TrimSpace(id) == userID {
			return true
		}
	}
	return false
}

// NewLogger builds the logger described by the log section
func (l LogConfig) NewLogger() (*logrus.Logger, error) {
	logger := logrus.New()

	level := l.Level
	if level == "" {
		level = "info"
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", l.Level, err)
	}
	logger.SetLevel(parsed)

	if l.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}
