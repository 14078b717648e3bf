package config

import (
	"errors"
	"fmt"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
	"os"
	"strings"
	"time"
	"warden/pkg/api/elapse"
)

const (
	StoreDriverSQLite    = "sqlite"
	StoreDriverRedis     = "redis"
	StoreDriverFirestore = "firestore"

	LoggingDriverConsole = "console"
	LoggingDriverGCP     = "gcp"
)

const (
	envDiscordToken  = "WARDEN_DISCORD_TOKEN"
	envRedisPassword = "WARDEN_REDIS_PASSWORD"
)

type Config struct {
	Discord     DiscordConfig
	Commands    CommandsConfig
	Moderation  ModerationConfig
	Raid        RaidConfig
	Flood       FloodConfig
	Store       StoreConfig
	GoogleCloud GoogleCloudConfig `yaml:"google_cloud"`
	Logging     LoggingConfig
	Queue       QueueConfig
	Metrics     MetricsConfig
}

type DiscordConfig struct {
	Token           string
	GuildID         string `yaml:"guild_id"`
	Owner           string
	Admins          []string
	ModeratorRoles  []string `yaml:"moderator_roles"`
	MemberRoleID    string   `yaml:"member_role_id"`
	MutedRoleID     string   `yaml:"muted_role_id"`
	ModLogChannelID string   `yaml:"mod_log_channel_id"`
	MutedChannelID  string   `yaml:"muted_channel_id"`
	NotifySoftbans  bool     `yaml:"notify_softbans"`
}

type CommandsConfig struct {
	Prefix string
}

// ModerationConfig durations use the same notation moderators type, e.g. "5m" or "1h30m".
type ModerationConfig struct {
	MinimumDuration string `yaml:"minimum_duration"`
	PromptTimeout   string `yaml:"prompt_timeout"`
	RejoinDelay     string `yaml:"rejoin_delay"`
	ReasonMaxLength int    `yaml:"reason_max_length"`
}

type RaidConfig struct {
	Users   int
	Seconds int
}

type FloodConfig struct {
	Messages int
	Seconds  int
	History  int
}

type StoreConfig struct {
	Driver string
	SQLite SQLiteConfig `yaml:"sqlite"`
	Redis  RedisConfig
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int `yaml:"db"`
	Prefix   string
}

type GoogleCloudConfig struct {
	ProjectID              string `yaml:"project_id"`
	ServiceAccountFilename string `yaml:"service_account_filename"`
}

type LoggingConfig struct {
	Driver string
	LogID  string `yaml:"log_id"`
	Level  string
}

type QueueConfig struct {
	Topic string
}

type MetricsConfig struct {
	Address string
}

func ReadConfig(filename string) (*Config, error) {
	f, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	cfg, err := Parse(f)
	if err != nil {
		return nil, err
	}

	if err = godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env, %w", err)
	}
	cfg.applyEnvironment()

	return cfg, nil
}

// Parse decodes YAML and fills unset values with defaults. It does not consult the environment.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if len(c.Commands.Prefix) == 0 {
		c.Commands.Prefix = "+"
	}
	if len(c.Moderation.MinimumDuration) == 0 {
		c.Moderation.MinimumDuration = "10s"
	}
	if len(c.Moderation.PromptTimeout) == 0 {
		c.Moderation.PromptTimeout = "5m"
	}
	if len(c.Moderation.RejoinDelay) == 0 {
		c.Moderation.RejoinDelay = "3s"
	}
	if c.Moderation.ReasonMaxLength <= 0 {
		c.Moderation.ReasonMaxLength = 512
	}
	if c.Raid.Users <= 0 {
		c.Raid.Users = 5
	}
	if c.Raid.Seconds <= 0 {
		c.Raid.Seconds = 10
	}
	if c.Flood.Messages <= 0 {
		c.Flood.Messages = 5
	}
	if c.Flood.Seconds <= 0 {
		c.Flood.Seconds = 5
	}
	if c.Flood.History <= 0 {
		c.Flood.History = 50
	}
	if len(c.Store.Driver) == 0 {
		c.Store.Driver = StoreDriverSQLite
	}
	if len(c.Store.SQLite.Path) == 0 {
		c.Store.SQLite.Path = "data/warden.db"
	}
	if len(c.Store.Redis.Prefix) == 0 {
		c.Store.Redis.Prefix = "warden"
	}
	if len(c.Logging.Driver) == 0 {
		c.Logging.Driver = LoggingDriverConsole
	}
	if len(c.Logging.LogID) == 0 {
		c.Logging.LogID = "warden"
	}
}

func (c *Config) applyEnvironment() {
	if v := os.Getenv(envDiscordToken); len(v) > 0 {
		c.Discord.Token = v
	}
	if v := os.Getenv(envRedisPassword); len(v) > 0 {
		c.Store.Redis.Password = v
	}
}

func (c *Config) Validate() error {
	missing := make([]string, 0)
	if len(c.Discord.Token) == 0 {
		missing = append(missing, "discord.token")
	}
	if len(c.Discord.GuildID) == 0 {
		missing = append(missing, "discord.guild_id")
	}
	if len(c.Discord.MemberRoleID) == 0 {
		missing = append(missing, "discord.member_role_id")
	}
	if len(c.Discord.MutedRoleID) == 0 {
		missing = append(missing, "discord.muted_role_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	switch c.Store.Driver {
	case StoreDriverSQLite, StoreDriverRedis, StoreDriverFirestore:
	default:
		return fmt.Errorf("unknown store driver, %s", c.Store.Driver)
	}

	if c.Store.Driver == StoreDriverFirestore || c.Logging.Driver == LoggingDriverGCP || len(c.Queue.Topic) > 0 {
		if len(c.GoogleCloud.ProjectID) == 0 {
			return fmt.Errorf("google_cloud.project_id is required by the configured store, logging or queue")
		}
	}

	return nil
}

func (m ModerationConfig) MinimumDurationValue() time.Duration {
	return elapse.ParseDuration(m.MinimumDuration)
}

// PromptTimeoutValue returns zero when prompts should wait indefinitely.
func (m ModerationConfig) PromptTimeoutValue() time.Duration {
	return elapse.ParseDuration(m.PromptTimeout)
}

func (m ModerationConfig) RejoinDelayValue() time.Duration {
	return elapse.ParseDuration(m.RejoinDelay)
}
