package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Bot       BotConfig       `mapstructure:"bot"`
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Notifier  NotifierConfig  `mapstructure:"notifier"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// BotConfig holds chat-transport configuration
type BotConfig struct {
	Token string `mapstructure:"token"`
	// AdminIDs is a comma-separated list of Telegram chat IDs allowed
	// to use /admin.
	AdminIDs string `mapstructure:"admin_ids"`
	Debug    bool   `mapstructure:"debug"`
}

// ServerConfig holds the liveness HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port" validate:"gt=0,lte=65535"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StorageConfig holds snapshot file configuration
type StorageConfig struct {
	DataFile string `mapstructure:"data_file" validate:"required"`
}

// SchedulerConfig holds the fixed local hours the daily jobs fire at
type SchedulerConfig struct {
	RolloverHour int `mapstructure:"rollover_hour" validate:"gte=0,lte=23"`
	MorningHour  int `mapstructure:"morning_hour" validate:"gte=0,lte=23"`
	MiddayHour   int `mapstructure:"midday_hour" validate:"gte=0,lte=23"`
	EveningHour  int `mapstructure:"evening_hour" validate:"gte=0,lte=23"`
}

// NotifierConfig holds broadcast delivery configuration
type NotifierConfig struct {
	SendTimeout    time.Duration `mapstructure:"send_timeout"`
	RatePerSecond  float64       `mapstructure:"rate_per_second" validate:"gt=0"`
	MorningMessage string        `mapstructure:"morning_message"`
	MiddayMessage  string        `mapstructure:"midday_message"`
	EveningMessage string        `mapstructure:"evening_message"`
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load loads configuration from the environment, a .env file if present,
// and built-in defaults.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors)
	_ = godotenv.Load()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()
	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	// App defaults
	viper.SetDefault("app.name", "FocusPlan Bot")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.environment", "development")

	// Bot defaults
	viper.SetDefault("bot.token", "")
	viper.SetDefault("bot.admin_ids", "")
	viper.SetDefault("bot.debug", false)

	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.shutdown_timeout", "10s")

	// Storage defaults
	viper.SetDefault("storage.data_file", "data.json")

	// Scheduler defaults: rollover before the first reminder of the day
	viper.SetDefault("scheduler.rollover_hour", 5)
	viper.SetDefault("scheduler.morning_hour", 11)
	viper.SetDefault("scheduler.midday_hour", 14)
	viper.SetDefault("scheduler.evening_hour", 20)

	// Notifier defaults
	viper.SetDefault("notifier.send_timeout", "10s")
	viper.SetDefault("notifier.rate_per_second", 25.0)
	viper.SetDefault("notifier.morning_message", "Good morning! Time to plan your tasks for today.")
	viper.SetDefault("notifier.midday_message", "Midday check-in: how are your tasks going?")
	viper.SetDefault("notifier.evening_message", "Evening report: what did you get done today?")

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "json")
	viper.SetDefault("logger.output", "stdout")

	// Metrics defaults
	viper.SetDefault("metrics.enabled", true)
}

func bindEnvVars() {
	// App
	viper.BindEnv("app.name", "APP_NAME")
	viper.BindEnv("app.version", "APP_VERSION")
	viper.BindEnv("app.environment", "APP_ENVIRONMENT")

	// Bot
	viper.BindEnv("bot.token", "BOT_TOKEN")
	viper.BindEnv("bot.admin_ids", "BOT_ADMIN_IDS")
	viper.BindEnv("bot.debug", "BOT_DEBUG")

	// Server
	viper.BindEnv("server.host", "SERVER_HOST")
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.shutdown_timeout", "SERVER_SHUTDOWN_TIMEOUT")

	// Storage
	viper.BindEnv("storage.data_file", "DATA_FILE")

	// Scheduler
	viper.BindEnv("scheduler.rollover_hour", "ROLLOVER_HOUR")
	viper.BindEnv("scheduler.morning_hour", "MORNING_HOUR")
	viper.BindEnv("scheduler.midday_hour", "MIDDAY_HOUR")
	viper.BindEnv("scheduler.evening_hour", "EVENING_HOUR")

	// Notifier
	viper.BindEnv("notifier.send_timeout", "NOTIFIER_SEND_TIMEOUT")
	viper.BindEnv("notifier.rate_per_second", "NOTIFIER_RATE_PER_SECOND")
	viper.BindEnv("notifier.morning_message", "NOTIFIER_MORNING_MESSAGE")
	viper.BindEnv("notifier.midday_message", "NOTIFIER_MIDDAY_MESSAGE")
	viper.BindEnv("notifier.evening_message", "NOTIFIER_EVENING_MESSAGE")

	// Logger
	viper.BindEnv("logger.level", "LOG_LEVEL")
	viper.BindEnv("logger.format", "LOG_FORMAT")
	viper.BindEnv("logger.output", "LOG_OUTPUT")

	// Metrics
	viper.BindEnv("metrics.enabled", "ENABLE_METRICS")
}

// IsAdmin reports whether the given chat ID is in the admin allow-list.
func (cfg *BotConfig) IsAdmin(id int64) bool {
	for _, raw := range strings.Split(cfg.AdminIDs, ",") {
		admin, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			continue
		}
		if admin == id {
			return true
		}
	}
	return false
}

// Addr returns the liveness server listen address.
func (cfg *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

// IsDevelopment returns true if the environment is development
func (cfg *AppConfig) IsDevelopment() bool {
	return cfg.Environment == "development"
}
