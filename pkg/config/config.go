package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingConfig is returned by validators when a required value is blank.
var ErrMissingConfig = errors.New("missing required configuration")

// App holds application configuration.
type App struct {
	Name     string `mapstructure:"name"`
	Env      string `mapstructure:"env"`
	TimeZone string `mapstructure:"time_zone"`
}

// Logger holds logger configuration.
type Logger struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

// Database holds the store connection. URL carries host, port, user and database name;
// Password is kept apart so it can come from a secret store.
type Database struct {
	URL             string        `mapstructure:"url"`
	Password        string        `mapstructure:"password"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// Redis holds Redis configuration. An empty Host disables Redis.
type Redis struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	StreamMaxLen int64  `mapstructure:"stream_max_len"`
}

// Telegram holds configuration for the Telegram notifier. An empty BotToken disables it.
type Telegram struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// Scheduler holds the settings used when a job runs in schedule mode.
type Scheduler struct {
	Cron     string        `mapstructure:"cron"`
	HTTPAddr string        `mapstructure:"http_addr"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

// Load reads .env, the YAML file at path (optional) and the environment into cfg.
// Every key in defaults becomes bindable from the environment with "." replaced by "_",
// e.g. "database.url" is read from DATABASE_URL.
func Load(path string, defaults map[string]interface{}, cfg interface{}) error {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading configuration from environment variables")
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range CommonDefaults() {
		v.SetDefault(key, value)
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			log.Printf("Failed to read config file %s, continuing with environment variables: %v", path, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("decode configuration: %w", err)
	}
	return nil
}

// CommonDefaults returns the defaults shared by every binary.
func CommonDefaults() map[string]interface{} {
	return map[string]interface{}{
		"app.name":                   "insider-scanner",
		"app.env":                    "dev",
		"app.time_zone":              "America/New_York",
		"logger.level":               "info",
		"logger.encoding":            "console",
		"database.url":               "",
		"database.password":          "",
		"database.max_idle_conns":    2,
		"database.max_open_conns":    5,
		"database.conn_max_lifetime": "30m",
		"redis.host":                 "",
		"redis.port":                 6379,
		"redis.password":             "",
		"redis.db":                   0,
		"redis.pool_size":            5,
		"redis.stream_max_len":       10000,
		"telegram.bot_token":         "",
		"telegram.chat_id":           0,
		"scheduler.http_addr":        "",
		"scheduler.lock_ttl":         "15m",
	}
}

// Require returns ErrMissingConfig naming every env variable whose value is blank.
// The map is env name -> value.
func Require(values map[string]string, order ...string) error {
	var missing []string
	for _, name := range order {
		if strings.TrimSpace(values[name]) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s (set them in the environment or a .env file)", ErrMissingConfig, strings.Join(missing, ", "))
	}
	return nil
}
