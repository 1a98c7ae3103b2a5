package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// InsecureDefaultJWTSecret is used when JWT_SECRET is unset. Anyone who knows
// it can forge admin sessions, so the server logs a warning when it is active.
const InsecureDefaultJWTSecret = "web3nav-dev-secret-change-me"

// Config holds application level configuration loaded from environment variables
// and an optional web3nav.yaml file.
type Config struct {
	ServerPort   string
	DatabaseURL  string
	JWTSecret    string
	CookieSecure bool
	RedisAddr    string
	RedisDB      int
	RedisPass    string
	SwaggerHost  string
	LogLevel     string
	ResetDB      bool

	DBMaxRetries      int
	DBRetryBaseDelay  time.Duration
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	// LoginRateLimit is the number of login attempts allowed per IP per minute.
	LoginRateLimit int
}

// UsingDefaultSecret reports whether the signing secret fell back to the
// built-in development value.
func (c *Config) UsingDefaultSecret() bool {
	return c.JWTSecret == InsecureDefaultJWTSecret
}

// Load builds Config from environment with sensible defaults.
func Load() *Config {
	return FromViper(newViper())
}

// FromViper reads a Config out of an already populated viper instance.
func FromViper(v *viper.Viper) *Config {
	secret := v.GetString("jwt_secret")
	if secret == "" {
		secret = InsecureDefaultJWTSecret
	}

	return &Config{
		ServerPort:        v.GetString("server_port"),
		DatabaseURL:       v.GetString("database_url"),
		JWTSecret:         secret,
		CookieSecure:      v.GetBool("cookie_secure"),
		RedisAddr:         v.GetString("redis_addr"),
		RedisDB:           v.GetInt("redis_db"),
		RedisPass:         v.GetString("redis_password"),
		SwaggerHost:       v.GetString("swagger_host"),
		LogLevel:          v.GetString("log_level"),
		ResetDB:           v.GetBool("reset_db"),
		DBMaxRetries:      v.GetInt("db_max_retries"),
		DBRetryBaseDelay:  v.GetDuration("db_retry_base_delay"),
		DBMaxOpenConns:    v.GetInt("db_max_open_conns"),
		DBMaxIdleConns:    v.GetInt("db_max_idle_conns"),
		DBConnMaxLifetime: v.GetDuration("db_conn_max_lifetime"),
		LoginRateLimit:    v.GetInt("login_rate_limit"),
	}
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("server_port", "8080")
	v.SetDefault("database_url", "")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("cookie_secure", false)
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_password", "")
	v.SetDefault("swagger_host", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("reset_db", false)
	v.SetDefault("db_max_retries", 2)
	v.SetDefault("db_retry_base_delay", time.Second)
	v.SetDefault("db_max_open_conns", 10)
	v.SetDefault("db_max_idle_conns", 5)
	v.SetDefault("db_conn_max_lifetime", 30*time.Minute)
	v.SetDefault("login_rate_limit", 10)

	v.SetConfigName("web3nav")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/web3nav")

	// Environment variables use the upper-cased key: DATABASE_URL, JWT_SECRET...
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.ReadInConfig() // config file is optional

	return v
}
