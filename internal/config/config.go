package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`

	DBDriver         string        `mapstructure:"DB_DRIVER"`
	SQLitePath       string        `mapstructure:"SQLITE_PATH"`
	PostgresURL      string        `mapstructure:"POSTGRES_URL"`
	DBHost           string        `mapstructure:"DB_HOST"`
	DBPort           string        `mapstructure:"DB_PORT"`
	DBName           string        `mapstructure:"DB_NAME"`
	DBUser           string        `mapstructure:"DB_USER"`
	DBPassword       string        `mapstructure:"DB_PASSWORD"`
	DBSSL            bool          `mapstructure:"DB_SSL"`
	DBMaxConns       int32         `mapstructure:"DB_MAX_CONNS"`
	DBConnectTimeout time.Duration `mapstructure:"DB_CONNECT_TIMEOUT"`
	DBIdleTimeout    time.Duration `mapstructure:"DB_IDLE_TIMEOUT"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	JWTSecret  string        `mapstructure:"JWT_SECRET"`
	TokenTTL   time.Duration `mapstructure:"TOKEN_TTL"`
	BcryptCost int           `mapstructure:"BCRYPT_COST"`
	AdminToken string        `mapstructure:"ADMIN_TOKEN"`

	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	LogLevel       string `mapstructure:"LOG_LEVEL"`
	SeedDemo       bool   `mapstructure:"SEED_DEMO"`

	DiaryPort   string `mapstructure:"DIARY_PORT"`
	UploadDir   string `mapstructure:"UPLOAD_DIR"`
	MaxUploadMB int    `mapstructure:"MAX_UPLOAD_MB"`
}

func Load() Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("SERVER_PORT", ":3000")
	v.SetDefault("DB_DRIVER", "")
	v.SetDefault("SQLITE_PATH", "milestomemories.db")
	v.SetDefault("POSTGRES_URL", "")
	v.SetDefault("DB_HOST", "")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "milestomemories")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_SSL", false)
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_CONNECT_TIMEOUT", 2*time.Second)
	v.SetDefault("DB_IDLE_TIMEOUT", 30*time.Second)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("JWT_SECRET", "your-secret-key")
	v.SetDefault("TOKEN_TTL", 7*24*time.Hour)
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("ADMIN_TOKEN", "")
	v.SetDefault("ALLOWED_ORIGINS", "*")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SEED_DEMO", false)
	v.SetDefault("DIARY_PORT", ":5001")
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("MAX_UPLOAD_MB", 5)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return cfg
}

// Driver resolves which storage engine to open. An explicit DB_DRIVER wins;
// otherwise PostgreSQL is used whenever connection details are present.
func (c Config) Driver() string {
	switch c.DBDriver {
	case DriverPostgres, DriverSQLite:
		return c.DBDriver
	}
	if c.PostgresURL != "" || c.DBHost != "" {
		return DriverPostgres
	}
	return DriverSQLite
}

// PostgresDSN builds a connection URL from the discrete DB_* settings unless
// POSTGRES_URL is set.
func (c Config) PostgresDSN() string {
	if c.PostgresURL != "" {
		return c.PostgresURL
	}
	sslMode := "disable"
	if c.DBSSL {
		sslMode = "require"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     fmt.Sprintf("%s:%s", c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + sslMode,
	}
	return u.String()
}
