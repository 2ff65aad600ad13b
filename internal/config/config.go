package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"15"`
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
	} `envPrefix:"SERVER_"`
	Database struct {
		Driver             string `env:"DRIVER" envDefault:"postgres"`
		DSN                string `env:"DSN"`
		ConnectTimeout     int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout       int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		TransactionTimeout int    `env:"TRANSACTION_TIMEOUT" envDefault:"20"`
		MaxOpenConns       int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns       int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime        int    `env:"MAX_IDLE_TIME" envDefault:"60"`
	} `envPrefix:"DATABASE_"`
	Redis struct {
		Enabled             bool   `env:"ENABLED" envDefault:"false"`
		Host                string `env:"HOST" envDefault:"localhost"`
		Port                int    `env:"PORT" envDefault:"6379"`
		Password            string `env:"PASSWORD"`
		ConnectTimeout      int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		OperationExpiration int    `env:"OPERATION_EXPIRATION" envDefault:"10"`
	} `envPrefix:"REDIS_"`
	Cache struct {
		WeekTTL int `env:"WEEK_TTL" envDefault:"3600"` // 1 小时
	} `envPrefix:"CACHE_"`
	RabbitMQ struct {
		DSN            string `env:"DSN"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
	} `envPrefix:"RABBITMQ_"`
	Email struct {
		Recipients []string `env:"RECIPIENTS" envSeparator:","`
		SMTP       struct {
			Username    string `env:"USERNAME"`
			Password    string `env:"PASSWORD"`
			Host        string `env:"HOST"`
			Port        int    `env:"PORT" envDefault:"465"`
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
	} `envPrefix:"EMAIL_"`
	Auth struct {
		Enabled      bool   `env:"ENABLED" envDefault:"false"`
		Username     string `env:"USERNAME" envDefault:"manager"`
		PasswordHash string `env:"PASSWORD_HASH"`
		JWT          struct {
			Secret     string `env:"SECRET"`
			Expiration int    `env:"EXPIRATION" envDefault:"1209600"` // 14 天
		} `envPrefix:"JWT_"`
	} `envPrefix:"AUTH_"`
	CORS struct {
		AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
	} `envPrefix:"CORS_"`
	RateLimit struct {
		Requests int `env:"REQUESTS" envDefault:"100"`
		Window   int `env:"WINDOW" envDefault:"60"`
	} `envPrefix:"RATE_LIMIT_"`
	Metrics struct {
		Enabled bool `env:"ENABLED" envDefault:"true"`
	} `envPrefix:"METRICS_"`
}

// LoadConfig 先尝试加载工作目录下的 .env，再从环境变量解析配置
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	return Parse()
}

func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// 只返回第一个错误使得日志更清晰
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (cfg *Config) validate() error {
	switch cfg.Database.Driver {
	case DriverPostgres:
		if cfg.Database.DSN == "" {
			return errors.New("DATABASE_DSN is required when DATABASE_DRIVER is postgres")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown DATABASE_DRIVER %q", cfg.Database.Driver)
	}

	if cfg.Auth.Enabled {
		if cfg.Auth.PasswordHash == "" {
			return errors.New("AUTH_PASSWORD_HASH is required when auth is enabled")
		}
		if cfg.Auth.JWT.Secret == "" {
			return errors.New("AUTH_JWT_SECRET is required when auth is enabled")
		}
	}

	return nil
}

func (cfg *Config) IsProduction() bool {
	return cfg.Environment == "production"
}
