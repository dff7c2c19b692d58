package app

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is loaded from the environment. Key material itself arrives as file
// paths plus one base64 secret so the process never shells out for it.
type Config struct {
	Issuer string `env:"STREAMGATE_ISSUER" envDefault:"streamgate"`

	AccessTokenTTL  time.Duration `env:"STREAMGATE_ACCESS_TTL" envDefault:"15m"`
	RefreshTokenTTL time.Duration `env:"STREAMGATE_REFRESH_TTL" envDefault:"720h"` // 30 days

	// KeyMode selects where signing/encryption keys come from:
	//   - "file": read PrivateKeyFile/PublicKeyFile and MasterKey (production)
	//   - "dev": generate ephemeral keys on startup; every token and stored
	//     secret dies with the process
	KeyMode        string `env:"STREAMGATE_KEY_MODE" envDefault:"file"`
	PrivateKeyFile string `env:"STREAMGATE_PRIVATE_KEY_FILE"`
	PublicKeyFile  string `env:"STREAMGATE_PUBLIC_KEY_FILE"`
	MasterKey      string `env:"STREAMGATE_MASTER_KEY"` // base64-encoded 256-bit key

	DatabaseFile string `env:"STREAMGATE_DATABASE_FILE" envDefault:"streamgate.db"`

	Env       string `env:"ENV" envDefault:"dev"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	Port                int           `env:"PORT" envDefault:"8080"`
	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
