package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	}

	Redis struct {
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Discord struct {
		Token string `env:"DISCORD_TOKEN,required"`

		// Guild exempt from all premium quota checks.
		HomeGuildID string `env:"HOME_GUILD_ID" envDefault:""`

		CommandPrefix string `env:"COMMAND_PREFIX" envDefault:"!"`
	}

	Premium struct {
		APIURL   string        `env:"PREMIUM_API_URL" envDefault:""`
		APIToken string        `env:"PREMIUM_API_TOKEN" envDefault:""`
		CacheTTL time.Duration `env:"PREMIUM_CACHE_TTL" envDefault:"5m"`
	}

	Sweep struct {
		Interval time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
	}
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		// A missing .env file is fine; production sets variables directly.
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		panic(err)
	}

	return cfg
}
