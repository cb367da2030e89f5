package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	DBHost             string `mapstructure:"DB_HOST"`
	DBName             string `mapstructure:"DB_NAME"`
	DBUser             string `mapstructure:"DB_USER"`
	DBPort             string `mapstructure:"DB_PORT"`
	DBPassword         string `mapstructure:"DB_PASSWORD"`
	GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	RedirectURL        string `mapstructure:"REDIRECT_URL"`
	// SessionSecret must be a base64-encoded 32 byte key; it encrypts the
	// session cookie.
	SessionSecret string `mapstructure:"SESSION_SECRET"`
	ListenAddr    string `mapstructure:"LISTEN_ADDR"`
}

var envs = []string{
	"DB_HOST", "DB_NAME", "DB_USER", "DB_PORT", "DB_PASSWORD",
	"GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", "REDIRECT_URL",
	"SESSION_SECRET", "LISTEN_ADDR",
}

// LoadConfig reads configuration from an optional .env file and the process
// environment. Every credential the service needs must be present at startup;
// a missing value is an error here, not a surprise at request time.
func LoadConfig() (Config, error) {
	var config Config
	v := viper.New()
	v.AddConfigPath("./")
	v.SetConfigFile(".env")
	v.ReadInConfig()
	v.SetDefault("LISTEN_ADDR", ":8000")
	for _, env := range envs {
		if err := v.BindEnv(env); err != nil {
			return config, err
		}
	}
	if err := v.Unmarshal(&config); err != nil {
		return config, err
	}
	if err := config.validate(); err != nil {
		return config, err
	}
	return config, nil
}

func (c Config) validate() error {
	required := map[string]string{
		"DB_HOST":              c.DBHost,
		"DB_NAME":              c.DBName,
		"DB_USER":              c.DBUser,
		"DB_PORT":              c.DBPort,
		"DB_PASSWORD":          c.DBPassword,
		"GOOGLE_CLIENT_ID":     c.GoogleClientID,
		"GOOGLE_CLIENT_SECRET": c.GoogleClientSecret,
		"REDIRECT_URL":         c.RedirectURL,
		"SESSION_SECRET":       c.SessionSecret,
	}
	for _, env := range envs {
		val, ok := required[env]
		if ok && val == "" {
			return fmt.Errorf("missing required configuration: %s", env)
		}
	}
	return nil
}

// DSN builds the Postgres connection string the same way the rest of the
// config is assembled: purely from environment values.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s dbname=%s port=%s password=%s",
		c.DBHost, c.DBUser, c.DBName, c.DBPort, c.DBPassword)
}
