package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/akondratenko/tokengate/internal/logger"
)

const (
	defaultListenAddr   = "localhost:8000"
	defaultLoggingLevel = logger.LevelInfo
	defaultEnvironment  = logger.EnvProduction
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the tokengate service will be run
	ListenAddr string

	// Database to connect to
	// In-memory principal store with a demo user is used when empty
	DatabaseDSN string

	// Secret key of the credential flow signing context
	SecretKey string

	// Secret key of the federated flow signing context
	// Deliberately separate from SecretKey: tokens must not cross the flows
	GoogleSecretKey string

	// OAuth client credentials registered with Google
	GoogleClientID     string
	GoogleClientSecret string

	// Google endpoint overrides, production endpoints if empty
	GoogleTokenURL     string
	GoogleTokenInfoURL string

	// Environment
	Environment string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:    defaultLoggingLevel,
		ListenAddr:  defaultListenAddr,
		Environment: defaultEnvironment,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		c.LoadEnv(func(key string) string {
			return envMap[key]
		})
		return nil
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}

	envMap := map[string]func(string){
		"RUN_ADDRESS":          setString(&c.ListenAddr),
		"DATABASE_URI":         setString(&c.DatabaseDSN),
		"SECRET_KEY":           setString(&c.SecretKey),
		"GOOGLE_SECRET_KEY":    setString(&c.GoogleSecretKey),
		"GOOGLE_CLIENT_ID":     setString(&c.GoogleClientID),
		"GOOGLE_CLIENT_SECRET": setString(&c.GoogleClientSecret),
		"GOOGLE_TOKEN_URL":     setString(&c.GoogleTokenURL),
		"GOOGLE_TOKENINFO_URL": setString(&c.GoogleTokenInfoURL),
		"LOG_LEVEL":            setString(&c.LogLevel),
		"ENVIRONMENT":          setString(&c.Environment),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("tokengate", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Secret key of the credential flow")
	fs.StringVar(&c.GoogleSecretKey, "google-secret-key", c.GoogleSecretKey, "Secret key of the federated flow")
	fs.StringVar(&c.GoogleClientID, "google-client-id", c.GoogleClientID, "Google OAuth client id")
	fs.StringVar(&c.GoogleClientSecret, "google-client-secret", c.GoogleClientSecret, "Google OAuth client secret")
	fs.StringVar(&c.GoogleTokenURL, "google-token-url", c.GoogleTokenURL, "Google token endpoint override")
	fs.StringVar(&c.GoogleTokenInfoURL, "google-tokeninfo-url", c.GoogleTokenInfoURL, "Google tokeninfo endpoint override")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")

	return fs.Parse(args)
}

// Validate enforces the production posture: running prod with a missing
// signing key is a configuration error, not something to paper over with a
// generated fallback.
func (c *Config) Validate() error {
	if c.Environment != logger.EnvProduction {
		return nil
	}

	if c.SecretKey == "" {
		return fmt.Errorf("SECRET_KEY must be set in %s environment", logger.EnvProduction)
	}
	if c.GoogleSecretKey == "" {
		return fmt.Errorf("GOOGLE_SECRET_KEY must be set in %s environment", logger.EnvProduction)
	}

	return nil
}
