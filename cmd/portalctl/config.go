package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/avoronin/portalctl/internal/api"
	"github.com/avoronin/portalctl/internal/logger"
)

const (
	defaultAPIURL       = api.DefaultBaseURL
	defaultLoggingLevel = logger.LevelInfo
	defaultEnvironment  = logger.EnvProduction
)

type Config struct {
	// Portal backend base URL
	APIURL string

	// File the session token pair is persisted to.
	// Empty disables persistence: every run starts anonymous.
	StateFile string

	// Default logging level
	LogLevel string

	// Environment selects log format (text in development, JSON otherwise)
	Environment string
}

func NewConfig() *Config {
	return &Config{
		APIURL:      defaultAPIURL,
		StateFile:   defaultStateFile(),
		LogLevel:    defaultLoggingLevel,
		Environment: defaultEnvironment,
	}
}

// defaultStateFile follows XDG: $XDG_STATE_HOME/portalctl/session.json with
// the usual ~/.local/state fallback. Empty when no home is resolvable, which
// leaves the tool stateless.
func defaultStateFile() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "portalctl", "session.json")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "portalctl", "session.json")
}

// Load variables from '.env' file (should be located at working directory)
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
		"PORTAL_API_URL":    setString(&c.APIURL),
		"PORTAL_STATE_FILE": setString(&c.StateFile),
		"LOG_LEVEL":         setString(&c.LogLevel),
		"ENVIRONMENT":       setString(&c.Environment),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

// RegisterFlags binds the config fields to the given flag set. Flags win
// over environment values because they are parsed later.
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.APIURL, "api-url", "u", c.APIURL, "Portal API base URL")
	fs.StringVar(&c.StateFile, "state-file", c.StateFile, "Session state file path")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (development, production)")
}
