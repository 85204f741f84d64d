package main

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/avoronin/portalctl/internal/api"
)

func TestConfig(t *testing.T) {
	t.Run("set default option", func(t *testing.T) {
		c := NewConfig()

		require.Equal(t, api.DefaultBaseURL, c.APIURL, "default API URL not set")
		require.Equal(t, "info", c.LogLevel, "default log level not set")
		require.Equal(t, "production", c.Environment, "default environment not set")
	})

	t.Run("default state file follows XDG", func(t *testing.T) {
		t.Setenv("XDG_STATE_HOME", "/tmp/xdg-state")

		c := NewConfig()

		require.Equal(t, "/tmp/xdg-state/portalctl/session.json", c.StateFile)
	})

	t.Run("load env", func(t *testing.T) {
		c := NewConfig()
		getenv := func(key string) string {
			switch key {
			case "PORTAL_API_URL":
				return "http://localhost:9000"
			case "PORTAL_STATE_FILE":
				return "/tmp/portal/session.json"
			case "LOG_LEVEL":
				return "debug"
			case "ENVIRONMENT":
				return "development"
			default:
				return ""
			}
		}

		c.LoadEnv(getenv)

		require.Equal(t, "http://localhost:9000", c.APIURL)
		require.Equal(t, "/tmp/portal/session.json", c.StateFile)
		require.Equal(t, "debug", c.LogLevel)
		require.Equal(t, "development", c.Environment)
	})

	t.Run("empty env keeps defaults", func(t *testing.T) {
		c := NewConfig()
		want := *c

		c.LoadEnv(func(string) string { return "" })

		require.Equal(t, want, *c, "empty env values must not override defaults")
	})

	t.Run("parse flags", func(t *testing.T) {
		tests := []struct {
			name  string
			flags []string
		}{
			{
				name: "short",
				flags: []string{
					"-u", "http://localhost:9000",
					"--state-file", "/tmp/portal/session.json",
					"-l", "debug",
					"-e", "development",
				},
			},
			{
				name: "long",
				flags: []string{
					"--api-url", "http://localhost:9000",
					"--state-file", "/tmp/portal/session.json",
					"--log-level", "debug",
					"--environment", "development",
				},
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				c := NewConfig()
				fs := pflag.NewFlagSet("portalctl", pflag.ContinueOnError)
				c.RegisterFlags(fs)

				err := fs.Parse(tt.flags)

				require.NoError(t, err, "correct flags must be parsed without error")
				require.Equal(t, "http://localhost:9000", c.APIURL)
				require.Equal(t, "/tmp/portal/session.json", c.StateFile)
				require.Equal(t, "debug", c.LogLevel)
				require.Equal(t, "development", c.Environment)
			})
		}
	})

	t.Run("invalid flags", func(t *testing.T) {
		c := NewConfig()
		fs := pflag.NewFlagSet("portalctl", pflag.ContinueOnError)
		c.RegisterFlags(fs)

		err := fs.Parse([]string{"--invalid-flag", "value"})

		require.Error(t, err, "invalid flag should return an error")
	})
}
