package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "known_faces", cfg.RosterRoot)
	assert.Equal(t, "face_time_report.csv", cfg.DurationSource)
	assert.Equal(t, 300.0, cfg.ExpectedMinutes)
	assert.Equal(t, ',', cfg.Delimiter())
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:8080"}, cfg.Server.CORS.AllowOrigins)
	assert.Equal(t, "attendance.db", cfg.DB.Path)
	assert.Equal(t, time.Duration(0), cfg.Snapshot.Interval)
	assert.Equal(t, "info", cfg.Log.Level)

	opts := cfg.Options()
	assert.True(t, opts.ExpectedMinutes.Equal(attendance.DefaultExpectedMinutes))
	assert.Equal(t, attendance.LastWins, opts.Duplicates)
}

func TestLoad_FileEnvAndFlagPrecedence(t *testing.T) {
	// GIVEN: A config file, an env override and a set flag
	path := writeConfig(t, `
roster_root: /srv/faces
duration_source: /srv/report.csv
expected_minutes: 120
duplicate_policy: first
csv_delimiter: ";"
server:
  port: 9000
snapshot:
  interval: 15m
`)
	t.Setenv("ATTENDANCE_SERVER_PORT", "9100")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("roster", "", "")
	flags.Float64("expected", 0, "")
	require.NoError(t, flags.Parse([]string{"--roster", "/tmp/faces"}))

	// WHEN: Loading
	cfg, err := config.Load(path, flags)
	require.NoError(t, err)

	// THEN: Flag beats file, env beats file, file beats defaults
	assert.Equal(t, "/tmp/faces", cfg.RosterRoot)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "/srv/report.csv", cfg.DurationSource)
	assert.Equal(t, 120.0, cfg.ExpectedMinutes)
	assert.Equal(t, ';', cfg.Delimiter())
	assert.Equal(t, 15*time.Minute, cfg.Snapshot.Interval)
	assert.Equal(t, attendance.FirstWins, cfg.Options().Duplicates)
}

func TestLoad_InvalidFileIsConfigurationError(t *testing.T) {
	path := writeConfig(t, "expected_minutes: [not, a, number\n")

	_, err := config.Load(path, nil)
	require.Error(t, err)
	assert.True(t, attendance.IsConfiguration(err))
}

func TestLoad_ExplicitMissingFileIsConfigurationError(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.Error(t, err)
	assert.True(t, attendance.IsConfiguration(err))
}

func TestValidate(t *testing.T) {
	valid := func() config.Config {
		return config.Config{
			RosterRoot:      "known_faces",
			DurationSource:  "face_time_report.csv",
			ExpectedMinutes: 300,
			CSVDelimiter:    ",",
			Server:          config.Server{Port: 8080},
			Log:             config.Log{Level: "info", Format: "json"},
		}
	}

	base := valid()
	require.NoError(t, base.Validate())

	cases := map[string]func(*config.Config){
		"expected_minutes":  func(c *config.Config) { c.ExpectedMinutes = 0 },
		"roster_root":       func(c *config.Config) { c.RosterRoot = " " },
		"duration_source":   func(c *config.Config) { c.DurationSource = "" },
		"duplicate_policy":  func(c *config.Config) { c.DuplicatePolicy = "newest" },
		"csv_delimiter":     func(c *config.Config) { c.CSVDelimiter = "::" },
		"server.port":       func(c *config.Config) { c.Server.Port = 70000 },
		"snapshot.interval": func(c *config.Config) { c.Snapshot.Interval = -time.Second },
		"log.format":        func(c *config.Config) { c.Log.Format = "xml" },
	}
	for setting, mutate := range cases {
		t.Run(setting, func(t *testing.T) {
			c := valid()
			mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.True(t, attendance.IsConfiguration(err))

			var cfgErr *attendance.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, setting, cfgErr.Setting)
		})
	}
}
