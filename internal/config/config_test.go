package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danmuck/edgeinfer/internal/session"
	"github.com/danmuck/edgeinfer/internal/testutil/testlog"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	testlog.Start(t)
	cfg, err := Load(writeConfig(t, `port = "/dev/ttyUSB0"`+"\n"))
	require.NoError(t, err)

	want := Default()
	want.Port = "/dev/ttyUSB0"
	assert.Equal(t, want, cfg)
	assert.Equal(t, session.DefaultConfig(), cfg.Session)
}

func TestLoadDurationForms(t *testing.T) {
	testlog.Start(t)
	cfg, err := Load(writeConfig(t, `
port = "COM3"
value_delay = "2ms"
record_delay_ms = 10
response_timeout = "500ms"
response_timeout_ms = 750
poll_interval = "5ms"
settle_delay = "0s"
open_attempts = 4
open_retry_delay_ms = 100
`))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Millisecond, cfg.Session.ValueDelay)
	assert.Equal(t, 10*time.Millisecond, cfg.Session.RecordDelay)
	assert.Equal(t, 750*time.Millisecond, cfg.Session.ResponseTimeout)
	assert.Equal(t, 5*time.Millisecond, cfg.Session.PollInterval)
	assert.Equal(t, time.Duration(0), cfg.SettleDelay)
	assert.Equal(t, 4, cfg.OpenAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.OpenBackoff.InitialDelay)
	assert.Equal(t, 100*time.Millisecond, cfg.LinkConfig().Backoff.InitialDelay)
}

func TestLoadZeroThreshold(t *testing.T) {
	testlog.Start(t)
	cfg, err := Load(writeConfig(t, "port = \"COM3\"\ninput = \"in.csv\"\nthreshold = 0\n"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate(true))
	assert.Zero(t, cfg.SessionConfig().Threshold)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	testlog.Start(t)
	_, err := Load(writeConfig(t, `value_delay = "fast"`+"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse value_delay")
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	testlog.Start(t)
	_, err := Load(writeConfig(t, `prot = "/dev/ttyACM0"`+"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prot")
}

func TestLoadMissingFile(t *testing.T) {
	testlog.Start(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	testlog.Start(t)
	base := Default()
	base.Port = "/dev/ttyACM0"
	base.Input = "in.csv"
	require.NoError(t, base.Validate(true))

	cases := []struct {
		name   string
		mutate func(*Config)
		input  bool
		want   error
	}{
		{"missing port", func(c *Config) { c.Port = " " }, true, ErrMissingPort},
		{"missing input", func(c *Config) { c.Input = "" }, true, ErrMissingInput},
		{"missing output", func(c *Config) { c.AnomalyOutput = "" }, true, ErrMissingOutput},
		{"same output", func(c *Config) { c.AnomalyOutput = c.NormalOutput }, true, ErrSameOutput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(tc.input), tc.want)
		})
	}

	noInput := base
	noInput.Input = ""
	assert.NoError(t, noInput.Validate(false))

	negative := base
	negative.Session.RecordDelay = -time.Millisecond
	assert.Error(t, negative.Validate(true))

	noAttempts := base
	noAttempts.OpenAttempts = 0
	assert.Error(t, noAttempts.Validate(true))

	zeroThreshold := base
	zeroThreshold.Session.Threshold = 0
	assert.NoError(t, zeroThreshold.Validate(true))
	assert.Zero(t, zeroThreshold.SessionConfig().Threshold)

	negativeThreshold := base
	negativeThreshold.Session.Threshold = -1
	assert.Error(t, negativeThreshold.Validate(true))

	zeroFields := base
	zeroFields.Session.FieldCount = 0
	assert.Error(t, zeroFields.Validate(true))
}

func TestTemplatesLoadAndValidate(t *testing.T) {
	testlog.Start(t)
	for _, kind := range []string{"inferctl", "bench"} {
		t.Run(kind, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), kind+".toml")
			require.NoError(t, WriteTemplate(path, kind, false))

			cfg, err := Load(path)
			require.NoError(t, err)
			require.NoError(t, cfg.Validate(true))
			assert.Equal(t, 140, cfg.Session.FieldCount)

			err = WriteTemplate(path, kind, false)
			require.Error(t, err)
			require.NoError(t, WriteTemplate(path, kind, true))
		})
	}
	_, err := Template("ghost")
	require.Error(t, err)
}

func TestLinkAndSessionConfig(t *testing.T) {
	testlog.Start(t)
	cfg := Default()
	cfg.Port = "/dev/ttyACM1"
	cfg.Session.PollInterval = 10 * time.Second

	lc := cfg.LinkConfig()
	assert.Equal(t, "/dev/ttyACM1", lc.Name)
	assert.Equal(t, 115200, lc.Baud)

	sc := cfg.SessionConfig()
	assert.Equal(t, sc.ResponseTimeout, sc.PollInterval)
}
