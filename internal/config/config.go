package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/edgeinfer/internal/link"
	"github.com/danmuck/edgeinfer/internal/session"
)

var (
	ErrMissingPort   = errors.New("config: port is required")
	ErrMissingInput  = errors.New("config: input is required")
	ErrMissingOutput = errors.New("config: output paths are required")
	ErrSameOutput    = errors.New("config: normal_output and anomaly_output must differ")
)

// Config is the resolved inferctl configuration.
type Config struct {
	Port           string
	Baud           int
	SettleDelay    time.Duration
	OpenAttempts   int
	OpenBackoff    link.Backoff
	Input          string
	NormalOutput   string
	AnomalyOutput  string
	AppendOutputs  bool
	Session        session.Config
	MetricsAddr    string
	ProgressBuffer int
}

func Default() Config {
	lc := link.DefaultConfig()
	return Config{
		Baud:           lc.Baud,
		SettleDelay:    lc.SettleDelay,
		OpenAttempts:   lc.OpenAttempts,
		OpenBackoff:    lc.Backoff,
		NormalOutput:   "normal.csv",
		AnomalyOutput:  "anomaly.csv",
		Session:        session.DefaultConfig(),
		ProgressBuffer: 64,
	}
}

type fileConfig struct {
	Port              string  `toml:"port"`
	Baud              int     `toml:"baud"`
	SettleDelay       string  `toml:"settle_delay"`
	SettleDelayMS     int64   `toml:"settle_delay_ms"`
	OpenAttempts      int     `toml:"open_attempts"`
	OpenRetryDelay    string  `toml:"open_retry_delay"`
	OpenRetryDelayMS  int64   `toml:"open_retry_delay_ms"`
	Input             string  `toml:"input"`
	NormalOutput      string  `toml:"normal_output"`
	AnomalyOutput     string  `toml:"anomaly_output"`
	AppendOutputs     bool    `toml:"append_outputs"`
	ValueDelay        string  `toml:"value_delay"`
	ValueDelayMS      int64   `toml:"value_delay_ms"`
	RecordDelay       string  `toml:"record_delay"`
	RecordDelayMS     int64   `toml:"record_delay_ms"`
	ResponseTimeout   string  `toml:"response_timeout"`
	ResponseTimeoutMS int64   `toml:"response_timeout_ms"`
	PollInterval      string  `toml:"poll_interval"`
	PollIntervalMS    int64   `toml:"poll_interval_ms"`
	Threshold         float64 `toml:"threshold"`
	FieldCount        int     `toml:"field_count"`
	MetricsAddr       string  `toml:"metrics_addr"`
	ProgressBuffer    int     `toml:"progress_buffer"`
}

// Load reads path over Default. Keys absent from the file keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("port") {
		cfg.Port = strings.TrimSpace(raw.Port)
	}
	if meta.IsDefined("baud") {
		cfg.Baud = raw.Baud
	}
	if meta.IsDefined("open_attempts") {
		cfg.OpenAttempts = raw.OpenAttempts
	}
	if meta.IsDefined("input") {
		cfg.Input = strings.TrimSpace(raw.Input)
	}
	if meta.IsDefined("normal_output") {
		cfg.NormalOutput = strings.TrimSpace(raw.NormalOutput)
	}
	if meta.IsDefined("anomaly_output") {
		cfg.AnomalyOutput = strings.TrimSpace(raw.AnomalyOutput)
	}
	if meta.IsDefined("append_outputs") {
		cfg.AppendOutputs = raw.AppendOutputs
	}
	if meta.IsDefined("threshold") {
		cfg.Session.Threshold = raw.Threshold
	}
	if meta.IsDefined("field_count") {
		cfg.Session.FieldCount = raw.FieldCount
	}
	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}
	if meta.IsDefined("progress_buffer") {
		cfg.ProgressBuffer = raw.ProgressBuffer
	}

	durations := []struct {
		key  string
		text string
		ms   int64
		dst  *time.Duration
	}{
		{"settle_delay", raw.SettleDelay, raw.SettleDelayMS, &cfg.SettleDelay},
		{"open_retry_delay", raw.OpenRetryDelay, raw.OpenRetryDelayMS, &cfg.OpenBackoff.InitialDelay},
		{"value_delay", raw.ValueDelay, raw.ValueDelayMS, &cfg.Session.ValueDelay},
		{"record_delay", raw.RecordDelay, raw.RecordDelayMS, &cfg.Session.RecordDelay},
		{"response_timeout", raw.ResponseTimeout, raw.ResponseTimeoutMS, &cfg.Session.ResponseTimeout},
		{"poll_interval", raw.PollInterval, raw.PollIntervalMS, &cfg.Session.PollInterval},
	}
	for _, d := range durations {
		if meta.IsDefined(d.key) {
			v, err := time.ParseDuration(strings.TrimSpace(d.text))
			if err != nil {
				return Config{}, fmt.Errorf("parse %s: %w", d.key, err)
			}
			*d.dst = v
		}
		// the _ms form wins when both are set
		if meta.IsDefined(d.key + "_ms") {
			*d.dst = time.Duration(d.ms) * time.Millisecond
		}
	}

	return cfg, nil
}

// Validate checks the fields a run needs. requireInput is false for the
// send command, which takes its record from the command line.
func (c Config) Validate(requireInput bool) error {
	if strings.TrimSpace(c.Port) == "" {
		return ErrMissingPort
	}
	if c.Baud <= 0 {
		return fmt.Errorf("config: baud must be positive, got %d", c.Baud)
	}
	if c.OpenAttempts < 1 {
		return fmt.Errorf("config: open_attempts must be at least 1, got %d", c.OpenAttempts)
	}
	if requireInput && strings.TrimSpace(c.Input) == "" {
		return ErrMissingInput
	}
	if strings.TrimSpace(c.NormalOutput) == "" || strings.TrimSpace(c.AnomalyOutput) == "" {
		return ErrMissingOutput
	}
	if c.NormalOutput == c.AnomalyOutput {
		return ErrSameOutput
	}
	if c.Session.FieldCount <= 0 {
		return fmt.Errorf("config: field_count must be positive, got %d", c.Session.FieldCount)
	}
	if c.Session.Threshold < 0 || math.IsNaN(c.Session.Threshold) {
		return fmt.Errorf("config: threshold must not be negative, got %g", c.Session.Threshold)
	}
	for name, d := range map[string]time.Duration{
		"settle_delay":     c.SettleDelay,
		"open_retry_delay": c.OpenBackoff.InitialDelay,
		"value_delay":      c.Session.ValueDelay,
		"record_delay":     c.Session.RecordDelay,
		"response_timeout": c.Session.ResponseTimeout,
		"poll_interval":    c.Session.PollInterval,
	} {
		if d < 0 {
			return fmt.Errorf("config: %s must not be negative, got %s", name, d)
		}
	}
	if c.Session.ResponseTimeout == 0 {
		return fmt.Errorf("config: response_timeout must be positive")
	}
	if c.ProgressBuffer < 0 {
		return fmt.Errorf("config: progress_buffer must not be negative, got %d", c.ProgressBuffer)
	}
	return nil
}

func (c Config) LinkConfig() link.Config {
	return link.Config{
		Name:         c.Port,
		Baud:         c.Baud,
		SettleDelay:  c.SettleDelay,
		OpenAttempts: c.OpenAttempts,
		Backoff:      c.OpenBackoff,
	}
}

func (c Config) SessionConfig() session.Config {
	return c.Session.WithDefaults()
}

// Summary is a one-line description used in startup logs.
func (c Config) Summary() string {
	return fmt.Sprintf("port=%s baud=%d fields=%d threshold=%g timeout=%s",
		c.Port, c.Baud, c.Session.FieldCount, c.Session.Threshold, c.Session.ResponseTimeout)
}
