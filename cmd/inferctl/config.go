package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/danmuck/edgeinfer/internal/config"
)

// options holds flags shared by run and send. Flags left unset on the
// command line never override the config file.
type options struct {
	configPath string
	logLevel   string
	noColor    bool
	report     string

	port            string
	baud            int
	settleDelay     time.Duration
	openAttempts    int
	normalOutput    string
	anomalyOutput   string
	appendOutputs   bool
	threshold       float64
	fieldCount      int
	valueDelay      time.Duration
	recordDelay     time.Duration
	responseTimeout time.Duration
	metricsAddr     string
}

func (o *options) register(root *cobra.Command) {
	d := config.Default()
	f := root.PersistentFlags()
	f.StringVarP(&o.configPath, "config", "c", "", "TOML config file")
	f.StringVar(&o.logLevel, "log-level", "", "log level (trace|debug|info|warn|error)")
	f.BoolVar(&o.noColor, "no-color", false, "disable coloured diagnostics")
	f.StringVar(&o.report, "report", "", "also write every diagnostic line to this file")

	f.StringVarP(&o.port, "port", "p", "", "serial device, e.g. /dev/ttyACM0 or COM3")
	f.IntVar(&o.baud, "baud", d.Baud, "baud rate")
	f.DurationVar(&o.settleDelay, "settle-delay", d.SettleDelay, "wait after open while the device resets")
	f.IntVar(&o.openAttempts, "open-attempts", d.OpenAttempts, "retry opening the port this many times")
	f.StringVar(&o.normalOutput, "normal-output", d.NormalOutput, "destination for normal rows")
	f.StringVar(&o.anomalyOutput, "anomaly-output", d.AnomalyOutput, "destination for anomaly rows")
	f.BoolVar(&o.appendOutputs, "append", d.AppendOutputs, "append to outputs instead of truncating them")
	f.Float64Var(&o.threshold, "threshold", d.Session.Threshold, "similarity at or above this is normal")
	f.IntVar(&o.fieldCount, "field-count", d.Session.FieldCount, "values per frame")
	f.DurationVar(&o.valueDelay, "value-delay", d.Session.ValueDelay, "pause between values of one frame")
	f.DurationVar(&o.recordDelay, "record-delay", d.Session.RecordDelay, "pause between records")
	f.DurationVar(&o.responseTimeout, "response-timeout", d.Session.ResponseTimeout, "how long to wait for a reply")
	f.StringVar(&o.metricsAddr, "metrics-addr", d.MetricsAddr, "serve /health, /status and /metrics on this address")
}

// resolve loads the config file, if any, and applies every flag the user set.
func (o *options) resolve(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Port = o.port
	}
	if flags.Changed("baud") {
		cfg.Baud = o.baud
	}
	if flags.Changed("settle-delay") {
		cfg.SettleDelay = o.settleDelay
	}
	if flags.Changed("open-attempts") {
		cfg.OpenAttempts = o.openAttempts
	}
	if flags.Changed("normal-output") {
		cfg.NormalOutput = o.normalOutput
	}
	if flags.Changed("anomaly-output") {
		cfg.AnomalyOutput = o.anomalyOutput
	}
	if flags.Changed("append") {
		cfg.AppendOutputs = o.appendOutputs
	}
	if flags.Changed("threshold") {
		cfg.Session.Threshold = o.threshold
	}
	if flags.Changed("field-count") {
		cfg.Session.FieldCount = o.fieldCount
	}
	if flags.Changed("value-delay") {
		cfg.Session.ValueDelay = o.valueDelay
	}
	if flags.Changed("record-delay") {
		cfg.Session.RecordDelay = o.recordDelay
	}
	if flags.Changed("response-timeout") {
		cfg.Session.ResponseTimeout = o.responseTimeout
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = o.metricsAddr
	}
	return cfg, nil
}
