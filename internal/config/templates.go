package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "inferctl", "run":
		return inferctlTemplate, nil
	case "bench":
		return benchTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const inferctlTemplate = `port = "/dev/ttyACM0"
baud = 115200
settle_delay = "2s"
open_attempts = 3
open_retry_delay = "500ms"

input = "samples.csv"
normal_output = "normal.csv"
anomaly_output = "anomaly.csv"
append_outputs = false

field_count = 140
threshold = 80.0

value_delay = "1ms"
record_delay = "50ms"
response_timeout = "2s"
poll_interval = "50ms"

# metrics_addr = "127.0.0.1:9464"
progress_buffer = 64
`

// benchTemplate drops pacing for firmware builds with a larger UART buffer.
const benchTemplate = `port = "/dev/ttyACM0"
baud = 921600
settle_delay_ms = 500
open_attempts = 5
open_retry_delay_ms = 250

input = "samples.csv"
normal_output = "normal.csv"
anomaly_output = "anomaly.csv"
append_outputs = true

field_count = 140
threshold = 80.0

value_delay_ms = 0
record_delay_ms = 0
response_timeout = "1s"
poll_interval = "10ms"

metrics_addr = "127.0.0.1:9464"
progress_buffer = 256
`
