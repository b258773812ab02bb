package session

import "time"

// Summary counts what happened to every input line of a run.
type Summary struct {
	SessionID    string        `json:"session_id"`
	Port         string        `json:"port"`
	Lines        int           `json:"lines"`
	Sent         int           `json:"sent"`
	Normal       int           `json:"normal"`
	Anomaly      int           `json:"anomaly"`
	Undetermined int           `json:"undetermined"`
	Skipped      int           `json:"skipped"`
	Malformed    int           `json:"malformed"`
	Timeouts     int           `json:"timeouts"`
	ReadErrors   int           `json:"read_errors"`
	OutputErrors int           `json:"output_errors"`
	BytesSent    int           `json:"bytes_sent"`
	Cancelled    bool          `json:"cancelled"`
	StartedAt    time.Time     `json:"started_at"`
	Elapsed      time.Duration `json:"elapsed"`
}

// Status is a point-in-time view of a running Session.
type Status struct {
	SessionID string  `json:"session_id"`
	Port      string  `json:"port"`
	State     string  `json:"state"`
	Summary   Summary `json:"summary"`
}
