// Package session owns one streaming run against the inference device.
//
// Ownership boundary:
// - exclusive use of one link.Port from start to Closed
// - send -> await -> classify -> pace, one record in flight at a time
// - per-record diagnostics and the run Summary
//
// Only write/flush transport errors end a Session early. Everything scoped to
// a single record (short line, bad field, timeout, read anomaly, output write)
// becomes one diagnostic and the run continues with the next record.
//
// State order:
// - idle -> sending -> awaiting_response -> classifying -> sending ... -> closed
package session
