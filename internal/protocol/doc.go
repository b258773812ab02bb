// Package protocol owns the device wire contract.
//
// Ownership boundary:
// - frame: host->device float32 vector encoding and paced writes
// - lines: device->host line reassembly over an unframed byte stream
// - similarity: score extraction from device status lines
//
// There is no handshake, header or acknowledgement. One frame out is answered
// by one text line back.
package protocol
