package client

import "time"

// ScanRequest carries one decoded payload to the daemon.
type ScanRequest struct {
	Payload string `json:"payload"`
}

// ScanRecord mirrors the daemon's record shape.
type ScanRecord struct {
	ID         string    `json:"id"`
	Payload    string    `json:"payload"`
	ObservedAt time.Time `json:"observed_at"`
}

// ScanResponse reports whether the payload was accepted; Record is set only
// for accepted scans.
type ScanResponse struct {
	Accepted bool        `json:"accepted"`
	Record   *ScanRecord `json:"record,omitempty"`
}

// Status describes the pipeline state and the number of retained records.
type Status struct {
	State   string `json:"state"`
	Records int    `json:"records"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error string `json:"error"`
}
