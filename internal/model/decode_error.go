package model

// DecodeError records a decode failure for a raw log line.
type DecodeError struct {
	Line   int    `json:"line"`
	Raw    string `json:"raw"`
	Reason string `json:"reason"`
	Error  string `json:"error"`
}
