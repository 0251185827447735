package request

import (
	"encoding/json"
	"net/http"
	"time"
)

// Envelope wraps every JSON body the API writes. Data is set on success; Error and
// Message on failure.
type Envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id,omitempty"`
}

// WriteData writes a success envelope around data
func WriteData(w http.ResponseWriter, r *http.Request, status int, data any) error {
	return write(w, status, Envelope{
		Success:   true,
		Data:      data,
		Timestamp: now(),
		RequestID: idOf(r),
	})
}

// WriteError writes a failure envelope. errorType is the HTTP status text; message
// is shown to the client as is.
func WriteError(w http.ResponseWriter, r *http.Request, status int, errorType, message string) error {
	return write(w, status, Envelope{
		Success:   false,
		Error:     errorType,
		Message:   message,
		Timestamp: now(),
		RequestID: idOf(r),
	})
}

func write(w http.ResponseWriter, status int, body Envelope) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(body)
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func idOf(r *http.Request) string {
	if r == nil {
		return ""
	}
	return RequestIDFromContext(r.Context())
}
