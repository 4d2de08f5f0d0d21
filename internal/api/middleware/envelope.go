package middleware

import (
	"encoding/json"
	"net/http"
)

// Envelope states.
const (
	StateResolved = "resolved"
	StateRejected = "rejected"
)

// Message types carried by rejected envelopes.
const (
	TypeError   = "error"
	TypeWarning = "warning"
)

// Envelope is the response body of every API action.
type Envelope struct {
	State   string `json:"state"`
	Data    []any  `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Type    string `json:"type,omitempty"`
}

// Resolve writes a resolved envelope carrying data with status 200.
func Resolve(w http.ResponseWriter, data ...any) {
	writeEnvelope(w, http.StatusOK, Envelope{State: StateResolved, Data: data})
}

// Reject writes a rejected envelope. An empty message rejects silently.
func Reject(w http.ResponseWriter, status int, message, msgType string) {
	env := Envelope{State: StateRejected, Message: message}
	if message != "" {
		env.Type = msgType
	}
	writeEnvelope(w, status, env)
}

// RejectWithData writes a rejected envelope that also carries data, such as
// per-field validation messages.
func RejectWithData(w http.ResponseWriter, status int, message, msgType string, data ...any) {
	writeEnvelope(w, status, Envelope{State: StateRejected, Data: data, Message: message, Type: msgType})
}

func writeEnvelope(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(env)
}
