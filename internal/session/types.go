package session

import (
	"encoding/json"

	"example.com/bc-solver/internal/solver"
)

// Envelope WS envelope: {"type":"...","payload":{...}}
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// incoming

type AuthPayload struct {
	Token string `json:"token"`
}

type FeedbackPayload struct {
	Bulls *int `json:"bulls"`
	Cows  *int `json:"cows"`
}

// outgoing

type ProbePayload struct {
	Round int           `json:"round"`
	Probe solver.Number `json:"probe"`
}

type StatePayload struct {
	SessionID string         `json:"sessionId"`
	Status    string         `json:"status"` // in_progress|finished
	Round     int            `json:"round"`
	Steps     int            `json:"steps"`
	Pending   *solver.Number `json:"pending,omitempty"`
	Possible  int            `json:"possible"`
	History   solver.History `json:"history"`
	Correct   *bool          `json:"correct,omitempty"` // only once finished
	Solved    *solver.Number `json:"solved,omitempty"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreatedResponse struct {
	SessionID string `json:"sessionId"`
	Token     string `json:"token"`
}

const (
	StatusInProgress = "in_progress"
	StatusFinished   = "finished"
)
