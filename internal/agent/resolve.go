package agent

import (
	"encoding/json"
	"errors"
)

// ErrSessionMissing indicates no session id could be resolved from any
// source; banking calls cannot proceed without one.
var ErrSessionMissing = errors.New("session id missing; cannot call banking API securely")

// ResolveSessionID finds the caller's session id. Sources, first match wins:
// participant metadata, room metadata, then the configured fallback for local
// testing. Malformed metadata counts as absent and resolution falls through.
func ResolveSessionID(room RoomContext, fallback string) (string, error) {
	for _, p := range room.Participants {
		if id := sessionIDFromMetadata(p.Metadata); id != "" {
			return id, nil
		}
	}
	if id := sessionIDFromMetadata(room.Metadata); id != "" {
		return id, nil
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", ErrSessionMissing
}

func sessionIDFromMetadata(metadata string) string {
	if metadata == "" {
		return ""
	}
	var parsed struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal([]byte(metadata), &parsed); err != nil {
		return ""
	}
	return parsed.SessionID
}
