package agent

import "errors"

// ErrNoParticipant indicates the room has no remote participant to address.
var ErrNoParticipant = errors.New("no active user participant found in the room")

// Participant is a remote party in the interaction, addressable by identity
// for out-of-band asks and carrying free-form structured metadata.
type Participant struct {
	Identity string
	Metadata string
}

// RoomContext is the per-turn snapshot of the shared interaction context. It
// is passed explicitly into every tool call; nothing here is cached across
// turns because the underlying metadata can change between them.
type RoomContext struct {
	Metadata     string
	Participants []Participant
}

// UserParticipant returns the participant the tools address their asks to.
func (r RoomContext) UserParticipant() (Participant, error) {
	if len(r.Participants) == 0 {
		return Participant{}, ErrNoParticipant
	}
	return r.Participants[0], nil
}
