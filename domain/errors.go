package domain

import "errors"

// Errors surfaced by the core pipeline. Collaborator failures are carried
// inside TurnResult with the stage that produced them; these sentinels cover
// everything that happens before a turn reaches a collaborator.
var (
	// ErrDeviceUnavailable means capture could not acquire the microphone,
	// or a capture session is already active.
	ErrDeviceUnavailable = errors.New("vocalis: audio device unavailable")

	// ErrDeliveryTimeout means the delivery bridge never received a
	// finalized clip within its bounded wait.
	ErrDeliveryTimeout = errors.New("vocalis: capture result not delivered in time")

	// ErrInvalidInput covers empty completion input and synthesis text over
	// the character ceiling. Rejected before any collaborator call.
	ErrInvalidInput = errors.New("vocalis: invalid input")
)
