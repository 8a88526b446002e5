package sim

import (
	"errors"
)

// The error kinds shared by every gomera entry point. Functions wrap these
// with fmt.Errorf("%w: ...") so that callers can test against them with
// errors.Is while still getting a specific message.
var (
	// ErrInvalidArgument covers malformed ranges, negative radii, invalid
	// directions, mismatched array lengths, and similar caller mistakes.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnknownIdentifier covers unrecognized variable and unit names.
	ErrUnknownIdentifier = errors.New("unknown identifier")
	// ErrDomainMissing is returned when an operation needs a data kind
	// (hydro, particles, gravity) which the snapshot does not contain.
	ErrDomainMissing = errors.New("data kind missing from snapshot")
	// ErrLevelOutOfRange is returned when requested level bounds are
	// inverted or outside the snapshot's level range.
	ErrLevelOutOfRange = errors.New("level out of range")
)
