package domain

import "errors"

var (
	// ErrSessionActive is returned when an offer arrives while a peer
	// connection is already live.
	ErrSessionActive = errors.New("a peer connection is already active")

	// ErrMalformedOffer is returned when the request body is not a usable
	// offer session description.
	ErrMalformedOffer = errors.New("malformed offer session description")

	// ErrGatheringTimeout is returned when ICE candidate gathering does not
	// complete before the answer deadline.
	ErrGatheringTimeout = errors.New("ICE gathering timeout")
)
