package ports

import (
	webrtc "github.com/pion/webrtc/v3"
)

// DataChannel is the per-channel surface the session layer needs from the
// transport engine. Callbacks fire on engine-owned goroutines.
type DataChannel interface {
	Label() string
	// Send transmits a payload, preserving the text/binary framing. The
	// payload must be non-nil even for zero length.
	Send(isText bool, payload []byte) error
	OnOpen(fn func())
	OnMessage(fn func(isText bool, payload []byte))
	Ordered() bool
	MaxRetransmits() *uint16
	MaxPacketLifeTime() *uint16
	Close() error
}

// PeerLink is one peer connection as seen by the session layer. Channel
// creation must happen before the remote offer is applied so the channels are
// negotiated in the answer.
type PeerLink interface {
	CreateDataChannel(label string, init *webrtc.DataChannelInit) (DataChannel, error)
	OnICECandidate(fn func(candidate *webrtc.ICECandidate))
	OnConnectionStateChange(fn func(state webrtc.PeerConnectionState))
	OnDataChannel(fn func(ch DataChannel))
	SetRemoteDescription(desc webrtc.SessionDescription) error
	CreateAnswer() (webrtc.SessionDescription, error)
	SetLocalDescription(desc webrtc.SessionDescription) error
	// LocalDescription returns the answer including all gathered candidates.
	LocalDescription() *webrtc.SessionDescription
	Close() error
}

// Engine creates peer links. Implemented by the pion adapter in
// internal/infrastructure/webrtc.
type Engine interface {
	NewPeerLink() (PeerLink, error)
}
