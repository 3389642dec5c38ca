package ports

import (
	"context"
	"time"

	webrtc "github.com/pion/webrtc/v3"

	"dcprobe/internal/core/domain"
)

// SessionService owns the single test session: at most one live peer
// connection at a time.
type SessionService interface {
	// Negotiate runs one offer/answer handshake for the named scenario and
	// returns the answer once ICE gathering completes. Returns
	// domain.ErrSessionActive while a connection is live,
	// domain.ErrMalformedOffer for unusable input, and
	// domain.ErrGatheringTimeout when the answer deadline passes.
	Negotiate(ctx context.Context, scenario string, offer webrtc.SessionDescription) (webrtc.SessionDescription, error)
	// Reset tears down any live connection and clears all stats. Idempotent.
	Reset()
	// Results snapshots the current scenario name and per-channel stats.
	Results() domain.SessionResults
	// ConnectionState reports the last engine-observed connection state.
	ConnectionState() webrtc.PeerConnectionState
}

// MetricsRecorder receives harness events for export. Implemented by the
// prometheus collector in internal/infrastructure/monitoring.
type MetricsRecorder interface {
	RecordOffer(result string)
	ObserveHandshakeDuration(d time.Duration)
	ObserveICEGatheringDuration(d time.Duration)
	SetConnectionActive(active bool)
	RecordChannelOpened()
	RecordMessageReceived(bytes int)
	RecordMessageSent()
	RecordSendFailure()
}
