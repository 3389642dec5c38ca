package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	webrtc "github.com/pion/webrtc/v3"

	"dcprobe/internal/core/domain"
	"dcprobe/internal/core/ports"
	"dcprobe/pkg/utils"
)

// SessionService owns the single mutable test session: at most one live peer
// link, the current scenario name, and the stats registry. The session mutex
// is held for the full duration of a handshake, so concurrent offers and
// resets serialize against it; stats and the scenario name have their own
// synchronization so GET /results never waits on a handshake.
type SessionService struct {
	engine     ports.Engine
	dispatcher *ScenarioDispatcher
	router     *ChannelRouter
	stats      *StatsRegistry
	metrics    ports.MetricsRecorder
	logger     *zap.SugaredLogger

	answerTimeout time.Duration

	mu             sync.Mutex
	link           ports.PeerLink
	serverChannels []ports.DataChannel

	scenario  atomic.Value // string
	connState atomic.Value // webrtc.PeerConnectionState
}

func NewSessionService(
	engine ports.Engine,
	dispatcher *ScenarioDispatcher,
	router *ChannelRouter,
	stats *StatsRegistry,
	metrics ports.MetricsRecorder,
	answerTimeout time.Duration,
	logger *zap.SugaredLogger,
) *SessionService {
	s := &SessionService{
		engine:        engine,
		dispatcher:    dispatcher,
		router:        router,
		stats:         stats,
		metrics:       metrics,
		answerTimeout: answerTimeout,
		logger:        logger,
	}
	s.scenario.Store("")
	s.connState.Store(webrtc.PeerConnectionStateNew)
	return s
}

// Negotiate runs one offer/answer handshake. The offer must carry type
// "offer" and a non-empty SDP. Any failure releases the partially built peer
// link so the session returns to idle and a later offer can proceed.
func (s *SessionService) Negotiate(ctx context.Context, scenario string, offer webrtc.SessionDescription) (webrtc.SessionDescription, error) {
	if offer.Type != webrtc.SDPTypeOffer || offer.SDP == "" {
		s.metrics.RecordOffer("bad_request")
		return webrtc.SessionDescription{}, domain.ErrMalformedOffer
	}
	if scenario == "" {
		scenario = domain.DefaultScenario
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.link != nil {
		s.metrics.RecordOffer("conflict")
		return webrtc.SessionDescription{}, domain.ErrSessionActive
	}

	start := time.Now()
	log := s.logger.With(
		"negotiation_id", utils.GenerateNegotiationID(),
		"test", scenario,
	)
	log.Infow("received offer", "sdp_len", len(offer.SDP))

	link, err := s.engine.NewPeerLink()
	if err != nil {
		s.metrics.RecordOffer("engine_error")
		return webrtc.SessionDescription{}, fmt.Errorf("create peer connection: %w", err)
	}

	// Single-shot gathering-complete signal: the engine delivers a nil
	// candidate exactly once when enumeration ends.
	gatherDone := make(chan struct{})
	var gatherOnce sync.Once
	link.OnICECandidate(func(candidate *webrtc.ICECandidate) {
		if candidate == nil {
			gatherOnce.Do(func() { close(gatherDone) })
		}
	})
	link.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		log.Infow("connection state changed", "state", state.String())
		s.connState.Store(state)
	})
	link.OnDataChannel(s.router.HandleRemoteChannel)

	// Channel topology must exist before signaling so the channels ride the
	// answer's SCTP negotiation.
	s.scenario.Store(scenario)
	channels := s.dispatcher.Configure(link, scenario)

	if err := link.SetRemoteDescription(offer); err != nil {
		s.abortLocked(link, log)
		s.metrics.RecordOffer("engine_error")
		return webrtc.SessionDescription{}, fmt.Errorf("set remote description: %w", err)
	}

	answer, err := link.CreateAnswer()
	if err != nil {
		s.abortLocked(link, log)
		s.metrics.RecordOffer("engine_error")
		return webrtc.SessionDescription{}, fmt.Errorf("create answer: %w", err)
	}

	if err := link.SetLocalDescription(answer); err != nil {
		s.abortLocked(link, log)
		s.metrics.RecordOffer("engine_error")
		return webrtc.SessionDescription{}, fmt.Errorf("set local description: %w", err)
	}

	gatherStart := time.Now()
	select {
	case <-gatherDone:
		s.metrics.ObserveICEGatheringDuration(time.Since(gatherStart))
	case <-time.After(s.answerTimeout):
		log.Warnw("ICE gathering timed out", "deadline", s.answerTimeout)
		s.abortLocked(link, log)
		s.metrics.RecordOffer("timeout")
		return webrtc.SessionDescription{}, domain.ErrGatheringTimeout
	case <-ctx.Done():
		log.Warnw("request canceled during ICE gathering")
		s.abortLocked(link, log)
		s.metrics.RecordOffer("canceled")
		return webrtc.SessionDescription{}, ctx.Err()
	}

	final := link.LocalDescription()
	if final == nil {
		s.abortLocked(link, log)
		s.metrics.RecordOffer("engine_error")
		return webrtc.SessionDescription{}, fmt.Errorf("no local description after gathering")
	}

	s.link = link
	s.serverChannels = channels
	s.metrics.RecordOffer("ok")
	s.metrics.ObserveHandshakeDuration(time.Since(start))
	s.metrics.SetConnectionActive(true)
	log.Infow("sending answer", "sdp_len", len(final.SDP), "server_channels", len(channels))

	return *final, nil
}

// abortLocked releases a partially constructed link and restores the idle
// invariant (no live connection, empty scenario). Stats survive until reset.
func (s *SessionService) abortLocked(link ports.PeerLink, log *zap.SugaredLogger) {
	if err := link.Close(); err != nil {
		log.Warnw("failed to close peer connection", "error", err)
	}
	s.scenario.Store("")
	s.connState.Store(webrtc.PeerConnectionStateNew)
}

// Reset tears down the live connection (closing all channels on the engine
// side) and clears every piece of session state. Safe to call when idle.
func (s *SessionService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Infow("resetting session")

	if s.link != nil {
		if err := s.link.Close(); err != nil {
			s.logger.Warnw("failed to close peer connection", "error", err)
		}
		s.link = nil
	}
	s.serverChannels = nil
	s.scenario.Store("")
	s.connState.Store(webrtc.PeerConnectionStateNew)
	s.stats.Clear()
	s.metrics.SetConnectionActive(false)
}

// Results snapshots the current scenario name and per-channel stats in
// first-observed order.
func (s *SessionService) Results() domain.SessionResults {
	return domain.SessionResults{
		Test:     s.scenario.Load().(string),
		Channels: s.stats.Snapshot(),
	}
}

// ConnectionState reports the last engine-observed connection state.
func (s *SessionService) ConnectionState() webrtc.PeerConnectionState {
	return s.connState.Load().(webrtc.PeerConnectionState)
}
