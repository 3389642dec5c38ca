package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	webrtc "github.com/pion/webrtc/v3"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dcprobe/internal/core/domain"
	"dcprobe/tests/testutils"
)

func newTestSession(engine *testutils.FakeEngine, answerTimeout time.Duration) (*SessionService, *StatsRegistry) {
	stats := NewStatsRegistry()
	log := zap.NewNop().Sugar()
	router := NewChannelRouter(stats, testutils.NopMetrics{}, log)
	router.burstPause = 0
	dispatcher := NewScenarioDispatcher(router, 16, log)
	session := NewSessionService(engine, dispatcher, router, stats, testutils.NopMetrics{}, answerTimeout, log)
	return session, stats
}

func validOffer() webrtc.SessionDescription {
	return webrtc.SessionDescription{
		Type: webrtc.SDPTypeOffer,
		SDP:  "v=0\r\no=- 1 1 IN IP4 127.0.0.1\r\ns=-\r\nt=0 0\r\nm=application 9 UDP/DTLS/SCTP webrtc-datachannel\r\n",
	}
}

func TestNegotiateHappyPath(t *testing.T) {
	engine := testutils.NewFakeEngine()
	session, _ := newTestSession(engine, time.Second)

	answer, err := session.Negotiate(context.Background(), "server-creates-dc", validOffer())

	require.NoError(t, err)
	assert.Equal(t, webrtc.SDPTypeAnswer, answer.Type)
	assert.NotEmpty(t, answer.SDP)

	link := engine.LastLink()
	require.NotNil(t, link)
	require.Len(t, link.Channels(), 1)
	assert.Equal(t, "server-channel", link.Channels()[0].Label())

	results := session.Results()
	assert.Equal(t, "server-creates-dc", results.Test)
}

func TestNegotiateDefaultsToEchoScenario(t *testing.T) {
	engine := testutils.NewFakeEngine()
	session, _ := newTestSession(engine, time.Second)

	_, err := session.Negotiate(context.Background(), "", validOffer())

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultScenario, session.Results().Test)
	assert.Empty(t, engine.LastLink().Channels())
}

func TestNegotiateRejectsMalformedOffer(t *testing.T) {
	engine := testutils.NewFakeEngine()
	session, _ := newTestSession(engine, time.Second)

	_, err := session.Negotiate(context.Background(), "echo", webrtc.SessionDescription{
		Type: webrtc.SDPTypeAnswer,
		SDP:  "v=0",
	})
	assert.ErrorIs(t, err, domain.ErrMalformedOffer)

	_, err = session.Negotiate(context.Background(), "echo", webrtc.SessionDescription{
		Type: webrtc.SDPTypeOffer,
	})
	assert.ErrorIs(t, err, domain.ErrMalformedOffer)

	// Nothing was built.
	assert.Empty(t, engine.Links())
}

func TestNegotiateSecondOfferConflicts(t *testing.T) {
	engine := testutils.NewFakeEngine()
	session, _ := newTestSession(engine, time.Second)

	_, err := session.Negotiate(context.Background(), "echo", validOffer())
	require.NoError(t, err)

	_, err = session.Negotiate(context.Background(), "echo", validOffer())
	assert.ErrorIs(t, err, domain.ErrSessionActive)

	// The live link stays untouched by the rejected offer.
	assert.Len(t, engine.Links(), 1)
	assert.False(t, engine.LastLink().Closed())
}

func TestNegotiateConcurrentOffersExactlyOneWins(t *testing.T) {
	engine := testutils.NewFakeEngine()
	session, _ := newTestSession(engine, time.Second)

	const attempts = 8
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = session.Negotiate(context.Background(), "echo", validOffer())
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrSessionActive):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, attempts-1, conflicts)
}

func TestNegotiateEngineFailureLeavesSessionIdle(t *testing.T) {
	engine := testutils.NewFakeEngine()
	engine.NewLinkErr = errors.New("no UDP ports left")
	session, _ := newTestSession(engine, time.Second)

	_, err := session.Negotiate(context.Background(), "echo", validOffer())
	require.Error(t, err)

	// The session recovered; a later offer goes through.
	engine.NewLinkErr = nil
	_, err = session.Negotiate(context.Background(), "echo", validOffer())
	assert.NoError(t, err)
}

func TestNegotiateSignalingFailureClosesLink(t *testing.T) {
	cases := []struct {
		name  string
		setup func(*testutils.FakePeerLink)
	}{
		{"set remote", func(l *testutils.FakePeerLink) { l.SetRemoteErr = errors.New("bad sdp") }},
		{"create answer", func(l *testutils.FakePeerLink) { l.CreateAnswerErr = errors.New("no codecs") }},
		{"set local", func(l *testutils.FakePeerLink) { l.SetLocalErr = errors.New("ice failure") }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine := testutils.NewFakeEngine()
			engine.LinkSetup = tc.setup
			session, _ := newTestSession(engine, time.Second)

			_, err := session.Negotiate(context.Background(), "server-creates-dc", validOffer())
			require.Error(t, err)

			assert.True(t, engine.LastLink().Closed())
			assert.Equal(t, "", session.Results().Test)

			// Idle again: a clean engine accepts the next offer.
			engine.LinkSetup = nil
			_, err = session.Negotiate(context.Background(), "echo", validOffer())
			assert.NoError(t, err)
		})
	}
}

func TestNegotiateGatheringTimeout(t *testing.T) {
	engine := testutils.NewFakeEngine()
	engine.LinkSetup = func(l *testutils.FakePeerLink) { l.AutoGather = false }
	session, _ := newTestSession(engine, 20*time.Millisecond)

	_, err := session.Negotiate(context.Background(), "echo", validOffer())
	assert.ErrorIs(t, err, domain.ErrGatheringTimeout)
	assert.True(t, engine.LastLink().Closed())
	assert.Equal(t, "", session.Results().Test)
}

func TestNegotiateCanceledRequestAbortsGathering(t *testing.T) {
	engine := testutils.NewFakeEngine()
	engine.LinkSetup = func(l *testutils.FakePeerLink) { l.AutoGather = false }
	session, _ := newTestSession(engine, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := session.Negotiate(ctx, "echo", validOffer())
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, engine.LastLink().Closed())
}

func TestResetIsIdempotent(t *testing.T) {
	engine := testutils.NewFakeEngine()
	session, stats := newTestSession(engine, time.Second)

	// Reset with no session is a no-op.
	session.Reset()

	_, err := session.Negotiate(context.Background(), "echo", validOffer())
	require.NoError(t, err)
	stats.RecordReceived("client-ch", 5)

	session.Reset()

	assert.True(t, engine.LastLink().Closed())
	results := session.Results()
	assert.Equal(t, "", results.Test)
	assert.Empty(t, results.Channels)

	session.Reset()

	// The session is reusable after reset.
	_, err = session.Negotiate(context.Background(), "burst", validOffer())
	assert.NoError(t, err)
	assert.Equal(t, "burst", session.Results().Test)
}

func TestConnectionStateTracksEngine(t *testing.T) {
	engine := testutils.NewFakeEngine()
	session, _ := newTestSession(engine, time.Second)

	assert.Equal(t, webrtc.PeerConnectionStateNew, session.ConnectionState())

	_, err := session.Negotiate(context.Background(), "echo", validOffer())
	require.NoError(t, err)

	engine.LastLink().TriggerConnectionState(webrtc.PeerConnectionStateConnected)
	assert.Equal(t, webrtc.PeerConnectionStateConnected, session.ConnectionState())

	session.Reset()
	assert.Equal(t, webrtc.PeerConnectionStateNew, session.ConnectionState())
}

func TestRemoteChannelsEchoAfterNegotiate(t *testing.T) {
	engine := testutils.NewFakeEngine()
	session, stats := newTestSession(engine, time.Second)

	_, err := session.Negotiate(context.Background(), "echo", validOffer())
	require.NoError(t, err)

	ch := testutils.NewFakeDataChannel("dc-test")
	engine.LastLink().TriggerRemoteChannel(ch)
	ch.Deliver(true, []byte("round-trip"))

	sent := ch.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "round-trip", string(sent[0].Payload))

	s := channelStats(t, stats, "dc-test")
	assert.True(t, s.Opened)
	assert.Equal(t, 1, s.MessagesReceived)
	assert.Equal(t, 10, s.BytesReceived)
}
