package services

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"dcprobe/internal/core/domain"
	"dcprobe/internal/core/ports"
)

const (
	burstCount          = 50
	burstTriggerMinLen  = 5
	defaultBurstPause   = 10 * time.Millisecond
	burstPauseEvery     = 10
	binaryPatternLength = 1024
	helloMessage        = "hello from server"
)

// ChannelRouter binds engine channel callbacks to message policies and open
// actions, recording everything in the stats registry. All handlers run on
// engine-owned goroutines and must never panic or block for long; send
// failures are logged and absorbed.
type ChannelRouter struct {
	stats   *StatsRegistry
	metrics ports.MetricsRecorder
	logger  *zap.SugaredLogger

	// Pause between burst batches. Shortened in tests.
	burstPause time.Duration
}

func NewChannelRouter(stats *StatsRegistry, metrics ports.MetricsRecorder, logger *zap.SugaredLogger) *ChannelRouter {
	return &ChannelRouter{
		stats:      stats,
		metrics:    metrics,
		logger:     logger,
		burstPause: defaultBurstPause,
	}
}

// guard keeps a handler panic from unwinding into the engine's dispatch loop.
func (r *ChannelRouter) guard(label, op string) {
	if rec := recover(); rec != nil {
		r.logger.Errorw("channel handler panic absorbed",
			"channel", label,
			"op", op,
			"panic", rec,
		)
	}
}

func (r *ChannelRouter) send(ch ports.DataChannel, isText bool, payload []byte) error {
	// The engine requires a non-nil buffer even for zero-length payloads.
	if payload == nil {
		payload = []byte{}
	}
	if err := ch.Send(isText, payload); err != nil {
		r.metrics.RecordSendFailure()
		return err
	}
	r.stats.RecordSent(ch.Label())
	r.metrics.RecordMessageSent()
	return nil
}

// BindEcho attaches the echo policy: every inbound message is counted and
// resent unchanged on the same channel, preserving the text/binary flag.
func (r *ChannelRouter) BindEcho(ch ports.DataChannel) {
	ch.OnMessage(func(isText bool, payload []byte) {
		defer r.guard(ch.Label(), "echo")

		r.stats.RecordReceived(ch.Label(), len(payload))
		r.metrics.RecordMessageReceived(len(payload))

		if err := r.send(ch, isText, payload); err != nil {
			r.logger.Warnw("echo send failed",
				"channel", ch.Label(),
				"len", len(payload),
				"error", err,
			)
		}
	})
}

// BindBurstTrigger attaches the burst-trigger policy: the first inbound
// message of at least 5 bytes is treated as a start signal and answered with
// 50 numbered text messages. Later messages only update counters.
func (r *ChannelRouter) BindBurstTrigger(ch ports.DataChannel) {
	var once sync.Once
	ch.OnMessage(func(isText bool, payload []byte) {
		defer r.guard(ch.Label(), "burst-trigger")

		r.stats.RecordReceived(ch.Label(), len(payload))
		r.metrics.RecordMessageReceived(len(payload))

		if len(payload) < burstTriggerMinLen {
			return
		}
		once.Do(func() {
			for i := 0; i < burstCount; i++ {
				msg := fmt.Sprintf("server-msg-%d", i)
				if err := r.send(ch, true, []byte(msg)); err != nil {
					// A failed send is skipped, the rest of the burst continues.
					r.logger.Warnw("burst-trigger send failed",
						"channel", ch.Label(),
						"index", i,
						"error", err,
					)
				}
			}
		})
	})
}

// BindServerChannel attaches the open handler for a server-created channel:
// mark it opened, then run the scenario's open action.
func (r *ChannelRouter) BindServerChannel(ch ports.DataChannel, action domain.OpenAction) {
	ch.OnOpen(func() {
		defer r.guard(ch.Label(), "open")

		r.logger.Infow("server channel opened", "channel", ch.Label())
		r.stats.RecordOpened(ch.Label())
		r.metrics.RecordChannelOpened()
		r.runOpenAction(ch, action)
	})
}

// HandleRemoteChannel is wired to the engine's remote-channel notification.
// Browser-created channels are always echoed, regardless of scenario.
func (r *ChannelRouter) HandleRemoteChannel(ch ports.DataChannel) {
	defer r.guard(ch.Label(), "remote-open")

	r.logger.Infow("remote channel opened", "channel", ch.Label())
	r.stats.RecordOpened(ch.Label())
	r.metrics.RecordChannelOpened()
	r.BindEcho(ch)
}

func (r *ChannelRouter) runOpenAction(ch ports.DataChannel, action domain.OpenAction) {
	switch action {
	case domain.OpenActionHello:
		if err := r.send(ch, true, []byte(helloMessage)); err != nil {
			r.logger.Warnw("hello send failed", "channel", ch.Label(), "error", err)
		}

	case domain.OpenActionBinaryPattern:
		pattern := make([]byte, binaryPatternLength)
		for i := range pattern {
			pattern[i] = byte(i % 256)
		}
		if err := r.send(ch, false, pattern); err != nil {
			r.logger.Warnw("binary pattern send failed", "channel", ch.Label(), "error", err)
		}

	case domain.OpenActionBurst:
		for i := 0; i < burstCount; i++ {
			msg := fmt.Sprintf("server-burst-%d", i)
			if err := r.send(ch, true, []byte(msg)); err != nil {
				r.logger.Warnw("burst send failed", "channel", ch.Label(), "index", i, "error", err)
			}
			// Let SACKs flow between batches.
			if i > 0 && i%burstPauseEvery == 0 {
				time.Sleep(r.burstPause)
			}
		}

	case domain.OpenActionNone:
	}
}
