package services

import (
	"go.uber.org/zap"

	webrtc "github.com/pion/webrtc/v3"

	"dcprobe/internal/core/domain"
	"dcprobe/internal/core/ports"
)

// ScenarioDispatcher materializes a scenario's channel topology on a fresh
// peer link. Must run before the remote offer is applied so the channels are
// part of the negotiated answer.
type ScenarioDispatcher struct {
	router      *ChannelRouter
	maxChannels int
	logger      *zap.SugaredLogger
}

func NewScenarioDispatcher(router *ChannelRouter, maxChannels int, logger *zap.SugaredLogger) *ScenarioDispatcher {
	return &ScenarioDispatcher{
		router:      router,
		maxChannels: maxChannels,
		logger:      logger,
	}
}

// Configure creates the server-side channels for the named scenario and binds
// their callbacks. Unknown names resolve to the echo default (no channels).
// Creation failures and channels beyond the cap are logged and skipped; the
// handshake proceeds with whatever was created.
func (d *ScenarioDispatcher) Configure(link ports.PeerLink, name string) []ports.DataChannel {
	def := domain.LookupScenario(name)

	channels := make([]ports.DataChannel, 0, len(def.Channels))
	for _, spec := range def.Channels {
		if len(channels) >= d.maxChannels {
			d.logger.Warnw("server channel cap reached, dropping channel",
				"test", name,
				"channel", spec.Label,
				"cap", d.maxChannels,
			)
			continue
		}

		spec := spec
		init := &webrtc.DataChannelInit{
			Ordered:           &spec.Ordered,
			MaxRetransmits:    spec.MaxRetransmits,
			MaxPacketLifeTime: spec.MaxPacketLifeTime,
		}

		ch, err := link.CreateDataChannel(spec.Label, init)
		if err != nil {
			d.logger.Warnw("failed to create server channel",
				"test", name,
				"channel", spec.Label,
				"error", err,
			)
			continue
		}

		d.router.BindServerChannel(ch, def.OpenAction)
		switch spec.Policy {
		case domain.PolicyBurstTrigger:
			d.router.BindBurstTrigger(ch)
		default:
			d.router.BindEcho(ch)
		}

		channels = append(channels, ch)
	}

	return channels
}
