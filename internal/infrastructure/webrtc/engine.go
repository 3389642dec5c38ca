package webrtc

import (
	"time"

	webrtc "github.com/pion/webrtc/v3"
	"go.uber.org/zap"

	"dcprobe/internal/core/ports"
)

// Config holds the engine-level knobs for new peer connections.
type Config struct {
	ICEServers []webrtc.ICEServer
	PortRange  struct {
		Min uint16
		Max uint16
	}
	DisconnectedTimeout time.Duration
	FailedTimeout       time.Duration
	KeepAliveInterval   time.Duration
}

// PionEngine implements ports.Engine on top of pion/webrtc.
type PionEngine struct {
	api    *webrtc.API
	config webrtc.Configuration
	logger *zap.SugaredLogger
}

func NewPionEngine(cfg Config, logger *zap.SugaredLogger) (*PionEngine, error) {
	settingEngine := webrtc.SettingEngine{}
	if cfg.PortRange.Min > 0 && cfg.PortRange.Max > 0 {
		if err := settingEngine.SetEphemeralUDPPortRange(cfg.PortRange.Min, cfg.PortRange.Max); err != nil {
			return nil, err
		}
	}
	if cfg.DisconnectedTimeout > 0 && cfg.FailedTimeout > 0 && cfg.KeepAliveInterval > 0 {
		settingEngine.SetICETimeouts(cfg.DisconnectedTimeout, cfg.FailedTimeout, cfg.KeepAliveInterval)
	}

	return &PionEngine{
		api:    webrtc.NewAPI(webrtc.WithSettingEngine(settingEngine)),
		config: webrtc.Configuration{ICEServers: cfg.ICEServers},
		logger: logger,
	}, nil
}

func (e *PionEngine) NewPeerLink() (ports.PeerLink, error) {
	pc, err := e.api.NewPeerConnection(e.config)
	if err != nil {
		return nil, err
	}
	return &pionLink{pc: pc}, nil
}

type pionLink struct {
	pc *webrtc.PeerConnection
}

func (l *pionLink) CreateDataChannel(label string, init *webrtc.DataChannelInit) (ports.DataChannel, error) {
	dc, err := l.pc.CreateDataChannel(label, init)
	if err != nil {
		return nil, err
	}
	return &pionChannel{dc: dc}, nil
}

func (l *pionLink) OnICECandidate(fn func(candidate *webrtc.ICECandidate)) {
	l.pc.OnICECandidate(fn)
}

func (l *pionLink) OnConnectionStateChange(fn func(state webrtc.PeerConnectionState)) {
	l.pc.OnConnectionStateChange(fn)
}

func (l *pionLink) OnDataChannel(fn func(ch ports.DataChannel)) {
	l.pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		fn(&pionChannel{dc: dc})
	})
}

func (l *pionLink) SetRemoteDescription(desc webrtc.SessionDescription) error {
	return l.pc.SetRemoteDescription(desc)
}

func (l *pionLink) CreateAnswer() (webrtc.SessionDescription, error) {
	return l.pc.CreateAnswer(nil)
}

func (l *pionLink) SetLocalDescription(desc webrtc.SessionDescription) error {
	return l.pc.SetLocalDescription(desc)
}

func (l *pionLink) LocalDescription() *webrtc.SessionDescription {
	return l.pc.LocalDescription()
}

func (l *pionLink) Close() error {
	return l.pc.Close()
}

type pionChannel struct {
	dc *webrtc.DataChannel
}

func (c *pionChannel) Label() string {
	return c.dc.Label()
}

func (c *pionChannel) Send(isText bool, payload []byte) error {
	if payload == nil {
		payload = []byte{}
	}
	if isText {
		return c.dc.SendText(string(payload))
	}
	return c.dc.Send(payload)
}

func (c *pionChannel) OnOpen(fn func()) {
	c.dc.OnOpen(fn)
}

func (c *pionChannel) OnMessage(fn func(isText bool, payload []byte)) {
	c.dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		fn(msg.IsString, msg.Data)
	})
}

func (c *pionChannel) Ordered() bool {
	return c.dc.Ordered()
}

func (c *pionChannel) MaxRetransmits() *uint16 {
	return c.dc.MaxRetransmits()
}

func (c *pionChannel) MaxPacketLifeTime() *uint16 {
	return c.dc.MaxPacketLifeTime()
}

func (c *pionChannel) Close() error {
	return c.dc.Close()
}
