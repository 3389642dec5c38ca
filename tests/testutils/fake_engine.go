package testutils

import (
	"sync"

	webrtc "github.com/pion/webrtc/v3"

	"dcprobe/internal/core/ports"
)

// FakeEngine implements ports.Engine for unit tests. Created links are kept
// so tests can inspect and drive their callbacks.
type FakeEngine struct {
	mu         sync.Mutex
	NewLinkErr error
	// LinkSetup customizes each link before it is handed out.
	LinkSetup func(*FakePeerLink)

	links []*FakePeerLink
}

func NewFakeEngine() *FakeEngine {
	return &FakeEngine{}
}

func (e *FakeEngine) NewPeerLink() (ports.PeerLink, error) {
	if e.NewLinkErr != nil {
		return nil, e.NewLinkErr
	}
	link := NewFakePeerLink()
	if e.LinkSetup != nil {
		e.LinkSetup(link)
	}
	e.mu.Lock()
	e.links = append(e.links, link)
	e.mu.Unlock()
	return link, nil
}

// Links returns every link the engine has created so far.
func (e *FakeEngine) Links() []*FakePeerLink {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*FakePeerLink, len(e.links))
	copy(out, e.links)
	return out
}

// LastLink returns the most recently created link, or nil.
func (e *FakeEngine) LastLink() *FakePeerLink {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.links) == 0 {
		return nil
	}
	return e.links[len(e.links)-1]
}

// FakePeerLink implements ports.PeerLink with controllable failures. When
// AutoGather is true (the default), ICE gathering completes as soon as the
// local description is set, mimicking an engine with only host candidates.
type FakePeerLink struct {
	mu sync.Mutex

	CreateChannelErr error
	SetRemoteErr     error
	CreateAnswerErr  error
	SetLocalErr      error
	AutoGather       bool
	AnswerSDP        string

	channels []*FakeDataChannel
	iceFn    func(*webrtc.ICECandidate)
	stateFn  func(webrtc.PeerConnectionState)
	dcFn     func(ports.DataChannel)
	remote   *webrtc.SessionDescription
	local    *webrtc.SessionDescription
	closed   bool
}

func NewFakePeerLink() *FakePeerLink {
	return &FakePeerLink{
		AutoGather: true,
		AnswerSDP:  "v=0\r\no=- 0 0 IN IP4 127.0.0.1\r\ns=-\r\nt=0 0\r\nm=application 9 UDP/DTLS/SCTP webrtc-datachannel\r\n",
	}
}

func (l *FakePeerLink) CreateDataChannel(label string, init *webrtc.DataChannelInit) (ports.DataChannel, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.CreateChannelErr != nil {
		return nil, l.CreateChannelErr
	}

	ch := NewFakeDataChannel(label)
	if init != nil {
		if init.Ordered != nil {
			ch.ordered = *init.Ordered
		}
		ch.maxRetransmits = init.MaxRetransmits
		ch.maxPacketLifeTime = init.MaxPacketLifeTime
	}
	l.channels = append(l.channels, ch)
	return ch, nil
}

func (l *FakePeerLink) OnICECandidate(fn func(candidate *webrtc.ICECandidate)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.iceFn = fn
}

func (l *FakePeerLink) OnConnectionStateChange(fn func(state webrtc.PeerConnectionState)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stateFn = fn
}

func (l *FakePeerLink) OnDataChannel(fn func(ch ports.DataChannel)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dcFn = fn
}

func (l *FakePeerLink) SetRemoteDescription(desc webrtc.SessionDescription) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.SetRemoteErr != nil {
		return l.SetRemoteErr
	}
	l.remote = &desc
	return nil
}

func (l *FakePeerLink) CreateAnswer() (webrtc.SessionDescription, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.CreateAnswerErr != nil {
		return webrtc.SessionDescription{}, l.CreateAnswerErr
	}
	return webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: l.AnswerSDP}, nil
}

func (l *FakePeerLink) SetLocalDescription(desc webrtc.SessionDescription) error {
	l.mu.Lock()
	if l.SetLocalErr != nil {
		l.mu.Unlock()
		return l.SetLocalErr
	}
	l.local = &desc
	auto := l.AutoGather
	fn := l.iceFn
	l.mu.Unlock()

	if auto && fn != nil {
		fn(nil)
	}
	return nil
}

func (l *FakePeerLink) LocalDescription() *webrtc.SessionDescription {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.local
}

func (l *FakePeerLink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

// CompleteGathering delivers the nil-candidate end-of-gathering signal.
func (l *FakePeerLink) CompleteGathering() {
	l.mu.Lock()
	fn := l.iceFn
	l.mu.Unlock()
	if fn != nil {
		fn(nil)
	}
}

// TriggerRemoteChannel simulates the browser opening a channel.
func (l *FakePeerLink) TriggerRemoteChannel(ch *FakeDataChannel) {
	l.mu.Lock()
	fn := l.dcFn
	l.mu.Unlock()
	if fn != nil {
		fn(ch)
	}
}

// TriggerConnectionState simulates an engine state transition.
func (l *FakePeerLink) TriggerConnectionState(state webrtc.PeerConnectionState) {
	l.mu.Lock()
	fn := l.stateFn
	l.mu.Unlock()
	if fn != nil {
		fn(state)
	}
}

func (l *FakePeerLink) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

func (l *FakePeerLink) Channels() []*FakeDataChannel {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*FakeDataChannel, len(l.channels))
	copy(out, l.channels)
	return out
}

// FakeMessage is one payload recorded by a fake channel's Send.
type FakeMessage struct {
	IsText  bool
	Payload []byte
}

// FakeDataChannel implements ports.DataChannel and records sends.
type FakeDataChannel struct {
	mu sync.Mutex

	label             string
	ordered           bool
	maxRetransmits    *uint16
	maxPacketLifeTime *uint16

	// SendErr fails every send; FailFirst fails only the first N.
	SendErr   error
	FailFirst int

	sent   []FakeMessage
	openFn func()
	msgFn  func(isText bool, payload []byte)
	closed bool
}

func NewFakeDataChannel(label string) *FakeDataChannel {
	return &FakeDataChannel{label: label, ordered: true}
}

func (c *FakeDataChannel) Label() string { return c.label }

func (c *FakeDataChannel) Send(isText bool, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SendErr != nil {
		return c.SendErr
	}
	if c.FailFirst > 0 {
		c.FailFirst--
		return errSendRejected
	}
	buf := make([]byte, len(payload))
	copy(buf, payload)
	c.sent = append(c.sent, FakeMessage{IsText: isText, Payload: buf})
	return nil
}

func (c *FakeDataChannel) OnOpen(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.openFn = fn
}

func (c *FakeDataChannel) OnMessage(fn func(isText bool, payload []byte)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgFn = fn
}

func (c *FakeDataChannel) Ordered() bool              { return c.ordered }
func (c *FakeDataChannel) MaxRetransmits() *uint16    { return c.maxRetransmits }
func (c *FakeDataChannel) MaxPacketLifeTime() *uint16 { return c.maxPacketLifeTime }

func (c *FakeDataChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Open fires the registered open handler, as the engine would.
func (c *FakeDataChannel) Open() {
	c.mu.Lock()
	fn := c.openFn
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Deliver fires the registered message handler, as the engine would.
func (c *FakeDataChannel) Deliver(isText bool, payload []byte) {
	c.mu.Lock()
	fn := c.msgFn
	c.mu.Unlock()
	if fn != nil {
		fn(isText, payload)
	}
}

// SentMessages returns a copy of everything successfully sent.
func (c *FakeDataChannel) SentMessages() []FakeMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]FakeMessage, len(c.sent))
	copy(out, c.sent)
	return out
}
