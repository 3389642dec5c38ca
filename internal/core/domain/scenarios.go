package domain

// OpenAction is what the server does on a server-created channel once it opens.
type OpenAction string

const (
	// OpenActionNone leaves the channel idle until the peer sends something.
	OpenActionNone OpenAction = ""
	// OpenActionHello sends a single "hello from server" text message.
	OpenActionHello OpenAction = "hello"
	// OpenActionBinaryPattern sends one 1024-byte binary message, byte i = i mod 256.
	OpenActionBinaryPattern OpenAction = "binary-pattern"
	// OpenActionBurst sends 50 numbered "server-burst-<i>" messages, pausing
	// briefly after every 10th so SCTP flow control can drain.
	OpenActionBurst OpenAction = "burst"
)

// MessagePolicy selects how inbound messages on a channel are handled.
type MessagePolicy string

const (
	// PolicyEcho resends every inbound message unchanged on the same channel.
	PolicyEcho MessagePolicy = "echo"
	// PolicyBurstTrigger sends 50 numbered "server-msg-<i>" messages once,
	// triggered by the first inbound message of at least 5 bytes.
	PolicyBurstTrigger MessagePolicy = "burst-trigger"
)

// ChannelSpec describes one server-created channel's label and reliability
// parameters. Nil retransmit/lifetime fields mean fully reliable.
type ChannelSpec struct {
	Label             string
	Ordered           bool
	MaxRetransmits    *uint16
	MaxPacketLifeTime *uint16
	Policy            MessagePolicy
}

// ScenarioDefinition is the static topology and behavior for one named test
// scenario. Remote-initiated channels are always echoed regardless of scenario.
type ScenarioDefinition struct {
	Channels   []ChannelSpec
	OpenAction OpenAction
}

// DefaultScenario is used when the offer request names no scenario, or an
// unknown one.
const DefaultScenario = "echo"

func uint16Ptr(v uint16) *uint16 { return &v }

// Scenarios maps scenario names to their topology. Read-only configuration.
var Scenarios = map[string]ScenarioDefinition{
	"echo":       {},
	"large-echo": {},
	"server-creates-dc": {
		Channels:   []ChannelSpec{{Label: "server-channel", Ordered: true, Policy: PolicyEcho}},
		OpenAction: OpenActionHello,
	},
	"server-creates-unordered": {
		Channels: []ChannelSpec{{Label: "unordered-srv", Ordered: false, Policy: PolicyEcho}},
	},
	"server-creates-maxretransmits": {
		Channels: []ChannelSpec{{Label: "maxretransmit-srv", Ordered: true, MaxRetransmits: uint16Ptr(3), Policy: PolicyEcho}},
	},
	"server-creates-maxlifetime": {
		Channels: []ChannelSpec{{Label: "maxlifetime-srv", Ordered: true, MaxPacketLifeTime: uint16Ptr(1000), Policy: PolicyEcho}},
	},
	"server-creates-multi": {
		Channels: []ChannelSpec{
			{Label: "srv-0", Ordered: true, Policy: PolicyEcho},
			{Label: "srv-1", Ordered: true, Policy: PolicyEcho},
			{Label: "srv-2", Ordered: true, Policy: PolicyEcho},
			{Label: "srv-3", Ordered: true, Policy: PolicyEcho},
			{Label: "srv-4", Ordered: true, Policy: PolicyEcho},
		},
	},
	"bidirectional": {
		Channels: []ChannelSpec{{Label: "server-ch", Ordered: true, Policy: PolicyEcho}},
	},
	"server-sends-binary": {
		Channels:   []ChannelSpec{{Label: "binary-srv", Ordered: true, Policy: PolicyEcho}},
		OpenAction: OpenActionBinaryPattern,
	},
	"burst": {
		Channels:   []ChannelSpec{{Label: "burst-srv", Ordered: true, Policy: PolicyEcho}},
		OpenAction: OpenActionBurst,
	},
	"burst-on-request": {
		Channels: []ChannelSpec{{Label: "request-srv", Ordered: true, Policy: PolicyBurstTrigger}},
	},
}

// LookupScenario resolves a scenario name, falling back to the echo default
// for unknown names.
func LookupScenario(name string) ScenarioDefinition {
	if def, ok := Scenarios[name]; ok {
		return def
	}
	return Scenarios[DefaultScenario]
}
