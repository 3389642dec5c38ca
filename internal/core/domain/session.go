package domain

// ChannelStats aggregates observed traffic for one data channel, keyed by
// label. BytesReceived counts payload bytes only.
type ChannelStats struct {
	Name             string `json:"name"`
	MessagesReceived int    `json:"messagesReceived"`
	MessagesSent     int    `json:"messagesSent"`
	BytesReceived    int    `json:"bytesReceived"`
	Opened           bool   `json:"opened"`
}

// SessionResults is the payload returned by GET /results.
type SessionResults struct {
	Test     string         `json:"test"`
	Channels []ChannelStats `json:"channels"`
}
