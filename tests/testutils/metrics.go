package testutils

import (
	"errors"
	"time"
)

var errSendRejected = errors.New("send rejected by fake engine")

// NopMetrics implements ports.MetricsRecorder and discards everything.
type NopMetrics struct{}

func (NopMetrics) RecordOffer(string)                        {}
func (NopMetrics) ObserveHandshakeDuration(time.Duration)    {}
func (NopMetrics) ObserveICEGatheringDuration(time.Duration) {}
func (NopMetrics) SetConnectionActive(bool)                  {}
func (NopMetrics) RecordChannelOpened()                      {}
func (NopMetrics) RecordMessageReceived(int)                 {}
func (NopMetrics) RecordMessageSent()                        {}
func (NopMetrics) RecordSendFailure()                        {}
