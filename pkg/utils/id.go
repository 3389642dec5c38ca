package utils

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GenerateNegotiationID generates a unique ID for one offer/answer exchange.
func GenerateNegotiationID() string {
	return fmt.Sprintf("neg_%s", uuid.NewString())
}

// GenerateRequestID generates a unique HTTP request ID.
func GenerateRequestID() string {
	return fmt.Sprintf("req_%d_%s", time.Now().UnixNano(), uuid.NewString()[:8])
}
