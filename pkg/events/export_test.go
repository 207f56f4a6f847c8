package events

import (
	"log/slog"
	"time"
)

// NewWithChannel returns a connected publisher over ch.
func NewWithChannel(exchange string, timeout time.Duration, ch Channel, logger *slog.Logger) System {
	return &publisher{
		exchange: exchange,
		timeout:  timeout,
		logger:   logger,
		channel:  ch,
	}
}
