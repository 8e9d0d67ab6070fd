package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"fairrent/internal/model"
)

// EventLog records diagnostics of remote calls. Implementations must be safe
// for concurrent use.
type EventLog interface {
	LogValuation(ctx context.Context, entry *model.ValuationLog) error
	LogExchange(ctx context.Context, entry *model.ChatLog) error
}

const eventLogTimeout = 5 * time.Second

// recordAsync writes an event without blocking the caller
func recordAsync(events EventLog, logger *zap.Logger, write func(ctx context.Context, events EventLog) error) {
	if events == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), eventLogTimeout)
		defer cancel()
		if err := write(ctx, events); err != nil {
			logger.Warn("failed to write event log", zap.Error(err))
		}
	}()
}

func errorText(err error) *string {
	if err == nil {
		return nil
	}
	s := err.Error()
	return &s
}
