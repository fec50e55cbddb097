package notifier

import (
	"context"
	"log"
)

// Sink delivers human-facing messages. Delivery is best-effort by contract:
// implementations must never let a failed send propagate to the caller.
type Sink interface {
	Notify(ctx context.Context, text string)
}

// NoopSink discards all messages; used when Telegram is not configured.
type NoopSink struct{}

func (NoopSink) Notify(context.Context, string) {}

// BestEffort adapts the Telegram notifier to the Sink contract, logging and
// swallowing delivery errors.
type BestEffort struct {
	T *TelegramNotifier
}

func (b BestEffort) Notify(ctx context.Context, text string) {
	if err := b.T.SendWithRetry(ctx, text, 2); err != nil {
		log.Printf("[WARN] notification dropped: %v", err)
	}
}

// FromConfig returns a best-effort Telegram sink when both token and chat
// are set, otherwise a NoopSink.
func FromConfig(botToken, chatID, proxy string) Sink {
	if botToken == "" || chatID == "" {
		return NoopSink{}
	}
	return BestEffort{T: NewTelegramNotifier(botToken, chatID, proxy)}
}
