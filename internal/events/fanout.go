package events

import (
	"context"

	"hand_hockey/internal/domain"
)

// Sink - получатель уведомлений
type Sink interface {
	Notify(ctx context.Context, n domain.Notification)
}

// Fanout передает уведомление каждому получателю по очереди
type Fanout []Sink

func (f Fanout) Notify(ctx context.Context, n domain.Notification) {
	for _, s := range f {
		if s != nil {
			s.Notify(ctx, n)
		}
	}
}
