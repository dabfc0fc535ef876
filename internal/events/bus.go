package events

import (
	"context"
	"sync"

	"hand_hockey/internal/domain"
	"hand_hockey/internal/logger"
)

// AllMatches - подписка на уведомления всех матчей
const AllMatches = "*"

const subscriberBuffer = 64

// Bus раздает уведомления подписчикам матча в памяти процесса.
// Медленный подписчик теряет сообщения, но не тормозит матч.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string]map[int]chan domain.Notification
	nextID int
	closed bool
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[int]chan domain.Notification)}
}

// Subscribe возвращает канал уведомлений матча и функцию отписки
func (b *Bus) Subscribe(matchID string) (<-chan domain.Notification, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan domain.Notification, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	if b.subs[matchID] == nil {
		b.subs[matchID] = make(map[int]chan domain.Notification)
	}
	b.subs[matchID][id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() { b.unsubscribe(matchID, id) })
	}
}

func (b *Bus) unsubscribe(matchID string, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.subs[matchID][id]
	if !ok {
		return
	}
	delete(b.subs[matchID], id)
	if len(b.subs[matchID]) == 0 {
		delete(b.subs, matchID)
	}
	close(ch)
}

// Notify отправляет уведомление подписчикам матча и подписчикам всех матчей
func (b *Bus) Notify(_ context.Context, n domain.Notification) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, key := range []string{n.MatchID, AllMatches} {
		for _, ch := range b.subs[key] {
			select {
			case ch <- n:
			default:
				logger.Warn("bus subscriber is full, notification dropped", "match_id", n.MatchID, "kind", n.Kind)
			}
		}
	}
}

// Subscribers - число подписчиков матча
func (b *Bus) Subscribers(matchID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[matchID])
}

// Close закрывает все каналы подписчиков
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, m := range b.subs {
		for _, ch := range m {
			close(ch)
		}
	}
	b.subs = make(map[string]map[int]chan domain.Notification)
	b.closed = true
}
