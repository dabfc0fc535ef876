package match

import (
	"context"
	"math/rand"
	"sort"
	"sync"

	"hand_hockey/internal/domain"
)

// session - живой матч и все, что нужно для его сериализованного изменения
type session struct {
	mu    sync.Mutex
	match *domain.Match
	rng   *rand.Rand

	// отмена текущего розыгрыша; nil, если раунд не идет
	roundCancel context.CancelFunc
}

func newSession(m *domain.Match) *session {
	return &session{
		match: m,
		rng:   rand.New(rand.NewSource(m.Seed)),
	}
}

// cancelRound прерывает ожидание ввода; вызывается под s.mu
func (s *session) cancelRound() {
	if s.roundCancel != nil {
		s.roundCancel()
		s.roundCancel = nil
	}
}

// Registry - набор живых матчей процесса.
// Создается при старте, матч добавляется при создании и удаляется при переходе в конечное состояние.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*session
	byChat   map[int64]string
	byPlayer map[int64]string
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*session),
		byChat:   make(map[int64]string),
		byPlayer: make(map[int64]string),
	}
}

// insert регистрирует матч; в чате может быть только один живой матч
func (r *Registry) insert(s *session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := s.match
	if _, ok := r.sessions[m.ID]; ok {
		return &domain.ValidationError{Field: "match", Reason: "матч с таким id уже существует"}
	}
	if id, ok := r.byChat[m.ChatID]; ok {
		return &domain.ValidationError{Field: "chat", Reason: "в чате уже идет матч " + id}
	}
	for _, pid := range m.Roster.IDs() {
		if id, ok := r.byPlayer[pid]; ok {
			return &domain.ValidationError{Field: "player", Reason: "игрок уже участвует в матче " + id}
		}
	}

	r.sessions[m.ID] = s
	r.byChat[m.ChatID] = m.ID
	for _, pid := range m.Roster.IDs() {
		r.byPlayer[pid] = m.ID
	}
	return nil
}

func (r *Registry) get(id string) (*session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *Registry) exists(id string) bool {
	_, ok := r.get(id)
	return ok
}

// remove убирает матч и все его индексы
func (r *Registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return
	}
	delete(r.sessions, id)
	for chat, mid := range r.byChat {
		if mid == id {
			delete(r.byChat, chat)
		}
	}
	for pid, mid := range r.byPlayer {
		if mid == id {
			delete(r.byPlayer, pid)
		}
	}
}

// reservePlayer привязывает игрока к матчу, если он свободен
func (r *Registry) reservePlayer(playerID int64, matchID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byPlayer[playerID]; ok && id != matchID {
		return &domain.ValidationError{Field: "player", Reason: "игрок уже участвует в матче " + id}
	}
	r.byPlayer[playerID] = matchID
	return nil
}

func (r *Registry) releasePlayer(playerID int64, matchID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byPlayer[playerID] == matchID {
		delete(r.byPlayer, playerID)
	}
}

// ByChat возвращает id живого матча чата
func (r *Registry) ByChat(chatID int64) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byChat[chatID]
	return id, ok
}

// ByPlayer возвращает id живого матча игрока
func (r *Registry) ByPlayer(playerID int64) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byPlayer[playerID]
	return id, ok
}

// IDs возвращает id живых матчей по возрастанию
func (r *Registry) IDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
