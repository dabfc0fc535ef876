package match

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"hand_hockey/internal/domain"
	"hand_hockey/internal/game"
	"hand_hockey/internal/logger"
	"hand_hockey/internal/metrics"
)

// Store - логические операции хранилища, которые нужны жизненному циклу
type Store interface {
	UpsertPlayer(ctx context.Context, p domain.Player) error
	CreateMatch(ctx context.Context, m *domain.Match) error
	AddMatchPlayer(ctx context.Context, matchID string, p domain.MatchPlayer) error
	RemoveMatchPlayer(ctx context.Context, matchID string, playerID int64) error
	SubstitutePlayer(ctx context.Context, matchID string, outID int64, in domain.MatchPlayer) error
	// SaveAssignments сохраняет команды, амплуа, капитанов и состояние матча
	SaveAssignments(ctx context.Context, m *domain.Match) error
	UpdateMatchState(ctx context.Context, m *domain.Match) error
	// RecordRound сохраняет событие раунда вместе со счетом и счетчиками игроков
	RecordRound(ctx context.Context, m *domain.Match, ev domain.ActionEvent) error
	FinishMatch(ctx context.Context, m *domain.Match, sum domain.MatchSummary) error
}

// Notifier получает уведомления о принятых переходах; отрисовка на его стороне
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}

type Config struct {
	MaxPlayers     int
	MatchTimeout   time.Duration
	RoundsPerMatch int
	Admins         []int64
}

func DefaultConfig() Config {
	return Config{
		MaxPlayers:     10,
		MatchTimeout:   10 * time.Minute,
		RoundsPerMatch: 20,
	}
}

// сколько последних уведомлений хранится в матче
const notificationHistory = 50

const maxTeamNameLen = 32

type Option func(*Lifecycle)

// WithClock подменяет часы (тесты)
func WithClock(now func() time.Time) Option {
	return func(l *Lifecycle) { l.now = now }
}

// WithSeeds подменяет источник зерен матчей
func WithSeeds(seed func() int64) Option {
	return func(l *Lifecycle) { l.newSeed = seed }
}

// WithIDs подменяет генераторы id матчей и событий
func WithIDs(matchID, eventID func() string) Option {
	return func(l *Lifecycle) {
		l.newMatchID = matchID
		l.newEventID = eventID
	}
}

func WithMetrics(m *metrics.Recorder) Option {
	return func(l *Lifecycle) { l.metrics = m }
}

// Lifecycle - машина состояний матчей. Каждый матч меняется только под своим мьютексом,
// разные матчи друг друга не блокируют.
type Lifecycle struct {
	cfg      Config
	reg      *Registry
	engine   *game.Engine
	store    Store
	notifier Notifier
	keeper   game.ScoreKeeper
	metrics  *metrics.Recorder

	now        func() time.Time
	newSeed    func() int64
	newMatchID func() string
	newEventID func() string

	log *slog.Logger
}

func New(cfg Config, reg *Registry, engine *game.Engine, store Store, notifier Notifier, opts ...Option) *Lifecycle {
	def := DefaultConfig()
	if cfg.MatchTimeout <= 0 {
		cfg.MatchTimeout = def.MatchTimeout
	}
	if cfg.MaxPlayers <= 0 {
		cfg.MaxPlayers = def.MaxPlayers
	}
	l := &Lifecycle{
		cfg:        cfg,
		reg:        reg,
		engine:     engine,
		store:      store,
		notifier:   notifier,
		now:        time.Now,
		newSeed:    NewSeed,
		newMatchID: NewMatchID,
		newEventID: NewEventID,
		log:        logger.With("component", "lifecycle"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Registry возвращает реестр живых матчей
func (l *Lifecycle) Registry() *Registry {
	return l.reg
}

func (l *Lifecycle) isAdmin(id int64) bool {
	return slices.Contains(l.cfg.Admins, id)
}

func (l *Lifecycle) requireHost(op string, m *domain.Match, actor int64) error {
	if actor == m.HostID || l.isAdmin(actor) {
		return nil
	}
	return &domain.PermissionError{Op: op, Actor: actor}
}

func requireState(op string, m *domain.Match, allowed ...domain.State) error {
	if slices.Contains(allowed, m.State) {
		return nil
	}
	return &domain.StateConflictError{Op: op, Current: m.State, Requested: allowed[0]}
}

func (l *Lifecycle) session(matchID string) (*session, error) {
	s, ok := l.reg.get(matchID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrMatchNotFound, matchID)
	}
	return s, nil
}

func note(kind domain.NotificationKind, m *domain.Match, from domain.State, actor int64, details map[string]any) domain.Notification {
	return domain.Notification{
		Kind:    kind,
		From:    from,
		To:      m.State,
		Actor:   actor,
		Details: details,
	}
}

type change func(ctx context.Context, s *session, m *domain.Match) ([]domain.Notification, error)

// apply выполняет переход над копией матча. Если fn вернула ошибку, матч не меняется;
// иначе копия (уже записанная fn в хранилище) становится текущим состоянием.
// Просроченный матч сначала закрывается, и операция получает StateConflictError.
func (l *Lifecycle) apply(ctx context.Context, op, matchID string, fn change) (*domain.Match, error) {
	s, err := l.session(matchID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if snap, notes, err := l.expireIfDue(ctx, s, op); err != nil {
		s.mu.Unlock()
		if snap != nil {
			l.finalize(ctx, snap, notes)
		}
		return nil, err
	}
	m := s.match.Clone()
	m.Touch(l.now(), l.cfg.MatchTimeout)
	notes, err := fn(ctx, s, m)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	snap := l.commit(s, m, notes)
	s.mu.Unlock()

	l.finalize(ctx, snap, notes)
	return snap, nil
}

// commit фиксирует новое состояние; вызывается под s.mu
func (l *Lifecycle) commit(s *session, m *domain.Match, notes []domain.Notification) *domain.Match {
	now := l.now()
	for i := range notes {
		notes[i].MatchID = m.ID
		notes[i].ChatID = m.ChatID
		notes[i].Score = m.Score
		notes[i].CreatedAt = now
	}
	m.Notifications = append(m.Notifications, notes...)
	if n := len(m.Notifications); n > notificationHistory {
		m.Notifications = append([]domain.Notification(nil), m.Notifications[n-notificationHistory:]...)
	}
	if m.State.Terminal() {
		s.cancelRound()
	}
	s.match = m
	return m.Clone()
}

// finalize снимает конечный матч с реестра и рассылает уведомления; вызывается без s.mu
func (l *Lifecycle) finalize(ctx context.Context, snap *domain.Match, notes []domain.Notification) {
	if snap.State.Terminal() {
		l.reg.remove(snap.ID)
		l.metrics.MatchEnded(string(snap.State))
	}
	log := logger.ForMatch("lifecycle", snap.ID)
	for _, n := range notes {
		if n.From != n.To {
			log.Info("match transition", "kind", n.Kind, "from", n.From, "to", n.To, "actor", n.Actor)
		} else {
			log.Debug("match updated", "kind", n.Kind, "actor", n.Actor)
		}
		if l.notifier != nil {
			l.notifier.Notify(ctx, n)
		}
	}
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: сохранение: %w", op, err)
}

// Create создает матч в чате; хост сразу становится участником
func (l *Lifecycle) Create(ctx context.Context, host domain.Player, chatID int64) (*domain.Match, error) {
	if id, ok := l.reg.ByChat(chatID); ok && !l.reclaim(ctx, id) {
		return nil, &domain.ValidationError{Field: "chat", Reason: "в чате уже идет матч " + id}
	}
	if id, ok := l.reg.ByPlayer(host.ID); ok && !l.reclaim(ctx, id) {
		return nil, &domain.ValidationError{Field: "player", Reason: "игрок уже участвует в матче " + id}
	}

	now := l.now()
	id := l.newMatchID()
	for i := 0; i < 3 && l.reg.exists(id); i++ {
		id = l.newMatchID()
	}
	m := domain.NewMatch(id, host.ID, chatID, l.newSeed(), now, l.cfg.MatchTimeout)
	hp := domain.MatchPlayer{PlayerID: host.ID, Name: host.DisplayName(), JoinedAt: now}
	if err := m.Roster.Add(hp); err != nil {
		return nil, err
	}

	s := newSession(m)
	if err := l.reg.insert(s); err != nil {
		return nil, err
	}
	if err := l.store.UpsertPlayer(ctx, host); err != nil {
		l.reg.remove(id)
		return nil, storeErr("create", err)
	}
	if err := l.store.CreateMatch(ctx, m); err != nil {
		l.reg.remove(id)
		return nil, storeErr("create", err)
	}

	s.mu.Lock()
	notes := []domain.Notification{note(domain.NoteCreated, m, domain.StateWaiting, host.ID, map[string]any{"host": hp.Name})}
	snap := l.commit(s, m, notes)
	s.mu.Unlock()

	l.metrics.MatchCreated()
	l.finalize(ctx, snap, notes)
	return snap, nil
}

// Join добавляет игрока, пока матч собирается
func (l *Lifecycle) Join(ctx context.Context, matchID string, p domain.Player) (*domain.Match, error) {
	return l.apply(ctx, "join", matchID, func(ctx context.Context, s *session, m *domain.Match) ([]domain.Notification, error) {
		if err := requireState("join", m, domain.StateWaiting); err != nil {
			return nil, err
		}
		if m.Roster.Len() >= l.cfg.MaxPlayers {
			return nil, &domain.ValidationError{Field: "players", Reason: fmt.Sprintf("в матче уже %d игроков", l.cfg.MaxPlayers)}
		}
		mp := domain.MatchPlayer{PlayerID: p.ID, Name: p.DisplayName(), JoinedAt: l.now()}
		if err := m.Roster.Add(mp); err != nil {
			return nil, err
		}
		if err := l.reg.reservePlayer(p.ID, m.ID); err != nil {
			return nil, err
		}
		if err := l.store.UpsertPlayer(ctx, p); err != nil {
			l.reg.releasePlayer(p.ID, m.ID)
			return nil, storeErr("join", err)
		}
		if err := l.store.AddMatchPlayer(ctx, m.ID, mp); err != nil {
			l.reg.releasePlayer(p.ID, m.ID)
			return nil, storeErr("join", err)
		}
		return []domain.Notification{note(domain.NotePlayerJoined, m, m.State, p.ID, map[string]any{
			"player":  mp.Name,
			"players": m.Roster.Len(),
		})}, nil
	})
}

// Leave убирает игрока до жеребьевки
func (l *Lifecycle) Leave(ctx context.Context, matchID string, playerID int64) (*domain.Match, error) {
	return l.apply(ctx, "leave", matchID, func(ctx context.Context, s *session, m *domain.Match) ([]domain.Notification, error) {
		if err := requireState("leave", m, domain.StateWaiting, domain.StateSetup); err != nil {
			return nil, err
		}
		if playerID == m.HostID {
			return nil, &domain.ValidationError{Field: "player", Reason: "хост не может покинуть матч, используйте отмену"}
		}
		p, err := m.Player(playerID)
		if err != nil {
			return nil, err
		}
		if p.Captain {
			if t := m.Team(p.Team); t != nil {
				t.Captain = 0
			}
		}
		left, _ := m.Roster.Remove(playerID)
		if err := l.store.RemoveMatchPlayer(ctx, m.ID, playerID); err != nil {
			return nil, storeErr("leave", err)
		}
		l.reg.releasePlayer(playerID, m.ID)
		return []domain.Notification{note(domain.NotePlayerLeft, m, m.State, playerID, map[string]any{"player": left.Name})}, nil
	})
}

// Assign вручную назначает игроку команду и амплуа
func (l *Lifecycle) Assign(ctx context.Context, matchID string, actor, playerID int64, team domain.TeamLabel, role domain.Role) (*domain.Match, error) {
	return l.apply(ctx, "assign", matchID, func(ctx context.Context, s *session, m *domain.Match) ([]domain.Notification, error) {
		if err := l.requireHost("assign", m, actor); err != nil {
			return nil, err
		}
		if err := requireState("assign", m, domain.StateWaiting, domain.StateSetup); err != nil {
			return nil, err
		}
		if !team.Valid() {
			return nil, &domain.ValidationError{Field: "team", Reason: "команда должна быть A или B"}
		}
		if !role.Valid() {
			return nil, &domain.ValidationError{Field: "role", Reason: "амплуа должно быть одним из: ST, MF, DEF, GK"}
		}
		p, err := m.Player(playerID)
		if err != nil {
			return nil, err
		}
		if p.Team != team && p.Captain {
			if t := m.Team(p.Team); t != nil {
				t.Captain = 0
			}
			p.Captain = false
		}
		p.Team, p.Role = team, role

		from := m.State
		m.State = domain.StateSetup
		if err := l.store.SaveAssignments(ctx, m); err != nil {
			return nil, storeErr("assign", err)
		}
		return []domain.Notification{note(domain.NoteAssigned, m, from, actor, map[string]any{
			"player": p.Name,
			"team":   string(team),
			"role":   string(role),
		})}, nil
	})
}

// SetCaptain назначает капитана команды из ее игроков
func (l *Lifecycle) SetCaptain(ctx context.Context, matchID string, actor int64, team domain.TeamLabel, playerID int64) (*domain.Match, error) {
	return l.apply(ctx, "captain", matchID, func(ctx context.Context, s *session, m *domain.Match) ([]domain.Notification, error) {
		if err := l.requireHost("captain", m, actor); err != nil {
			return nil, err
		}
		if err := requireState("captain", m, domain.StateSetup); err != nil {
			return nil, err
		}
		t := m.Team(team)
		if t == nil {
			return nil, &domain.ValidationError{Field: "team", Reason: "команда должна быть A или B"}
		}
		if _, err := game.ConfirmCaptain(team, memberIDs(m, team), playerID); err != nil {
			return nil, err
		}
		setCaptain(m, team, playerID)
		if err := l.store.SaveAssignments(ctx, m); err != nil {
			return nil, storeErr("captain", err)
		}
		p, _ := m.Roster.Get(playerID)
		return []domain.Notification{note(domain.NoteCaptain, m, m.State, actor, map[string]any{
			"team":   string(team),
			"player": p.Name,
		})}, nil
	})
}

// RenameTeam меняет отображаемое имя команды; доступно хосту и капитану команды
func (l *Lifecycle) RenameTeam(ctx context.Context, matchID string, actor int64, team domain.TeamLabel, name string) (*domain.Match, error) {
	return l.apply(ctx, "rename", matchID, func(ctx context.Context, s *session, m *domain.Match) ([]domain.Notification, error) {
		t := m.Team(team)
		if t == nil {
			return nil, &domain.ValidationError{Field: "team", Reason: "команда должна быть A или B"}
		}
		if actor != t.Captain {
			if err := l.requireHost("rename", m, actor); err != nil {
				return nil, err
			}
		}
		if err := requireState("rename", m, domain.StateWaiting, domain.StateSetup, domain.StateTossed, domain.StateInProgress); err != nil {
			return nil, err
		}
		name = strings.TrimSpace(name)
		if name == "" || utf8.RuneCountInString(name) > maxTeamNameLen {
			return nil, &domain.ValidationError{Field: "name", Reason: fmt.Sprintf("имя команды от 1 до %d символов", maxTeamNameLen)}
		}
		old := t.Name
		t.Name = name
		if err := l.store.SaveAssignments(ctx, m); err != nil {
			return nil, storeErr("rename", err)
		}
		return []domain.Notification{note(domain.NoteTeamRenamed, m, m.State, actor, map[string]any{
			"team": string(team),
			"old":  old,
			"name": name,
		})}, nil
	})
}

// Shuffle случайно делит игроков на команды, раздает амплуа и капитанов.
// seed == nil - зерно берется из генератора матча.
func (l *Lifecycle) Shuffle(ctx context.Context, matchID string, actor int64, seed *int64) (*domain.Match, error) {
	return l.apply(ctx, "shuffle", matchID, func(ctx context.Context, s *session, m *domain.Match) ([]domain.Notification, error) {
		if err := l.requireHost("shuffle", m, actor); err != nil {
			return nil, err
		}
		if err := requireState("shuffle", m, domain.StateWaiting, domain.StateSetup); err != nil {
			return nil, err
		}
		ids := m.Roster.IDs()
		if len(ids) == 0 {
			return nil, &domain.EmptyTeamError{Team: domain.TeamA}
		}
		if len(ids) == 1 {
			return nil, &domain.EmptyTeamError{Team: domain.TeamB}
		}

		sd := s.rng.Int63()
		if seed != nil {
			sd = *seed
		}
		teamA, teamB := game.Shuffle(ids, sd)
		for _, p := range m.Roster.Players() {
			p.Captain = false
		}
		for i, side := range []struct {
			label   domain.TeamLabel
			members []int64
		}{{domain.TeamA, teamA}, {domain.TeamB, teamB}} {
			for _, a := range game.AssignRoles(side.members) {
				p, _ := m.Roster.Get(a.PlayerID)
				p.Team, p.Role = side.label, a.Role
			}
			captain, err := game.PickCaptain(side.label, side.members, sd+int64(i)+1)
			if err != nil {
				return nil, err
			}
			setCaptain(m, side.label, captain)
		}

		from := m.State
		m.State = domain.StateSetup
		if err := l.store.SaveAssignments(ctx, m); err != nil {
			return nil, storeErr("shuffle", err)
		}
		return []domain.Notification{note(domain.NoteShuffled, m, from, actor, map[string]any{
			"seed":      sd,
			"missing_a": game.ValidateFormation(roles(m, domain.TeamA)),
			"missing_b": game.ValidateFormation(roles(m, domain.TeamB)),
		})}, nil
	})
}

// Toss проверяет составы и бросает монету
func (l *Lifecycle) Toss(ctx context.Context, matchID string, actor int64) (*domain.Match, error) {
	return l.apply(ctx, "toss", matchID, func(ctx context.Context, s *session, m *domain.Match) ([]domain.Notification, error) {
		if err := l.requireHost("toss", m, actor); err != nil {
			return nil, err
		}
		if err := requireState("toss", m, domain.StateSetup); err != nil {
			return nil, err
		}
		if un := m.Roster.Unassigned(); len(un) > 0 {
			names := make([]string, 0, len(un))
			for _, p := range un {
				names = append(names, p.Name)
			}
			return nil, &domain.ValidationError{Field: "roster", Reason: "нет команды или амплуа: " + strings.Join(names, ", ")}
		}
		for _, label := range []domain.TeamLabel{domain.TeamA, domain.TeamB} {
			members := memberIDs(m, label)
			if len(members) == 0 {
				return nil, &domain.EmptyTeamError{Team: label}
			}
			if m.Team(label).Captain == 0 {
				captain, err := game.PickCaptain(label, members, s.rng.Int63())
				if err != nil {
					return nil, err
				}
				setCaptain(m, label, captain)
			}
		}

		winner := game.CoinToss(s.rng)
		m.Toss = domain.Toss{Winner: winner}
		m.State = domain.StateTossed
		if err := l.store.SaveAssignments(ctx, m); err != nil {
			return nil, storeErr("toss", err)
		}
		return []domain.Notification{note(domain.NoteTossed, m, domain.StateSetup, actor, map[string]any{
			"winner":    string(winner),
			"captain":   m.Team(winner).Captain,
			"missing_a": game.ValidateFormation(roles(m, domain.TeamA)),
			"missing_b": game.ValidateFormation(roles(m, domain.TeamB)),
		})}, nil
	})
}

// ChooseAction фиксирует выбор победителя жеребьевки: атака или защита
func (l *Lifecycle) ChooseAction(ctx context.Context, matchID string, actor int64, action domain.Action) (*domain.Match, error) {
	return l.apply(ctx, "choose", matchID, func(ctx context.Context, s *session, m *domain.Match) ([]domain.Notification, error) {
		if err := requireState("choose", m, domain.StateTossed); err != nil {
			return nil, err
		}
		if actor != m.Team(m.Toss.Winner).Captain {
			if err := l.requireHost("choose", m, actor); err != nil {
				return nil, err
			}
		}
		switch action {
		case domain.ActionAttack:
			m.Possession = m.Toss.Winner
		case domain.ActionDefend:
			m.Possession = m.Toss.Winner.Other()
		default:
			return nil, &domain.ValidationError{Field: "action", Reason: "нужно выбрать attack или defend"}
		}
		m.Toss.Choice = action
		if err := l.store.UpdateMatchState(ctx, m); err != nil {
			return nil, storeErr("choose", err)
		}
		return []domain.Notification{note(domain.NoteActionChosen, m, m.State, actor, map[string]any{
			"winner":     string(m.Toss.Winner),
			"choice":     string(action),
			"possession": string(m.Possession),
		})}, nil
	})
}

// Start начинает игру после выбора атаки или защиты
func (l *Lifecycle) Start(ctx context.Context, matchID string, actor int64) (*domain.Match, error) {
	return l.apply(ctx, "start", matchID, func(ctx context.Context, s *session, m *domain.Match) ([]domain.Notification, error) {
		if err := l.requireHost("start", m, actor); err != nil {
			return nil, err
		}
		if err := requireState("start", m, domain.StateTossed); err != nil {
			return nil, err
		}
		if m.Toss.Choice == domain.ActionNone {
			return nil, &domain.ValidationError{Field: "action", Reason: "победитель жеребьевки еще не выбрал атаку или защиту"}
		}
		now := l.now()
		m.StartedAt = &now
		m.State = domain.StateInProgress
		if err := l.store.UpdateMatchState(ctx, m); err != nil {
			return nil, storeErr("start", err)
		}
		return []domain.Notification{note(domain.NoteStarted, m, domain.StateTossed, actor, map[string]any{
			"possession": string(m.Possession),
		})}, nil
	})
}

// Substitute заменяет игрока новым; новичок наследует команду, амплуа и капитанство
func (l *Lifecycle) Substitute(ctx context.Context, matchID string, actor, outID int64, in domain.Player) (*domain.Match, error) {
	return l.apply(ctx, "substitute", matchID, func(ctx context.Context, s *session, m *domain.Match) ([]domain.Notification, error) {
		if err := l.requireHost("substitute", m, actor); err != nil {
			return nil, err
		}
		if err := requireState("substitute", m, domain.StateSetup, domain.StateTossed, domain.StateInProgress); err != nil {
			return nil, err
		}
		// участники текущего раунда уже получили запросы
		if s.roundCancel != nil {
			return nil, domain.ErrRoundInProgress
		}
		if outID == m.HostID {
			return nil, &domain.ValidationError{Field: "player", Reason: "хоста нельзя заменить"}
		}
		out, err := m.Player(outID)
		if err != nil {
			return nil, err
		}
		if _, ok := m.Roster.Get(in.ID); ok {
			return nil, &domain.ValidationError{Field: "player", Reason: "игрок уже в матче"}
		}
		mp := domain.MatchPlayer{
			PlayerID: in.ID,
			Name:     in.DisplayName(),
			Team:     out.Team,
			Role:     out.Role,
			Captain:  out.Captain,
			JoinedAt: l.now(),
		}
		if out.Captain {
			m.Team(out.Team).Captain = in.ID
		}
		outName := out.Name
		m.Roster.Remove(outID)
		if err := m.Roster.Add(mp); err != nil {
			return nil, err
		}

		if err := l.reg.reservePlayer(in.ID, m.ID); err != nil {
			return nil, err
		}
		if err := l.store.UpsertPlayer(ctx, in); err != nil {
			l.reg.releasePlayer(in.ID, m.ID)
			return nil, storeErr("substitute", err)
		}
		if err := l.store.SubstitutePlayer(ctx, m.ID, outID, mp); err != nil {
			l.reg.releasePlayer(in.ID, m.ID)
			return nil, storeErr("substitute", err)
		}
		l.reg.releasePlayer(outID, m.ID)
		return []domain.Notification{note(domain.NoteSubstituted, m, m.State, actor, map[string]any{
			"out":  outName,
			"in":   mp.Name,
			"team": string(mp.Team),
			"role": string(mp.Role),
		})}, nil
	})
}

// Finish завершает матч по решению хоста
func (l *Lifecycle) Finish(ctx context.Context, matchID string, actor int64) (*domain.Match, error) {
	return l.apply(ctx, "finish", matchID, func(ctx context.Context, s *session, m *domain.Match) ([]domain.Notification, error) {
		if err := l.requireHost("finish", m, actor); err != nil {
			return nil, err
		}
		if err := requireState("finish", m, domain.StateInProgress); err != nil {
			return nil, err
		}
		n, err := l.finish(ctx, m, actor)
		if err != nil {
			return nil, err
		}
		return []domain.Notification{n}, nil
	})
}

// finish подводит итоги и пишет карьерную статистику
func (l *Lifecycle) finish(ctx context.Context, m *domain.Match, actor int64) (domain.Notification, error) {
	from := m.State
	now := l.now()
	m.State = domain.StateFinished
	m.EndedAt = &now
	sum := game.Summarize(m)
	if err := l.store.FinishMatch(ctx, m, sum); err != nil {
		return domain.Notification{}, storeErr("finish", err)
	}
	return note(domain.NoteFinished, m, from, actor, map[string]any{"summary": sum}), nil
}

// Cancel прерывает матч; текущий раунд отменяется без изменения счета
func (l *Lifecycle) Cancel(ctx context.Context, matchID string, actor int64) (*domain.Match, error) {
	return l.apply(ctx, "cancel", matchID, func(ctx context.Context, s *session, m *domain.Match) ([]domain.Notification, error) {
		if err := l.requireHost("cancel", m, actor); err != nil {
			return nil, err
		}
		if m.State.Terminal() {
			return nil, &domain.StateConflictError{Op: "cancel", Current: m.State, Requested: domain.StateCancelled}
		}
		from := m.State
		now := l.now()
		m.State = domain.StateCancelled
		m.EndedAt = &now
		if err := l.store.UpdateMatchState(ctx, m); err != nil {
			return nil, storeErr("cancel", err)
		}
		return []domain.Notification{note(domain.NoteCancelled, m, from, actor, nil)}, nil
	})
}

// Expire закрывает матч, срок которого истек
func (l *Lifecycle) Expire(ctx context.Context, matchID string) (*domain.Match, error) {
	s, err := l.session(matchID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.match.State.Terminal() {
		cur := s.match.State
		s.mu.Unlock()
		return nil, &domain.StateConflictError{Op: "expire", Current: cur, Requested: domain.StateExpired}
	}
	now := l.now()
	if !s.match.Expired(now) {
		s.mu.Unlock()
		return nil, &domain.ValidationError{Field: "expires_at", Reason: "срок матча еще не истек"}
	}
	snap, notes, err := l.expire(ctx, s, now)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	l.finalize(ctx, snap, notes)
	return snap, nil
}

// expire переводит матч в expired и фиксирует его; вызывается под s.mu
func (l *Lifecycle) expire(ctx context.Context, s *session, now time.Time) (*domain.Match, []domain.Notification, error) {
	m := s.match.Clone()
	from := m.State
	m.State = domain.StateExpired
	m.EndedAt = &now
	m.UpdatedAt = now
	if err := l.store.UpdateMatchState(ctx, m); err != nil {
		return nil, nil, storeErr("expire", err)
	}
	notes := []domain.Notification{note(domain.NoteExpired, m, from, 0, nil)}
	return l.commit(s, m, notes), notes, nil
}

// expireIfDue закрывает матч, если дедлайн уже прошел, и возвращает ошибку для op.
// snap != nil - матч закрыт, вызывающий после s.mu.Unlock делает finalize.
// Вызывается под s.mu.
func (l *Lifecycle) expireIfDue(ctx context.Context, s *session, op string) (*domain.Match, []domain.Notification, error) {
	now := l.now()
	if !s.match.Expired(now) {
		return nil, nil, nil
	}
	from := s.match.State
	snap, notes, err := l.expire(ctx, s, now)
	if err != nil {
		return nil, nil, err
	}
	return snap, notes, &domain.StateConflictError{Op: op, Current: domain.StateExpired, Requested: from}
}

// reclaim закрывает просроченный матч, который занимает чат или игрока.
// true - матч закрыт или уже снят с реестра.
func (l *Lifecycle) reclaim(ctx context.Context, matchID string) bool {
	s, ok := l.reg.get(matchID)
	if !ok {
		return true
	}
	s.mu.Lock()
	snap, notes, err := l.expireIfDue(ctx, s, "create")
	s.mu.Unlock()
	if snap == nil {
		if err != nil {
			l.log.Warn("expire failed", "match_id", matchID, "err", err)
		}
		return false
	}
	l.finalize(ctx, snap, notes)
	return true
}

// Sweep закрывает все просроченные матчи и возвращает их число
func (l *Lifecycle) Sweep(ctx context.Context) int {
	now := l.now()
	n := 0
	for _, id := range l.reg.IDs() {
		s, ok := l.reg.get(id)
		if !ok {
			continue
		}
		s.mu.Lock()
		expired := s.match.Expired(now)
		s.mu.Unlock()
		if !expired {
			continue
		}
		if _, err := l.Expire(ctx, id); err != nil {
			l.log.Warn("expire failed", "match_id", id, "err", err)
			continue
		}
		n++
	}
	return n
}

// RunSweeper периодически закрывает просроченные матчи до отмены ctx
func (l *Lifecycle) RunSweeper(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := l.Sweep(ctx); n > 0 {
				l.log.Info("expired matches swept", "count", n)
			}
		}
	}
}

// Snapshot возвращает копию живого матча
func (l *Lifecycle) Snapshot(matchID string) (*domain.Match, error) {
	s, err := l.session(matchID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.match.Clone(), nil
}

// ByChat возвращает живой матч чата
func (l *Lifecycle) ByChat(chatID int64) (*domain.Match, error) {
	id, ok := l.reg.ByChat(chatID)
	if !ok {
		return nil, domain.ErrMatchNotFound
	}
	return l.Snapshot(id)
}

// ByPlayer возвращает живой матч игрока
func (l *Lifecycle) ByPlayer(playerID int64) (*domain.Match, error) {
	id, ok := l.reg.ByPlayer(playerID)
	if !ok {
		return nil, domain.ErrMatchNotFound
	}
	return l.Snapshot(id)
}

// List возвращает копии всех живых матчей
func (l *Lifecycle) List() []*domain.Match {
	ids := l.reg.IDs()
	out := make([]*domain.Match, 0, len(ids))
	for _, id := range ids {
		if m, err := l.Snapshot(id); err == nil {
			out = append(out, m)
		}
	}
	return out
}

func memberIDs(m *domain.Match, team domain.TeamLabel) []int64 {
	var ids []int64
	for _, p := range m.Roster.Members(team) {
		ids = append(ids, p.PlayerID)
	}
	return ids
}

func roles(m *domain.Match, team domain.TeamLabel) []domain.Role {
	var out []domain.Role
	for _, p := range m.Roster.Members(team) {
		out = append(out, p.Role)
	}
	return out
}

func setCaptain(m *domain.Match, team domain.TeamLabel, playerID int64) {
	for _, p := range m.Roster.Members(team) {
		p.Captain = p.PlayerID == playerID
	}
	m.Team(team).Captain = playerID
}
