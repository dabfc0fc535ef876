package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"hand_hockey/internal/domain"
	"hand_hockey/internal/game"
	"hand_hockey/internal/logger"
	"hand_hockey/internal/metrics"
)

// Sender - часть tgbotapi.BotAPI, через которую бот пишет сообщения
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// сколько после закрытого по таймауту окна на число игрока отвечают подсказкой
const lateReplyWindow = 30 * time.Second

type waiter struct {
	matchID string
	rng     domain.Range
	ch      chan int
}

// Prompter спрашивает число у игрока в личных сообщениях и ждет ответа.
// Ответ приходит из цикла обновлений бота через Deliver.
type Prompter struct {
	sender  Sender
	metrics *metrics.Recorder
	log     *slog.Logger

	mu      sync.Mutex
	waiting map[int64]*waiter
	// когда у игрока закрылось окно ответа по таймауту
	late map[int64]time.Time
}

func NewPrompter(sender Sender, m *metrics.Recorder) *Prompter {
	return &Prompter{
		sender:  sender,
		metrics: m,
		log:     logger.With("component", "prompter"),
		waiting: make(map[int64]*waiter),
		late:    make(map[int64]time.Time),
	}
}

func (p *Prompter) Prompt(ctx context.Context, pr game.Prompt) (int, error) {
	w := &waiter{matchID: pr.MatchID, rng: pr.Range, ch: make(chan int, 1)}
	id := pr.Player.PlayerID

	p.mu.Lock()
	p.waiting[id] = w
	delete(p.late, id)
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		if p.waiting[id] == w {
			delete(p.waiting, id)
		}
		p.mu.Unlock()
	}()

	msg := tgbotapi.NewMessage(id, PromptText(pr))
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := p.sender.Send(msg); err != nil {
		return 0, fmt.Errorf("не удалось написать %s в личные сообщения, игрок должен открыть бота: %w", pr.Player.Name, err)
	}

	started := time.Now()
	select {
	case v := <-w.ch:
		p.metrics.PromptWait(time.Since(started).Seconds(), "answered")
		return v, nil
	case <-ctx.Done():
		p.metrics.PromptWait(time.Since(started).Seconds(), "timeout")
		p.mu.Lock()
		if p.waiting[id] == w {
			p.late[id] = time.Now()
		}
		p.mu.Unlock()
		p.log.Debug("prompt window closed", "match_id", pr.MatchID, "player_id", id, "kind", pr.Kind)
		return 0, ctx.Err()
	}
}

// Deliver передает ответ игрока ожидающему запросу.
// handled=false - от игрока ничего не ждут; reply - подсказка, если ответ не число
// или пришел сразу после того, как окно ответа закрылось.
func (p *Prompter) Deliver(playerID int64, text string) (handled bool, reply string) {
	p.mu.Lock()
	w, ok := p.waiting[playerID]
	closed, wasLate := p.late[playerID]
	if !ok && wasLate {
		delete(p.late, playerID)
	}
	p.mu.Unlock()
	if !ok {
		if _, err := strconv.Atoi(strings.TrimSpace(text)); err == nil && wasLate && time.Since(closed) < lateReplyWindow {
			return true, "⏳ Время на ответ вышло, это число не засчитано. Дождитесь следующего запроса."
		}
		return false, ""
	}

	v, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return true, fmt.Sprintf("Отправьте одно число от %d до %d", w.rng.Lo, w.rng.Hi)
	}
	select {
	case w.ch <- v:
	default:
		// ответ на этот запрос уже принят
	}
	return true, ""
}

// Waiting сообщает, ждет ли бот числа от игрока
func (p *Prompter) Waiting(playerID int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.waiting[playerID]
	return ok
}

// PromptText - текст запроса числа
func PromptText(p game.Prompt) string {
	var sb strings.Builder
	switch p.Kind {
	case game.PromptRetry:
		sb.WriteString("❌ Число вне диапазона. Последняя попытка.\n\n")
	case game.PromptWarning:
		sb.WriteString("⚠️ <b>Вы не ответили!</b> Это последнее предупреждение.\n\n")
	}

	side := "Атака"
	if p.Side == domain.SideDefender {
		side = "Защита"
	}
	fmt.Fprintf(&sb, "<b>Матч %s, раунд %d</b>\n", p.MatchID, p.Round)
	fmt.Fprintf(&sb, "%s. %s (%s)\n\n", p.Scenario.Description(), side, p.Player.Role.Name())
	fmt.Fprintf(&sb, "Отправьте число от <b>%d</b> до <b>%d</b>", p.Range.Lo, p.Range.Hi)
	if !p.Deadline.IsZero() {
		if left := time.Until(p.Deadline).Round(time.Second); left > 0 {
			fmt.Fprintf(&sb, " за %d сек.", int(left.Seconds()))
		}
	}
	return sb.String()
}
