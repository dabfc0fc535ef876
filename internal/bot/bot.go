package bot

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"hand_hockey/internal/domain"
	"hand_hockey/internal/logger"
	"hand_hockey/internal/match"
	"hand_hockey/internal/metrics"
	"hand_hockey/internal/ratelimit"
)

// PlayerStats - карьерная статистика игроков
type PlayerStats interface {
	GetByID(ctx context.Context, id int64) (*domain.Player, error)
	Top(ctx context.Context, limit int) ([]*domain.Player, error)
}

// MatchHistory - завершенные матчи чата
type MatchHistory interface {
	Recent(ctx context.Context, chatID int64, limit int) ([]*domain.Match, error)
}

// Bot принимает команды матча в групповых чатах и ответы игроков в личке
type Bot struct {
	api      *tgbotapi.BotAPI
	sender   Sender
	matches  *match.Lifecycle
	prompter *Prompter
	stats    PlayerStats
	history  MatchHistory
	limiter  ratelimit.Limiter
	metrics  *metrics.Recorder

	// сколько ждать /play: оба окна ожидания плюс запас
	playTimeout time.Duration

	stopCh chan struct{}
	wg     sync.WaitGroup
	log    *slog.Logger
}

type Options struct {
	Stats       PlayerStats
	History     MatchHistory
	Limiter     ratelimit.Limiter
	Metrics     *metrics.Recorder
	PlayTimeout time.Duration
}

// NewAPI авторизует бота в Telegram
func NewAPI(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	logger.With("component", "bot").Info("bot authorized", "username", api.Self.UserName)
	return api, nil
}

func New(api *tgbotapi.BotAPI, matches *match.Lifecycle, prompter *Prompter, opts Options) *Bot {
	b := &Bot{
		api:         api,
		sender:      api,
		matches:     matches,
		prompter:    prompter,
		stats:       opts.Stats,
		history:     opts.History,
		limiter:     opts.Limiter,
		metrics:     opts.Metrics,
		playTimeout: opts.PlayTimeout,
		stopCh:      make(chan struct{}),
		log:         logger.With("component", "bot"),
	}
	if b.playTimeout <= 0 {
		b.playTimeout = time.Minute
	}
	return b
}

// Start запускает прослушивание обновлений
func (b *Bot) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.log.Info("starting bot update loop")

	for {
		select {
		case <-b.stopCh:
			b.log.Info("stopping bot update loop")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.dispatch(update)
		}
	}
}

func (b *Bot) dispatch(update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	// ответ на запрос числа
	if msg.Chat.IsPrivate() && !msg.IsCommand() {
		handled, reply := b.prompter.Deliver(msg.From.ID, msg.Text)
		if handled && reply != "" {
			b.reply(msg, reply)
		}
		return
	}
	if !msg.IsCommand() {
		return
	}

	b.wg.Add(1)
	go func(msg *tgbotapi.Message) {
		defer b.wg.Done()
		b.handleCommand(msg)
	}(msg)
}

// Stop плавно останавливает бота
func (b *Bot) Stop() {
	b.log.Info("stopping bot...")
	close(b.stopCh)
	b.api.StopReceivingUpdates()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.log.Info("bot stopped gracefully")
	case <-time.After(10 * time.Second):
		b.log.Warn("bot shutdown timeout, some handlers may not have completed")
	}
}

func (b *Bot) allowed(ctx context.Context, userID int64) bool {
	if b.limiter == nil {
		return true
	}
	ok, err := b.limiter.Allow(ctx, "cmd:"+strconv.FormatInt(userID, 10))
	if err != nil {
		b.log.Warn("rate limiter failed", "user_id", userID, "error", err)
		return true
	}
	if !ok {
		b.metrics.RateLimited()
	}
	return ok
}

func (b *Bot) reply(msg *tgbotapi.Message, text string) {
	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	reply.ParseMode = tgbotapi.ModeHTML
	reply.ReplyToMessageID = msg.MessageID
	if _, err := b.sender.Send(reply); err != nil {
		b.log.Error("error sending message", "chat_id", msg.Chat.ID, "error", err)
	}
}

func playerFrom(u *tgbotapi.User) domain.Player {
	return domain.Player{ID: u.ID, Username: u.UserName, FirstName: u.FirstName}
}
