package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"hand_hockey/internal/domain"
	"hand_hockey/internal/match"
)

// команды, которые работают в личке
var privateCommands = map[string]bool{"start": true, "help": true, "stats": true, "top": true}

// handleCommand разбирает команду и вызывает операцию матча.
// Успешные переходы озвучивает ChatNotifier, поэтому ответ часто пустой.
func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	cmd := strings.ToLower(msg.Command())
	timeout := 30 * time.Second
	if cmd == "play" {
		timeout = b.playTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if !b.allowed(ctx, msg.From.ID) {
		b.reply(msg, "⏳ Слишком много команд, подождите минуту")
		return
	}

	if msg.Chat.IsPrivate() && !privateCommands[cmd] {
		b.metrics.Command(cmd, "denied")
		b.reply(msg, "Команды матча работают в групповом чате. Здесь доступны /stats и /top.")
		return
	}

	response, err := b.run(ctx, cmd, msg)
	result := "ok"
	if err != nil {
		result = "error"
		if errors.Is(err, domain.ErrPermission) {
			result = "denied"
		}
		response = b.errorText(cmd, err)
	}
	b.metrics.Command(cmd, result)
	if response != "" {
		b.reply(msg, response)
	}
}

func (b *Bot) run(ctx context.Context, cmd string, msg *tgbotapi.Message) (string, error) {
	from := playerFrom(msg.From)
	chatID := msg.Chat.ID
	args := strings.Fields(msg.CommandArguments())

	switch cmd {
	case "help":
		return helpMessage(), nil
	case "start":
		if msg.Chat.IsPrivate() {
			return helpMessage(), nil
		}
		m, err := b.matches.ByChat(chatID)
		if err != nil {
			return "", err
		}
		_, err = b.matches.Start(ctx, m.ID, from.ID)
		return "", err
	case "stats":
		return b.handleStats(ctx, msg, args)
	case "top":
		return b.handleTop(ctx, args)
	case "history":
		return b.handleHistory(ctx, chatID)
	case "create":
		_, err := b.matches.Create(ctx, from, chatID)
		return "", err
	}

	m, err := b.matches.ByChat(chatID)
	if err != nil {
		return "", err
	}

	switch cmd {
	case "join":
		_, err = b.matches.Join(ctx, m.ID, from)
	case "leave":
		_, err = b.matches.Leave(ctx, m.ID, from.ID)
	case "assign":
		err = b.handleAssign(ctx, msg, m, args)
	case "captain":
		err = b.handleCaptain(ctx, msg, m, args)
	case "rename":
		if len(args) < 2 {
			return "Использование: /rename A Название", nil
		}
		var team domain.TeamLabel
		if team, err = domain.ParseTeam(args[0]); err == nil {
			_, err = b.matches.RenameTeam(ctx, m.ID, from.ID, team, strings.Join(args[1:], " "))
		}
	case "shuffle":
		var seed *int64
		if len(args) > 0 {
			v, perr := strconv.ParseInt(args[0], 10, 64)
			if perr != nil {
				return "Использование: /shuffle [seed]", nil
			}
			seed = &v
		}
		_, err = b.matches.Shuffle(ctx, m.ID, from.ID, seed)
	case "toss":
		_, err = b.matches.Toss(ctx, m.ID, from.ID)
	case "choose":
		if len(args) != 1 {
			return "Использование: /choose attack или /choose defend", nil
		}
		var action domain.Action
		if action, err = domain.ParseAction(args[0]); err == nil {
			_, err = b.matches.ChooseAction(ctx, m.ID, from.ID, action)
		}
	case "kickoff":
		_, err = b.matches.Start(ctx, m.ID, from.ID)
	case "play":
		var req match.RoundRequest
		if len(args) > 0 {
			if req.Scenario, err = domain.ParseScenario(args[0]); err != nil {
				return "", err
			}
		}
		_, err = b.matches.ResolveRound(ctx, m.ID, from.ID, req)
	case "sub":
		err = b.handleSub(ctx, msg, m, args)
	case "score":
		return RenderMatch(m), nil
	case "end":
		_, err = b.matches.Finish(ctx, m.ID, from.ID)
	case "cancel":
		_, err = b.matches.Cancel(ctx, m.ID, from.ID)
	default:
		return "❌ Неизвестная команда. Используйте /help для списка команд.", nil
	}
	return "", err
}

// handleAssign: /assign <игрок> <A|B> <ST|MF|DEF|GK> или ответом на сообщение игрока
func (b *Bot) handleAssign(ctx context.Context, msg *tgbotapi.Message, m *domain.Match, args []string) error {
	usage := &domain.ValidationError{Reason: "использование: /assign @игрок A ST (или ответом на сообщение игрока: /assign A ST)"}
	var who string
	switch {
	case replyUser(msg) != nil && len(args) == 2:
	case len(args) == 3:
		who, args = args[0], args[1:]
	default:
		return usage
	}
	playerID, err := targetPlayer(msg, m, who)
	if err != nil {
		return err
	}
	team, err := domain.ParseTeam(args[0])
	if err != nil {
		return err
	}
	role, err := domain.ParseRole(args[1])
	if err != nil {
		return err
	}
	_, err = b.matches.Assign(ctx, m.ID, msg.From.ID, playerID, team, role)
	return err
}

// handleCaptain: /captain <A|B> <игрок> или ответом на сообщение игрока
func (b *Bot) handleCaptain(ctx context.Context, msg *tgbotapi.Message, m *domain.Match, args []string) error {
	if len(args) == 0 {
		return &domain.ValidationError{Reason: "использование: /captain A @игрок"}
	}
	team, err := domain.ParseTeam(args[0])
	if err != nil {
		return err
	}
	who := ""
	if len(args) > 1 {
		who = args[1]
	}
	playerID, err := targetPlayer(msg, m, who)
	if err != nil {
		return err
	}
	_, err = b.matches.SetCaptain(ctx, m.ID, msg.From.ID, team, playerID)
	return err
}

// handleSub: ответом на сообщение нового игрока /sub @уходящий
func (b *Bot) handleSub(ctx context.Context, msg *tgbotapi.Message, m *domain.Match, args []string) error {
	in := replyUser(msg)
	if in == nil || len(args) != 1 {
		return &domain.ValidationError{Reason: "ответьте на сообщение нового игрока: /sub @уходящий"}
	}
	outID, err := rosterPlayer(m, args[0])
	if err != nil {
		return err
	}
	_, err = b.matches.Substitute(ctx, m.ID, msg.From.ID, outID, playerFrom(in))
	return err
}

func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message, args []string) (string, error) {
	if b.stats == nil {
		return "Статистика недоступна", nil
	}
	id := msg.From.ID
	if u := replyUser(msg); u != nil {
		id = u.ID
	} else if len(args) > 0 {
		v, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return "Использование: /stats [telegram id]", nil
		}
		id = v
	}
	p, err := b.stats.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if p == nil {
		return "Игрок еще не сыграл ни одного матча", nil
	}
	return RenderPlayer(p), nil
}

func (b *Bot) handleTop(ctx context.Context, args []string) (string, error) {
	if b.stats == nil {
		return "Статистика недоступна", nil
	}
	limit := 10
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 && n <= 50 {
			limit = n
		}
	}
	players, err := b.stats.Top(ctx, limit)
	if err != nil {
		return "", err
	}
	if len(players) == 0 {
		return "Рейтинг пока пуст", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>🏆 Топ %d бомбардиров</b>\n\n", limit)
	for i, p := range players {
		fmt.Fprintf(&sb, "%d. %s: ⚽%d · ⭐%.2f · матчей %d\n", i+1, html.EscapeString(p.DisplayName()), p.Goals, p.Rating, p.MatchesPlayed)
	}
	return sb.String(), nil
}

func (b *Bot) handleHistory(ctx context.Context, chatID int64) (string, error) {
	if b.history == nil {
		return "История недоступна", nil
	}
	matches, err := b.history.Recent(ctx, chatID, 10)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "В этом чате еще не было матчей", nil
	}
	var sb strings.Builder
	sb.WriteString("<b>Последние матчи</b>\n\n")
	for _, m := range matches {
		fmt.Fprintf(&sb, "%s · %s %d : %d %s · %s\n", m.ID,
			html.EscapeString(m.TeamA.Name), m.Score.A, m.Score.B, html.EscapeString(m.TeamB.Name), stateName(m.State))
	}
	return sb.String(), nil
}

func replyUser(msg *tgbotapi.Message) *tgbotapi.User {
	if msg.ReplyToMessage == nil || msg.ReplyToMessage.From == nil || msg.ReplyToMessage.From.IsBot {
		return nil
	}
	return msg.ReplyToMessage.From
}

// targetPlayer - игрок из ответа на сообщение, иначе из аргумента
func targetPlayer(msg *tgbotapi.Message, m *domain.Match, arg string) (int64, error) {
	if u := replyUser(msg); u != nil && arg == "" {
		return u.ID, nil
	}
	if arg == "" {
		return 0, &domain.ValidationError{Field: "player", Reason: "укажите игрока: @username, id или ответом на его сообщение"}
	}
	return rosterPlayer(m, arg)
}

// rosterPlayer находит участника по @username или telegram id
func rosterPlayer(m *domain.Match, arg string) (int64, error) {
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		if _, err := m.Player(id); err != nil {
			return 0, err
		}
		return id, nil
	}
	for _, p := range m.Roster.Players() {
		if strings.EqualFold(p.Name, arg) || strings.EqualFold(strings.TrimPrefix(p.Name, "@"), strings.TrimPrefix(arg, "@")) {
			return p.PlayerID, nil
		}
	}
	return 0, &domain.ValidationError{Field: "player", Reason: fmt.Sprintf("%s не участвует в матче", arg)}
}

var stateNames = map[domain.State]string{
	domain.StateWaiting:    "набор игроков",
	domain.StateSetup:      "настройка команд",
	domain.StateTossed:     "жеребьевка проведена",
	domain.StateInProgress: "идет игра",
	domain.StateFinished:   "завершен",
	domain.StateExpired:    "истек",
	domain.StateCancelled:  "отменен",
}

func stateName(s domain.State) string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return string(s)
}

// errorText переводит ошибку операции в ответ пользователю
func (b *Bot) errorText(cmd string, err error) string {
	var (
		validation *domain.ValidationError
		conflict   *domain.StateConflictError
		empty      *domain.EmptyTeamError
	)
	switch {
	case errors.Is(err, domain.ErrMatchNotFound):
		return "В этом чате нет активного матча. Создать: /create"
	case errors.Is(err, domain.ErrRoundInProgress):
		return "⏳ Раунд уже разыгрывается, дождитесь результата"
	case errors.Is(err, domain.ErrPermission):
		return "⛔ Недостаточно прав для этой команды"
	case errors.Is(err, domain.ErrPlayerNotInMatch):
		return "⚠️ Игрок не участвует в матче"
	case errors.As(err, &conflict):
		return fmt.Sprintf("⛔ Сейчас нельзя: матч в состоянии «%s»", stateName(conflict.Current))
	case errors.As(err, &empty):
		return fmt.Sprintf("⚠️ В команде %s нет игроков", empty.Team)
	case errors.As(err, &validation):
		return "⚠️ " + html.EscapeString(validation.Reason)
	}
	b.log.Error("command failed", "command", cmd, "error", err)
	return "❌ Ошибка: " + html.EscapeString(err.Error())
}

func helpMessage() string {
	return `<b>🏒 Хенд-хоккей</b>

<b>Подготовка:</b>
/create - создать матч в чате
/join - присоединиться
/leave - выйти из матча
/shuffle [seed] - случайные команды и амплуа
/assign @игрок A ST - назначить команду и амплуа
/captain A @игрок - назначить капитана
/rename A Название - переименовать команду
/toss - жеребьевка
/choose attack|defend - выбор победителя жеребьевки
/kickoff - начать игру

<b>Игра:</b>
/play [сценарий] - разыграть раунд
/sub @уходящий - замена (ответом на сообщение нового игрока)
/score - счет и составы
/end - завершить матч
/cancel - отменить матч

<b>Статистика:</b>
/stats - карьера игрока
/top - лучшие бомбардиры
/history - прошлые матчи чата

Числа для раундов бот спрашивает в личных сообщениях, откройте его заранее.`
}
