package bot

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"hand_hockey/internal/domain"
	"hand_hockey/internal/logger"
)

var narrativeText = map[domain.Narrative]string{
	domain.NarrativeDribblePassed: "🏃 %s обводит %s!",
	domain.NarrativeInterception:  "🛡 %s теряет мяч, %s перехватывает!",
	domain.NarrativeFoul:          "🟨 Фол! %s сбит, нарушил %s. Штрафной.",
	domain.NarrativeSave:          "🧤 Удар %s, %s спасает ворота! Угловой.",
	domain.NarrativeOffside:       "🚩 %s в офсайде! Мяч у %s.",
	domain.NarrativeCorner:        "🚩 Угловой: %s выигрывает борьбу у %s!",
}

// ChatNotifier отправляет уведомления о матче в его групповой чат
type ChatNotifier struct {
	sender Sender
	log    *slog.Logger
}

func NewChatNotifier(sender Sender) *ChatNotifier {
	return &ChatNotifier{sender: sender, log: logger.With("component", "chat_notifier")}
}

func (c *ChatNotifier) Notify(_ context.Context, n domain.Notification) {
	text := Render(n)
	if text == "" || n.ChatID == 0 {
		return
	}
	msg := tgbotapi.NewMessage(n.ChatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := c.sender.Send(msg); err != nil {
		c.log.Error("failed to send notification", "match_id", n.MatchID, "kind", n.Kind, "error", err)
	}
}

func detail(n domain.Notification, key string) string {
	if v, ok := n.Details[key]; ok && v != nil {
		return html.EscapeString(fmt.Sprint(v))
	}
	return ""
}

// Render - текст уведомления для чата; пустая строка - не отправлять
func Render(n domain.Notification) string {
	switch n.Kind {
	case domain.NoteCreated:
		return fmt.Sprintf("🏒 <b>Новый матч %s</b>\nХост: %s\n\nПрисоединяйтесь: /join", n.MatchID, detail(n, "host"))
	case domain.NotePlayerJoined:
		return fmt.Sprintf("➕ %s в матче (игроков: %s)", detail(n, "player"), detail(n, "players"))
	case domain.NotePlayerLeft:
		return fmt.Sprintf("➖ %s покинул матч", detail(n, "player"))
	case domain.NoteAssigned:
		return fmt.Sprintf("📋 %s: команда %s, %s", detail(n, "player"), detail(n, "team"), roleName(detail(n, "role")))
	case domain.NoteCaptain:
		return fmt.Sprintf("©️ Капитан команды %s: %s", detail(n, "team"), detail(n, "player"))
	case domain.NoteTeamRenamed:
		return fmt.Sprintf("✏️ Команда %s теперь называется <b>%s</b>", detail(n, "team"), detail(n, "name"))
	case domain.NoteShuffled:
		return "🔀 Команды сформированы!" + missingRoles(n) + "\n\nСостав: /score, жеребьевка: /toss"
	case domain.NoteTossed:
		return fmt.Sprintf("🪙 Жеребьевку выиграла команда <b>%s</b>!%s\n\nКапитан выбирает: /choose attack или /choose defend",
			detail(n, "winner"), missingRoles(n))
	case domain.NoteActionChosen:
		action := "атаку"
		if detail(n, "choice") == string(domain.ActionDefend) {
			action = "защиту"
		}
		return fmt.Sprintf("Команда %s выбрала %s. Мяч у команды %s. Начать: /kickoff", detail(n, "winner"), action, detail(n, "possession"))
	case domain.NoteStarted:
		return fmt.Sprintf("⚽ <b>Матч начался!</b> Мяч у команды %s.\nРазыграть раунд: /play", detail(n, "possession"))
	case domain.NoteRound:
		return renderRound(n)
	case domain.NoteSubstituted:
		return fmt.Sprintf("🔁 Замена в команде %s: %s вместо %s (%s)", detail(n, "team"), detail(n, "in"), detail(n, "out"), roleName(detail(n, "role")))
	case domain.NoteFinished:
		return renderFinished(n)
	case domain.NoteExpired:
		return fmt.Sprintf("⌛ Матч %s закрыт из-за неактивности", n.MatchID)
	case domain.NoteCancelled:
		return fmt.Sprintf("🛑 Матч %s отменен", n.MatchID)
	}
	return ""
}

func roleName(code string) string {
	return domain.Role(code).Name()
}

func missingRoles(n domain.Notification) string {
	var sb strings.Builder
	for _, team := range []domain.TeamLabel{domain.TeamA, domain.TeamB} {
		roles, _ := n.Details["missing_"+strings.ToLower(string(team))].([]domain.Role)
		if len(roles) == 0 {
			continue
		}
		names := make([]string, 0, len(roles))
		for _, r := range roles {
			names = append(names, string(r))
		}
		fmt.Fprintf(&sb, "\n⚠️ В команде %s нет: %s", team, strings.Join(names, ", "))
	}
	return sb.String()
}

func renderRound(n domain.Notification) string {
	ev := n.Event
	if ev == nil {
		return ""
	}
	att := html.EscapeString(ev.Attacker.Name)
	def := html.EscapeString(ev.Defender.Name)

	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>Раунд %d</b> · %s\n", ev.Round, ev.Scenario.Description())
	if ev.Scenario.RequiresInput() {
		fmt.Fprintf(&sb, "%s: %s · %s: %s\n", att, inputText(ev.AttackerInput), def, inputText(ev.DefenderInput))
	}

	switch {
	case ev.Category == domain.OutcomeNeutral:
		sb.WriteString("😴 Никто не ответил, эпизод переигрывается.")
	case ev.ScoreDelta != (domain.Score{}):
		fmt.Fprintf(&sb, "⚽ <b>ГОЛ!</b> %s забивает!", att)
	case ev.Narrative == domain.NarrativeOffside:
		fmt.Fprintf(&sb, narrativeText[ev.Narrative], att, teamOf(ev.Defender))
	case ev.Narrative != "":
		fmt.Fprintf(&sb, narrativeText[ev.Narrative], att, def)
	}
	if ev.Forfeit {
		sb.WriteString("\n⏱ Соперник не успел ответить.")
	}
	fmt.Fprintf(&sb, "\n\nСчет: <b>%d : %d</b>", n.Score.A, n.Score.B)
	return sb.String()
}

func teamOf(p domain.Participant) string {
	return "команды " + string(p.Team)
}

func inputText(in domain.Input) string {
	if !in.Present {
		return "—"
	}
	return fmt.Sprint(in.Value)
}

func renderFinished(n domain.Notification) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🏁 <b>Матч окончен!</b> Счет %d : %d\n", n.Score.A, n.Score.B)

	sum, ok := n.Details["summary"].(domain.MatchSummary)
	if !ok {
		return sb.String()
	}
	if sum.Winner.Valid() {
		fmt.Fprintf(&sb, "Победила команда %s\n", sum.Winner)
	} else {
		sb.WriteString("Ничья\n")
	}

	players := append([]domain.PlayerResult(nil), sum.Players...)
	sort.SliceStable(players, func(i, j int) bool { return players[i].Rating > players[j].Rating })
	sb.WriteString("\n")
	for _, p := range players {
		marks := ""
		if p.MVP {
			marks += " 🏆MVP"
		}
		if p.HatTrick {
			marks += " 🎩"
		}
		fmt.Fprintf(&sb, "%s %s (%s): ⚽%d 🧤%d · %.2f%s\n", p.Team, html.EscapeString(p.Name), p.Role, p.Goals, p.Saves, p.Rating, marks)
	}
	return sb.String()
}

// RenderMatch - счет, составы и статистика матча для /score
func RenderMatch(m *domain.Match) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>%s</b> · %s\n", m.ID, stateName(m.State))
	fmt.Fprintf(&sb, "<b>%s %d : %d %s</b>\n", html.EscapeString(m.TeamA.Name), m.Score.A, m.Score.B, html.EscapeString(m.TeamB.Name))
	if m.State == domain.StateInProgress {
		fmt.Fprintf(&sb, "Раунд %d, мяч у команды %s\n", m.Round, m.Possession)
	}

	for _, label := range []domain.TeamLabel{domain.TeamA, domain.TeamB} {
		t := m.Team(label)
		fmt.Fprintf(&sb, "\n<b>%s (%s)</b>\n", html.EscapeString(t.Name), label)
		members := m.Roster.Members(label)
		if len(members) == 0 {
			sb.WriteString("нет игроков\n")
			continue
		}
		for _, p := range members {
			captain := ""
			if p.Captain {
				captain = " ©️"
			}
			fmt.Fprintf(&sb, "%s %s%s", p.Role, html.EscapeString(p.Name), captain)
			if p.Goals > 0 || p.Saves > 0 {
				fmt.Fprintf(&sb, " · ⚽%d 🧤%d", p.Goals, p.Saves)
			}
			sb.WriteString("\n")
		}
		if m.State == domain.StateInProgress || m.State == domain.StateFinished {
			s := m.Stats(label)
			fmt.Fprintf(&sb, "удары %d · сейвы %d · фолы %d · угловые %d · офсайды %d\n",
				s.Shots, s.Saves, s.Fouls, s.Corners, s.Offsides)
		}
	}

	if un := m.Roster.Unassigned(); len(un) > 0 {
		names := make([]string, 0, len(un))
		for _, p := range un {
			names = append(names, html.EscapeString(p.Name))
		}
		fmt.Fprintf(&sb, "\nБез команды: %s\n", strings.Join(names, ", "))
	}
	return sb.String()
}

// RenderPlayer - карьерная статистика для /stats
func RenderPlayer(p *domain.Player) string {
	return fmt.Sprintf(`<b>📊 %s</b>

Матчей: %d (победы %d, поражения %d)
⚽ Голы: %d · 🎩 хет-трики: %d
🧤 Сейвы: %d
🛡 Отборы: %d · перехваты: %d
🏆 MVP: %d
⭐ Рейтинг: %.2f`,
		html.EscapeString(p.DisplayName()),
		p.MatchesPlayed, p.MatchesWon, p.MatchesLost,
		p.Goals, p.HatTricks, p.Saves, p.Tackles, p.Interceptions, p.MVPCount, p.Rating)
}
