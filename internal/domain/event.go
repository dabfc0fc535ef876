package domain

import "time"

// Narrative - категория комментария к раунду
type Narrative string

const (
	NarrativeDribblePassed Narrative = "dribble_passed"
	NarrativeInterception  Narrative = "interception"
	NarrativeFoul          Narrative = "foul"
	NarrativeSave          Narrative = "save"
	NarrativeOffside       Narrative = "offside"
	NarrativeCorner        Narrative = "corner"
)

// ActionEvent - неизменяемая запись одного разыгранного раунда
type ActionEvent struct {
	ID            string          `db:"id" json:"id"`
	MatchID       string          `db:"match_id" json:"match_id"`
	Round         int             `db:"round" json:"round"`
	Scenario      Scenario        `db:"scenario" json:"scenario"`
	Range         Range           `json:"range"`
	Attacker      Participant     `json:"attacker"`
	Defender      Participant     `json:"defender"`
	AttackerInput Input           `json:"attacker_input"`
	DefenderInput Input           `json:"defender_input"`
	Category      OutcomeCategory `db:"category" json:"category"`
	Winner        Side            `db:"winner" json:"winner"`
	Forfeit       bool            `db:"forfeit" json:"forfeit"`
	Narrative     Narrative       `db:"narrative" json:"narrative,omitempty"`
	ScoreDelta    Score           `json:"score_delta"`
	At            time.Time       `db:"created_at" json:"at"`
}

// NewActionEvent сворачивает исход раунда в событие
func NewActionEvent(id, matchID string, round int, o Outcome, at time.Time) ActionEvent {
	return ActionEvent{
		ID:            id,
		MatchID:       matchID,
		Round:         round,
		Scenario:      o.Scenario,
		Range:         o.Range,
		Attacker:      o.Attacker,
		Defender:      o.Defender,
		AttackerInput: o.AttackerInput,
		DefenderInput: o.DefenderInput,
		Category:      o.Category,
		Winner:        o.Winner,
		Forfeit:       o.Forfeit,
		At:            at,
	}
}

// Outcome восстанавливает исход раунда из события
func (e ActionEvent) Outcome() Outcome {
	return Outcome{
		Scenario:      e.Scenario,
		Range:         e.Range,
		Attacker:      e.Attacker,
		Defender:      e.Defender,
		AttackerInput: e.AttackerInput,
		DefenderInput: e.DefenderInput,
		Category:      e.Category,
		Winner:        e.Winner,
		Forfeit:       e.Forfeit,
	}
}

// Виды уведомлений для слоя отображения
type NotificationKind string

const (
	NoteCreated      NotificationKind = "match_created"
	NotePlayerJoined NotificationKind = "player_joined"
	NotePlayerLeft   NotificationKind = "player_left"
	NoteAssigned     NotificationKind = "player_assigned"
	NoteCaptain      NotificationKind = "captain_set"
	NoteTeamRenamed  NotificationKind = "team_renamed"
	NoteShuffled     NotificationKind = "teams_shuffled"
	NoteTossed       NotificationKind = "coin_tossed"
	NoteActionChosen NotificationKind = "action_chosen"
	NoteStarted      NotificationKind = "match_started"
	NoteRound        NotificationKind = "round_resolved"
	NoteSubstituted  NotificationKind = "player_substituted"
	NoteFinished     NotificationKind = "match_finished"
	NoteExpired      NotificationKind = "match_expired"
	NoteCancelled    NotificationKind = "match_cancelled"
)

// Notification - структурированное уведомление о принятом переходе; форматирование не здесь
type Notification struct {
	MatchID   string           `json:"match_id"`
	ChatID    int64            `json:"chat_id"`
	Kind      NotificationKind `json:"kind"`
	From      State            `json:"from"`
	To        State            `json:"to"`
	Actor     int64            `json:"actor,omitempty"`
	Event     *ActionEvent     `json:"event,omitempty"`
	Score     Score            `json:"score"`
	Details   map[string]any   `json:"details,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}
