package domain

// Категория исхода раунда
type OutcomeCategory string

const (
	OutcomeBreakthrough OutcomeCategory = "breakthrough"
	OutcomeInterception OutcomeCategory = "interception"
	OutcomeFoul         OutcomeCategory = "foul"
	OutcomeSave         OutcomeCategory = "save"
	OutcomeOffside      OutcomeCategory = "offside"
	OutcomeNeutral      OutcomeCategory = "neutral"
)

// Side - сторона единоборства
type Side string

const (
	SideNone     Side = ""
	SideAttacker Side = "attacker"
	SideDefender Side = "defender"
)

// Participant - участник раунда с его амплуа и командой на момент розыгрыша
type Participant struct {
	PlayerID int64     `json:"player_id"`
	Name     string    `json:"name"`
	Role     Role      `json:"role"`
	Team     TeamLabel `json:"team"`
}

// Input - присланное число или его отсутствие
type Input struct {
	Value   int  `json:"value"`
	Present bool `json:"present"`
}

// Submitted создает присутствующий ввод
func Submitted(v int) Input {
	return Input{Value: v, Present: true}
}

// Absent - участник не ответил (значение не записывается)
func Absent() Input {
	return Input{}
}

// Outcome - неизменяемый итог одного раунда
type Outcome struct {
	Scenario      Scenario        `json:"scenario"`
	Range         Range           `json:"range"`
	Attacker      Participant     `json:"attacker"`
	Defender      Participant     `json:"defender"`
	AttackerInput Input           `json:"attacker_input"`
	DefenderInput Input           `json:"defender_input"`
	Category      OutcomeCategory `json:"category"`
	Winner        Side            `json:"winner"`
	// Forfeit - исход решен неявкой одного из участников
	Forfeit bool `json:"forfeit"`
}

// WinnerTeam возвращает команду, выигравшую раунд
func (o Outcome) WinnerTeam() TeamLabel {
	switch o.Winner {
	case SideAttacker:
		return o.Attacker.Team
	case SideDefender:
		return o.Defender.Team
	}
	return TeamNone
}
