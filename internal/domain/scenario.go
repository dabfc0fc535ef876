package domain

import (
	"fmt"
	"strings"
)

// Scenario описывает тип текущего единоборства
type Scenario string

const (
	ScenarioDefault      Scenario = "default"
	ScenarioDribbling    Scenario = "dribbling"
	ScenarioPassing      Scenario = "passing"
	ScenarioShooting     Scenario = "shooting"
	ScenarioLongShot     Scenario = "long_shot"
	ScenarioQuickPass    Scenario = "quick_pass"
	ScenarioCornerKick   Scenario = "corner_kick"
	ScenarioInterception Scenario = "interception"
	ScenarioTackle       Scenario = "tackle"
	ScenarioOffside      Scenario = "offside"
)

var scenarioAliases = map[string]Scenario{
	"default":      ScenarioDefault,
	"dribbling":    ScenarioDribbling,
	"dribble":      ScenarioDribbling,
	"passing":      ScenarioPassing,
	"pass":         ScenarioPassing,
	"shooting":     ScenarioShooting,
	"shot":         ScenarioShooting,
	"shoot":        ScenarioShooting,
	"long_shot":    ScenarioLongShot,
	"longshot":     ScenarioLongShot,
	"long":         ScenarioLongShot,
	"quick_pass":   ScenarioQuickPass,
	"quickpass":    ScenarioQuickPass,
	"corner_kick":  ScenarioCornerKick,
	"corner":       ScenarioCornerKick,
	"interception": ScenarioInterception,
	"intercept":    ScenarioInterception,
	"tackle":       ScenarioTackle,
	"tackling":     ScenarioTackle,
	"offside":      ScenarioOffside,
	"off-side":     ScenarioOffside,
	"off_side":     ScenarioOffside,
}

var scenarioDescriptions = map[Scenario]string{
	ScenarioDefault:      "Обычный игровой эпизод",
	ScenarioDribbling:    "Игрок пытается обвести соперника",
	ScenarioPassing:      "Игрок пытается отдать пас",
	ScenarioShooting:     "Удар по воротам",
	ScenarioLongShot:     "Дальний удар по воротам",
	ScenarioQuickPass:    "Быстрый пас",
	ScenarioCornerKick:   "Угловой удар",
	ScenarioInterception: "Вратарь пытается перехватить передачу",
	ScenarioTackle:       "Защитник идет в отбор",
	ScenarioOffside:      "Проверка положения вне игры",
}

// ParseScenario принимает тег сценария и его сокращения
func ParseScenario(s string) (Scenario, error) {
	if sc, ok := scenarioAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return sc, nil
	}
	return "", &ValidationError{Field: "scenario", Reason: fmt.Sprintf("неизвестный сценарий %q", s)}
}

// Valid сообщает, известен ли сценарий
func (s Scenario) Valid() bool {
	_, ok := scenarioDescriptions[s]
	return ok
}

// IsShot - удар против вратаря, в том числе дальний
func (s Scenario) IsShot() bool {
	return s == ScenarioShooting || s == ScenarioLongShot
}

// RequiresInput - нужно ли запрашивать числа у участников (офсайд решается жребием)
func (s Scenario) RequiresInput() bool {
	return s != ScenarioOffside
}

// Description возвращает человекочитаемое описание
func (s Scenario) Description() string {
	if d, ok := scenarioDescriptions[s]; ok {
		return d
	}
	return scenarioDescriptions[ScenarioDefault]
}

// Range - допустимый диапазон ввода, включительно
type Range struct {
	Lo int `json:"lo"`
	Hi int `json:"hi"`
}

// Contains проверяет попадание значения в диапазон
func (r Range) Contains(v int) bool {
	return v >= r.Lo && v <= r.Hi
}

// IsZero - диапазон не задан (сценарий без ввода)
func (r Range) IsZero() bool {
	return r.Lo == 0 && r.Hi == 0
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d]", r.Lo, r.Hi)
}
