package domain

import "strings"

// Амплуа игрока в матче
type Role string

const (
	RoleNone       Role = ""
	RoleStriker    Role = "ST"
	RoleMidfielder Role = "MF"
	RoleDefender   Role = "DEF"
	RoleGoalkeeper Role = "GK"

	// RoleAny используется только в таблице диапазонов как подстановочный знак
	RoleAny Role = "ANY"
)

// все допустимые амплуа в порядке отображения
var Roles = []Role{RoleStriker, RoleMidfielder, RoleDefender, RoleGoalkeeper}

var roleNames = map[Role]string{
	RoleStriker:    "Striker",
	RoleMidfielder: "Midfielder",
	RoleDefender:   "Defender",
	RoleGoalkeeper: "Goalkeeper",
}

// Valid сообщает, входит ли амплуа в фиксированный набор
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// Name возвращает полное название амплуа
func (r Role) Name() string {
	if n, ok := roleNames[r]; ok {
		return n
	}
	return "Unknown"
}

// ParseRole принимает код (ST) или полное название (striker) без учета регистра
func ParseRole(s string) (Role, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	for role, name := range roleNames {
		if v == string(role) || v == strings.ToUpper(name) {
			return role, nil
		}
	}
	return RoleNone, &ValidationError{Field: "role", Reason: "амплуа должно быть одним из: ST, MF, DEF, GK"}
}

// Метка команды
type TeamLabel string

const (
	TeamNone TeamLabel = ""
	TeamA    TeamLabel = "A"
	TeamB    TeamLabel = "B"
)

// Valid проверяет, что метка A или B
func (t TeamLabel) Valid() bool {
	return t == TeamA || t == TeamB
}

// Other возвращает соперника
func (t TeamLabel) Other() TeamLabel {
	switch t {
	case TeamA:
		return TeamB
	case TeamB:
		return TeamA
	}
	return TeamNone
}

// ParseTeam нормализует ввод команды
func ParseTeam(s string) (TeamLabel, error) {
	t := TeamLabel(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return TeamNone, &ValidationError{Field: "team", Reason: "команда должна быть A или B"}
	}
	return t, nil
}
