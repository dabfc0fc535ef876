package game

import "hand_hockey/internal/domain"

type pairing struct {
	attacker domain.Role
	defender domain.Role
	scenario domain.Scenario
}

// FallbackRange - диапазон для пар, которых нет в таблице
var FallbackRange = domain.Range{Lo: 1, Hi: 3}

// таблица диапазонов ввода; domain.RoleAny - любое амплуа
var rangeTable = map[pairing]domain.Range{
	{domain.RoleStriker, domain.RoleDefender, domain.ScenarioDribbling}:     {Lo: 1, Hi: 3},
	{domain.RoleStriker, domain.RoleDefender, domain.ScenarioPassing}:       {Lo: 1, Hi: 3},
	{domain.RoleStriker, domain.RoleMidfielder, domain.ScenarioDribbling}:   {Lo: 1, Hi: 3},
	{domain.RoleStriker, domain.RoleMidfielder, domain.ScenarioPassing}:     {Lo: 1, Hi: 3},
	{domain.RoleMidfielder, domain.RoleDefender, domain.ScenarioPassing}:    {Lo: 1, Hi: 3},
	{domain.RoleStriker, domain.RoleGoalkeeper, domain.ScenarioShooting}:    {Lo: 1, Hi: 6},
	{domain.RoleMidfielder, domain.RoleGoalkeeper, domain.ScenarioLongShot}: {Lo: 2, Hi: 5},
	{domain.RoleDefender, domain.RoleStriker, domain.ScenarioTackle}:        {Lo: 1, Hi: 4},
	{domain.RoleStriker, domain.RoleMidfielder, domain.ScenarioQuickPass}:   {Lo: 1, Hi: 2},
	{domain.RoleStriker, domain.RoleDefender, domain.ScenarioCornerKick}:    {Lo: 4, Hi: 6},
	{domain.RoleGoalkeeper, domain.RoleAny, domain.ScenarioInterception}:    {Lo: 1, Hi: 3},
}

// RangeFor возвращает допустимый диапазон ввода для пары амплуа и сценария.
// Второе значение false - сценарий не требует ввода (офсайд), диапазон нулевой.
func RangeFor(attacker, defender domain.Role, scenario domain.Scenario) (domain.Range, bool) {
	if !scenario.RequiresInput() {
		return domain.Range{}, false
	}
	keys := []pairing{
		{attacker, defender, scenario},
		{attacker, domain.RoleAny, scenario},
		{domain.RoleAny, defender, scenario},
		{domain.RoleAny, domain.RoleAny, scenario},
	}
	for _, k := range keys {
		if r, ok := rangeTable[k]; ok {
			return r, true
		}
	}
	return FallbackRange, true
}
