package game

import (
	"math/rand"
	"slices"

	"hand_hockey/internal/domain"
)

// порядок раздачи амплуа в неполной команде: вратарь первым
var rolePriority = []domain.Role{
	domain.RoleGoalkeeper,
	domain.RoleStriker,
	domain.RoleDefender,
	domain.RoleMidfielder,
}

// ExtraRole - амплуа для игроков сверх четырех
const ExtraRole = domain.RoleDefender

// Assignment - амплуа одного игрока
type Assignment struct {
	PlayerID int64
	Role     domain.Role
}

// Shuffle делит игроков на две команды по перестановке, заданной зерном.
// Размеры команд отличаются не больше чем на одного, лишний игрок уходит в A.
func Shuffle(players []int64, seed int64) (teamA, teamB []int64) {
	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(len(players))
	half := (len(players) + 1) / 2

	teamA = make([]int64, 0, half)
	teamB = make([]int64, 0, len(players)-half)
	for i, idx := range perm {
		if i < half {
			teamA = append(teamA, players[idx])
		} else {
			teamB = append(teamB, players[idx])
		}
	}
	return teamA, teamB
}

// AssignRoles выдает каждому игроку ровно одно амплуа в порядке состава
func AssignRoles(members []int64) []Assignment {
	out := make([]Assignment, 0, len(members))
	for i, id := range members {
		role := ExtraRole
		if i < len(rolePriority) {
			role = rolePriority[i]
		}
		out = append(out, Assignment{PlayerID: id, Role: role})
	}
	return out
}

// PickCaptain выбирает капитана по зерну
func PickCaptain(team domain.TeamLabel, members []int64, seed int64) (int64, error) {
	if len(members) == 0 {
		return 0, &domain.EmptyTeamError{Team: team}
	}
	rng := rand.New(rand.NewSource(seed))
	return members[rng.Intn(len(members))], nil
}

// ConfirmCaptain проверяет явно выбранного капитана
func ConfirmCaptain(team domain.TeamLabel, members []int64, captain int64) (int64, error) {
	if len(members) == 0 {
		return 0, &domain.EmptyTeamError{Team: team}
	}
	if !slices.Contains(members, captain) {
		return 0, &domain.ValidationError{Field: "captain", Reason: "капитан должен быть игроком своей команды"}
	}
	return captain, nil
}

// CoinToss выбирает команду, выигравшую жеребьевку
func CoinToss(rng *rand.Rand) domain.TeamLabel {
	if rng.Intn(2) == 0 {
		return domain.TeamA
	}
	return domain.TeamB
}

// ValidateFormation возвращает недостающие основные амплуа команды
func ValidateFormation(roles []domain.Role) []domain.Role {
	var missing []domain.Role
	for _, r := range domain.Roles {
		if !slices.Contains(roles, r) {
			missing = append(missing, r)
		}
	}
	return missing
}
