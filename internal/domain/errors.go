package domain

import (
	"errors"
	"fmt"
)

// Базовые виды ошибок, с ними сравниваются типизированные ошибки через errors.Is
var (
	ErrValidation       = errors.New("неверные данные")
	ErrStateConflict    = errors.New("недопустимый переход состояния")
	ErrEmptyTeam        = errors.New("в команде нет игроков")
	ErrDuplicateEvent   = errors.New("событие уже применено")
	ErrPlayerNotInMatch = errors.New("игрок не участвует в матче")
	ErrPermission       = errors.New("недостаточно прав")

	ErrMatchNotFound   = errors.New("матч не найден")
	ErrRoundInProgress = errors.New("раунд уже разыгрывается")

	// ErrTimeoutExpired - участник не ответил вовремя; не ошибка, а штатная ветка розыгрыша
	ErrTimeoutExpired = errors.New("время ожидания ответа истекло")
)

// ValidationError - неверный или вне допустимой области ввод
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// StateConflictError - операция запрошена в несовместимом состоянии жизненного цикла
type StateConflictError struct {
	Op        string
	Current   State
	Requested State
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("нельзя выполнить %s: матч в состоянии %s, требуется %s", e.Op, e.Current, e.Requested)
}

func (e *StateConflictError) Is(target error) bool { return target == ErrStateConflict }

// EmptyTeamError - у команды нет ни одного игрока
type EmptyTeamError struct {
	Team TeamLabel
}

func (e *EmptyTeamError) Error() string {
	return fmt.Sprintf("команда %s пуста", e.Team)
}

func (e *EmptyTeamError) Is(target error) bool { return target == ErrEmptyTeam }

// DuplicateEventError - повторное применение события с тем же id
type DuplicateEventError struct {
	EventID string
}

func (e *DuplicateEventError) Error() string {
	return fmt.Sprintf("событие %s уже применено", e.EventID)
}

func (e *DuplicateEventError) Is(target error) bool { return target == ErrDuplicateEvent }

// PlayerNotInMatchError - участник не найден в составе матча
type PlayerNotInMatchError struct {
	MatchID  string
	PlayerID int64
}

func (e *PlayerNotInMatchError) Error() string {
	return fmt.Sprintf("игрок %d не участвует в матче %s", e.PlayerID, e.MatchID)
}

func (e *PlayerNotInMatchError) Is(target error) bool { return target == ErrPlayerNotInMatch }

// PermissionError - актор не вправе выполнять операцию в этом матче
type PermissionError struct {
	Op    string
	Actor int64
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("пользователь %d не может выполнить %s", e.Actor, e.Op)
}

func (e *PermissionError) Is(target error) bool { return target == ErrPermission }
