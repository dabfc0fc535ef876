package game

import (
	"context"
	"time"

	"hand_hockey/internal/domain"
)

type PromptKind string

const (
	PromptAsk     PromptKind = "ask"
	PromptRetry   PromptKind = "retry"   // прошлое значение вне диапазона
	PromptWarning PromptKind = "warning" // первое окно истекло без ответа
)

// Prompt - параметры запроса числа у участника; текст сообщения формирует шлюз
type Prompt struct {
	MatchID  string
	Round    int
	Player   domain.Participant
	Side     domain.Side
	Scenario domain.Scenario
	Range    domain.Range
	Kind     PromptKind
	Deadline time.Time
}

// Prompter - шлюз сообщений.
//
// Prompt блокируется до ответа участника или отмены ctx. Значение возвращается как есть,
// проверку диапазона делает движок. Истечение окна сообщается через ctx.Err()
// или domain.ErrTimeoutExpired; любая другая ошибка считается отказом шлюза.
type Prompter interface {
	Prompt(ctx context.Context, p Prompt) (int, error)
}

// PrompterFunc позволяет использовать функцию как Prompter
type PrompterFunc func(ctx context.Context, p Prompt) (int, error)

func (f PrompterFunc) Prompt(ctx context.Context, p Prompt) (int, error) {
	return f(ctx, p)
}
