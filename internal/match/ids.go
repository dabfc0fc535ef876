package match

import (
	crand "crypto/rand"
	"encoding/binary"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	matchIDPrefix   = "match_"
	matchIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	matchIDLen      = 6
)

// NewMatchID возвращает id вида match_XXXXXX из букв A-Z и цифр
func NewMatchID() string {
	return matchIDPrefix + randomSuffix(crand.Read)
}

// randomSuffix берет байты из read; байты выше кратного длине алфавита отбрасываются,
// чтобы символы были равновероятны
func randomSuffix(read func([]byte) (int, error)) string {
	const limit = 256 - 256%len(matchIDAlphabet)
	out := make([]byte, 0, matchIDLen)
	buf := make([]byte, 2*matchIDLen)
	for len(out) < matchIDLen {
		if _, err := read(buf); err != nil {
			id := uuid.New()
			buf = id[:]
		}
		for _, b := range buf {
			if int(b) >= limit || len(out) == matchIDLen {
				continue
			}
			out = append(out, matchIDAlphabet[int(b)%len(matchIDAlphabet)])
		}
	}
	return string(out)
}

// NewEventID - id события раунда
func NewEventID() string {
	return uuid.New().String()
}

// NewSeed - зерно генератора матча
func NewSeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(b[:]) & (1<<63 - 1))
}

// ValidMatchID проверяет формат id матча
func ValidMatchID(id string) bool {
	if !strings.HasPrefix(id, matchIDPrefix) || len(id) != len(matchIDPrefix)+matchIDLen {
		return false
	}
	for _, c := range id[len(matchIDPrefix):] {
		if !strings.ContainsRune(matchIDAlphabet, c) {
			return false
		}
	}
	return true
}
