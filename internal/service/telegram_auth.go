package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"hand_hockey/internal/domain"
)

var ErrInvalidInitData = errors.New("invalid telegram init data")

// максимальный возраст init_data и допустимый сдвиг часов
const (
	initDataMaxAge = time.Hour
	initDataSkew   = 5 * time.Minute
)

// ValidateTelegramInitData проверяет HMAC init_data Telegram WebApp
// и свежесть auth_date, чтобы старую строку нельзя было переиграть
func ValidateTelegramInitData(initData, botToken string, now time.Time) (url.Values, bool) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, false
	}

	hash := values.Get("hash")
	if hash == "" {
		return nil, false
	}
	values.Del("hash")

	dataCheck := make([]string, 0, len(values))
	for k, v := range values {
		dataCheck = append(dataCheck, k+"="+strings.Join(v, ""))
	}
	sort.Strings(dataCheck)

	provided, err := hex.DecodeString(hash)
	if err != nil {
		return nil, false
	}
	if !hmac.Equal(initDataHash(botToken, strings.Join(dataCheck, "\n")), provided) {
		return nil, false
	}

	authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, false
	}
	age := now.Sub(time.Unix(authDate, 0))
	if age > initDataMaxAge || age < -initDataSkew {
		return nil, false
	}
	return values, true
}

// ключ подписи WebApp - HMAC токена бота с ключом "WebAppData"
func initDataHash(botToken, data string) []byte {
	secretKey := hmac.New(sha256.New, []byte("WebAppData"))
	secretKey.Write([]byte(botToken))
	h := hmac.New(sha256.New, secretKey.Sum(nil))
	h.Write([]byte(data))
	return h.Sum(nil)
}

type initDataUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

// PlayerFromInitData проверяет init_data и достает из нее пользователя
func PlayerFromInitData(initData, botToken string, now time.Time) (domain.Player, error) {
	values, ok := ValidateTelegramInitData(initData, botToken, now)
	if !ok {
		return domain.Player{}, ErrInvalidInitData
	}
	var u initDataUser
	if err := json.Unmarshal([]byte(values.Get("user")), &u); err != nil || u.ID == 0 {
		return domain.Player{}, ErrInvalidInitData
	}
	return domain.Player{ID: u.ID, Username: u.Username, FirstName: u.FirstName}, nil
}
