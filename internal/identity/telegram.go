package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// InitDataMaxAge is how long Mini App initData stays valid
const InitDataMaxAge = 24 * time.Hour

// TelegramUser is the user object embedded in Mini App initData
type TelegramUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

// ValidateTelegramInitData validates the Telegram Mini App initData and
// returns the user it was issued for
func ValidateTelegramInitData(initData, botToken string, now time.Time) (TelegramUser, error) {
	if initData == "" {
		return TelegramUser{}, fmt.Errorf("missing initData")
	}

	values, err := url.ParseQuery(initData)
	if err != nil {
		return TelegramUser{}, fmt.Errorf("invalid initData format: %w", err)
	}

	hash := values.Get("hash")
	if hash == "" {
		return TelegramUser{}, fmt.Errorf("missing hash in initData")
	}
	values.Del("hash")

	if !hmac.Equal([]byte(SignInitData(values, botToken)), []byte(hash)) {
		return TelegramUser{}, fmt.Errorf("invalid hash")
	}

	authDateStr := values.Get("auth_date")
	if authDateStr == "" {
		return TelegramUser{}, fmt.Errorf("missing auth_date")
	}
	authDate, err := strconv.ParseInt(authDateStr, 10, 64)
	if err != nil {
		return TelegramUser{}, fmt.Errorf("invalid auth_date: %w", err)
	}
	if now.Sub(time.Unix(authDate, 0)) > InitDataMaxAge {
		return TelegramUser{}, fmt.Errorf("initData is too old")
	}

	userStr := values.Get("user")
	if userStr == "" {
		return TelegramUser{}, fmt.Errorf("missing user data")
	}

	var user TelegramUser
	if err := json.Unmarshal([]byte(userStr), &user); err != nil {
		return TelegramUser{}, fmt.Errorf("invalid user data: %w", err)
	}
	if user.ID == 0 {
		return TelegramUser{}, fmt.Errorf("missing user id")
	}

	return user, nil
}

// SignInitData computes the hex HMAC Telegram attaches to initData as "hash".
// values must not contain the hash itself.
func SignInitData(values url.Values, botToken string) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var dataCheckString strings.Builder
	for i, k := range keys {
		if i > 0 {
			dataCheckString.WriteByte('\n')
		}
		dataCheckString.WriteString(k)
		dataCheckString.WriteByte('=')
		dataCheckString.WriteString(values.Get(k))
	}

	secretKey := hmac.New(sha256.New, []byte("WebAppData"))
	secretKey.Write([]byte(botToken))
	secret := secretKey.Sum(nil)

	h := hmac.New(sha256.New, secret)
	h.Write([]byte(dataCheckString.String()))
	return hex.EncodeToString(h.Sum(nil))
}
