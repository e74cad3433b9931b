package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

type contextKey string

const userContextKey contextKey = "telegram_user"

var errBadInitData = errors.New("invalid telegram init data")

// TelegramUser is the identity parsed from a verified initData payload.
type TelegramUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

func (u TelegramUser) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.FirstName
}

// VerifyInitData checks a Telegram WebApp initData string against the bot
// token. The secret is HMAC-SHA256 of the token keyed with "WebAppData";
// the hash covers the remaining fields sorted and newline-joined.
func VerifyInitData(initData, botToken string) (TelegramUser, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return TelegramUser{}, errBadInitData
	}
	gotHash := values.Get("hash")
	if gotHash == "" {
		return TelegramUser{}, errBadInitData
	}
	values.Del("hash")

	pairs := make([]string, 0, len(values))
	for key, vs := range values {
		for _, v := range vs {
			pairs = append(pairs, key+"="+v)
		}
	}
	sort.Strings(pairs)
	dataCheckString := strings.Join(pairs, "\n")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))

	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(dataCheckString))
	want := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(want), []byte(gotHash)) {
		return TelegramUser{}, errBadInitData
	}

	var user TelegramUser
	if err := json.Unmarshal([]byte(values.Get("user")), &user); err != nil || user.ID == 0 {
		return TelegramUser{}, errBadInitData
	}
	return user, nil
}

// withAuth verifies the Bearer initData header, registers the user and
// puts the identity on the request context.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		user, err := VerifyInitData(strings.TrimPrefix(header, "Bearer "), s.botToken)
		if err != nil {
			writeError(w, http.StatusForbidden, "invalid authentication")
			return
		}

		if _, err := s.storage.UpsertUser(r.Context(), user.ID, user.DisplayName()); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next(w, r.WithContext(ctx))
	}
}

func userFrom(ctx context.Context) TelegramUser {
	user, _ := ctx.Value(userContextKey).(TelegramUser)
	return user
}
