package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"testing"
)

const testBotToken = "12345:TEST-TOKEN"

// signInitData builds a valid initData string the way Telegram does.
func signInitData(botToken string, fields map[string]string) string {
	pairs := make([]string, 0, len(fields))
	for k, v := range fields {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	dataCheckString := strings.Join(pairs, "\n")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(dataCheckString))

	values := url.Values{}
	for k, v := range fields {
		values.Set(k, v)
	}
	values.Set("hash", hex.EncodeToString(mac.Sum(nil)))
	return values.Encode()
}

func testInitData(userID int64) string {
	return signInitData(testBotToken, map[string]string{
		"user":      fmt.Sprintf(`{"id":%d,"first_name":"Test","username":"tester"}`, userID),
		"auth_date": "1756450000",
	})
}

func TestVerifyInitData(t *testing.T) {
	user, err := VerifyInitData(testInitData(42), testBotToken)
	if err != nil {
		t.Fatal(err)
	}
	if user.ID != 42 || user.Username != "tester" {
		t.Fatalf("user = %+v", user)
	}
}

func TestVerifyInitDataRejectsTampering(t *testing.T) {
	data := testInitData(42)
	tampered := strings.Replace(data, "tester", "hacker", 1)
	if _, err := VerifyInitData(tampered, testBotToken); err == nil {
		t.Fatal("tampered initData accepted")
	}
}

func TestVerifyInitDataRejectsWrongToken(t *testing.T) {
	if _, err := VerifyInitData(testInitData(42), "other:TOKEN"); err == nil {
		t.Fatal("initData signed with another token accepted")
	}
}

func TestVerifyInitDataRejectsMissingHash(t *testing.T) {
	if _, err := VerifyInitData("user=%7B%22id%22%3A1%7D&auth_date=1", testBotToken); err == nil {
		t.Fatal("initData without hash accepted")
	}
}
