package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidInitData is returned when mini-app init data fails verification
var ErrInvalidInitData = errors.New("invalid telegram init data")

// DevPrefix starts the init data of a development mock login
const DevPrefix = "dev_user_id="

// TelegramUser is the "user" object embedded in mini-app init data
type TelegramUser struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Username    string `json:"username"`
	PhotoURL    string `json:"photo_url"`
	PhoneNumber string `json:"phone_number"`
}

// FullName joins first and last name
func (u *TelegramUser) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// ValidateInitData verifies the hash of mini-app init data against the bot
// token and returns the user it describes. Init data whose auth_date is
// older than maxAge is rejected; a zero maxAge accepts any age. See
// https://core.telegram.org/bots/webapps#validating-data-received-via-the-mini-app
func ValidateInitData(initData, botToken string, maxAge time.Duration) (*TelegramUser, error) {
	return validateInitData(initData, botToken, maxAge, time.Now())
}

func validateInitData(initData, botToken string, maxAge time.Duration, now time.Time) (*TelegramUser, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInitData, err)
	}

	hash := values.Get("hash")
	if hash == "" {
		return nil, fmt.Errorf("%w: missing hash", ErrInvalidInitData)
	}
	values.Del("hash")

	if !hmac.Equal([]byte(Sign(values, botToken)), []byte(hash)) {
		return nil, fmt.Errorf("%w: hash mismatch", ErrInvalidInitData)
	}

	if maxAge > 0 {
		authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: missing or bad auth_date", ErrInvalidInitData)
		}
		if now.Sub(time.Unix(authDate, 0)) > maxAge {
			return nil, fmt.Errorf("%w: auth_date is older than %s", ErrInvalidInitData, maxAge)
		}
	}

	raw := values.Get("user")
	if raw == "" {
		return nil, fmt.Errorf("%w: missing user", ErrInvalidInitData)
	}
	var user TelegramUser
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("%w: bad user object: %v", ErrInvalidInitData, err)
	}
	if user.ID == 0 {
		return nil, fmt.Errorf("%w: user has no id", ErrInvalidInitData)
	}
	return &user, nil
}

// Sign computes the hex hash Telegram attaches to init data with the given
// fields. values must not contain "hash".
func Sign(values url.Values, botToken string) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = k + "=" + values.Get(k)
	}

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))

	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(mac.Sum(nil))
}

// ParseDevLogin extracts the mock user id from "dev_user_id=<n>". ok is
// false when initData is not a development login.
func ParseDevLogin(initData string) (id int64, ok bool, err error) {
	rest, found := strings.CutPrefix(initData, DevPrefix)
	if !found {
		return 0, false, nil
	}
	id, err = strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return 0, true, fmt.Errorf("invalid mock user id %q", rest)
	}
	return id, true, nil
}
