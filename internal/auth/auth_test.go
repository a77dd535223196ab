package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

const botToken = "123456:TEST-TOKEN"

func signedInitData(t *testing.T, user string) string {
	t.Helper()
	values := url.Values{}
	values.Set("auth_date", "1700000000")
	values.Set("query_id", "AAHdF6IQAAAAAN0XohDhrOrc")
	values.Set("user", user)
	values.Set("hash", Sign(values, botToken))
	return values.Encode()
}

func TestValidateInitData(t *testing.T) {
	data := signedInitData(t, `{"id":279058397,"first_name":"Vlad","last_name":"L","photo_url":"https://t.me/i/u.jpg"}`)

	user, err := validateInitData(data, botToken, time.Hour, time.Unix(1700000060, 0))
	if err != nil {
		t.Fatalf("ValidateInitData: %v", err)
	}
	if user.ID != 279058397 || user.FullName() != "Vlad L" || user.PhotoURL == "" {
		t.Fatalf("user = %+v", user)
	}
}

func TestValidateInitDataRejects(t *testing.T) {
	good := signedInitData(t, `{"id":1,"first_name":"A"}`)
	tampered, _ := url.ParseQuery(good)
	tampered.Set("user", `{"id":2,"first_name":"A"}`)

	tests := map[string]struct {
		data  string
		token string
	}{
		"wrong token": {data: good, token: "other"},
		"tampered":    {data: tampered.Encode(), token: botToken},
		"no hash":     {data: "user=%7B%22id%22%3A1%7D", token: botToken},
		"no user":     {data: url.Values{"auth_date": {"1"}, "hash": {Sign(url.Values{"auth_date": {"1"}}, botToken)}}.Encode(), token: botToken},
		"bad escape":  {data: "%zz", token: botToken},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ValidateInitData(tt.data, tt.token, 0)
			if !errors.Is(err, ErrInvalidInitData) {
				t.Fatalf("got %v, want ErrInvalidInitData", err)
			}
		})
	}
}

func TestValidateInitDataAge(t *testing.T) {
	data := signedInitData(t, `{"id":1,"first_name":"A"}`)
	signedAt := time.Unix(1700000000, 0)

	if _, err := validateInitData(data, botToken, time.Hour, signedAt.Add(59*time.Minute)); err != nil {
		t.Fatalf("fresh init data rejected: %v", err)
	}
	if _, err := validateInitData(data, botToken, time.Hour, signedAt.Add(61*time.Minute)); !errors.Is(err, ErrInvalidInitData) {
		t.Fatalf("stale init data: got %v, want ErrInvalidInitData", err)
	}
	if _, err := validateInitData(data, botToken, 0, signedAt.Add(1000*time.Hour)); err != nil {
		t.Fatalf("zero max age rejected old init data: %v", err)
	}

	undated := url.Values{"user": {`{"id":1}`}}
	undated.Set("hash", Sign(undated, botToken))
	if _, err := validateInitData(undated.Encode(), botToken, time.Hour, signedAt); !errors.Is(err, ErrInvalidInitData) {
		t.Fatalf("init data without auth_date: got %v, want ErrInvalidInitData", err)
	}
}

func TestParseDevLogin(t *testing.T) {
	id, ok, err := ParseDevLogin("dev_user_id=42")
	if !ok || err != nil || id != 42 {
		t.Fatalf("ParseDevLogin = %d, %v, %v", id, ok, err)
	}
	if _, ok, _ := ParseDevLogin("query_id=1"); ok {
		t.Fatal("regular init data treated as dev login")
	}
	if _, ok, err := ParseDevLogin("dev_user_id=abc"); !ok || err == nil {
		t.Fatalf("bad id: ok=%v err=%v", ok, err)
	}
}

func TestIssuerRoundTrip(t *testing.T) {
	issuer := NewIssuer("secret", time.Minute)
	token, err := issuer.Issue(7)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	id, err := issuer.Verify(token)
	if err != nil || id != 7 {
		t.Fatalf("Verify = %d, %v", id, err)
	}
}

func TestIssuerRejects(t *testing.T) {
	issuer := NewIssuer("secret", time.Minute)
	token, _ := issuer.Issue(7)

	if _, err := NewIssuer("other", time.Minute).Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("foreign secret: got %v", err)
	}

	expired := NewIssuer("secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, _ := expired.Issue(7)
	if _, err := issuer.Verify(old); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired: got %v", err)
	}

	none := gojwt.NewWithClaims(gojwt.SigningMethodNone, gojwt.MapClaims{"sub": "7", "exp": time.Now().Add(time.Hour).Unix()})
	unsigned, _ := none.SignedString(gojwt.UnsafeAllowNoneSignatureType)
	if _, err := issuer.Verify(unsigned); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("alg none: got %v", err)
	}

	if _, err := issuer.Verify("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage: got %v", err)
	}
}

func TestMiddleware(t *testing.T) {
	issuer := NewIssuer("secret", time.Minute)
	token, _ := issuer.Issue(11)

	var seen int64
	h := issuer.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		header string
		status int
	}{
		{header: "Bearer " + token, status: http.StatusNoContent},
		{header: "bearer " + token, status: http.StatusNoContent},
		{header: "", status: http.StatusUnauthorized},
		{header: "Basic abc", status: http.StatusUnauthorized},
		{header: "Bearer nope", status: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		seen = 0
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != tt.status {
			t.Errorf("%q: status = %d, want %d", tt.header, rec.Code, tt.status)
		}
		if tt.status == http.StatusNoContent && seen != 11 {
			t.Errorf("%q: user id = %d", tt.header, seen)
		}
	}
}
