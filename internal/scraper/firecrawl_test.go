package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/serejivanov62/wish/pkg/logger"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw  string
		want *float64
	}{
		{raw: ``, want: nil},
		{raw: `null`, want: nil},
		{raw: `12.5`, want: ptr(12.5)},
		{raw: `"$12.99"`, want: ptr(12.99)},
		{raw: `"1 299,50 ₽"`, want: ptr(1299.50)},
		{raw: `"1 299,50 руб."`, want: ptr(1299.50)},
		{raw: `"1,299"`, want: ptr(1299)},
		{raw: `"2.499.000"`, want: ptr(2499000)},
		{raw: `"free"`, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParsePrice(json.RawMessage(tt.raw))
			if err != nil {
				t.Fatalf("ParsePrice(%s): %v", tt.raw, err)
			}
			switch {
			case tt.want == nil && got != nil:
				t.Fatalf("ParsePrice(%s) = %v, want nil", tt.raw, *got)
			case tt.want != nil && (got == nil || *got != *tt.want):
				t.Fatalf("ParsePrice(%s) = %v, want %v", tt.raw, got, *tt.want)
			}
		})
	}
}

func TestParsePriceRejectsNegative(t *testing.T) {
	if _, err := ParsePrice(json.RawMessage(`-3`)); err == nil {
		t.Fatal("expected error for negative price")
	}
}

func TestFirecrawlExtract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		var req scrapeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.URL != "https://shop.example/p/1" || req.Extractor.Mode != "llm-extraction" {
			t.Errorf("unexpected request %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"llm_extraction":{
			"title":" Kettle ","price":"49.90","description":"Steel","image_url":"https://shop.example/k.png"}}}`))
	}))
	defer srv.Close()

	f := NewFirecrawl("secret", srv.URL, srv.Client(), logger.Discard())
	res, err := f.Extract(context.Background(), "https://shop.example/p/1")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Title != "Kettle" {
		t.Errorf("Title = %q", res.Title)
	}
	if res.Price == nil || *res.Price != 49.90 {
		t.Errorf("Price = %v", res.Price)
	}
	if res.Description == nil || *res.Description != "Steel" {
		t.Errorf("Description = %v", res.Description)
	}
	if res.ImageURL == nil || *res.ImageURL != "https://shop.example/k.png" {
		t.Errorf("ImageURL = %v", res.ImageURL)
	}
}

func TestFirecrawlExtractFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{}`},
		{name: "missing title", status: http.StatusOK, body: `{"success":true,"data":{"llm_extraction":{"price":3}}}`},
		{name: "no extraction", status: http.StatusOK, body: `{"success":true,"data":{}}`},
		{name: "error field", status: http.StatusOK, body: `{"success":false,"error":"blocked"}`},
		{name: "garbage", status: http.StatusOK, body: `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			f := NewFirecrawl("secret", srv.URL, srv.Client(), logger.Discard())
			if _, err := f.Extract(context.Background(), "https://shop.example"); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestFirecrawlMissingTitleIsErrNoTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":{"llm_extraction":{"title":"  "}}}`))
	}))
	defer srv.Close()

	f := NewFirecrawl("secret", srv.URL, srv.Client(), logger.Discard())
	_, err := f.Extract(context.Background(), "https://shop.example")
	if !errors.Is(err, ErrNoTitle) {
		t.Fatalf("got %v, want ErrNoTitle", err)
	}
}

func TestFirecrawlHonoursContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	f := NewFirecrawl("secret", srv.URL, srv.Client(), logger.Discard())
	if _, err := f.Extract(ctx, "https://shop.example"); err == nil {
		t.Fatal("expected a timeout error")
	}
}

func TestFirecrawlWithoutKey(t *testing.T) {
	f := NewFirecrawl("", "", nil, logger.Discard())
	if _, err := f.Extract(context.Background(), "https://shop.example"); err == nil {
		t.Fatal("expected an error without an API key")
	}
}

func ptr(v float64) *float64 { return &v }
