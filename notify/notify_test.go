package notify

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSendWebhook(t *testing.T) {
	var gotContentType string
	var gotBody map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding webhook body: %v", err)
		}
	}))
	defer ts.Close()

	s := NewSender(discardLogger())
	d := Destination{Kind: KindSlackWebhook, URL: ts.URL}
	if err := s.Send(context.Background(), d, "hello"); err != nil {
		t.Fatalf("Send() unexpected error: %v", err)
	}

	if gotContentType != "application/json" {
		t.Errorf("got content type %q, wanted application/json", gotContentType)
	}
	if gotBody["text"] != "hello" {
		t.Errorf("got body %v, wanted text=hello", gotBody)
	}
}

func TestSendMastodon(t *testing.T) {
	var gotPath, gotAuth, gotStatus, gotVisibility string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseForm(); err != nil {
			t.Errorf("parsing form: %v", err)
		}
		gotStatus = r.PostForm.Get("status")
		gotVisibility = r.PostForm.Get("visibility")
	}))
	defer ts.Close()

	s := NewSender(discardLogger())
	d := Destination{Kind: KindMastodon, URL: ts.URL, Token: "s3cret"}
	if err := s.Send(context.Background(), d, "hello"); err != nil {
		t.Fatalf("Send() unexpected error: %v", err)
	}

	if gotPath != "/api/v1/statuses" {
		t.Errorf("got path %q, wanted /api/v1/statuses", gotPath)
	}
	if gotAuth != "Bearer s3cret" {
		t.Errorf("got authorization %q, wanted Bearer s3cret", gotAuth)
	}
	if gotStatus != "hello" {
		t.Errorf("got status %q, wanted hello", gotStatus)
	}
	if gotVisibility != "public" {
		t.Errorf("got visibility %q, wanted public", gotVisibility)
	}
}

func TestSendMastodonWithoutToken(t *testing.T) {
	s := NewSender(discardLogger())
	d := Classify("https://mastodon.example")
	if err := s.Send(context.Background(), d, "hello"); err == nil {
		t.Errorf("expected an error for a destination without a token")
	}
}

func TestSendErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer ts.Close()

	s := NewSender(discardLogger())
	d := Destination{Kind: KindMastodon, URL: ts.URL, Token: "expired"}
	if err := s.Send(context.Background(), d, "hello"); err == nil {
		t.Errorf("expected an error for a non-2xx response")
	}
}

func TestFanoutIsolatesFailures(t *testing.T) {
	delivered := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		delivered++
	}))
	defer ts.Close()

	// The middle destination is malformed (no token) and must not stop
	// the remaining ones from being attempted.
	dests := []Destination{
		{Kind: KindSlackWebhook, URL: ts.URL},
		Classify("https://mastodon.example"),
		{Kind: KindSlackWebhook, URL: ts.URL},
	}

	s := NewSender(discardLogger())
	results := s.Fanout(context.Background(), dests, "hello")

	if len(results) != 3 {
		t.Fatalf("got %d results, wanted 3", len(results))
	}
	if results[0].Err != nil {
		t.Errorf("first destination failed: %v", results[0].Err)
	}
	if results[1].Err == nil {
		t.Errorf("malformed destination should have failed")
	}
	if results[2].Err != nil {
		t.Errorf("last destination failed: %v", results[2].Err)
	}
	if delivered != 2 {
		t.Errorf("got %d deliveries, wanted 2", delivered)
	}
}
