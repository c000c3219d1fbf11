package net

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewClient_RequiresTimeout(t *testing.T) {
	if _, err := NewClient(ClientOptions{}); err == nil {
		t.Error("expected error when timeout is zero")
	}
}

func TestNewClient_NoRetry(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if got := r.Header.Get("User-Agent"); got != DefaultUserAgent {
			t.Errorf("User-Agent = %q, want %q", got, DefaultUserAgent)
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client, err := NewClient(ClientOptions{BaseURL: srv.URL, Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	resp, err := client.R().Get("/")
	if err != nil {
		t.Fatalf("request error = %v", err)
	}
	if resp.StatusCode() != http.StatusServiceUnavailable {
		t.Errorf("status = %d", resp.StatusCode())
	}
	if hits != 1 {
		t.Errorf("server hits = %d, want 1", hits)
	}
}

func TestTransportFor_Reused(t *testing.T) {
	a, err := transportFor("http://127.0.0.1:3128")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := transportFor("http://127.0.0.1:3128")
	if a != b {
		t.Error("transport should be cached per proxy")
	}
}
