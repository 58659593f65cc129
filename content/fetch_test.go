package content

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGetMapsBlockedStatuses(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer ts.Close()

	_, err := NewFetcher(0).Get(context.Background(), ts.URL+"/series", nil)
	if _, ok := IsUnavailable(err); !ok {
		t.Fatalf("expected an unavailable error, got %v", err)
	}
}

func TestImageCarriesExtAndURL(t *testing.T) {
	var referer string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		referer = r.Header.Get("Referer")
		w.Write([]byte("rawbytes"))
	}))
	defer ts.Close()

	url := ts.URL + "/pages/004.png?token=abc"
	img, err := NewFetcher(0).Image(context.Background(), url, "https://site.example")
	if err != nil {
		t.Fatalf("failed to fetch image: %v", err)
	}
	if img.Ext != "png" {
		t.Fatalf("expected ext png, got %q", img.Ext)
	}
	if img.URL != url {
		t.Fatalf("expected source URL kept, got %q", img.URL)
	}
	if string(img.Data) != "rawbytes" {
		t.Fatalf("unexpected body %q", img.Data)
	}
	if referer != "https://site.example" {
		t.Fatalf("expected referer header, got %q", referer)
	}
}

func TestPostJSONNotAuthenticated(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no token", http.StatusUnauthorized)
	}))
	defer ts.Close()

	err := NewFetcher(0).PostJSON(context.Background(), ts.URL, nil, map[string]string{"query": "{}"}, nil)
	if !IsNotAuthenticated(err) {
		t.Fatalf("expected a not-authenticated error, got %v", err)
	}
}

func TestPacePerHost(t *testing.T) {
	hits := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	fetcher := NewFetcher(30 * time.Millisecond)
	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := fetcher.Get(context.Background(), ts.URL, nil); err != nil {
			t.Fatalf("failed to get: %v", err)
		}
	}
	if hits != 3 {
		t.Fatalf("expected 3 requests, got %d", hits)
	}
	if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
		t.Fatalf("pacing too fast: %v for 3 requests", elapsed)
	}
}

func TestPaceCancellation(t *testing.T) {
	fetcher := NewFetcher(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	// First request claims the slot; the second would wait an hour.
	if err := fetcher.pace(ctx, "https://site.example/a"); err != nil {
		t.Fatalf("first pace should pass: %v", err)
	}
	done := make(chan error, 1)
	go func() {
		done <- fetcher.pace(ctx, "https://site.example/b")
	}()
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("pace did not honor cancellation")
	}
}
