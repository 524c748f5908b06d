package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestFetch_Success(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/weights.csv" {
			t.Errorf("Expected path /weights.csv, got %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("NAME,POS,DATE,WEIGHT\nA,G1,2024-01-01,180\n"))
	}))
	defer mockServer.Close()

	client := NewClient(5*time.Second, 3, time.Millisecond)
	body, err := client.Fetch(context.Background(), mockServer.URL+"/weights.csv")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if string(body) != "NAME,POS,DATE,WEIGHT\nA,G1,2024-01-01,180\n" {
		t.Errorf("Unexpected body: %q", body)
	}
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	var calls int32
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer mockServer.Close()

	client := NewClient(5*time.Second, 3, time.Millisecond)
	body, err := client.Fetch(context.Background(), mockServer.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if string(body) != "ok" {
		t.Errorf("Unexpected body: %q", body)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

func TestFetch_GivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer mockServer.Close()

	client := NewClient(5*time.Second, 2, time.Millisecond)
	_, err := client.Fetch(context.Background(), mockServer.URL)
	if err == nil {
		t.Fatal("Expected error")
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected wrapped 503 StatusError, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("Expected 2 calls, got %d", calls)
	}
}

func TestFetch_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer mockServer.Close()

	client := NewClient(5*time.Second, 3, time.Millisecond)
	if _, err := client.Fetch(context.Background(), mockServer.URL); err == nil {
		t.Fatal("Expected error for 404")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

func TestFetch_ContextCanceled(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer mockServer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(5*time.Second, 3, time.Second)
	if _, err := client.Fetch(ctx, mockServer.URL); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
