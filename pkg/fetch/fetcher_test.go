package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"crawly/pkg/utils"
)

// testLogger returns a logger entry that discards output
func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

// testClient returns an http.Client suitable for testing
func testClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

func TestFetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
	}))
	t.Cleanup(server.Close)

	fetcher := NewFetcher(testClient(), "TestAgent", testLogger())
	resp, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if string(body) != "hello" {
		t.Errorf("expected body 'hello', got %q", body)
	}
}

func TestFetch_SetsUserAgent(t *testing.T) {
	var gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
	}))
	t.Cleanup(server.Close)

	fetcher := NewFetcher(testClient(), "CrawlyTestAgent/1.0", testLogger())
	resp, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	resp.Body.Close()

	if gotAgent != "CrawlyTestAgent/1.0" {
		t.Errorf("expected User-Agent 'CrawlyTestAgent/1.0', got %q", gotAgent)
	}
}

func TestFetch_StatusCodesNotInterpreted(t *testing.T) {
	// Non-2xx statuses are surfaced as plain responses, not errors.
	for _, status := range []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusForbidden} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		fetcher := NewFetcher(testClient(), "TestAgent", testLogger())
		resp, err := fetcher.Fetch(context.Background(), server.URL)
		if err != nil {
			t.Errorf("status %d: expected no error, got: %v", status, err)
		} else {
			if resp.StatusCode != status {
				t.Errorf("expected status %d, got %d", status, resp.StatusCode)
			}
			resp.Body.Close()
		}
		server.Close()
	}
}

func TestFetch_TransportError(t *testing.T) {
	// A closed server yields a connection error wrapped with ErrTransport.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	serverURL := server.URL
	server.Close()

	fetcher := NewFetcher(testClient(), "TestAgent", testLogger())
	resp, err := fetcher.Fetch(context.Background(), serverURL)

	if err == nil {
		resp.Body.Close()
		t.Fatal("expected error for unreachable server")
	}
	if !errors.Is(err, utils.ErrTransport) {
		t.Errorf("expected ErrTransport, got: %v", err)
	}
}

func TestFetch_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	t.Cleanup(server.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	fetcher := NewFetcher(testClient(), "TestAgent", testLogger())
	resp, err := fetcher.Fetch(ctx, server.URL)

	if err == nil {
		resp.Body.Close()
		t.Fatal("expected error for timed out context")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got: %v", err)
	}
}

func TestFetch_InvalidURL(t *testing.T) {
	fetcher := NewFetcher(testClient(), "TestAgent", testLogger())
	_, err := fetcher.Fetch(context.Background(), "http://a.test/\x00bad")

	if err == nil {
		t.Fatal("expected error for malformed URL")
	}
	if !errors.Is(err, utils.ErrRequestCreation) {
		t.Errorf("expected ErrRequestCreation, got: %v", err)
	}
}

func TestIsMitigated(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	if IsMitigated(resp) {
		t.Error("expected no mitigation for empty headers")
	}

	resp.Header.Set(MitigationHeader, MitigationChallenge)
	if !IsMitigated(resp) {
		t.Error("expected mitigation for challenge header value")
	}

	resp.Header.Set(MitigationHeader, "none")
	if IsMitigated(resp) {
		t.Error("expected no mitigation for non-challenge value")
	}
}
