package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const sampleICS = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nEND:VCALENDAR\r\n"

func newTestClient() *Client {
	return NewClient(5*time.Second, 2, 1000, time.Minute)
}

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleICS))
	}))
	defer srv.Close()

	body, err := newTestClient().Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if string(body) != sampleICS {
		t.Errorf("body = %q", body)
	}
}

func TestFetchDoesNotRetry4xx(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient().Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected error for 404")
	}

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error is %T; want *FetchError", err)
	}
	if fe.Kind != FetchErrHTTPStatus || fe.StatusCode != http.StatusNotFound {
		t.Errorf("FetchError = %+v", fe)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d; want 1 (no retry on 4xx)", attempts)
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(sampleICS))
	}))
	defer srv.Close()

	body, err := newTestClient().Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if string(body) != sampleICS {
		t.Errorf("body = %q", body)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d; want 2", attempts)
	}
}

func TestFetchRejectsNonCalendarContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>login required</html>"))
	}))
	defer srv.Close()

	_, err := newTestClient().Fetch(context.Background(), srv.URL)

	var fe *FetchError
	if !errors.As(err, &fe) || fe.Kind != FetchErrInvalidContent {
		t.Fatalf("err = %v; want invalid_content FetchError", err)
	}
}

func TestFetchTolerantCalendarHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("\xEF\xBB\xBF\r\n" + sampleICS))
	}))
	defer srv.Close()

	if _, err := newTestClient().Fetch(context.Background(), srv.URL); err != nil {
		t.Errorf("Fetch with BOM and leading whitespace failed: %v", err)
	}
}

func TestFetchUsesConditionalGet(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Write([]byte(sampleICS))
	}))
	defer srv.Close()

	c := newTestClient()

	first, err := c.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("first Fetch: %v", err)
	}
	second, err := c.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("second Fetch: %v", err)
	}

	if string(first) != string(second) {
		t.Error("304 response should return the cached body")
	}
	if requests != 2 {
		t.Errorf("requests = %d; want 2", requests)
	}
	if !strings.HasPrefix(string(second), "BEGIN:VCALENDAR") {
		t.Errorf("cached body = %q", second)
	}
}
