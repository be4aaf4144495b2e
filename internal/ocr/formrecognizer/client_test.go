package formrecognizer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"meddoc-backend/internal/ocr"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, "test-key")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	c.pollInterval = time.Millisecond
	return c, srv
}

func TestExtractSubmitsAndPolls(t *testing.T) {
	var polls int32
	mux := http.NewServeMux()
	var srv *httptest.Server

	mux.HandleFunc("/formrecognizer/documentModels/prebuilt-read:analyze", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("submit method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("Ocp-Apim-Subscription-Key"); got != "test-key" {
			t.Fatalf("subscription key header = %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/pdf" {
			t.Fatalf("content type = %q, want application/pdf", got)
		}
		w.Header().Set("Operation-Location", srv.URL+"/operations/op-1")
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("/operations/op-1", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Ocp-Apim-Subscription-Key"); got != "test-key" {
			t.Fatalf("poll subscription key header = %q", got)
		}
		if atomic.AddInt32(&polls, 1) < 2 {
			w.Write([]byte(`{"status":"running"}`))
			return
		}
		w.Write([]byte(`{"status":"succeeded","analyzeResult":{"content":"Patient Name: Jane Doe"}}`))
	})

	c, s := newTestClient(t, mux)
	srv = s

	text, err := c.Extract(context.Background(), []byte("%PDF-"), "application/pdf", "intake.pdf")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if text != "Patient Name: Jane Doe" {
		t.Fatalf("text = %q", text)
	}
	if atomic.LoadInt32(&polls) != 2 {
		t.Fatalf("polls = %d, want 2", polls)
	}
}

func TestExtractAnalyzeFailed(t *testing.T) {
	mux := http.NewServeMux()
	var srv *httptest.Server

	mux.HandleFunc("/formrecognizer/documentModels/prebuilt-read:analyze", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Operation-Location", srv.URL+"/operations/op-2")
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("/operations/op-2", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"failed","error":{"code":"InvalidContent","message":"unreadable"}}`))
	})

	c, s := newTestClient(t, mux)
	srv = s

	if _, err := c.Extract(context.Background(), []byte("junk"), "image/png", "scan.png"); err == nil {
		t.Fatal("expected error for failed analysis")
	}
}

func TestExtractEmptyContentIsNoText(t *testing.T) {
	mux := http.NewServeMux()
	var srv *httptest.Server

	mux.HandleFunc("/formrecognizer/documentModels/prebuilt-read:analyze", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Operation-Location", srv.URL+"/operations/op-3")
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("/operations/op-3", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"succeeded","analyzeResult":{"content":"  "}}`))
	})

	c, s := newTestClient(t, mux)
	srv = s

	_, err := c.Extract(context.Background(), []byte("blank page"), "image/jpeg", "blank.jpg")
	if err != ocr.ErrNoText {
		t.Fatalf("err = %v, want ocr.ErrNoText", err)
	}
}

func TestExtractMissingOperationLocation(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	if _, err := c.Extract(context.Background(), []byte("x"), "application/pdf", "a.pdf"); err == nil {
		t.Fatal("expected error for missing Operation-Location")
	}
}

func TestExtractRejectsEmptyPayload(t *testing.T) {
	c, err := NewClient("https://example.cognitiveservices.azure.com", "k")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := c.Extract(context.Background(), nil, "application/pdf", "a.pdf"); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestNewClientValidatesConfig(t *testing.T) {
	if _, err := NewClient("", "key"); err == nil {
		t.Fatal("expected error for missing endpoint")
	}
	if _, err := NewClient("https://example.cognitiveservices.azure.com", ""); err == nil {
		t.Fatal("expected error for missing key")
	}
}
