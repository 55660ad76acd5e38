package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCollyVerifier_Verify(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ok", http.StatusFound)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/get-only", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	closed := httptest.NewServer(mux)
	unreachable := closed.URL + "/ok"
	closed.Close()

	verifier := NewCollyVerifier(2*time.Second, nil)

	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"ok", srv.URL + "/ok", true},
		{"redirect", srv.URL + "/moved", true},
		{"not found", srv.URL + "/missing", false},
		{"head refused", srv.URL + "/get-only", true},
		{"server error", srv.URL + "/broken", false},
		{"unreachable host", unreachable, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, verifier.Verify(context.Background(), tt.url))
		})
	}
}

func TestCollyVerifier_ConcurrentCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	verifier := NewCollyVerifier(2*time.Second, nil)

	results := make(chan [2]bool, 10)
	for i := 0; i < 10; i++ {
		go func(i int) {
			if i%2 == 0 {
				results <- [2]bool{true, verifier.Verify(context.Background(), srv.URL+"/ok")}
				return
			}
			results <- [2]bool{false, verifier.Verify(context.Background(), srv.URL+"/missing")}
		}(i)
	}
	for i := 0; i < 10; i++ {
		r := <-results
		assert.Equal(t, r[0], r[1])
	}
}
