package validator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNERClient_Recognize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/classify" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}

		var req classifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		if req.Text != "Alice met Bob" {
			t.Errorf("Unexpected text %q", req.Text)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"spans": [
			{"start": 0, "end": 5, "label": "PER", "text": "Alice", "score": 0.97},
			{"start": 10, "end": 13, "label": "PER", "text": "Bob"}
		]}`))
	}))
	defer server.Close()

	client := NewNERClient(server.URL + "/")
	spans, err := client.Recognize(context.Background(), "Alice met Bob")
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}

	if len(spans) != 2 {
		t.Fatalf("Expected 2 spans, got %d", len(spans))
	}
	if spans[0].Score != 0.97 {
		t.Errorf("Expected score 0.97, got %f", spans[0].Score)
	}
	if spans[1].Score != 1.0 {
		t.Errorf("Expected missing score to default to 1.0, got %f", spans[1].Score)
	}
}

func TestNERClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"spans": [`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			_, err := NewNERClient(server.URL).Recognize(context.Background(), "text")
			if err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestNERClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewNERClient(url).Recognize(context.Background(), "text")
	if err == nil {
		t.Error("Expected error for unreachable sidecar")
	}
}
