package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/gemweb/gemweb/internal/domain/entity"
)

func TestGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/v1beta/models/gemini-2.5-pro:generateContent") {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Fatalf("missing api key in query")
		}

		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if len(req.Contents) != 3 {
			t.Fatalf("expected 3 contents, got %d", len(req.Contents))
		}
		if req.Contents[0].Role != "user" || req.Contents[1].Role != "model" {
			t.Fatalf("unexpected roles: %s, %s", req.Contents[0].Role, req.Contents[1].Role)
		}

		resp := Response{
			Candidates: []Candidate{{
				Content: Content{
					Role:  "model",
					Parts: []Part{{Text: "Hello "}, {Text: "there"}},
				},
				FinishReason: "STOP",
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	p := New(Config{BaseURL: server.URL, APIKey: "test-key"}, zap.NewNop())

	turns := []entity.Turn{
		{Role: entity.TurnUser, Text: "Hi"},
		{Role: entity.TurnModel, Text: "Hello"},
		{Role: entity.TurnUser, Text: "Again"},
	}
	reply, err := p.Generate(context.Background(), "gemini-2.5-pro", turns)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if reply != "Hello there" {
		t.Errorf("expected concatenated parts, got %q", reply)
	}
}

func TestGenerateErrors(t *testing.T) {
	t.Run("api error status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error": {"message": "quota exceeded"}}`))
		}))
		defer server.Close()

		p := New(Config{BaseURL: server.URL, APIKey: "k"}, zap.NewNop())
		_, err := p.Generate(context.Background(), "m", []entity.Turn{{Role: entity.TurnUser, Text: "hi"}})
		if err == nil || !strings.Contains(err.Error(), "429") {
			t.Errorf("expected status error, got %v", err)
		}
	})

	t.Run("no candidates", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(Response{})
		}))
		defer server.Close()

		p := New(Config{BaseURL: server.URL, APIKey: "k"}, zap.NewNop())
		_, err := p.Generate(context.Background(), "m", []entity.Turn{{Role: entity.TurnUser, Text: "hi"}})
		if err == nil || !strings.Contains(err.Error(), "no candidates") {
			t.Errorf("expected empty-response error, got %v", err)
		}
	})

	t.Run("safety block", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(Response{
				Candidates: []Candidate{{FinishReason: "SAFETY"}},
			})
		}))
		defer server.Close()

		p := New(Config{BaseURL: server.URL, APIKey: "k"}, zap.NewNop())
		_, err := p.Generate(context.Background(), "m", []entity.Turn{{Role: entity.TurnUser, Text: "hi"}})
		if err == nil || !strings.Contains(err.Error(), "safety") {
			t.Errorf("expected safety error, got %v", err)
		}
	})
}

func TestListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}

		var page ModelsResponse
		if r.URL.Query().Get("pageToken") == "" {
			page = ModelsResponse{
				Models: []APIModel{
					{
						Name:                       "models/gemini-2.5-pro",
						DisplayName:                "Gemini 2.5 Pro",
						Description:                "Mid-size multimodal model",
						SupportedGenerationMethods: []string{"generateContent", "countTokens"},
					},
					{
						Name:                       "models/text-embedding-004",
						DisplayName:                "Text Embedding",
						SupportedGenerationMethods: []string{"embedContent"},
					},
				},
				NextPageToken: "page2",
			}
		} else {
			page = ModelsResponse{
				Models: []APIModel{{
					Name:                       "models/gemini-2.5-flash",
					DisplayName:                "Gemini 2.5 Flash",
					SupportedGenerationMethods: []string{"generateContent"},
				}},
			}
		}
		json.NewEncoder(w).Encode(page)
	}))
	defer server.Close()

	p := New(Config{BaseURL: server.URL, APIKey: "k"}, zap.NewNop())
	models, err := p.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels failed: %v", err)
	}

	// The embedding-only model is filtered out; both pages are walked.
	if len(models) != 2 {
		t.Fatalf("expected 2 generation-capable models, got %d", len(models))
	}
	if models[0].Name != "models/gemini-2.5-pro" || models[1].Name != "models/gemini-2.5-flash" {
		t.Errorf("unexpected models: %+v", models)
	}
	if models[0].DisplayName != "Gemini 2.5 Pro" {
		t.Errorf("display name lost: %+v", models[0])
	}
}
