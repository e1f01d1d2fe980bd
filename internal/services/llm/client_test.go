package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := testRemoteConfig()
	cfg.BaseURL = server.URL
	return NewClient(cfg, WithHTTPClient(server.Client()))
}

func chatResponse(content string) string {
	body := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
	}
	encoded, _ := json.Marshal(body)
	return string(encoded)
}

func TestClientAnalyzeParsesStructuredPayload(t *testing.T) {
	payload := `{"attention_score":0.82,"confidence":0.9,"factors":["steady gaze"],"recommendations":["keep going"]}`
	var gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var req chatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.ResponseFormat["type"] != jsonResponseType {
			t.Errorf("response_format = %q", req.ResponseFormat["type"])
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		fmt.Fprint(w, chatResponse(payload))
	})

	result, err := client.Analyze(context.Background(), "observations")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("authorization header = %q", gotAuth)
	}
	if !result.Success || result.Confidence != 0.9 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.AttentionScore == nil || *result.AttentionScore != 0.82 {
		t.Fatalf("attention score = %v", result.AttentionScore)
	}
	if len(result.Factors) != 1 || result.Factors[0] != "steady gaze" {
		t.Fatalf("factors = %v", result.Factors)
	}
}

func TestClientAnalyzeStripsCodeFence(t *testing.T) {
	fenced := "```json\n{\"confidence\":0.8,\"factors\":[]}\n```"
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatResponse(fenced))
	})

	result, err := client.Analyze(context.Background(), "observations")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.Confidence != 0.8 {
		t.Fatalf("confidence = %v", result.Confidence)
	}
}

func TestClientAnalyzeFallsBackOnUnparseablePayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatResponse("the subject appears focused"))
	})

	result, err := client.Analyze(context.Background(), "observations")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !result.Success {
		t.Fatal("transport success must still report Success")
	}
	if result.Confidence != parseFallbackConfidence {
		t.Fatalf("confidence = %v, want %v", result.Confidence, parseFallbackConfidence)
	}
	if result.Analysis != "the subject appears focused" {
		t.Fatalf("analysis = %q", result.Analysis)
	}
}

func TestClientAnalyzeHTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	if _, err := client.Analyze(context.Background(), "observations"); err == nil {
		t.Fatal("expected error for non-200 response")
	} else if !strings.Contains(err.Error(), "429") {
		t.Fatalf("error should carry status code, got %v", err)
	}
}

func TestClientAnalyzeProviderError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":{"message":"model overloaded"}}`)
	})

	if _, err := client.Analyze(context.Background(), "observations"); err == nil || !strings.Contains(err.Error(), "model overloaded") {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestClientAnalyzeRequiresAPIKey(t *testing.T) {
	cfg := testRemoteConfig()
	cfg.APIKey = ""
	client := NewClient(cfg)
	if _, err := client.Analyze(context.Background(), "observations"); err == nil {
		t.Fatal("expected error without an api key")
	}
}
