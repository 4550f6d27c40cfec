// End-to-end tests for the sampler gateway.
// They simulate the complete flow: Client → Gateway → Sampler → Vendor (mocked).
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/fatih/color"
	"github.com/gin-gonic/gin"

	"github.com/hpn/hpn-sampler/internal/config"
	"github.com/hpn/hpn-sampler/internal/domain"
	"github.com/hpn/hpn-sampler/internal/handler"
)

const (
	testCohereKey = "test-cohere-key"
	testGoogleKey = "test-google-key"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	color.Output = io.Discard
	os.Exit(m.Run())
}

// ============================================================================
// SETUP HELPERS
// ============================================================================

// setupMockCohere simulates the Cohere chat endpoint. A message containing
// "reject" gets a 400; everything else succeeds.
func setupMockCohere(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)

		if !strings.Contains(r.Header.Get("Authorization"), testCohereKey) {
			t.Errorf("[MOCK COHERE] missing bearer key, got %q", r.Header.Get("Authorization"))
		}

		var body struct {
			Message     string           `json:"message"`
			ChatHistory []map[string]any `json:"chat_history"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(body.Message, "reject") {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{"message": "invalid request: too many tokens"})
			return
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"text":          "echo: " + body.Message,
			"generation_id": "gen-1",
			"meta": map[string]any{
				"tokens": map[string]any{
					"input_tokens":  float64(10 + len(body.ChatHistory)),
					"output_tokens": 4,
				},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// setupMockGemini simulates generateContent. The first failures calls
// return 429 before the server starts answering.
func setupMockGemini(t *testing.T, calls *int32, failures int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(calls, 1)

		w.Header().Set("Content-Type", "application/json")
		if n <= failures {
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{
					"code":    429,
					"message": "Resource has been exhausted (e.g. check quota).",
					"status":  "RESOURCE_EXHAUSTED",
				},
			})
			return
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": "Hello from Gemini!"}},
				},
				"finishReason": "STOP",
			}},
			"usageMetadata": map[string]any{
				"promptTokenCount":     7,
				"candidatesTokenCount": 3,
				"totalTokenCount":      10,
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(cohereURL, geminiURL string) *config.Configuration {
	return &config.Configuration{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 8080},
		Samplers: config.SamplersConfig{
			Conversational: domain.DefaultConversationalConfig(),
			Generative:     domain.DefaultGenerativeConfig(),
		},
		Keys: config.KeysConfig{Cohere: testCohereKey, Google: testGoogleKey},
		Vendors: config.VendorsConfig{
			Cohere: config.VendorConfig{BaseURL: cohereURL, TimeoutSeconds: 5},
			Google: config.VendorConfig{BaseURL: geminiURL, TimeoutSeconds: 5},
		},
		Retry: config.RetryConfig{
			BaseDelaySeconds: 0.001,
			Multiplier:       2,
			MaxAttempts:      5,
		},
		Logging: config.LoggingConfig{Level: "error", Format: "json"},
	}
}

func setupGateway(t *testing.T, cfg *config.Configuration) *gin.Engine {
	t.Helper()
	logger := setupLogger(cfg.Logging, io.Discard)

	registry, err := buildRegistry(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("buildRegistry: %v", err)
	}
	return handler.NewRouter(handler.NewSampleHandler(registry, handler.WithLogger(logger)), logger)
}

func sample(t *testing.T, router http.Handler, name, body string) (int, handler.SampleResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/samplers/"+name+"/sample", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp handler.SampleResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w.Code, resp
}

// ============================================================================
// END-TO-END SCENARIOS
// ============================================================================

func TestE2E_ConversationalSample(t *testing.T) {
	var cohereCalls, geminiCalls int32
	cohere := setupMockCohere(t, &cohereCalls)
	gemini := setupMockGemini(t, &geminiCalls, 0)
	router := setupGateway(t, testConfig(cohere.URL, gemini.URL))

	status, resp := sample(t, router, conversationalName, `{"messages":[
		{"role":"user","content":"hi"},
		{"role":"assistant","content":"hello"},
		{"role":"user","content":"how are you?"}
	]}`)

	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if resp.Text != "echo: how are you?" {
		t.Errorf("expected last message to be the current turn, got %q", resp.Text)
	}
	if resp.InputTokens != 12 || resp.OutputTokens != 4 {
		t.Errorf("expected 12/4 tokens (two history entries), got %d/%d", resp.InputTokens, resp.OutputTokens)
	}
	if atomic.LoadInt32(&cohereCalls) != 1 {
		t.Errorf("expected 1 cohere call, got %d", cohereCalls)
	}
}

func TestE2E_ConversationalBadRequest(t *testing.T) {
	var cohereCalls, geminiCalls int32
	cohere := setupMockCohere(t, &cohereCalls)
	gemini := setupMockGemini(t, &geminiCalls, 0)
	router := setupGateway(t, testConfig(cohere.URL, gemini.URL))

	status, resp := sample(t, router, conversationalName, `{"messages":[{"role":"user","content":"please reject me"}]}`)

	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if !resp.Rejected || resp.Text != "" || resp.InputTokens != 0 || resp.OutputTokens != 0 {
		t.Errorf("expected empty rejected result, got %+v", resp.Result)
	}
	if atomic.LoadInt32(&cohereCalls) != 1 {
		t.Errorf("a bad request must not be retried, got %d calls", cohereCalls)
	}
}

func TestE2E_GenerativeRetriesUntilSuccess(t *testing.T) {
	var cohereCalls, geminiCalls int32
	cohere := setupMockCohere(t, &cohereCalls)
	gemini := setupMockGemini(t, &geminiCalls, 2)
	router := setupGateway(t, testConfig(cohere.URL, gemini.URL))

	status, resp := sample(t, router, generativeName, `{"messages":[
		{"role":"user","content":"write a haiku"},
		{"role":"anything","content":"dropped"}
	]}`)

	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if resp.Text != "Hello from Gemini!" || resp.InputTokens != 7 || resp.OutputTokens != 3 {
		t.Errorf("unexpected result: %+v", resp.Result)
	}
	if atomic.LoadInt32(&geminiCalls) != 3 {
		t.Errorf("expected 3 gemini calls (2 failures + success), got %d", geminiCalls)
	}
}

func TestE2E_GenerativeAttemptsExhausted(t *testing.T) {
	var cohereCalls, geminiCalls int32
	cohere := setupMockCohere(t, &cohereCalls)
	gemini := setupMockGemini(t, &geminiCalls, 100)

	cfg := testConfig(cohere.URL, gemini.URL)
	cfg.Retry.MaxAttempts = 3
	router := setupGateway(t, cfg)

	status, _ := sample(t, router, generativeName, `{"messages":[{"role":"user","content":"hi"}]}`)

	if status != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", status)
	}
	if atomic.LoadInt32(&geminiCalls) != 3 {
		t.Errorf("expected 3 gemini calls, got %d", geminiCalls)
	}
}

func TestE2E_ConversationalAttemptsBoundVendorCalls(t *testing.T) {
	var cohereCalls, geminiCalls int32
	cohere := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&cohereCalls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "too many requests"})
	}))
	t.Cleanup(cohere.Close)
	gemini := setupMockGemini(t, &geminiCalls, 0)

	cfg := testConfig(cohere.URL, gemini.URL)
	cfg.Retry.MaxAttempts = 2
	router := setupGateway(t, cfg)

	status, _ := sample(t, router, conversationalName, `{"messages":[{"role":"user","content":"hi"}]}`)

	if status != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", status)
	}
	if got := atomic.LoadInt32(&cohereCalls); got != 2 {
		t.Errorf("max_attempts=2 must mean 2 vendor requests, got %d", got)
	}
}

// ============================================================================
// CLI HELPERS
// ============================================================================

func TestReadMessages(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"bare array", `[{"role":"user","content":"hi"},{"role":"assistant","content":"yo"}]`, 2, false},
		{"wrapped", `{"messages":[{"role":"user","content":"hi"}]}`, 1, false},
		{"empty array", `[]`, 0, false},
		{"garbage", `not json`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readMessages(strings.NewReader(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("readMessages() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != tt.want {
				t.Errorf("expected %d messages, got %d", tt.want, len(got))
			}
		})
	}
}

func TestSetupLogger_RedactsKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(config.LoggingConfig{Level: "info", Format: "json"}, &buf)

	logger.Info("calling vendor", "api_key", "AIzaSyABCDEFGHIJKLMNOPQRSTUVWXYZ123456789", "input_tokens", 3)

	out := buf.String()
	if strings.Contains(out, "AIzaSy") {
		t.Errorf("log output leaks key: %s", out)
	}
	if !strings.Contains(out, `"input_tokens":3`) {
		t.Errorf("log output missing token count: %s", out)
	}
}

func TestRunSample(t *testing.T) {
	var cohereCalls, geminiCalls int32
	cohere := setupMockCohere(t, &cohereCalls)
	gemini := setupMockGemini(t, &geminiCalls, 0)

	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "vendors:\n  cohere:\n    base_url: " + cohere.URL + "\n  google:\n    base_url: " + gemini.URL + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("COHERE_API_KEY", testCohereKey)
	t.Setenv("GOOGLE_API_KEY", testGoogleKey)

	var out bytes.Buffer
	opts := &sampleOptions{rootOptions: &rootOptions{configPath: path}, samplerName: generativeName}
	if err := runSample(context.Background(), opts, strings.NewReader(`[{"role":"user","content":"hi"}]`), &out); err != nil {
		t.Fatalf("runSample: %v", err)
	}

	var result domain.Result
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("output is not a result: %v: %s", err, out.String())
	}
	if result.Text != "Hello from Gemini!" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestRootCommand(t *testing.T) {
	cmd := newRootCmd()

	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "sample"} {
		if !names[want] {
			t.Errorf("missing %s subcommand", want)
		}
	}
}
