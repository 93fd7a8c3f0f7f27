package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/RustColeone/TradingAgents-web-managed/internal/common"
)

func TestMergeOptions_RecognizedKeys(t *testing.T) {
	defaults := map[string]any{
		"llm_provider":      "openai",
		"deep_think_llm":    "gpt-4.1",
		"max_debate_rounds": 1,
	}
	opts := map[string]any{
		"llm_provider": "anthropic",
		"unrecognized": "ignored",
	}

	merged := MergeOptions(defaults, opts)

	if merged["llm_provider"] != "anthropic" {
		t.Errorf("expected llm_provider override, got %v", merged["llm_provider"])
	}
	if merged["deep_think_llm"] != "gpt-4.1" {
		t.Errorf("expected default deep_think_llm preserved, got %v", merged["deep_think_llm"])
	}
	if _, ok := merged["unrecognized"]; ok {
		t.Error("unrecognized top-level keys must not merge")
	}
}

func TestMergeOptions_NestedConfigWins(t *testing.T) {
	defaults := map[string]any{"llm_provider": "openai", "online_tools": true}
	opts := map[string]any{
		"llm_provider": "anthropic",
		"config": map[string]any{
			"llm_provider": "google", // nested overrides the top-level override
			"extra_key":    42,
		},
	}

	merged := MergeOptions(defaults, opts)

	if merged["llm_provider"] != "google" {
		t.Errorf("expected nested config to win, got %v", merged["llm_provider"])
	}
	if merged["extra_key"] != 42 {
		t.Errorf("expected nested extra key merged, got %v", merged["extra_key"])
	}
	if merged["online_tools"] != true {
		t.Errorf("expected untouched default preserved, got %v", merged["online_tools"])
	}
}

func TestMergeOptions_DoesNotMutateInputs(t *testing.T) {
	defaults := map[string]any{"llm_provider": "openai"}
	opts := map[string]any{"llm_provider": "anthropic"}

	MergeOptions(defaults, opts)

	if defaults["llm_provider"] != "openai" {
		t.Error("defaults map was mutated")
	}
}

func TestDisabled_Configure(t *testing.T) {
	var e Engine = Disabled{}
	if _, err := e.Configure(nil); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestClient_ConfigureWithoutURL(t *testing.T) {
	c := NewClient("", "", time.Second, common.NewSilentLogger())
	if _, err := c.Configure(nil); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestSession_Run(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/analyze" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req analyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.Ticker != "AAPL" || req.Date != "2026-08-31" {
			t.Errorf("unexpected request %+v", req)
		}
		if req.Config["llm_provider"] != "openai" {
			t.Errorf("expected options passed through, got %v", req.Config)
		}
		fmt.Fprint(w, `{"decision":"BUY","state":{"final_trade_decision":"BUY: strong earnings"}}`)
	}))
	defer server.Close()

	c := NewClient(server.URL, "", 5*time.Second, common.NewSilentLogger())
	sess, err := c.Configure(map[string]any{"llm_provider": "openai"})
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}

	result, err := sess.Run(context.Background(), "AAPL", "2026-08-31")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Decision != "BUY" {
		t.Errorf("expected decision BUY, got %s", result.Decision)
	}
	if result.State["final_trade_decision"] != "BUY: strong earnings" {
		t.Errorf("expected state passed through, got %v", result.State)
	}
}

func TestSession_RunAuthHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("expected bearer token, got %q", r.Header.Get("Authorization"))
		}
		fmt.Fprint(w, `{"decision":"HOLD","state":{}}`)
	}))
	defer server.Close()

	c := NewClient(server.URL, "secret", 5*time.Second, common.NewSilentLogger())
	sess, _ := c.Configure(nil)
	if _, err := sess.Run(context.Background(), "AAPL", "2026-08-31"); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestSession_RunServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "collection already exists in agent memory", http.StatusConflict)
	}))
	defer server.Close()

	c := NewClient(server.URL, "", 5*time.Second, common.NewSilentLogger())
	sess, _ := c.Configure(nil)

	_, err := sess.Run(context.Background(), "AAPL", "2026-08-31")
	if err == nil {
		t.Fatal("expected error for 409 response")
	}
	// The body text must survive into the error for upstream classification
	if !strings.Contains(err.Error(), "already exists") || !strings.Contains(err.Error(), "memory") {
		t.Errorf("expected body text in error, got %v", err)
	}
}

func TestSession_Stream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/analyze/stream" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprintln(w, `{"type":"chunk","text":"Market analyst: bullish momentum"}`)
		fmt.Fprintln(w, `{"type":"chunk","text":"Final decision: BUY"}`)
		fmt.Fprintln(w, `{"type":"result","decision":"BUY","state":{"investment_plan":"accumulate"}}`)
	}))
	defer server.Close()

	c := NewClient(server.URL, "", 5*time.Second, common.NewSilentLogger())
	sess, _ := c.Configure(nil)

	var chunks []string
	result, err := sess.Stream(context.Background(), "AAPL", "2026-08-31", func(text string) {
		chunks = append(chunks, text)
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0] != "Market analyst: bullish momentum" {
		t.Errorf("unexpected first chunk %q", chunks[0])
	}
	if result.Decision != "BUY" || result.State["investment_plan"] != "accumulate" {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestSession_StreamErrorFrame(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"type":"chunk","text":"starting"}`)
		fmt.Fprintln(w, `{"type":"error","message":"model quota exceeded"}`)
	}))
	defer server.Close()

	c := NewClient(server.URL, "", 5*time.Second, common.NewSilentLogger())
	sess, _ := c.Configure(nil)

	_, err := sess.Stream(context.Background(), "AAPL", "2026-08-31", nil)
	if err == nil || !strings.Contains(err.Error(), "model quota exceeded") {
		t.Errorf("expected engine error message, got %v", err)
	}
}

func TestSession_StreamTruncated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"type":"chunk","text":"partial"}`)
		// No result frame
	}))
	defer server.Close()

	c := NewClient(server.URL, "", 5*time.Second, common.NewSilentLogger())
	sess, _ := c.Configure(nil)

	_, err := sess.Stream(context.Background(), "AAPL", "2026-08-31", nil)
	if err == nil {
		t.Error("expected error for stream without result frame")
	}
}

func TestSession_StreamSkipsMalformedFrames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `not json at all`)
		fmt.Fprintln(w, `{"type":"result","decision":"SELL","state":{}}`)
	}))
	defer server.Close()

	c := NewClient(server.URL, "", 5*time.Second, common.NewSilentLogger())
	sess, _ := c.Configure(nil)

	result, err := sess.Stream(context.Background(), "AAPL", "2026-08-31", nil)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if result.Decision != "SELL" {
		t.Errorf("expected decision SELL, got %s", result.Decision)
	}
}
