package engine

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/RustColeone/TradingAgents-web-managed/internal/common"
)

// Client is an HTTP Engine against a trading-agents graph service.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *common.Logger
}

// NewClient creates an engine client. An empty baseURL yields a client
// whose Configure fails with ErrNotConfigured.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *common.Logger) *Client {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Configure builds a session carrying the effective options.
func (c *Client) Configure(options map[string]any) (Session, error) {
	if c.baseURL == "" {
		return nil, ErrNotConfigured
	}
	return &session{client: c, options: options}, nil
}

type session struct {
	client  *Client
	options map[string]any
}

// analyzeRequest is the wire payload for both run modes.
type analyzeRequest struct {
	Ticker string         `json:"ticker"`
	Date   string         `json:"date"`
	Config map[string]any `json:"config,omitempty"`
}

// streamFrame is one NDJSON line from the streaming endpoint.
type streamFrame struct {
	Type     string         `json:"type"` // "chunk", "result", "error"
	Text     string         `json:"text,omitempty"`
	Decision string         `json:"decision,omitempty"`
	State    map[string]any `json:"state,omitempty"`
	Message  string         `json:"message,omitempty"`
}

func (s *session) post(ctx context.Context, path string, ticker, date string) (*http.Response, error) {
	body, err := json.Marshal(analyzeRequest{Ticker: ticker, Date: date, Config: s.options})
	if err != nil {
		return nil, fmt.Errorf("failed to encode analyze request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.client.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.client.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.client.apiKey)
	}

	resp, err := s.client.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("engine request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("engine returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return resp, nil
}

// Run performs a single blocking analysis.
func (s *session) Run(ctx context.Context, ticker, date string) (*Result, error) {
	resp, err := s.post(ctx, "/api/v1/analyze", ticker, date)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode engine result: %w", err)
	}
	return &result, nil
}

// Stream performs an analysis over the NDJSON streaming endpoint. Chunk
// frames are delivered in order to onChunk; the result frame terminates
// the stream. An error frame from the engine becomes an error here.
func (s *session) Stream(ctx context.Context, ticker, date string, onChunk func(text string)) (*Result, error) {
	resp, err := s.post(ctx, "/api/v1/analyze/stream", ticker, date)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	// Transcript chunks can carry whole agent reports in one frame
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var frame streamFrame
		if err := json.Unmarshal([]byte(line), &frame); err != nil {
			s.client.logger.Warn().Err(err).Str("ticker", ticker).Msg("Skipping malformed engine stream frame")
			continue
		}

		switch frame.Type {
		case "chunk":
			if onChunk != nil {
				onChunk(frame.Text)
			}
		case "result":
			return &Result{Decision: frame.Decision, State: frame.State}, nil
		case "error":
			return nil, fmt.Errorf("engine error: %s", frame.Message)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("engine stream read failed: %w", err)
	}
	return nil, fmt.Errorf("engine stream ended without a result")
}
