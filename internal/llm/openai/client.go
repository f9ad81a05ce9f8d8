package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stroydoc/bom-tracker/internal/entity"
	"github.com/stroydoc/bom-tracker/internal/llm"
)

// Client implements llm.ItemsExtractor over a text-only chat/completions
// endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(cfg Config, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		cfg:        cfg.withDefaults(),
		httpClient: &http.Client{},
		log:        log,
	}
}

// SetHTTPClient replaces the underlying transport; tests inject fakes here.
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// ExtractItems sends one block and returns schema-validated facts. Any
// failure mode (transport error, non-success status, malformed content,
// schema validation) triggers exactly one retry after a fixed backoff and is
// then surfaced as a single uniform error.
func (c *Client) ExtractItems(ctx context.Context, req llm.BlockExtractRequest) ([]entity.MaterialFact, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"block_uid", req.BlockUID,
		"page", req.PageNumber,
		"text_len", len(req.Content),
	)

	items, raw, err := c.attempt(ctx, req)
	if err != nil {
		c.log.Warn("llm.extract.retrying",
			"req_id", rid,
			"block_uid", req.BlockUID,
			"error", err,
			"backoff", c.cfg.RetryBackoff.String(),
		)
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-time.After(c.cfg.RetryBackoff):
		}
		items, raw, err = c.attempt(ctx, req)
	}
	if err != nil {
		c.log.Error("llm.extract.failed",
			"req_id", rid,
			"block_uid", req.BlockUID,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, raw, fmt.Errorf("extract block %s: %w", req.BlockUID, err)
	}

	c.log.Info("llm.extract.ok",
		"req_id", rid,
		"block_uid", req.BlockUID,
		"items", len(items),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return items, raw, nil
}

// attempt is one full request/validate/decode cycle, bounded by the
// configured timeout.
func (c *Client) attempt(ctx context.Context, req llm.BlockExtractRequest) ([]entity.MaterialFact, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	schema := llm.BuildItemsJSONSchema()
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": llm.BuildSystemPrompt()},
			{"role": "user", "content": llm.BuildUserPrompt(req) + "\n\nReturn ONLY JSON that matches the provided schema."},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		return nil, nil, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return nil, raw, fmt.Errorf("decode response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return nil, raw, fmt.Errorf("no choices in response")
	}
	content := []byte(strings.TrimSpace(cc.Choices[0].Message.Content))

	if err := llm.ValidateJSONAgainstSchema(schema, content); err != nil {
		return nil, content, fmt.Errorf("schema validation failed: %w", err)
	}
	items, err := llm.DecodeItems(content)
	if err != nil {
		return nil, content, err
	}
	return items, content, nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llm http error: %w", err)
	}
	defer func(rc io.ReadCloser) {
		if cerr := rc.Close(); cerr != nil {
			c.log.Warn("llm response body close error", "error", cerr)
		}
	}(resp.Body)

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("llm status %d: %s", resp.StatusCode, buf.String())
	}
	return buf.Bytes(), nil
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
