package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// GenerationStatus reports progress of an asynchronous pack generation.
type GenerationStatus struct {
	Status      string `json:"status"`
	CurrentStep int    `json:"currentStep"`
	TotalSteps  int    `json:"totalSteps"`
	RoundID     string `json:"roundId"`
}

// TTSLine is one phrase to synthesize.
type TTSLine struct {
	PhraseID string `json:"phraseId"`
	Text     string `json:"text"`
}

// TTSClip is one synthesized clip returned by the generation service.
type TTSClip struct {
	PhraseID   string `json:"phraseId"`
	URL        string `json:"url"`
	DurationMs int64  `json:"durationMs"`
}

// Client talks to the content generation service. Every method returns an
// error on failure; callers treat generation as optional and degrade.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a generation service client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// GenerateRound asks the service to produce a new destination pack. The
// returned round id is polled with GenerationProgress.
func (c *Client) GenerateRound(ctx context.Context, theme, language string) (string, error) {
	if language == "" {
		language = "sv"
	}
	body := map[string]string{"theme": theme, "language": language}

	var out struct {
		RoundID string `json:"roundId"`
		Status  string `json:"status"`
	}
	if err := c.post(ctx, "/generate/round", body, &out); err != nil {
		return "", fmt.Errorf("generate round: %w", err)
	}
	c.logger.Info("content generation started", "roundId", out.RoundID, "status", out.Status)
	return out.RoundID, nil
}

// GenerationProgress polls one generation task.
func (c *Client) GenerationProgress(ctx context.Context, roundID string) (GenerationStatus, error) {
	var out GenerationStatus
	if err := c.get(ctx, "/generate/round/"+roundID+"/status", &out); err != nil {
		return GenerationStatus{}, fmt.Errorf("generation status for %s: %w", roundID, err)
	}
	return out, nil
}

// TTSBatch synthesizes a batch of phrases in one request.
func (c *Client) TTSBatch(ctx context.Context, lines []TTSLine) ([]TTSClip, error) {
	body := map[string]any{"lines": lines}
	var out struct {
		Clips []TTSClip `json:"clips"`
	}
	if err := c.post(ctx, "/tts/batch", body, &out); err != nil {
		return nil, fmt.Errorf("tts batch: %w", err)
	}
	return out.Clips, nil
}

// TTS synthesizes a single phrase.
func (c *Client) TTS(ctx context.Context, line TTSLine) (TTSClip, error) {
	var out struct {
		AssetID    string `json:"assetId"`
		URL        string `json:"url"`
		DurationMs int64  `json:"durationMs"`
	}
	if err := c.post(ctx, "/tts", map[string]string{"text": line.Text}, &out); err != nil {
		return TTSClip{}, fmt.Errorf("tts %s: %w", line.PhraseID, err)
	}
	return TTSClip{PhraseID: line.PhraseID, URL: out.URL, DurationMs: out.DurationMs}, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: unexpected status %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
