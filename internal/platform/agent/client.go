// Package agent is the HTTP adapter for the external LLM agent service.
// It satisfies the generator interfaces and is the only unbounded
// dependency in the system, so every call runs under a deadline.
package agent

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

	"codele_backend/internal/common"
	"codele_backend/internal/domain/generator"
	"codele_backend/internal/domain/model"
)

type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type pickThemeRequest struct {
	RecentThemes []string `json:"recent_themes"`
}

type pickThemeResponse struct {
	Theme string `json:"theme"`
}

func (c *Client) PickTheme(ctx context.Context, recentThemes []string) (string, error) {
	var resp pickThemeResponse
	if err := c.post(ctx, "/pick-theme", pickThemeRequest{RecentThemes: recentThemes}, &resp); err != nil {
		return "", err
	}
	theme := strings.TrimSpace(resp.Theme)
	if theme == "" {
		return "", fmt.Errorf("agent returned an empty theme: %w", common.ErrGeneratorFailure)
	}
	return theme, nil
}

type generateRequest struct {
	Theme          string   `json:"theme"`
	Count          int      `json:"count"`
	ExistingTitles []string `json:"existing_titles"`
}

type generateResponse struct {
	Problems []generator.ProblemDraft `json:"problems"`
}

func (c *Client) GenerateProblems(ctx context.Context, theme string, count int, existingTitles []string) ([]generator.ProblemDraft, error) {
	var resp generateResponse
	req := generateRequest{Theme: theme, Count: count, ExistingTitles: existingTitles}
	if err := c.post(ctx, "/generate", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Problems) != count {
		return nil, fmt.Errorf("agent returned %d drafts, expected %d: %w", len(resp.Problems), count, common.ErrGeneratorFailure)
	}
	for i := range resp.Problems {
		if err := validateDraft(&resp.Problems[i]); err != nil {
			return nil, fmt.Errorf("draft %d: %w", i+1, err)
		}
	}
	return resp.Problems, nil
}

// validateDraft coerces the agent's loosely-shaped output into a usable
// draft at the boundary, instead of trusting it downstream.
func validateDraft(d *generator.ProblemDraft) error {
	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" || d.Description == "" || d.StarterCode == "" {
		return fmt.Errorf("draft missing title, description or starter code: %w", common.ErrGeneratorFailure)
	}
	if d.Topics == nil {
		d.Topics = []string{}
	}
	for i := range d.TestCases {
		tc := &d.TestCases[i]
		tc.Type = strings.ToLower(strings.TrimSpace(tc.Type))
		switch model.TestCaseType(tc.Type) {
		case model.TestCaseBasic, model.TestCaseEdge, model.TestCaseLogic, model.TestCaseConciseness:
		default:
			tc.Type = string(model.TestCaseBasic)
		}
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("agent.post marshal: %w", err)
	}

	// Bound the call even when the caller passes an open-ended context.
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("agent.post request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("agent call %s failed: %v: %w", path, err, common.ErrGeneratorFailure)
	}
	defer resp.Body.Close()

	c.logger.Info("agent call finished",
		"path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("agent call %s returned %d: %s: %w", path, resp.StatusCode, string(msg), common.ErrGeneratorFailure)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("agent call %s bad response: %v: %w", path, err, common.ErrGeneratorFailure)
	}
	return nil
}
