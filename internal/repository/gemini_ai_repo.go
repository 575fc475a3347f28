package repository

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/UGZ6/in-shadow-trader/config"
	"github.com/UGZ6/in-shadow-trader/internal/dto"
	"github.com/UGZ6/in-shadow-trader/pkg/httpclient"
	"github.com/UGZ6/in-shadow-trader/pkg/logger"
	"github.com/UGZ6/in-shadow-trader/pkg/ratelimit"
)

// AIRepository turns a finished run into a short natural-language review.
type AIRepository interface {
	ReviewBacktest(ctx context.Context, result *dto.RunResult) (string, error)
}

// geminiAIRepository implements AIRepository against the Google Gemini API.
type geminiAIRepository struct {
	httpClient     httpclient.Client
	cfg            *config.Config
	logger         *logger.Logger
	tokenBudget    *ratelimit.TokenBudget
	requestLimiter *rate.Limiter
	genAiClient    *genai.Client
}

// NewGeminiAIRepository creates a new instance of geminiAIRepository.
func NewGeminiAIRepository(cfg *config.Config, log *logger.Logger) (AIRepository, error) {
	secondsPerRequest := time.Minute / time.Duration(cfg.Gemini.MaxRequestPerMinute)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)

	tokenBudget := ratelimit.NewTokenBudget(cfg.Gemini.MaxTokenPerMinute)
	genAiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: cfg.Gemini.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiAIRepository{
		httpClient:     httpclient.New(cfg.Gemini.BaseURL, cfg.Gemini.Timeout),
		cfg:            cfg,
		logger:         log,
		requestLimiter: requestLimiter,
		tokenBudget:    tokenBudget,
		genAiClient:    genAiClient,
	}, nil
}

func (r *geminiAIRepository) ReviewBacktest(ctx context.Context, result *dto.RunResult) (string, error) {
	if result == nil {
		return "", fmt.Errorf("no run result to review")
	}

	prompt := promptReviewBacktest(result)

	geminiAPIResponse, err := r.sendRequest(ctx, prompt)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to send request to gemini", logger.ErrorField(err))
		return "", fmt.Errorf("failed to send request to gemini: %w", err)
	}

	narrative, err := extractText(geminiAPIResponse)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to parse response from gemini", logger.ErrorField(err))
		return "", fmt.Errorf("failed to parse response from gemini: %w", err)
	}

	return narrative, nil
}

func (r *geminiAIRepository) sendRequest(ctx context.Context, prompt string) (*geminiGenerateResponse, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, "user"),
	}
	geminiTokenResp, err := r.genAiClient.Models.CountTokens(ctx, r.cfg.Gemini.BaseModel, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count tokens: %w", err)
	}

	r.logger.Debug("Gemini token count",
		logger.IntField("total_tokens", int(geminiTokenResp.TotalTokens)),
		logger.IntField("remaining", r.tokenBudget.Remaining()),
	)
	if err := r.tokenBudget.Wait(ctx, int(geminiTokenResp.TotalTokens)); err != nil {
		return nil, fmt.Errorf("failed to wait for token gemini limit: %w", err)
	}

	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for request gemini limit: %w", err)
	}

	if int(geminiTokenResp.TotalTokens) > r.cfg.Gemini.MaxTokenPerMinute/2 {
		r.logger.Warn("Token has exceeded 50% of the limit", logger.IntField("remaining", r.tokenBudget.Remaining()))
	}

	payload := geminiGenerateRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	}

	geminiAPIResponse := geminiGenerateResponse{}

	apiURL := fmt.Sprintf("/%s:generateContent?key=%s", r.cfg.Gemini.BaseModel, r.cfg.Gemini.APIKey)

	geminiResp, err := r.httpClient.Post(ctx, apiURL, payload, &geminiAPIResponse)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to gemini: %w", err)
	}

	if geminiResp.StatusCode != http.StatusOK {
		r.logger.ErrorContext(ctx, "failed to get data from gemini", logger.IntField("status_code", geminiResp.StatusCode))
		return nil, fmt.Errorf("failed to get data: %v", string(geminiResp.Body))
	}

	return &geminiAPIResponse, nil
}

func extractText(response *geminiGenerateResponse) (string, error) {
	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("invalid response from Gemini API: no content found")
	}

	text := response.Candidates[0].Content.Parts[0].Text
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("invalid response from Gemini API: empty text")
	}
	return text, nil
}

// Wire types for the generateContent REST endpoint. The genai SDK is only
// used for token counting, the generation call itself goes through the
// shared HTTP client so it obeys the same limiter plumbing.
type geminiGenerateRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiGenerateResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}
