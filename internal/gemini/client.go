package gemini

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/LAMpbrien/adventures-of/internal/assets"
	"github.com/LAMpbrien/adventures-of/internal/config"
)

var ErrMissingAPIKey = errors.New("gemini api key is not configured")

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Stager holds generated images until they are persisted for a page.
type Stager interface {
	Put(ctx context.Context, bucket, key string, data []byte, contentType string) (string, error)
}

// Client serves both story text and illustrations. It is built once at
// startup and shared.
type Client struct {
	models        contentGenerator
	textModel     string
	imageModel    string
	limiter       *rate.Limiter
	fetcher       assets.BlobFetcher
	stager        Stager
	rendersBucket string
}

type Options struct {
	Fetcher       assets.BlobFetcher
	Stager        Stager
	RendersBucket string
}

func New(ctx context.Context, cfg config.GeminiConfig, opts Options) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("init genai: %w", err)
	}

	return newClient(client.Models, cfg, opts), nil
}

func newClient(models contentGenerator, cfg config.GeminiConfig, opts Options) *Client {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}

	return &Client{
		models:        models,
		textModel:     cfg.TextModel,
		imageModel:    cfg.ImageModel,
		limiter:       limiter,
		fetcher:       opts.Fetcher,
		stager:        opts.Stager,
		rendersBucket: opts.RendersBucket,
	}
}

func (c *Client) generate(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", model, err)
	}
	return resp, nil
}
