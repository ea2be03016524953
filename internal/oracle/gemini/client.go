package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/jd-matcher/internal/logger"
	"github.com/spigell/jd-matcher/internal/utils"
)

const (
	provider = "gemini"

	defaultEmbeddingModel = "text-embedding-004"
	defaultNERModel       = "gemini-2.5-flash"
	defaultMaxRetries     = 3
	defaultMaxLogLength   = 200

	// maxEmbedBatch is the largest number of contents the API embeds per request.
	maxEmbedBatch = 100

	baseRetryDelay = 2 * time.Second
	maxQuotaDelay  = 30 * time.Second
)

var sleep = utils.WaitFor

var retryAfterPattern = regexp.MustCompile(`(?i)retry (?:after|in) (\d+(?:\.\d+)?)\s*s`)

// models is the subset of *genai.Models used by the client.
type models interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config configures the Gemini oracle.
type Config struct {
	APIKey         string
	EmbeddingModel string
	NERModel       string
	MaxRetries     int
	MaxLogLength   int
}

// Client implements oracle.Embedder and oracle.EntityRecognizer on top of the
// Gemini API. It also transcribes scanned documents for the document reader.
type Client struct {
	models         models
	embeddingModel string
	nerModel       string
	maxRetries     int
	maxLogLen      int
	logger         *zap.Logger
}

// New creates a client for the Gemini API backend.
func New(ctx context.Context, cfg Config, log *zap.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newClient(client.Models, cfg, log), nil
}

func newClient(m models, cfg Config, log *zap.Logger) *Client {
	c := &Client{
		models:         m,
		embeddingModel: strings.TrimSpace(cfg.EmbeddingModel),
		nerModel:       strings.TrimSpace(cfg.NERModel),
		maxRetries:     cfg.MaxRetries,
		maxLogLen:      cfg.MaxLogLength,
	}
	if c.embeddingModel == "" {
		c.embeddingModel = defaultEmbeddingModel
	}
	if c.nerModel == "" {
		c.nerModel = defaultNERModel
	}
	if c.maxRetries <= 0 {
		c.maxRetries = defaultMaxRetries
	}
	if c.maxLogLen <= 0 {
		c.maxLogLen = defaultMaxLogLength
	}
	c.logger = logger.WithCommonFields(log, provider, "")
	return c
}

// Embed returns one vector per text. Texts are sent in batches.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += maxEmbedBatch {
		end := min(start+maxEmbedBatch, len(texts))
		batch := texts[start:end]

		contents := make([]*genai.Content, len(batch))
		for i, t := range batch {
			contents[i] = genai.NewContentFromText(t, genai.RoleUser)
		}

		var resp *genai.EmbedContentResponse
		err := c.withRetry(ctx, c.embeddingModel, "embed content", func() error {
			var err error
			resp, err = c.models.EmbedContent(ctx, c.embeddingModel, contents, nil)
			return err
		})
		if err != nil {
			return nil, err
		}
		if resp == nil || len(resp.Embeddings) != len(batch) {
			got := 0
			if resp != nil {
				got = len(resp.Embeddings)
			}
			return nil, fmt.Errorf("gemini returned %d embeddings for %d texts", got, len(batch))
		}

		for _, e := range resp.Embeddings {
			var vec []float64
			if e != nil {
				vec = make([]float64, len(e.Values))
				for i, v := range e.Values {
					vec[i] = float64(v)
				}
			}
			out = append(out, vec)
		}
	}

	c.logger.Debug("gemini embeddings received",
		zap.String(logger.FieldModel, c.embeddingModel),
		zap.Int("texts", len(texts)),
	)
	return out, nil
}

func (c *Client) generate(ctx context.Context, system, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr[float32](0),
	}
	return c.generateContent(ctx, genai.Text(prompt), cfg)
}

func (c *Client) generateContent(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	var resp *genai.GenerateContentResponse
	err := c.withRetry(ctx, c.nerModel, "generate content", func() error {
		var err error
		resp, err = c.models.GenerateContent(ctx, c.nerModel, contents, cfg)
		return err
	})
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	if resp != nil {
		for _, candidate := range resp.Candidates {
			if candidate == nil || candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part == nil || strings.TrimSpace(part.Text) == "" {
					continue
				}
				builder.WriteString(part.Text)
			}
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}
	return output, nil
}

func (c *Client) withRetry(ctx context.Context, model, op string, call func() error) error {
	var err error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		err = call()
		if err == nil {
			return nil
		}

		delay, retry := retryDelay(err, attempt)
		if !retry || attempt == c.maxRetries {
			break
		}

		c.logger.Warn("gemini request failed, retrying",
			zap.String(logger.FieldModel, model),
			zap.String("operation", op),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if werr := sleep(ctx, delay); werr != nil {
			return werr
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// retryDelay reports whether err is temporary and how long to wait before the
// next attempt. Quota errors asking for a long pause are not retried.
func retryDelay(err error, attempt int) (time.Duration, bool) {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return 0, false
	}

	delay := baseRetryDelay * time.Duration(1<<(attempt-1))
	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		if m := retryAfterPattern.FindStringSubmatch(apiErr.Message); m != nil {
			if secs, perr := strconv.ParseFloat(m[1], 64); perr == nil {
				delay = time.Duration(secs * float64(time.Second))
			}
		}
		if delay > maxQuotaDelay {
			return 0, false
		}
		return delay, true
	case apiErr.Code >= http.StatusInternalServerError:
		return delay, true
	default:
		return 0, false
	}
}
