package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"voicehost/internal/domain"
	"voicehost/internal/infra"
)

// ErrMissingToken indicates that the client was configured without credentials.
var ErrMissingToken = fmt.Errorf("%w: replicate api token is required", domain.ErrConfiguration)

// Options configures the Replicate predictions client.
type Options struct {
	APIToken       string
	BaseURL        string
	Model          string
	MaxRetries     int
	RetryBase      time.Duration
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls to the Replicate predictions API.
type Client struct {
	apiToken   string
	baseURL    string
	model      string
	maxRetries uint64
	retryBase  time.Duration
	httpClient *http.Client
	logger     *infra.Logger
}

type predictionRequest struct {
	Version string          `json:"version"`
	Input   predictionInput `json:"input"`
}

type predictionInput struct {
	Text             string  `json:"text"`
	VoiceStyle       string  `json:"voice_style"`
	Temperature      float64 `json:"temperature"`
	SceneDescription string  `json:"scene_description,omitempty"`
}

type predictionResponse struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  json.RawMessage `json:"error"`
}

type errorResponse struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.replicate.com/v1"
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("replicate: invalid base url: %w", err)
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "sosoroy/higgs-audio-guide:latest"
	}
	retries := opts.MaxRetries
	if retries < 0 {
		retries = 0
	}
	retryBase := opts.RetryBase
	if retryBase <= 0 {
		retryBase = 500 * time.Millisecond
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		l := zerolog.New(io.Discard)
		logger = &l
	}
	return &Client{
		apiToken:   strings.TrimSpace(opts.APIToken),
		baseURL:    baseURL,
		model:      model,
		maxRetries: uint64(retries),
		retryBase:  retryBase,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Model returns the configured model version identifier.
func (c *Client) Model() string {
	return c.model
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiToken != ""
}

// Submit creates a prediction and returns its initial state.
func (c *Client) Submit(ctx context.Context, input domain.SynthesisInput) (*domain.PredictionJob, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingToken
	}
	payload := predictionRequest{
		Version: c.model,
		Input: predictionInput{
			Text:             input.Text,
			VoiceStyle:       input.VoiceStyle,
			Temperature:      input.Temperature,
			SceneDescription: strings.TrimSpace(input.SceneDescription),
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("replicate: encode request: %w", err)
	}
	raw, attempts, err := c.do(ctx, http.MethodPost, c.baseURL+"/predictions", body, false)
	if err != nil {
		return nil, err
	}
	job, err := decodePrediction(raw)
	if err != nil {
		return nil, err
	}
	if job.ID == "" {
		return nil, fmt.Errorf("%w: replicate: prediction id missing from response", domain.ErrProvider)
	}
	c.logger.Debug().
		Str("model", c.model).
		Str("prediction_id", job.ID).
		Str("status", string(job.Status)).
		Int("attempts", attempts).
		Msg("replicate: prediction submitted")
	return job, nil
}

// Get fetches the current state of a prediction.
func (c *Client) Get(ctx context.Context, predictionID string) (*domain.PredictionJob, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingToken
	}
	id := strings.TrimSpace(predictionID)
	if id == "" {
		return nil, errors.New("replicate: prediction id is required")
	}
	raw, _, err := c.do(ctx, http.MethodGet, c.baseURL+"/predictions/"+url.PathEscape(id), nil, true)
	if err != nil {
		return nil, err
	}
	return decodePrediction(raw)
}

// Fetch downloads an artifact referenced by a prediction output.
func (c *Client) Fetch(ctx context.Context, artifactURL string) ([]byte, error) {
	parsed, err := url.Parse(strings.TrimSpace(artifactURL))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("%w: replicate: invalid artifact url: %s", domain.ErrProvider, artifactURL)
	}
	data, _, err := c.do(ctx, http.MethodGet, parsed.String(), nil, true)
	return data, err
}

// do runs one API call and reports how many attempts it took. 429 answers
// are always retried since the request was rejected before any work began.
// Transport failures and 5xx answers are retried only for idempotent calls:
// a lost response to a create may still have started a prediction upstream.
func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, idempotent bool) ([]byte, int, error) {
	var out []byte
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.retryBase))
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return fmt.Errorf("replicate: build request: %w", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if strings.HasPrefix(endpoint, c.baseURL) {
			req.Header.Set("Authorization", "Token "+c.apiToken)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn().Err(err).Str("method", method).Int("attempt", attempt).Bool("retry", idempotent).Msg("replicate: transport error")
			return retryIf(idempotent, fmt.Errorf("replicate: http request: %w", err))
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return retryIf(idempotent, fmt.Errorf("replicate: read response: %w", err))
		}
		if resp.StatusCode >= 300 {
			statusErr := fmt.Errorf("%w: %s", domain.ErrProvider, upstreamMessage(resp.StatusCode, raw))
			if resp.StatusCode == http.StatusTooManyRequests || (idempotent && resp.StatusCode >= 500) {
				c.logger.Warn().Int("status", resp.StatusCode).Str("method", method).Int("attempt", attempt).Msg("replicate: retryable status")
				return retry.RetryableError(statusErr)
			}
			return statusErr
		}
		out = raw
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrProvider) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, attempt, err
		}
		return nil, attempt, fmt.Errorf("%w: %w", domain.ErrProvider, err)
	}
	return out, attempt, nil
}

func retryIf(retryable bool, err error) error {
	if retryable {
		return retry.RetryableError(err)
	}
	return err
}

func upstreamMessage(status int, raw []byte) string {
	var detail errorResponse
	if err := json.Unmarshal(raw, &detail); err == nil {
		switch {
		case detail.Detail != "":
			return fmt.Sprintf("replicate: status %d: %s", status, detail.Detail)
		case detail.Title != "":
			return fmt.Sprintf("replicate: status %d: %s", status, detail.Title)
		}
	}
	text := strings.TrimSpace(string(raw))
	if len(text) > 512 {
		text = text[:512]
	}
	if text == "" {
		text = http.StatusText(status)
	}
	return fmt.Sprintf("replicate: status %d: %s", status, text)
}

func decodePrediction(raw []byte) (*domain.PredictionJob, error) {
	var decoded predictionResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: replicate: decode response: %w", domain.ErrProvider, err)
	}
	job := &domain.PredictionJob{
		ID:     decoded.ID,
		Status: domain.ParsePredictionStatus(decoded.Status),
		Error:  predictionError(decoded.Error),
	}
	if job.Status == domain.PredictionSucceeded {
		output, err := decodeOutput(decoded.Output)
		if err != nil {
			job.OutputError = err.Error()
		}
		job.Output = output
	}
	return job, nil
}

func predictionError(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var text string
	if err := json.Unmarshal(trimmed, &text); err == nil {
		return text
	}
	return string(trimmed)
}
