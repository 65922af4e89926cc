// Package predict is the client for the remote banknote classification service.
package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"cashlens/internal/common"
	"cashlens/internal/model"
)

// Config configures the prediction client.
type Config struct {
	// BaseURL is the API root; the client posts to {BaseURL}/predict.
	BaseURL string
	// Threshold is the minimum confidence for an actionable detection.
	Threshold float64
	Timeout   time.Duration
}

// Client posts captured frames to the classification endpoint and normalizes
// the responses. It never retries a prediction on its own; the caller decides
// whether to trigger another capture.
type Client struct {
	httpClient *http.Client
	baseURL    string
	threshold  float64
}

// NewClient creates a prediction client.
func NewClient(cfg Config) *Client {
	threshold := cfg.Threshold
	if threshold == 0 {
		threshold = model.DefaultConfidenceThreshold
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:   cfg.BaseURL,
		threshold: threshold,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Threshold returns the configured confidence threshold.
func (c *Client) Threshold() float64 {
	return c.threshold
}

// Predict uploads the frame as a multipart body with a single `file` field
// and parses the raw classification result. Transport failures wrap
// ErrConnection, non-success statuses become *ServerError, and a response
// body without the expected fields is ErrMalformedResponse.
func (c *Client) Predict(ctx context.Context, frame model.Frame) (model.Prediction, error) {
	if frame.Empty() {
		return model.Prediction{}, fmt.Errorf("%w: empty frame", common.ErrCaptureNotReady)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "capture.jpg")
	if err != nil {
		return model.Prediction{}, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err = part.Write(frame.Data); err != nil {
		return model.Prediction{}, fmt.Errorf("failed to build upload: %w", err)
	}
	if err = writer.Close(); err != nil {
		return model.Prediction{}, fmt.Errorf("failed to build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", &body)
	if err != nil {
		return model.Prediction{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	slog.Debug("Sending frame to classifier", "bytes", frame.Size())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.Prediction{}, fmt.Errorf("%w: %v", common.ErrConnection, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Prediction{}, fmt.Errorf("%w: %v", common.ErrConnection, err)
	}

	if resp.StatusCode != http.StatusOK {
		return model.Prediction{}, &common.ServerError{
			Status: resp.StatusCode,
			Body:   string(bytes.TrimSpace(respBody)),
		}
	}

	var parsed struct {
		PredictedClass *string  `json:"predicted_class"`
		Confidence     *float64 `json:"confidence"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return model.Prediction{}, fmt.Errorf("%w: %v", common.ErrMalformedResponse, err)
	}
	if parsed.PredictedClass == nil || parsed.Confidence == nil {
		return model.Prediction{}, fmt.Errorf("%w: missing predicted_class or confidence", common.ErrMalformedResponse)
	}

	return model.Prediction{
		Label:      *parsed.PredictedClass,
		Confidence: *parsed.Confidence,
	}, nil
}

// Detect runs Predict and applies the normalization policy: the background
// sentinel and anything below the threshold come back as a non-detection
// instead of a low-confidence guess.
func (c *Client) Detect(ctx context.Context, frame model.Frame) (model.Detection, error) {
	prediction, err := c.Predict(ctx, frame)
	if err != nil {
		return model.Detection{}, err
	}
	return prediction.Display(c.threshold), nil
}
