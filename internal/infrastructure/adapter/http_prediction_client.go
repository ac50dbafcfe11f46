package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/l3hautikpatel/credwise-sub000/internal/domain/model"
	"github.com/l3hautikpatel/credwise-sub000/internal/domain/port"
)

// Compile-time interface check.
var _ port.PredictionClient = (*HTTPPredictionClient)(nil)

// maxResponseBytes caps how much of a predictor reply is read.
const maxResponseBytes = 1 << 20

// HTTPPredictionConfig holds configuration for the prediction client.
type HTTPPredictionConfig struct {
	// URL is the full prediction endpoint, e.g. http://predictor:5000/predict.
	URL string
}

// HTTPPredictionClient posts applicant features to the external approval
// predictor, once per call. Deadlines come from the caller's context and
// retrying is left to the caller.
type HTTPPredictionClient struct {
	config HTTPPredictionConfig
	client *http.Client
}

// NewHTTPPredictionClient creates a client. A nil httpClient uses a default one.
func NewHTTPPredictionClient(config HTTPPredictionConfig, httpClient *http.Client) *HTTPPredictionClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &HTTPPredictionClient{config: config, client: httpClient}
}

// Predict returns the decoded predictor reply. Every failure is reported as
// a *model.PredictionUnavailableError.
func (c *HTTPPredictionClient) Predict(ctx context.Context, req model.PredictionRequest) (model.PredictionResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return model.PredictionResponse{}, unavailable(fmt.Errorf("marshal request: %w", err))
	}

	resp, err := c.post(ctx, payload)
	if err != nil {
		return model.PredictionResponse{}, unavailable(err)
	}
	return resp, nil
}

func (c *HTTPPredictionClient) post(ctx context.Context, payload []byte) (model.PredictionResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(payload))
	if err != nil {
		return model.PredictionResponse{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return model.PredictionResponse{}, fmt.Errorf("prediction request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return model.PredictionResponse{}, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.PredictionResponse{}, fmt.Errorf("predictor error (status %d): %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var result model.PredictionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return model.PredictionResponse{}, fmt.Errorf("failed to parse response: %w", err)
	}
	return result, nil
}

func unavailable(err error) error {
	return &model.PredictionUnavailableError{Cause: err}
}
