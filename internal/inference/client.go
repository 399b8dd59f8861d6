// Package inference calls the remote stunting prediction model.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"stuntcheck/internal/models"
)

// ErrUnavailable wraps every failure to obtain a prediction: transport
// errors, timeouts and non-2xx responses
var ErrUnavailable = errors.New("prediction model unavailable")

// ErrUnexpectedOutput means the model answered but its body does not match
// the output schema
var ErrUnexpectedOutput = errors.New("unexpected prediction model output")

const maxResponseBytes = 1 << 20

// Client is a thin adapter over the model's HTTP API. Each call is made once.
type Client struct {
	baseURL   string
	statusURL string
	http      *http.Client
}

// NewClient creates a client for the model at baseURL. statusURL is probed by
// Status and defaults to baseURL + "/".
func NewClient(baseURL, statusURL string, timeout time.Duration) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if statusURL == "" {
		statusURL = baseURL + "/"
	}
	return &Client{
		baseURL:   baseURL,
		statusURL: statusURL,
		http:      &http.Client{Timeout: timeout},
	}
}

// genderLabel maps a canonical gender to the label the model was trained on
func genderLabel(g models.Gender) string {
	switch g {
	case models.GenderMale:
		return "Laki-laki"
	case models.GenderFemale:
		return "Perempuan"
	default:
		return string(g)
	}
}

type predictRequest struct {
	Gender string  `json:"gender"`
	Age    float64 `json:"age"`
	Height float64 `json:"height"`
	Weight float64 `json:"weight"`
}

// Predict posts the features to <base>/predict and returns the model's JSON
// response untouched
func (c *Client) Predict(ctx context.Context, f models.Features) (json.RawMessage, error) {
	payload, err := json.Marshal(predictRequest{
		Gender: genderLabel(f.Gender),
		Age:    f.Age,
		Height: f.Height,
		Weight: f.Weight,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode features: %w", err)
	}

	status, body, err := c.do(ctx, http.MethodPost, c.baseURL+"/predict", payload)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("%w: model returned status %d", ErrUnavailable, status)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: model returned invalid JSON", ErrUnavailable)
	}

	return json.RawMessage(body), nil
}

// Status fetches the model's status endpoint. A JSON body is decoded,
// anything else is returned as a string.
func (c *Client) Status(ctx context.Context) (interface{}, error) {
	status, body, err := c.do(ctx, http.MethodGet, c.statusURL, nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("%w: status endpoint returned %d", ErrUnavailable, status)
	}

	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return strings.TrimSpace(string(body)), nil
	}
	return data, nil
}

func (c *Client) do(ctx context.Context, method, url string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp.StatusCode, data, nil
}

// DecodeResult extracts the stored output fields from a model response
func DecodeResult(raw json.RawMessage) (models.InferenceResult, error) {
	var result models.InferenceResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return models.InferenceResult{}, fmt.Errorf("%w: %v", ErrUnexpectedOutput, err)
	}
	if result.Status == "" {
		return models.InferenceResult{}, fmt.Errorf("%w: response has no status", ErrUnexpectedOutput)
	}
	if string(result.AdditionalInfo) == "null" {
		result.AdditionalInfo = nil
	}
	return result, nil
}
