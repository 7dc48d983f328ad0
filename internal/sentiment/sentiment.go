// Package sentiment classifies user utterances into a coarse
// positive/negative/neutral label via a hosted inference endpoint.
package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tonebot/internal/transport"
)

// Label is a coarse sentiment classification
type Label string

const (
	Positive Label = "positive"
	Negative Label = "negative"
	Neutral  Label = "neutral"
)

// Classifier labels a raw utterance. Implementations are expected to be
// synchronous and low-latency.
type Classifier interface {
	Classify(ctx context.Context, text string) (Label, error)
}

const (
	defaultEndpoint = "https://api-inference.huggingface.co/models/distilbert-base-uncased-finetuned-sst-2-english"
	// requestTimeout bounds each inference attempt individually; backoff
	// waits between retries don't count against it
	requestTimeout = 10 * time.Second
)

// HTTPClassifier calls a HuggingFace-style text-classification inference
// endpoint: POST {"inputs": text} returning ranked label/score pairs.
type HTTPClassifier struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewHTTPClassifier(endpoint string, apiKey string) *HTTPClassifier {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &HTTPClassifier{
		endpoint: endpoint,
		apiKey:   apiKey,
		client: &http.Client{
			Transport: transport.WithRetries(nil, requestTimeout),
		},
	}
}

func (c *HTTPClassifier) Classify(ctx context.Context, text string) (Label, error) {
	body, err := json.Marshal(map[string]string{"inputs": text})
	if err != nil {
		return "", fmt.Errorf("failed to encode classification request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build classification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("classification request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("classifier returned status %d", resp.StatusCode)
	}

	// The inference API nests results one level deep: [[{label, score}, ...]]
	var payload [][]struct {
		Label string  `json:"label"`
		Score float64 `json:"score"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode classification response: %w", err)
	}
	if len(payload) == 0 || len(payload[0]) == 0 {
		return "", fmt.Errorf("classifier returned no labels")
	}

	top := payload[0][0]
	for _, candidate := range payload[0][1:] {
		if candidate.Score > top.Score {
			top = candidate
		}
	}
	return normalizeLabel(top.Label), nil
}

// normalizeLabel maps provider label spellings onto the closed Label set.
// Unrecognized labels are treated as neutral.
func normalizeLabel(label string) Label {
	switch strings.ToLower(label) {
	case "positive", "label_1":
		return Positive
	case "negative", "label_0":
		return Negative
	default:
		return Neutral
	}
}
