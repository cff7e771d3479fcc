package dish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
)

// HTTPProvider posts raw image bytes to a classification service and reads
// back ranked predictions:
//
//	{"predictions": [{"label": "cheeseburger", "confidence": 0.91}, ...]}
type HTTPProvider struct {
	url    string
	client *http.Client
}

func NewHTTPProvider(url string, client *http.Client) *HTTPProvider {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &HTTPProvider{url: url, client: client}
}

func (p *HTTPProvider) DetectLabels(ctx context.Context, image []byte) ([]Label, error) {
	if p.url == "" {
		return nil, errors.New("missing classifier url")
	}
	if len(image) == 0 {
		return nil, errors.New("empty image")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(image))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classifier returned %d: %s", resp.StatusCode, string(raw))
	}

	var result struct {
		Predictions []Label `json:"predictions"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode classifier response: %w", err)
	}

	sort.SliceStable(result.Predictions, func(i, j int) bool {
		return result.Predictions[i].Confidence > result.Predictions[j].Confidence
	})
	return result.Predictions, nil
}
