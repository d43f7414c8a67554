package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const (
	randomOrgEndpoint = "https://api.random.org/json-rpc/4/invoke"
	// Largest bound random.org accepts for generateIntegers.
	randomOrgMax = 1_000_000_000
)

// RandomOrgSeeds draws roster seeds from RANDOM.ORG, falling back to a local
// source when the API key is missing or the call fails.
type RandomOrgSeeds struct {
	apiKey   string
	endpoint string
	fallback func() (int64, error)
	logger   *slog.Logger
	client   *http.Client
	timeout  time.Duration
}

// NewRandomOrgSeeds creates a seed source. fallback must not be nil.
func NewRandomOrgSeeds(apiKey string, fallback func() (int64, error), logger *slog.Logger) *RandomOrgSeeds {
	return &RandomOrgSeeds{
		apiKey:   apiKey,
		endpoint: randomOrgEndpoint,
		fallback: fallback,
		logger:   logger,
		client:   &http.Client{Timeout: 5 * time.Second},
		timeout:  3 * time.Second,
	}
}

// Seed returns a 60-bit seed built from two random.org integers.
func (s *RandomOrgSeeds) Seed() (int64, error) {
	if s.apiKey == "" {
		return s.fallback()
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	nums, err := s.fetch(ctx, 2)
	if err != nil {
		s.logger.Warn("random.org unavailable, using local seed", "error", err)
		return s.fallback()
	}
	return int64(nums[0])*randomOrgMax + int64(nums[1]), nil
}

func (s *RandomOrgSeeds) fetch(ctx context.Context, n int) ([]int, error) {
	reqBody := map[string]interface{}{
		"jsonrpc": "2.0",
		"method":  "generateIntegers",
		"params": map[string]interface{}{
			"apiKey":      s.apiKey,
			"n":           n,
			"min":         0,
			"max":         randomOrgMax - 1,
			"replacement": true,
		},
		"id": 1,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("api returned %d", resp.StatusCode)
	}

	var response struct {
		Result struct {
			Random struct {
				Data []int `json:"data"`
			} `json:"random"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if response.Error != nil {
		return nil, fmt.Errorf("api error: %s", response.Error.Message)
	}
	if len(response.Result.Random.Data) != n {
		return nil, fmt.Errorf("api returned %d integers, want %d", len(response.Result.Random.Data), n)
	}
	return response.Result.Random.Data, nil
}
