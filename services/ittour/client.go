// Package ittour talks to the ITTour search-list API: it builds validated
// queries, normalizes the many response shapes and maps error codes to user
// advice.
package ittour

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"tourbot/models"
	"tourbot/utils"
)

const searchListPath = "/module/search-list"

// maxBody caps how much of a response is read.
const maxBody = 8 << 20

// Searcher runs one search-list request.
type Searcher interface {
	Search(ctx context.Context, q models.SearchQuery) (models.SearchResult, error)
}

// Client is a single-attempt HTTP client for the search-list endpoint.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	token          string
	acceptLanguage string
}

// NewClient builds a client. A nil httpClient gets one with the given timeout.
func NewClient(httpClient *http.Client, baseURL, token, acceptLanguage string, timeout time.Duration) *Client {
	if httpClient == nil {
		if timeout <= 0 {
			timeout = 25 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if acceptLanguage == "" {
		acceptLanguage = "uk"
	}
	return &Client{
		httpClient:     httpClient,
		baseURL:        strings.TrimRight(baseURL, "/"),
		token:          token,
		acceptLanguage: acceptLanguage,
	}
}

// Search sends q without retrying. Transport failures and timeouts wrap
// ErrServiceUnavailable; API errors are returned as *UpstreamError.
func (c *Client) Search(ctx context.Context, q models.SearchQuery) (models.SearchResult, error) {
	params := q.Values()
	url := c.baseURL + searchListPath + "?" + params.Encode()
	utils.GetLogger().Info("ITTour request", zap.String("path", searchListPath), zap.String("params", params.Encode()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.SearchResult{}, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept-Language", c.acceptLanguage)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		utils.GetLogger().Error("ITTour: request failed", zap.Error(err))
		return models.SearchResult{}, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		utils.GetLogger().Error("ITTour: failed to read response", zap.Error(err))
		return models.SearchResult{}, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	data, malformed := normalize(body, resp.StatusCode)
	if resp.StatusCode != http.StatusOK {
		utils.GetLogger().Error("ITTour: unexpected HTTP status", zap.Int("status", resp.StatusCode), zap.String("body", excerpt(string(body))))
	}
	if upErr := errorFromEnvelope(data, resp.StatusCode); upErr != nil {
		upErr.malformed = malformed
		utils.GetLogger().Error("ITTour API error",
			zap.Int("error_code", upErr.Code),
			zap.String("error", upErr.Message),
			zap.String("desc", upErr.Description))
		return models.SearchResult{}, upErr
	}

	res := decodeResult(data)
	if res.Page == 0 {
		res.Page = max(q.Page, 1)
	}
	return res, nil
}

var _ Searcher = (*Client)(nil)
