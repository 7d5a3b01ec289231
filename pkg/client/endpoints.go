package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Sternrassler/scjn-client/pkg/cache"
	"github.com/Sternrassler/scjn-client/pkg/pagination"
	"github.com/Sternrassler/scjn-client/pkg/ratelimit"
	"github.com/Sternrassler/scjn-client/pkg/search"
)

// HealthStatus is the answer of the health endpoint.
type HealthStatus struct {
	Status string `json:"status"`
}

// Up reports whether the service declares itself healthy.
func (h HealthStatus) Up() bool {
	return h.Status == "UP"
}

// Search fetches one page of results for filter.
func (c *Client) Search(ctx context.Context, filter search.Filter, page, size int) (*search.Result, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if page < 0 || size <= 0 {
		return nil, fmt.Errorf("invalid page %d / size %d", page, size)
	}

	body, err := json.Marshal(search.BuildPayload(filter))
	if err != nil {
		return nil, fmt.Errorf("marshal search payload: %w", err)
	}

	q := url.Values{}
	q.Set("size", strconv.Itoa(size))
	q.Set("page", strconv.Itoa(page))
	endpoint := c.config.BaseURL + "/tesis?" + q.Encode()

	resp, err := c.do(ctx, "search", http.MethodPost, endpoint, body, nil)
	if err != nil {
		return nil, err
	}

	var result search.Result
	if err := decodeJSON(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetTesis fetches a single thesis by its IUS number. With Redis configured,
// documents are served from cache while fresh and revalidated once stale.
func (c *Client) GetTesis(ctx context.Context, id string) (*search.Document, error) {
	if id == "" {
		return nil, fmt.Errorf("thesis id is required")
	}

	path := "/tesis/" + url.PathEscape(id)
	q := url.Values{"hostName": {c.config.HostName}}
	endpoint := c.config.BaseURL + path + "?" + q.Encode()
	key := cache.Key{Path: path, Query: q}

	var cached *cache.Entry
	if c.cache != nil {
		entry, err := c.cache.Get(ctx, key)
		switch {
		case err == nil && !entry.IsExpired():
			c.logger.Debug().Str("id", id).Msg("Thesis served from cache")
			return decodeDocument(entry.Body)
		case err == nil:
			cached = entry
		case !errors.Is(err, cache.ErrCacheMiss):
			c.logger.Warn().Err(err).Str("id", id).Msg("Cache get error")
		}
	}

	resp, err := c.do(ctx, "tesis", http.MethodGet, endpoint, nil, func(req *http.Request) {
		cache.AddConditionalHeaders(req, cached)
	})
	if err != nil {
		return nil, err
	}

	if isNotModified(resp) {
		resp.Body.Close()
		if cached == nil {
			return nil, &APIError{StatusCode: resp.StatusCode, Class: ErrorClassClient, Message: "unexpected 304 without cached document"}
		}
		expires := cache.ExpiresFrom(resp.Header, time.Now(), c.cache.TTL())
		if err := c.cache.Refresh(ctx, key, cached, expires); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to refresh cache entry")
		}
		return decodeDocument(cached.Body)
	}

	if c.cache == nil {
		var doc search.Document
		if err := decodeJSON(resp, &doc); err != nil {
			return nil, err
		}
		return &doc, nil
	}

	entry, err := cache.FromResponse(resp, c.cache.TTL())
	if err != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Class: ErrorClassNetwork, Message: "read response", Err: err}
	}
	doc, err := decodeDocument(entry.Body)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Put(ctx, key, entry); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to cache thesis")
	}
	return doc, nil
}

func decodeDocument(body []byte) (*search.Document, error) {
	var doc search.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &APIError{StatusCode: http.StatusOK, Class: ErrorClassDecode, Message: "decode thesis", Err: err}
	}
	return &doc, nil
}

// GetMultipleTesis fetches several theses through the client's gate and
// returns them in input order. Any failure fails the whole call.
func (c *Client) GetMultipleTesis(ctx context.Context, ids []string) ([]*search.Document, error) {
	tasks := make([]ratelimit.Task[*search.Document], len(ids))
	for i, id := range ids {
		tasks[i] = func(ctx context.Context) (*search.Document, error) {
			return c.GetTesis(ctx, id)
		}
	}
	return ratelimit.RunAll(ctx, c.gate, tasks)
}

// Health queries the service health endpoint.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	resp, err := c.do(ctx, "health", http.MethodGet, c.config.BaseURL+"/health", nil, nil)
	if err != nil {
		return nil, err
	}

	var status HealthStatus
	if err := decodeJSON(resp, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// fetchSummaries adapts Search to the pagination engine.
func (c *Client) fetchSummaries(ctx context.Context, req pagination.Request[search.Filter]) (pagination.Page[search.Summary], error) {
	res, err := c.Search(ctx, req.Filter, req.Page, req.Size)
	if err != nil {
		return pagination.Page[search.Summary]{}, err
	}

	items := make([]search.Summary, len(res.Documents))
	for i, doc := range res.Documents {
		items[i] = doc.Summary()
	}
	return pagination.Page[search.Summary]{Items: items, TotalCount: res.Total}, nil
}

// GetAllTesisIDs returns the summary of every thesis matching filter, in
// backend order.
func (c *Client) GetAllTesisIDs(ctx context.Context, filter search.Filter, opts pagination.Options) ([]search.Summary, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	c.logger.Info().Str("filter", filter.String()).Msg("Extracting all thesis ids")
	return c.summaries.GetAll(ctx, filter, opts)
}

// GetAllIDs returns only the document identifiers.
func (c *Client) GetAllIDs(ctx context.Context, filter search.Filter, opts pagination.Options) ([]string, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	return pagination.GetAllIDs(ctx, c.summaries, filter, opts)
}

// GetAllIUS returns only the IUS numbers.
func (c *Client) GetAllIUS(ctx context.Context, filter search.Filter, opts pagination.Options) ([]string, error) {
	summaries, err := c.GetAllTesisIDs(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	ius := make([]string, len(summaries))
	for i, s := range summaries {
		ius[i] = s.IUS
	}
	return ius, nil
}
