package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/conorfennell/flashdeck/internal/domain"
)

// Config describes one backend client. Every client carries its own settings;
// nothing is shared process-wide.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client // optional, overrides Timeout
}

// Client talks to the flashcard backend over JSON.
type Client struct {
	baseURL string
	http    *http.Client
	header  http.Header
}

// New validates cfg and builds a client.
func New(cfg Config) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", cfg.BaseURL)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	header.Set("Accept", "application/json")

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    hc,
		header:  header,
	}, nil
}

// ListSets fetches the summary of every set.
func (c *Client) ListSets(ctx context.Context) ([]domain.SetSummary, error) {
	var sets []domain.SetSummary
	if err := c.do(ctx, "list_sets", http.MethodGet, "/flashcards", nil, &sets); err != nil {
		return nil, err
	}
	if sets == nil {
		sets = []domain.SetSummary{}
	}
	return sets, nil
}

// GetSet fetches one full set. A missing set yields an error wrapping ErrNotFound.
func (c *Client) GetSet(ctx context.Context, id string) (*domain.FlashcardSet, error) {
	var set domain.FlashcardSet
	if err := c.do(ctx, "get_set", http.MethodGet, "/flashcards/"+url.PathEscape(id), nil, &set); err != nil {
		return nil, err
	}
	if set.ID == "" {
		set.ID = id
	}
	return &set, nil
}

// DeleteSet removes a set and all its cards.
func (c *Client) DeleteSet(ctx context.Context, id string) error {
	return c.do(ctx, "delete_set", http.MethodDelete, "/flashcards/"+url.PathEscape(id), nil, nil)
}

type saveResponse struct {
	Success bool `json:"success"`
}

// SaveCard replaces one card of a set. It returns ErrNotSaved when the backend
// answers without success.
func (c *Client) SaveCard(ctx context.Context, setID string, card domain.Flashcard) error {
	path := "/flashcards/" + url.PathEscape(setID) + "/cards/" + url.PathEscape(card.ID)
	var resp saveResponse
	if err := c.do(ctx, "save_card", http.MethodPut, path, card, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("save card %s: %w", card.ID, ErrNotSaved)
	}
	return nil
}

type errorBody struct {
	Error string `json:"error"`
}

// do sends one request. name labels the metrics; errors carry "METHOD path".
func (c *Client) do(ctx context.Context, name, method, path string, body, out any) (err error) {
	op := method + " " + path
	status := "error"
	timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		requestDuration.WithLabelValues(name, status).Observe(v)
	}))
	defer func() {
		timer.ObserveDuration()
		if err != nil {
			requestErrors.WithLabelValues(name).Inc()
		}
	}()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: failed to encode body: %w", op, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: failed to build request: %w", op, err)
	}
	for k, v := range c.header {
		req.Header[k] = v
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	status = strconv.Itoa(resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		nerr := &NetworkError{Op: op, StatusCode: resp.StatusCode}
		var eb errorBody
		if data, readErr := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); readErr == nil {
			if json.Unmarshal(data, &eb) == nil {
				nerr.Message = eb.Error
			}
		}
		if resp.StatusCode == http.StatusNotFound {
			nerr.Err = ErrNotFound
		}
		return nerr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &NetworkError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}
