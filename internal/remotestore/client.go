package remotestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/millkeeper/internal/common"
	"github.com/dmitrijs2005/millkeeper/internal/logging"
	"github.com/dmitrijs2005/millkeeper/internal/models"
)

// TokenProvider returns a fresh bearer credential. It is called before
// every request.
type TokenProvider func(ctx context.Context) (string, error)

// maxErrorBody bounds how much of a failed response is kept in the error.
const maxErrorBody = 512

// Client talks to one collection of a Firebase Realtime Database.
type Client struct {
	httpClient *http.Client
	baseURL    string
	collection string
	token      TokenProvider
	logger     logging.Logger
}

// New returns a Client for baseURL/collection. timeout bounds every single
// HTTP request; zero means no client-side limit beyond the caller's context.
func New(baseURL, collection string, token TokenProvider, timeout time.Duration, logger logging.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: strings.Trim(collection, "/"),
		token:      token,
		logger:     logger.With("component", "remote_store"),
	}
}

func (c *Client) url(path string) string {
	return c.baseURL + "/" + c.collection + path + ".json"
}

// do performs one authorized request and decodes a JSON response into out
// (when out is non-nil).
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body any, out any) error {
	token, err := c.token(ctx)
	if err != nil {
		return transportErr(op, 0, fmt.Errorf("credential provider: %w", err))
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set(common.AuthQueryParam, token)

	var reader io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return transportErr(op, 0, fmt.Errorf("encode request: %w", err))
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path)+"?"+query.Encode(), reader)
	if err != nil {
		return transportErr(op, 0, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportErr(op, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return transportErr(op, resp.StatusCode, fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(b))))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return transportErr(op, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// FetchAll reads every record of the collection, tagged OriginRemote and
// ordered by key. An absent collection, or one the database returns as
// anything but an object, is an empty result.
func (c *Client) FetchAll(ctx context.Context) ([]models.Record, error) {
	var payload json.RawMessage
	if err := c.do(ctx, "fetch all", http.MethodGet, "", nil, nil, &payload); err != nil {
		return nil, err
	}

	var raw map[string]json.RawMessage
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &raw); err != nil {
			// RTDB answers with an array when child keys are sequential integers.
			c.logger.Debug(ctx, "collection is not an object, treating as empty", "error", err)
			return []models.Record{}, nil
		}
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	records := make([]models.Record, 0, len(keys))
	skipped := 0
	for _, k := range keys {
		body, ok := decodeObject(raw[k])
		if !ok {
			skipped++
			continue
		}
		records = append(records, models.FromWire(k, body, models.OriginRemote))
	}
	if skipped > 0 {
		c.logger.Debug(ctx, "skipped non-object children", "count", skipped)
	}
	return records, nil
}

func decodeObject(raw json.RawMessage) (map[string]any, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var body map[string]any
	if err := dec.Decode(&body); err != nil || body == nil {
		return nil, false
	}
	return body, true
}

// UpdatePayment sets the payment field of an existing record.
// A missing id fails with a TransportError wrapping ErrRecordNotFound.
func (c *Client) UpdatePayment(ctx context.Context, id, method string) error {
	const op = "update payment"
	path := "/" + url.PathEscape(id)

	// PATCH on a missing path would create it, so check first.
	var existing any
	if err := c.do(ctx, op, http.MethodGet, path, url.Values{"shallow": {"true"}}, nil, &existing); err != nil {
		return err
	}
	if existing == nil {
		return transportErr(op, http.StatusNotFound, fmt.Errorf("%w: %s", ErrRecordNotFound, id))
	}

	return c.do(ctx, op, http.MethodPatch, path, nil, map[string]string{models.FieldPayment: method}, nil)
}

// DeleteMany removes ids in a single request. Empty input is a no-op.
func (c *Client) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	payload := make(map[string]any, len(ids))
	for _, id := range ids {
		payload[id] = nil
	}
	if err := c.do(ctx, "delete", http.MethodPatch, "", nil, payload, nil); err != nil {
		return err
	}
	c.logger.Debug(ctx, "deleted remote records", "count", len(ids))
	return nil
}

// DeleteOne is DeleteMany for a single id.
func (c *Client) DeleteOne(ctx context.Context, id string) error {
	return c.DeleteMany(ctx, []string{id})
}
