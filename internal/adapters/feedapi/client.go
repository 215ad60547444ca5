package feedapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"niche-pacer/internal/domain"
	"niche-pacer/internal/infra/metrics"
	"niche-pacer/internal/usecase/eligibility"
)

// Client обращается к сервису автоматизации ленты по HTTP.
// Реализует domain.Navigator и domain.Executor.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	token      string
}

var (
	_ domain.Navigator = (*Client)(nil)
	_ domain.Executor  = (*Client)(nil)
)

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if c.httpClient == nil {
			c.httpClient = &http.Client{}
		}
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithToken задаёт bearer-токен сервиса.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

type apiError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type itemRef struct {
	Found  bool   `json:"found"`
	ItemID string `json:"item_id"`
	Cursor string `json:"cursor"`
}

type itemPayload struct {
	ItemID       string `json:"item_id"`
	Author       string `json:"author"`
	Engagement   string `json:"engagement"`
	AlreadyLiked bool   `json:"already_liked"`
	Verified     bool   `json:"verified"`
}

type actResult struct {
	OK bool `json:"ok"`
}

type statusError struct {
	status int
	apiErr apiError
}

func (e *statusError) Error() string {
	if e.apiErr.Code != "" {
		return fmt.Sprintf("feed api error [%s]: %s", e.apiErr.Code, e.apiErr.Error)
	}
	return fmt.Sprintf("feed api error: status=%d message=%s", e.status, e.apiErr.Error)
}

func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Scheme == "" {
		parsed.Scheme = "http"
	}
	client := &Client{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Login открывает сессию аккаунта.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) error {
	payload := map[string]any{
		"username":      creds.Username,
		"password":      creds.Password,
		"two_step_auth": creds.TwoStepAuth,
	}
	start := time.Now()
	err := c.post(ctx, "/api/v1/session/login", payload, nil)
	metrics.ObserveNetworkRequest("feedapi", "login", "session", start, err)
	if err != nil {
		return fmt.Errorf("login %s: %w", creds.Username, err)
	}
	return nil
}

// OpenFeed открывает ленту категории и возвращает первый пост.
func (c *Client) OpenFeed(ctx context.Context, tag string) (domain.ItemHandle, bool, error) {
	var ref itemRef
	start := time.Now()
	err := c.get(ctx, "/api/v1/feeds/"+tag+"/first", nil, &ref)
	metrics.ObserveNetworkRequest("feedapi", "open_feed", "feeds", start, err)
	if err != nil {
		return domain.ItemHandle{}, false, err
	}
	if !ref.Found {
		return domain.ItemHandle{}, false, nil
	}
	return domain.ItemHandle{Tag: tag, ItemID: ref.ItemID, Cursor: ref.Cursor}, true, nil
}

// CurrentItem читает пост и классифицирует счётчик реакций.
func (c *Client) CurrentItem(ctx context.Context, handle domain.ItemHandle) (domain.CandidateItem, error) {
	var item itemPayload
	query := url.Values{"tag": {handle.Tag}, "cursor": {handle.Cursor}}
	start := time.Now()
	err := c.get(ctx, "/api/v1/items/"+handle.ItemID, query, &item)
	metrics.ObserveNetworkRequest("feedapi", "current_item", "items", start, err)
	if err != nil {
		return domain.CandidateItem{}, err
	}
	if strings.TrimSpace(item.Author) == "" {
		return domain.CandidateItem{}, fmt.Errorf("item %s: author is empty", handle.ItemID)
	}
	return domain.CandidateItem{
		Handle:       handle,
		TargetActor:  strings.TrimSpace(item.Author),
		Signal:       eligibility.ClassifySignal(item.Engagement),
		AlreadyActed: item.AlreadyLiked,
		Verified:     item.Verified,
	}, nil
}

// Advance переходит к следующему посту ленты.
func (c *Client) Advance(ctx context.Context, handle domain.ItemHandle) (domain.ItemHandle, bool, error) {
	var ref itemRef
	query := url.Values{"cursor": {handle.Cursor}}
	start := time.Now()
	err := c.get(ctx, "/api/v1/feeds/"+handle.Tag+"/next", query, &ref)
	metrics.ObserveNetworkRequest("feedapi", "advance", "feeds", start, err)
	if err != nil {
		return domain.ItemHandle{}, false, err
	}
	if !ref.Found {
		return domain.ItemHandle{}, false, nil
	}
	return domain.ItemHandle{Tag: handle.Tag, ItemID: ref.ItemID, Cursor: ref.Cursor}, true, nil
}

// Act ставит лайк. Отказ сервиса даёт ok=false; ошибка возвращается
// только при потере сессии или недоступности сервиса.
func (c *Client) Act(ctx context.Context, handle domain.ItemHandle) (bool, error) {
	var res actResult
	payload := map[string]any{"tag": handle.Tag, "cursor": handle.Cursor}
	start := time.Now()
	err := c.post(ctx, "/api/v1/items/"+handle.ItemID+"/like", payload, &res)
	metrics.ObserveNetworkRequest("feedapi", "act", "items", start, err)
	if err == nil {
		return res.OK, nil
	}
	var statusErr *statusError
	if errors.As(err, &statusErr) {
		if statusErr.status == http.StatusUnauthorized || statusErr.apiErr.Code == "session_lost" {
			return false, fmt.Errorf("%w: %v", domain.ErrSessionLost, err)
		}
		return false, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}
	// сетевой сбой или таймаут одного запроса: действие не удалось, сессия жива
	return false, nil
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, query, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, endpoint string, body any, out any) error {
	req, err := c.newRequest(ctx, http.MethodPost, endpoint, nil, body)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, query url.Values, body any) (*http.Request, error) {
	resolved := *c.baseURL
	basePath := strings.TrimSuffix(c.baseURL.Path, "/")
	resolved.Path = path.Clean(basePath + endpoint)
	resolved.RawPath = ""
	if len(query) > 0 {
		resolved.RawQuery = query.Encode()
	}
	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		buf = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, resolved.String(), buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("feed api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr apiError
		data, readErr := io.ReadAll(resp.Body)
		if readErr == nil && len(data) > 0 {
			_ = json.Unmarshal(data, &apiErr)
		}
		if apiErr.Error == "" {
			apiErr.Error = strings.TrimSpace(string(data))
		}
		return &statusError{status: resp.StatusCode, apiErr: apiErr}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
