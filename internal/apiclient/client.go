package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cms-portal/pkg/logger"
)

const (
	defaultRefreshPath = "/auth/refresh"
	maxResponseBytes   = 4 << 20
)

// TokenStore holds the session credential the client attaches and refreshes.
type TokenStore interface {
	// Token returns the current credential, or "" when there is none.
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
}

// Options configures New. Zero values take defaults.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	// Timeout applies to the default HTTP client and to the refresh call.
	Timeout time.Duration
	Retry   RetryPolicy
	// RefreshPath is the credential exchange endpoint. Default "/auth/refresh".
	RefreshPath string
	// NoRecoverPaths never trigger a refresh on 401. Default "/auth/login", "/auth/register".
	// RefreshPath is always excluded.
	NoRecoverPaths []string
	Metrics        *Metrics
	UserAgent      string
}

// Request is one logical call. Body is buffered so the call can be replayed.
type Request struct {
	Method string
	// Path is relative to the base URL and already escaped.
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Response is a fully read upstream response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into out.
func (r *Response) Decode(out any) error {
	if out == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	return json.Unmarshal(r.Body, out)
}

// Client sends requests upstream with credential attachment, bounded
// exponential backoff on 5xx, and single-flight refresh on 401.
type Client struct {
	base        *url.URL
	hc          *http.Client
	timeout     time.Duration
	store       TokenStore
	retry       RetryPolicy
	refreshPath string
	noRecover   map[string]struct{}
	metrics     *Metrics
	userAgent   string

	// sleep is swapped in tests to avoid real backoff waits.
	sleep   func(ctx context.Context, d time.Duration) error
	refresh *refresher
}

func New(store TokenStore, opts Options) (*Client, error) {
	if store == nil {
		return nil, errors.New("apiclient: token store is required")
	}
	base, err := url.Parse(strings.TrimSpace(opts.BaseURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("apiclient: base url must be absolute, got %q", opts.BaseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	if base.RawPath != "" && !strings.HasSuffix(base.RawPath, "/") {
		base.RawPath += "/"
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	retry := opts.Retry
	if retry.BaseDelay <= 0 {
		retry.BaseDelay = DefaultRetryPolicy().BaseDelay
	}
	if retry.Max < 0 {
		retry.Max = 0
	}
	refreshPath := opts.RefreshPath
	if refreshPath == "" {
		refreshPath = defaultRefreshPath
	}
	noRecover := opts.NoRecoverPaths
	if noRecover == nil {
		noRecover = []string{"/auth/login", "/auth/register"}
	}

	c := &Client{
		base:        base,
		hc:          hc,
		timeout:     timeout,
		store:       store,
		retry:       retry,
		refreshPath: refreshPath,
		noRecover:   make(map[string]struct{}, len(noRecover)+1),
		metrics:     opts.Metrics,
		userAgent:   opts.UserAgent,
		sleep:       sleepContext,
		refresh:     &refresher{},
	}
	for _, p := range append(noRecover, refreshPath) {
		c.noRecover[canonicalPath(p)] = struct{}{}
	}
	return c, nil
}

// WithStore returns a client sharing this one's transport and policy but
// holding a different credential. Each store gets its own refresh state.
func (c *Client) WithStore(store TokenStore) *Client {
	out := *c
	out.store = store
	out.refresh = &refresher{}
	return &out
}

// Store returns the credential store this client uses.
func (c *Client) Store() TokenStore { return c.store }

// Send performs req, retrying and recovering as configured.
//
// On failure the error is an *Error; the Response is also returned when the
// upstream answered, so callers can inspect the body.
func (c *Client) Send(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, errors.New("apiclient: nil request")
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	target, err := c.endpoint(req.Path, req.Query)
	if err != nil {
		return nil, err
	}
	log := logger.From(ctx)

	var (
		retries   int
		recovered bool
		override  string
	)
	for {
		token := override
		if token == "" {
			if token, err = c.store.Token(ctx); err != nil {
				return nil, fmt.Errorf("apiclient: load credential: %w", err)
			}
		}

		resp, err := c.roundTrip(ctx, method, target, req, token)
		if err != nil {
			if ctx.Err() == nil && c.retry.RetryNetwork && isIdempotent(method) && retries < c.retry.Max {
				delay := c.retry.backoff(retries)
				retries++
				c.metrics.retry("network")
				log.Debug("upstream unreachable, retrying", "method", method, "path", req.Path, "attempt", retries, "delay", delay, "err", err)
				if err := c.sleep(ctx, delay); err != nil {
					return nil, err
				}
				continue
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				c.metrics.request(method, "canceled")
				return nil, ctxErr
			}
			c.metrics.request(method, string(KindNetwork))
			return nil, &Error{Kind: KindNetwork, Method: method, Path: req.Path, Err: err}
		}

		switch {
		case isServerError(resp.StatusCode):
			if retries < c.retry.Max {
				delay := c.retry.backoff(retries)
				retries++
				c.metrics.retry("server")
				log.Debug("upstream server error, retrying", "method", method, "path", req.Path, "status", resp.StatusCode, "attempt", retries, "delay", delay)
				if err := c.sleep(ctx, delay); err != nil {
					return nil, err
				}
				continue
			}
			return resp, c.fail(method, req.Path, KindTransientServer, resp, nil)

		case resp.StatusCode == http.StatusUnauthorized:
			if recovered || !c.recoverable(req.Path) {
				return resp, c.fail(method, req.Path, KindAuthExpired, resp, nil)
			}
			recovered = true

			newToken, err := c.recoverCredential(ctx)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
					c.metrics.request(method, "canceled")
					return nil, ctxErr
				}
				log.Warn("credential refresh failed", "method", method, "path", req.Path, "err", err)
				return nil, c.fail(method, req.Path, KindAuthExpired, resp, err)
			}
			override = newToken
			continue

		case resp.StatusCode >= 400:
			return resp, c.fail(method, req.Path, KindClient, resp, nil)
		}

		c.metrics.request(method, "ok")
		return resp, nil
	}
}

// Do sends a JSON request and decodes a JSON response into out.
// in and out may be nil.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	req := &Request{Method: method, Path: path, Query: query}
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("apiclient: encode %s %s: %w", method, path, err)
		}
		req.Body = b
	}
	resp, err := c.Send(ctx, req)
	if err != nil {
		return err
	}
	if err := resp.Decode(out); err != nil {
		return fmt.Errorf("apiclient: decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) fail(method, path string, kind Kind, resp *Response, cause error) *Error {
	c.metrics.request(method, string(kind))
	e := &Error{Kind: kind, Method: method, Path: path, Err: cause}
	if resp != nil {
		e.StatusCode = resp.StatusCode
		e.Body = resp.Body
	}
	return e
}

// recoverCredential joins or leads the single-flight refresh.
func (c *Client) recoverCredential(ctx context.Context) (string, error) {
	token, led, err := c.refresh.do(ctx, c.refreshCredential)
	if led {
		c.metrics.refreshed(err == nil)
	} else {
		c.metrics.parked()
	}
	return token, err
}

// refreshCredential exchanges the stored credential at the refresh endpoint.
// It runs detached from the caller's cancellation because queued requests
// depend on its outcome; the client timeout still bounds it.
func (c *Client) refreshCredential(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	token, err := c.exchange(ctx)
	if err != nil {
		if clearErr := c.store.ClearToken(ctx); clearErr != nil {
			logger.From(ctx).Warn("clear credential failed", "err", clearErr)
		}
		return "", err
	}
	if err := c.store.SetToken(ctx, token); err != nil {
		return "", fmt.Errorf("%w: store credential: %v", ErrRefreshFailed, err)
	}
	return token, nil
}

func (c *Client) exchange(ctx context.Context) (string, error) {
	current, err := c.store.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: load credential: %v", ErrRefreshFailed, err)
	}
	if current == "" {
		return "", fmt.Errorf("%w: no credential to refresh", ErrRefreshFailed)
	}
	target, err := c.endpoint(c.refreshPath, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	resp, err := c.roundTrip(ctx, http.MethodPost, target, &Request{Path: c.refreshPath}, current)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: status %d", ErrRefreshFailed, resp.StatusCode)
	}
	var body struct {
		Token string `json:"token"`
	}
	if err := resp.Decode(&body); err != nil {
		return "", fmt.Errorf("%w: decode: %v", ErrRefreshFailed, err)
	}
	if strings.TrimSpace(body.Token) == "" {
		return "", fmt.Errorf("%w: response has no token", ErrRefreshFailed)
	}
	return body.Token, nil
}

func (c *Client) roundTrip(ctx context.Context, method, target string, req *Request, token string) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	hr, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			hr.Header.Add(k, v)
		}
	}
	if hr.Header.Get("Accept") == "" {
		hr.Header.Set("Accept", "application/json")
	}
	if req.Body != nil && hr.Header.Get("Content-Type") == "" {
		hr.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		hr.Header.Set("User-Agent", c.userAgent)
	}
	if token != "" {
		hr.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.hc.Do(hr)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	b, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: res.StatusCode, Header: res.Header, Body: b}, nil
}

func (c *Client) endpoint(p string, q url.Values) (string, error) {
	ref, err := url.Parse("./" + strings.TrimLeft(p, "/"))
	if err != nil {
		return "", fmt.Errorf("apiclient: bad path %q: %w", p, err)
	}
	u := c.base.ResolveReference(ref)
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (c *Client) recoverable(p string) bool {
	_, excluded := c.noRecover[canonicalPath(p)]
	return !excluded
}

func canonicalPath(p string) string {
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	return "/" + strings.Trim(p, "/")
}

func upstreamMessage(body []byte) string {
	var m struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &m); err != nil {
		return ""
	}
	if m.Message != "" {
		return m.Message
	}
	return m.Error
}
