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
	"strings"
	"sync"
	"time"

	"travelstore/models"
	"travelstore/services/credentials"
	"travelstore/utils"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	msgSessionExpired = "Your session has expired. Please login again."
	msgLoginRequired  = "You need to login to access this feature."
)

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	// Limiter paces outbound calls; nil means unpaced.
	Limiter *rate.Limiter
	Clock   utils.Clock
	Logger  *zap.Logger
}

// Client talks to the auth, promo and booking services. It attaches the
// stored access token, refreshes it once on a 401, and broadcasts on the
// AuthSignal when a request is rejected for lack of a valid credential.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	store   credentials.Store
	signal  *AuthSignal
	limiter *rate.Limiter
	clock   utils.Clock
	logger  *zap.Logger

	refreshMu sync.Mutex
}

// NewClient returns a Client bound to store and signal.
func NewClient(store credentials.Store, signal *AuthSignal, opts Options) *Client {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.Clock == nil {
		opts.Clock = utils.SystemClock{}
	}
	if signal == nil {
		signal = NewAuthSignal()
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    opts.HTTPClient,
		timeout: opts.Timeout,
		store:   store,
		signal:  signal,
		limiter: opts.Limiter,
		clock:   opts.Clock,
		logger:  utils.OrNop(opts.Logger),
	}
}

type call struct {
	op      string
	method  string
	path    string
	query   url.Values
	body    interface{}
	headers map[string]string
	// anonymous calls carry no token (login, register, refresh).
	anonymous bool
	// silent calls carry the token but never refresh or broadcast (logout).
	silent bool
}

type response struct {
	status      int
	contentType string
	body        []byte
}

func (c *Client) do(ctx context.Context, req call, out interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &NetworkError{Op: req.op, Err: err}
		}
	}

	token := ""
	if !req.anonymous {
		token = c.accessToken(ctx)
		if token != "" && !req.silent && utils.TokenExpired(token, c.clock.Now()) {
			// Refresh ahead of time instead of collecting a certain 401.
			if c.refresh(ctx, token) {
				token = c.accessToken(ctx)
			}
		}
	}

	resp, err := c.send(ctx, req, token)
	if err != nil {
		return err
	}

	if resp.status == http.StatusUnauthorized && !req.anonymous && !req.silent {
		if token == "" {
			c.signal.Broadcast(msgLoginRequired)
			return &AuthError{Status: resp.status, Message: msgLoginRequired}
		}
		if !c.refresh(ctx, token) {
			c.expire(ctx)
			return &AuthError{Status: resp.status, Message: msgSessionExpired}
		}
		resp, err = c.send(ctx, req, c.accessToken(ctx))
		if err != nil {
			return err
		}
		if resp.status == http.StatusUnauthorized {
			c.expire(ctx)
			return &AuthError{Status: resp.status, Message: msgSessionExpired}
		}
	}

	return decode(resp, out)
}

func (c *Client) send(ctx context.Context, req call, token string) (*response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to encode request: %w", req.op, err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build request: %w", req.op, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug("api request",
		zap.String("op", req.op),
		zap.String("method", req.method),
		zap.String("path", req.path),
		zap.Bool("hasToken", token != ""),
	)

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Warn("api request failed", zap.String("op", req.op), zap.Error(err))
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &NetworkError{Op: req.op, Err: fmt.Errorf("request timeout after %s: %w", c.timeout, err)}
		}
		return nil, &NetworkError{Op: req.op, Err: err}
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &NetworkError{Op: req.op, Err: err}
	}
	return &response{
		status:      httpResp.StatusCode,
		contentType: httpResp.Header.Get("Content-Type"),
		body:        data,
	}, nil
}

func (c *Client) accessToken(ctx context.Context) string {
	creds, err := c.store.Load(ctx)
	if err != nil {
		c.logger.Warn("credentials unavailable", zap.Error(err))
		return ""
	}
	return creds.AccessToken
}

// refresh exchanges the refresh token for a new pair. stale is the access
// token that was rejected; if another caller already replaced it, refresh
// reports success without calling the service again.
func (c *Client) refresh(ctx context.Context, stale string) bool {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	creds, err := c.store.Load(ctx)
	if err != nil {
		return false
	}
	if creds.AccessToken != "" && creds.AccessToken != stale {
		return true
	}
	if creds.RefreshToken == "" {
		return false
	}

	var out models.AuthResponse
	err = c.do(ctx, call{
		op:        "refresh",
		method:    http.MethodPost,
		path:      PathRefresh,
		body:      map[string]string{"refresh_token": creds.RefreshToken},
		anonymous: true,
	}, &out)
	if err != nil || out.AccessToken == "" {
		c.logger.Info("token refresh rejected", zap.Error(err))
		return false
	}
	if out.RefreshToken == "" {
		out.RefreshToken = creds.RefreshToken
	}
	if err := c.store.Save(ctx, out.Credentials()); err != nil {
		c.logger.Warn("refreshed credentials not stored", zap.Error(err))
		return false
	}
	return true
}

func (c *Client) expire(ctx context.Context) {
	if err := c.store.Clear(ctx); err != nil {
		c.logger.Warn("expired credentials not cleared", zap.Error(err))
	}
	c.signal.Broadcast(msgSessionExpired)
}

type errorBody struct {
	Message string          `json:"message"`
	Detail  json.RawMessage `json:"detail"`
	Errors  []string        `json:"errors"`
}

type fieldError struct {
	Loc []interface{} `json:"loc"`
	Msg string        `json:"msg"`
}

func decode(resp *response, out interface{}) error {
	if resp.status >= 400 {
		msg, details := parseErrorBody(resp)
		if resp.status == http.StatusUnauthorized {
			return &AuthError{Status: resp.status, Message: msg}
		}
		return &ServerError{Status: resp.status, Message: msg, Details: details}
	}

	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}

	payload := resp.body
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(resp.body, &envelope); err == nil {
		if raw, ok := envelope["success"]; ok {
			var success bool
			_ = json.Unmarshal(raw, &success)
			if !success {
				var eb errorBody
				_ = json.Unmarshal(resp.body, &eb)
				if eb.Message == "" {
					eb.Message = "An error occurred"
				}
				return &ServerError{Status: resp.status, Message: eb.Message, Details: eb.Errors}
			}
			payload = envelope["data"]
		}
	}
	if len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &ServerError{Status: resp.status, Message: "malformed response", Details: []string{err.Error()}}
	}
	return nil
}

func parseErrorBody(resp *response) (string, []string) {
	fallback := http.StatusText(resp.status)
	if !strings.Contains(resp.contentType, "json") {
		return fallback, nil
	}
	var eb errorBody
	if err := json.Unmarshal(resp.body, &eb); err != nil {
		return fallback, nil
	}

	msg := eb.Message
	details := eb.Errors
	if len(eb.Detail) > 0 {
		var detail string
		var fields []fieldError
		switch {
		case json.Unmarshal(eb.Detail, &detail) == nil:
			if msg == "" {
				msg = detail
			}
			details = []string{detail}
		case json.Unmarshal(eb.Detail, &fields) == nil:
			msg = "Validation error"
			details = details[:0]
			for _, f := range fields {
				loc := "Field"
				if len(f.Loc) > 0 {
					parts := make([]string, len(f.Loc))
					for i, p := range f.Loc {
						parts[i] = fmt.Sprint(p)
					}
					loc = strings.Join(parts, ".")
				}
				details = append(details, loc+": "+f.Msg)
			}
		}
	}
	if msg == "" {
		msg = "An error occurred"
	}
	return msg, details
}
