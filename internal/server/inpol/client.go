// Package inpol talks to the inPOL foreigners' case portal: it signs in,
// lists the account's active proceedings, detects status changes against
// stored snapshots and pushes them onto client records.
package inpol

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/legalize/backoffice/internal/common"
	"golang.org/x/net/publicsuffix"
)

const (
	DefaultTimeout = 15 * time.Second

	signInPath      = "account/sign-in"
	proceedingsPath = "api/proceedings/active-proceedings"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
)

var tokenKeys = []string{"token", "accessToken", "jwt", "access_token"}

var proceedingListKeys = []string{"proceedings", "data", "results"}

// Credentials are the portal login.
type Credentials struct {
	Email    string
	Password string
}

// StatusError is returned for any non-2xx portal response.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("inpol: %s %s: status %d", e.Method, e.URL, e.Code)
}

// AuthResult is the outcome of a sign-in.
type AuthResult struct {
	Token   string
	Payload map[string]any
}

// Client is a portal session. Cookies and the bearer token obtained at
// sign-in are reused by later calls.
type Client struct {
	baseURL string
	http    *http.Client

	mu          sync.RWMutex
	bearer      string
	tokenExpiry time.Time
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. A cookie jar is added
// when it has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL: NormalizeBaseURL(baseURL),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("cookie jar: %w", err)
		}
		c.http.Jar = jar
	}
	return c, nil
}

// NormalizeBaseURL drops the query, the fragment, a trailing "/login" and
// trailing slashes.
func NormalizeBaseURL(raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimRight(s, "/")
	s = strings.TrimSuffix(s, "/login")
	return strings.TrimRight(s, "/")
}

func (c *Client) BaseURL() string { return c.baseURL }

// SignIn posts the credentials and keeps the bearer token when the portal
// returns one. An Authorization header already set by an earlier sign-in is
// kept.
func (c *Client) SignIn(ctx context.Context, cr Credentials) (*AuthResult, error) {
	body, err := json.Marshal(map[string]string{"email": cr.Email, "password": cr.Password})
	if err != nil {
		return nil, err
	}
	var payload any
	if err := c.do(ctx, http.MethodPost, signInPath, bytes.NewReader(body), &payload); err != nil {
		return nil, err
	}
	obj, _ := payload.(map[string]any)
	res := &AuthResult{Payload: obj}
	if tok, ok := coalesce(obj, tokenKeys); ok {
		res.Token = tok
		c.mu.Lock()
		if c.bearer == "" {
			c.bearer = tok
			c.tokenExpiry = tokenExpiry(tok)
		}
		c.mu.Unlock()
	}
	return res, nil
}

// TokenExpiry is the exp claim of the session's bearer token, or the zero
// time when there is no token or it carries no expiry.
func (c *Client) TokenExpiry() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tokenExpiry
}

// FetchActiveProceedings returns the raw proceeding objects. The portal
// answers either with a list or with an object wrapping one.
func (c *Client) FetchActiveProceedings(ctx context.Context) ([]map[string]any, error) {
	var payload any
	if err := c.do(ctx, http.MethodGet, proceedingsPath, nil, &payload); err != nil {
		return nil, err
	}
	list, ok := payload.([]any)
	if !ok {
		obj, isObj := payload.(map[string]any)
		if !isObj {
			return nil, fmt.Errorf("active proceedings: %w", common.ErrUnexpectedPayload)
		}
		for _, k := range proceedingListKeys {
			if l, isList := obj[k].([]any); isList {
				list, ok = l, true
				break
			}
		}
		if !ok {
			return nil, fmt.Errorf("active proceedings: no list under %v: %w", proceedingListKeys, common.ErrUnexpectedPayload)
		}
	}
	out := make([]map[string]any, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("active proceedings: item %d is %T: %w", i, item, common.ErrUnexpectedPayload)
		}
		out = append(out, m)
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	u := c.baseURL + "/" + path
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", c.baseURL+"/")
	req.Header.Set("Accept", "application/json, text/plain, */*")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.RLock()
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}
	c.mu.RUnlock()

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("inpol: %s %s: %w", method, u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{Method: method, URL: u, Code: resp.StatusCode, Body: string(b)}
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("inpol: decode %s: %w", u, err)
	}
	return nil
}

// tokenExpiry reads exp without verifying the signature; the portal is the
// only party that checks it.
func tokenExpiry(tok string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// IsAuthError reports whether err is a rejected sign-in or expired session.
func IsAuthError(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == http.StatusUnauthorized || se.Code == http.StatusForbidden
}
