package aimharder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/example/aimharder-scheduler/internal/domain/reservation"
	"github.com/example/aimharder-scheduler/internal/internaltypes"
	"golang.org/x/net/publicsuffix"
)

const (
	DefaultLoginURL = "https://login.aimharder.com/"
	userAgent       = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
	defaultTimeout  = 20 * time.Second
	maxErrBody      = 500
)

// phrases the login page shows when credentials are rejected
var loginRejections = []string{"Too many wrong attempts", "Incorrect credentials", "Contraseña incorrecta"}

// Client logs into AimHarder boxes. Each Login returns an independent Session
// with its own cookie jar.
type Client struct {
	loginURL string
	baseURL  string
	timeout  time.Duration
}

type Options struct {
	// LoginURL defaults to DefaultLoginURL.
	LoginURL string
	// BaseURL replaces https://<box>.aimharder.com for every box (tests, proxies).
	BaseURL string
	Timeout time.Duration
}

func New(opts Options) *Client {
	c := &Client{
		loginURL: opts.LoginURL,
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		timeout:  opts.Timeout,
	}
	if c.loginURL == "" {
		c.loginURL = DefaultLoginURL
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	return c
}

func (c *Client) boxURL(box reservation.BoxRef) string {
	if c.baseURL != "" {
		return c.baseURL
	}
	return "https://" + box.Name + ".aimharder.com"
}

func (c *Client) Login(ctx context.Context, creds reservation.Credentials, box reservation.BoxRef) (reservation.Session, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	s := &Session{
		hc:   &http.Client{Timeout: c.timeout, Jar: jar},
		base: c.boxURL(box),
		box:  box,
	}

	form := url.Values{}
	form.Set("login", "Log in")
	form.Set("mail", creds.Email)
	form.Set("pw", creds.Password)

	res, err := s.do(ctx, http.MethodPost, c.loginURL, nil, []byte(form.Encode()), map[string]string{
		"Content-Type":     "application/x-www-form-urlencoded",
		"Origin":           strings.TrimRight(c.loginURL, "/"),
		"Referer":          c.loginURL,
		"X-Requested-With": "XMLHttpRequest",
	})
	if err != nil {
		return nil, fmt.Errorf("%w: login request: %v", internaltypes.ErrAuth, err)
	}
	if !res.ok() {
		return nil, fmt.Errorf("%w: login status=%d", internaltypes.ErrAuth, res.status)
	}
	for _, phrase := range loginRejections {
		if strings.Contains(string(res.body), phrase) {
			return nil, fmt.Errorf("%w: %s", internaltypes.ErrAuth, phrase)
		}
	}
	if strings.Contains(res.finalURL, box.Name) {
		return s, nil
	}
	if hasSessionCookie(jar, c.loginURL, s.base) {
		return s, nil
	}
	return nil, fmt.Errorf("%w: no session after login (status=%d url=%s)", internaltypes.ErrAuth, res.status, res.finalURL)
}

func hasSessionCookie(jar http.CookieJar, rawURLs ...string) bool {
	for _, raw := range rawURLs {
		u, err := url.Parse(raw)
		if err != nil {
			continue
		}
		for _, ck := range jar.Cookies(u) {
			if ck.Name == "PHPSESSID" || strings.Contains(strings.ToLower(ck.Name), "aim") {
				return true
			}
		}
	}
	return false
}

// Session is an authenticated connection to one box.
type Session struct {
	hc   *http.Client
	base string
	box  reservation.BoxRef
}

// Classes fetches the catalog for day. The endpoint answers with a bare list
// or an object holding bookings, classes or sessions.
func (s *Session) Classes(ctx context.Context, day time.Time) ([]reservation.Record, error) {
	res, err := s.do(ctx, http.MethodGet, s.base+"/api/bookings", map[string]string{
		"box": strconv.Itoa(s.box.ID),
		"day": day.Format("20060102"),
	}, nil, map[string]string{"Accept": "application/json", "Referer": s.base})
	if err != nil {
		return nil, fmt.Errorf("%w: fetch classes: %v", internaltypes.ErrTransport, err)
	}
	if !res.ok() {
		return nil, fmt.Errorf("%w: fetch classes status=%d: %s", internaltypes.ErrTransport, res.status, res.snippet())
	}
	return decodeCatalog(res.body)
}

func decodeCatalog(body []byte) ([]reservation.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var parsed any
	if err := dec.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: invalid catalog JSON: %v", internaltypes.ErrTransport, err)
	}

	var list []any
	switch v := parsed.(type) {
	case []any:
		list = v
	case map[string]any:
		if found, ok := reservation.Lookup(v, "bookings", "classes", "sessions"); ok {
			list, _ = found.([]any)
		}
	}

	out := make([]reservation.Record, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, reservation.Record(m))
		}
	}
	return out, nil
}

// Book posts the booking form. A non-nil error means no response arrived.
func (s *Session) Book(ctx context.Context, classID string, day time.Time) (int, []byte, error) {
	form := url.Values{}
	form.Set("id", classID)
	form.Set("day", day.Format("20060102"))
	form.Set("insist", "0")
	form.Set("familyId", "")

	res, err := s.do(ctx, http.MethodPost, s.base+"/api/book", nil, []byte(form.Encode()), map[string]string{
		"Content-Type": "application/x-www-form-urlencoded",
		"Accept":       "application/json",
		"Referer":      s.base,
	})
	if err != nil {
		return 0, nil, fmt.Errorf("%w: book: %v", internaltypes.ErrTransport, err)
	}
	return res.status, res.body, nil
}

func (s *Session) Dashboard(ctx context.Context) (string, error) {
	res, err := s.do(ctx, http.MethodGet, s.base+"/", nil, nil, nil)
	if err != nil {
		return "", fmt.Errorf("%w: dashboard: %v", internaltypes.ErrTransport, err)
	}
	if !res.ok() {
		return "", fmt.Errorf("%w: dashboard status=%d", internaltypes.ErrTransport, res.status)
	}
	return string(res.body), nil
}

func (s *Session) Activity(ctx context.Context, userID string, window int) ([]byte, error) {
	res, err := s.do(ctx, http.MethodGet, s.base+"/api/activity", map[string]string{
		"timeLineFormat":  "0",
		"timeLineContent": strconv.Itoa(window),
		"userID":          userID,
	}, nil, map[string]string{"Accept": "application/json", "Referer": s.base})
	if err != nil {
		return nil, fmt.Errorf("%w: activity: %v", internaltypes.ErrTransport, err)
	}
	if !res.ok() {
		return nil, fmt.Errorf("%w: activity status=%d", internaltypes.ErrTransport, res.status)
	}
	return res.body, nil
}

type response struct {
	status   int
	body     []byte
	finalURL string
}

func (r response) ok() bool { return r.status >= 200 && r.status < 300 }

func (r response) snippet() string {
	b := r.body
	if len(b) > maxErrBody {
		b = b[:maxErrBody]
	}
	return string(b)
}

func (s *Session) do(ctx context.Context, method, rawURL string, query map[string]string, body []byte, headers map[string]string) (response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, rd)
	if err != nil {
		return response{}, err
	}
	req.Header.Set("User-Agent", userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if query != nil {
		q := req.URL.Query()
		for k, v := range query {
			q.Set(k, v)
		}
		req.URL.RawQuery = q.Encode()
	}

	res, err := s.hc.Do(req)
	if err != nil {
		return response{}, err
	}
	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return response{}, err
	}
	return response{status: res.StatusCode, body: b, finalURL: res.Request.URL.String()}, nil
}
