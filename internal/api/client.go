// Package api talks to the onboarding backend: signup, course listings, user
// lookup and enrollment. Every request carries the bearer credential given to
// New; nothing is retried.
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
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultTimeout bounds a single request.
	DefaultTimeout = 30 * time.Second
	// DefaultMaxPages caps how many listing pages are followed.
	DefaultMaxPages = 50
	// maxBodyBytes limits how much of a response body is read.
	maxBodyBytes int64 = 1 << 20
)

// Endpoints holds endpoint paths relative to the base URL. Absolute URLs are
// used as-is.
type Endpoints struct {
	Signup          string
	Courses         string
	CourseInstances string
	UserLookup      string
	Enrollments     string
}

// Settings configures a Client.
type Settings struct {
	BaseURL     string
	Token       string
	Timeout     time.Duration
	Endpoints   Endpoints
	FollowPages bool
	MaxPages    int
}

// Client issues authenticated requests against the onboarding API.
type Client struct {
	settings Settings
	http     *http.Client
	logger   *zap.Logger
}

// Option customizes client construction.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger attaches a structured logger for request tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New builds a client. BaseURL must be an absolute http(s) URL.
func New(settings Settings, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(settings.BaseURL))
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("api: invalid base url %q", settings.BaseURL)
	}
	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}
	if settings.MaxPages <= 0 {
		settings.MaxPages = DefaultMaxPages
	}
	c := &Client{
		settings: settings,
		http:     &http.Client{Timeout: settings.Timeout},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Signup registers one user. Only 201 Created counts as success.
func (c *Client) Signup(ctx context.Context, req SignupRequest) error {
	status, body, err := c.do(ctx, http.MethodPost, c.endpoint(c.settings.Endpoints.Signup), req)
	if err != nil {
		return fmt.Errorf("api: signup %s: %w", req.Email, err)
	}
	if status != http.StatusCreated {
		return &StatusError{Op: "signup", StatusCode: status, Body: string(body)}
	}
	return nil
}

// ListCourses fetches the selectable courses for shape. Flat listings read the
// courses endpoint, nested listings the course-instances endpoint.
func (c *Client) ListCourses(ctx context.Context, shape Shape) ([]Course, error) {
	path := c.settings.Endpoints.Courses
	if shape == ShapeNested {
		path = c.settings.Endpoints.CourseInstances
	}
	next := c.endpoint(path)
	var courses []Course
	for page := 1; next != ""; page++ {
		status, body, err := c.do(ctx, http.MethodGet, next, nil)
		if err != nil {
			return nil, fmt.Errorf("api: list courses: %w", err)
		}
		if status != http.StatusOK {
			return nil, &StatusError{Op: "list courses", StatusCode: status, Body: string(body)}
		}
		var env listEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, fmt.Errorf("api: list courses: decode page %d: %w", page, err)
		}
		for _, item := range env.Results {
			course, err := item.toCourse(shape, len(courses)+1)
			if err != nil {
				return nil, err
			}
			courses = append(courses, course)
		}
		next = ""
		if c.settings.FollowPages && env.Next != nil && page < c.settings.MaxPages {
			next = c.endpoint(*env.Next)
		}
	}
	return courses, nil
}

// LookupUser resolves the firebase_uuid of the account registered with email.
// Failures wrap ErrUserNotFound inside a *StatusError.
func (c *Client) LookupUser(ctx context.Context, email string) (string, error) {
	target, err := url.Parse(c.endpoint(c.settings.Endpoints.UserLookup))
	if err != nil {
		return "", fmt.Errorf("api: lookup user: %w", err)
	}
	query := target.Query()
	query.Set("email", email)
	target.RawQuery = query.Encode()

	status, body, err := c.do(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return "", fmt.Errorf("api: lookup user %s: %w", email, err)
	}
	notFound := &StatusError{Op: "lookup user", StatusCode: status, Body: string(body), Err: ErrUserNotFound}
	if status != http.StatusOK {
		return "", notFound
	}
	var found userLookup
	if err := json.Unmarshal(body, &found); err != nil || found.FirebaseUUID.String() == "" {
		return "", notFound
	}
	return found.FirebaseUUID.String(), nil
}

// Enroll associates a resolved user with a course or course instance. Only
// 201 Created counts as success. Repeated calls may create duplicates.
func (c *Client) Enroll(ctx context.Context, req EnrollmentRequest) error {
	status, body, err := c.do(ctx, http.MethodPost, c.endpoint(c.settings.Endpoints.Enrollments), req)
	if err != nil {
		return fmt.Errorf("api: enroll %s: %w", req.User, err)
	}
	if status != http.StatusCreated {
		return &StatusError{Op: "enroll", StatusCode: status, Body: string(body)}
	}
	return nil
}

func (c *Client) endpoint(path string) string {
	path = strings.TrimSpace(path)
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(c.settings.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

func (c *Client) do(ctx context.Context, method, target string, payload any) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("encode body: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.settings.Token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed",
			zap.String("method", method),
			zap.String("url", target),
			zap.Error(err))
		return 0, nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil && !errors.Is(err, io.EOF) {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	c.logger.Debug("request completed",
		zap.String("method", method),
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(started)))
	return resp.StatusCode, data, nil
}
