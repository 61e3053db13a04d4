// Package fakeapi runs an in-process onboarding backend for tests. Responses
// are scripted through options and every call is recorded so tests can assert
// on call counts and payloads.
package fakeapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
)

// Routes served by the fake backend. They match the default config paths.
const (
	PathSignup          = "/api/v1/auth/signup/"
	PathCourses         = "/api/v1/course/courses"
	PathCourseInstances = "/api/v1/course/course-instances"
	PathUserLookup      = "/api/v1/users/user"
	PathEnrollments     = "/api/v1/users/user-course-instances"
)

const maxBodyBytes int64 = 1 << 20

// Signup is a recorded signup payload.
type Signup struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// Enrollment is a recorded enrollment payload. Course keeps its raw JSON form.
type Enrollment struct {
	User   string          `json:"user"`
	Course json.RawMessage `json:"course"`
}

// Server wraps an httptest server with scripted handlers.
type Server struct {
	srv   *httptest.Server
	token string

	courses         []map[string]any
	courseInstances []map[string]any
	pageSize        int
	listStatus      int
	signupStatus    func(n int, s Signup) int
	lookup          func(email string) (int, string)
	enrollStatus    func(n int, e Enrollment) int

	mu          sync.Mutex
	calls       map[string]int
	signups     []Signup
	lookups     []string
	enrollments []Enrollment
}

// Option customizes the fake backend.
type Option func(*Server)

// WithToken sets the bearer token every request must carry.
func WithToken(token string) Option {
	return func(s *Server) { s.token = token }
}

// WithCourses sets the flat course listing items.
func WithCourses(items ...map[string]any) Option {
	return func(s *Server) { s.courses = items }
}

// WithCourseInstances sets the nested course-instance listing items.
func WithCourseInstances(items ...map[string]any) Option {
	return func(s *Server) { s.courseInstances = items }
}

// WithPageSize splits listings into pages linked through "next".
func WithPageSize(n int) Option {
	return func(s *Server) { s.pageSize = n }
}

// WithListStatus makes both listing endpoints answer with status.
func WithListStatus(status int) Option {
	return func(s *Server) { s.listStatus = status }
}

// WithSignupStatus scripts the status of the n-th (1-based) signup call.
func WithSignupStatus(fn func(n int, s Signup) int) Option {
	return func(s *Server) {
		if fn != nil {
			s.signupStatus = fn
		}
	}
}

// WithLookup scripts user lookups. An empty uuid is omitted from the body.
func WithLookup(fn func(email string) (status int, uuid string)) Option {
	return func(s *Server) {
		if fn != nil {
			s.lookup = fn
		}
	}
}

// WithEnrollStatus scripts the status of the n-th (1-based) enrollment call.
func WithEnrollStatus(fn func(n int, e Enrollment) int) Option {
	return func(s *Server) {
		if fn != nil {
			s.enrollStatus = fn
		}
	}
}

// UUIDFor is the identifier the default lookup returns for email.
func UUIDFor(email string) string {
	return "fb-" + email
}

// New starts the fake backend and closes it when tb finishes.
func New(tb testing.TB, opts ...Option) *Server {
	tb.Helper()
	s := &Server{
		token:        "test-token",
		listStatus:   http.StatusOK,
		signupStatus: func(int, Signup) int { return http.StatusCreated },
		lookup: func(email string) (int, string) {
			return http.StatusOK, UUIDFor(email)
		},
		enrollStatus: func(int, Enrollment) int { return http.StatusCreated },
		calls:        map[string]int{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	mux := http.NewServeMux()
	mux.HandleFunc(PathSignup, s.authorized(http.MethodPost, s.handleSignup))
	mux.HandleFunc(PathCourses, s.authorized(http.MethodGet, s.listHandler(PathCourses, func() []map[string]any { return s.courses })))
	mux.HandleFunc(PathCourseInstances, s.authorized(http.MethodGet, s.listHandler(PathCourseInstances, func() []map[string]any { return s.courseInstances })))
	mux.HandleFunc(PathUserLookup, s.authorized(http.MethodGet, s.handleLookup))
	mux.HandleFunc(PathEnrollments, s.authorized(http.MethodPost, s.handleEnroll))
	s.srv = httptest.NewServer(mux)
	tb.Cleanup(s.srv.Close)
	return s
}

// URL returns the base URL of the running server.
func (s *Server) URL() string {
	return s.srv.URL
}

// Token returns the bearer token the server accepts.
func (s *Server) Token() string {
	return s.token
}

// Calls returns how many authorized requests hit path.
func (s *Server) Calls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

// Signups returns the recorded signup payloads in arrival order.
func (s *Server) Signups() []Signup {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Signup(nil), s.signups...)
}

// Lookups returns the emails looked up in arrival order.
func (s *Server) Lookups() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lookups...)
}

// Enrollments returns the recorded enrollment payloads in arrival order.
func (s *Server) Enrollments() []Enrollment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Enrollment(nil), s.enrollments...)
}

func (s *Server) authorized(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"detail": "method not allowed"})
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+s.token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
			return
		}
		s.mu.Lock()
		s.calls[r.URL.Path]++
		s.mu.Unlock()
		next(w, r)
	}
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body Signup
	if err := decodeBody(w, r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	s.mu.Lock()
	s.signups = append(s.signups, body)
	n := len(s.signups)
	s.mu.Unlock()
	status := s.signupStatus(n, body)
	if status == http.StatusCreated {
		writeJSON(w, status, map[string]string{"email": body.Email})
		return
	}
	writeJSON(w, status, map[string][]string{"email": {"user with this email already exists."}})
}

func (s *Server) listHandler(path string, items func() []map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.listStatus != http.StatusOK {
			writeJSON(w, s.listStatus, map[string]string{"detail": "listing unavailable"})
			return
		}
		all := items()
		page := 1
		if raw := r.URL.Query().Get("page"); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
				page = parsed
			}
		}
		start, end := 0, len(all)
		if s.pageSize > 0 {
			start = (page - 1) * s.pageSize
			end = start + s.pageSize
			if start > len(all) {
				start = len(all)
			}
			if end > len(all) {
				end = len(all)
			}
		}
		var next *string
		if end < len(all) {
			link := fmt.Sprintf("%s%s?page=%d", s.srv.URL, path, page+1)
			next = &link
		}
		results := all[start:end]
		if results == nil {
			results = []map[string]any{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"count":    len(all),
			"next":     next,
			"previous": nil,
			"results":  results,
		})
	}
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	s.mu.Lock()
	s.lookups = append(s.lookups, email)
	s.mu.Unlock()
	status, uuid := s.lookup(email)
	if status != http.StatusOK {
		writeJSON(w, status, map[string]string{"detail": "Not found."})
		return
	}
	body := map[string]string{"email": email}
	if uuid != "" {
		body["firebase_uuid"] = uuid
	}
	writeJSON(w, status, body)
}

func (s *Server) handleEnroll(w http.ResponseWriter, r *http.Request) {
	var body Enrollment
	if err := decodeBody(w, r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	s.mu.Lock()
	s.enrollments = append(s.enrollments, body)
	n := len(s.enrollments)
	s.mu.Unlock()
	status := s.enrollStatus(n, body)
	writeJSON(w, status, body)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	reader := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return errors.New("unable to read body")
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return errors.New("invalid JSON")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
