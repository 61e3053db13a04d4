package api

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/roster-onboard/internal/fakeapi"
)

func newTestClient(t *testing.T, srv *fakeapi.Server, follow bool) *Client {
	t.Helper()
	client, err := New(Settings{
		BaseURL: srv.URL(),
		Token:   srv.Token(),
		Endpoints: Endpoints{
			Signup:          fakeapi.PathSignup,
			Courses:         fakeapi.PathCourses,
			CourseInstances: fakeapi.PathCourseInstances,
			UserLookup:      fakeapi.PathUserLookup,
			Enrollments:     fakeapi.PathEnrollments,
		},
		FollowPages: follow,
	})
	require.NoError(t, err)
	return client
}

func TestNewRejectsInvalidBaseURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:8000", "ftp://example.com", "http://"} {
		_, err := New(Settings{BaseURL: raw})
		assert.Error(t, err, raw)
	}
}

func TestSignupSucceedsOnlyOnCreated(t *testing.T) {
	srv := fakeapi.New(t, fakeapi.WithSignupStatus(func(n int, _ fakeapi.Signup) int {
		if n == 1 {
			return http.StatusCreated
		}
		return http.StatusBadRequest
	}))
	client := newTestClient(t, srv, false)
	req := SignupRequest{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Password: "aB3!aB3!aB"}

	require.NoError(t, client.Signup(context.Background(), req))

	err := client.Signup(context.Background(), req)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "already exists")

	signups := srv.Signups()
	require.Len(t, signups, 2)
	assert.Equal(t, fakeapi.Signup{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Password: "aB3!aB3!aB"}, signups[0])
}

func TestRequestsCarryBearerToken(t *testing.T) {
	srv := fakeapi.New(t, fakeapi.WithToken("secret"))
	client := newTestClient(t, srv, false)
	client.settings.Token = "wrong"

	err := client.Signup(context.Background(), SignupRequest{Email: "x@example.com"})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Zero(t, srv.Calls(fakeapi.PathSignup))
}

func TestListCoursesFlat(t *testing.T) {
	srv := fakeapi.New(t, fakeapi.WithCourses(
		map[string]any{"course_id": "GE103", "name": "Geology"},
		map[string]any{"course_id": 7, "name": "Chemistry"},
	))
	client := newTestClient(t, srv, false)

	courses, err := client.ListCourses(context.Background(), ShapeFlat)
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "GE103", courses[0].ID.String())
	assert.Equal(t, "Geology (ID: GE103)", courses[0].Label())
	assert.Equal(t, "7", courses[1].ID.String())
	assert.Equal(t, 1, srv.Calls(fakeapi.PathCourses))
	assert.Zero(t, srv.Calls(fakeapi.PathCourseInstances))
}

func TestListCoursesNested(t *testing.T) {
	srv := fakeapi.New(t, fakeapi.WithCourseInstances(
		map[string]any{"id": 11, "course": map[string]any{"id": 3, "name": "Geology"}},
	))
	client := newTestClient(t, srv, false)

	courses, err := client.ListCourses(context.Background(), ShapeNested)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "11", courses[0].ID.String())
	assert.Equal(t, "3", courses[0].CourseID.String())
	assert.Equal(t, "Geology (Instance ID: 11, Course ID: 3)", courses[0].Label())
}

func TestListCoursesPagination(t *testing.T) {
	items := []map[string]any{
		{"course_id": 1, "name": "a"},
		{"course_id": 2, "name": "b"},
		{"course_id": 3, "name": "c"},
	}
	srv := fakeapi.New(t, fakeapi.WithCourses(items...), fakeapi.WithPageSize(2))

	firstPage, err := newTestClient(t, srv, false).ListCourses(context.Background(), ShapeFlat)
	require.NoError(t, err)
	assert.Len(t, firstPage, 2)

	all, err := newTestClient(t, srv, true).ListCourses(context.Background(), ShapeFlat)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "3", all[2].ID.String())
}

func TestListCoursesFailures(t *testing.T) {
	srv := fakeapi.New(t, fakeapi.WithListStatus(http.StatusForbidden))
	_, err := newTestClient(t, srv, false).ListCourses(context.Background(), ShapeFlat)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)

	malformed := fakeapi.New(t, fakeapi.WithCourseInstances(map[string]any{"name": "orphan"}))
	_, err = newTestClient(t, malformed, false).ListCourses(context.Background(), ShapeNested)
	assert.Error(t, err)
}

func TestLookupUser(t *testing.T) {
	srv := fakeapi.New(t, fakeapi.WithLookup(func(email string) (int, string) {
		switch email {
		case "ada+test@example.com":
			return http.StatusOK, "fb-ada"
		case "blank@example.com":
			return http.StatusOK, ""
		}
		return http.StatusNotFound, ""
	}))
	client := newTestClient(t, srv, false)

	uuid, err := client.LookupUser(context.Background(), "ada+test@example.com")
	require.NoError(t, err)
	assert.Equal(t, "fb-ada", uuid)

	for _, email := range []string{"blank@example.com", "missing@example.com"} {
		_, err := client.LookupUser(context.Background(), email)
		assert.True(t, errors.Is(err, ErrUserNotFound), email)
	}
	assert.Equal(t, []string{"ada+test@example.com", "blank@example.com", "missing@example.com"}, srv.Lookups())
}

func TestEnrollPreservesIdentifierEncoding(t *testing.T) {
	srv := fakeapi.New(t, fakeapi.WithEnrollStatus(func(n int, _ fakeapi.Enrollment) int {
		if n == 3 {
			return http.StatusConflict
		}
		return http.StatusCreated
	}))
	client := newTestClient(t, srv, false)

	require.NoError(t, client.Enroll(context.Background(), EnrollmentRequest{User: "fb-1", Course: IntID(11)}))
	require.NoError(t, client.Enroll(context.Background(), EnrollmentRequest{User: "fb-2", Course: StringID("GE103")}))
	err := client.Enroll(context.Background(), EnrollmentRequest{User: "fb-3", Course: IntID(11)})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusConflict, statusErr.StatusCode)

	enrollments := srv.Enrollments()
	require.Len(t, enrollments, 3)
	assert.JSONEq(t, `11`, string(enrollments[0].Course))
	assert.JSONEq(t, `"GE103"`, string(enrollments[1].Course))
	assert.Equal(t, "fb-2", enrollments[1].User)
}

func TestEndpointJoining(t *testing.T) {
	c := &Client{settings: Settings{BaseURL: "http://api.local:8000/"}}
	assert.Equal(t, "http://api.local:8000/api/v1/auth/signup/", c.endpoint("/api/v1/auth/signup/"))
	assert.Equal(t, "http://api.local:8000/api/v1/users/user", c.endpoint("api/v1/users/user"))
	assert.Equal(t, "https://other.local/x", c.endpoint("https://other.local/x"))
}
