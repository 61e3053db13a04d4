package api

import (
	"errors"
	"fmt"
	"strings"
)

// Shape selects the item layout of a course listing.
type Shape string

const (
	// ShapeFlat items look like {"course_id": ..., "name": ...}.
	ShapeFlat Shape = "flat"
	// ShapeNested items look like {"id": ..., "course": {"id": ..., "name": ...}}.
	ShapeNested Shape = "nested"
)

// ParseShape accepts "flat" or "nested" in any case.
func ParseShape(value string) (Shape, error) {
	switch Shape(strings.ToLower(strings.TrimSpace(value))) {
	case ShapeFlat:
		return ShapeFlat, nil
	case ShapeNested:
		return ShapeNested, nil
	}
	return "", fmt.Errorf("api: unknown listing shape %q", value)
}

// SignupRequest is the body posted to the signup endpoint.
type SignupRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// EnrollmentRequest associates a user with a course or course instance.
type EnrollmentRequest struct {
	User   string `json:"user"`
	Course ID     `json:"course"`
}

// Course is one selectable entry from a listing. ID is the identifier used for
// enrollment: the course id for flat listings, the instance id for nested ones.
type Course struct {
	ID       ID
	CourseID ID
	Name     string
	Shape    Shape
}

// Label renders the entry the way it is shown to the operator.
func (c Course) Label() string {
	if c.Shape == ShapeNested {
		return fmt.Sprintf("%s (Instance ID: %s, Course ID: %s)", c.Name, c.ID, c.CourseID)
	}
	return fmt.Sprintf("%s (ID: %s)", c.Name, c.ID)
}

// ErrUserNotFound is wrapped by lookup failures.
var ErrUserNotFound = errors.New("api: user not found")

// StatusError reports a response whose status did not signal success.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api: %s: %d - %s", e.Op, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

type listEnvelope struct {
	Results []flexibleItem `json:"results"`
	Next    *string        `json:"next"`
}

type flexibleItem struct {
	ID       ID     `json:"id"`
	CourseID ID     `json:"course_id"`
	Name     string `json:"name"`
	Course   *struct {
		ID   ID     `json:"id"`
		Name string `json:"name"`
	} `json:"course"`
}

func (it flexibleItem) toCourse(shape Shape, idx int) (Course, error) {
	switch shape {
	case ShapeNested:
		if it.ID.IsZero() || it.Course == nil {
			return Course{}, fmt.Errorf("api: listing item %d lacks id or course", idx)
		}
		return Course{ID: it.ID, CourseID: it.Course.ID, Name: it.Course.Name, Shape: shape}, nil
	default:
		if it.CourseID.IsZero() {
			return Course{}, fmt.Errorf("api: listing item %d lacks course_id", idx)
		}
		return Course{ID: it.CourseID, CourseID: it.CourseID, Name: it.Name, Shape: ShapeFlat}, nil
	}
}

type userLookup struct {
	FirebaseUUID ID `json:"firebase_uuid"`
}
