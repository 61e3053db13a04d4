// Package onboard drives a roster through signup and, when configured,
// enrollment into a course picked once before the batch starts.
package onboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/kingrea/roster-onboard/internal/api"
)

// ErrNoCourses is returned when the listing holds nothing to pick from.
var ErrNoCourses = errors.New("onboard: no courses available")

// Selector asks the operator to choose one of options and returns its index.
// question is the line shown when the answer is typed in.
type Selector interface {
	Select(ctx context.Context, title, question string, options []string) (int, error)
}

// CourseLister fetches selectable courses.
type CourseLister interface {
	ListCourses(ctx context.Context, shape api.Shape) ([]api.Course, error)
}

// SelectTarget lists courses of the given shape and lets sel pick one.
func SelectTarget(ctx context.Context, lister CourseLister, shape api.Shape, sel Selector) (api.Course, error) {
	courses, err := lister.ListCourses(ctx, shape)
	if err != nil {
		return api.Course{}, err
	}
	if len(courses) == 0 {
		return api.Course{}, ErrNoCourses
	}
	options := make([]string, len(courses))
	for i, c := range courses {
		options[i] = c.Label()
	}
	idx, err := sel.Select(ctx, listingTitle(shape), listingQuestion(shape), options)
	if err != nil {
		return api.Course{}, err
	}
	if idx < 0 || idx >= len(courses) {
		return api.Course{}, fmt.Errorf("onboard: selection %d out of range", idx)
	}
	return courses[idx], nil
}

func listingTitle(shape api.Shape) string {
	if shape == api.ShapeNested {
		return "Available Course Instances"
	}
	return "Available Courses"
}

func listingQuestion(shape api.Shape) string {
	if shape == api.ShapeNested {
		return "Select a course instance by number: "
	}
	return "Select a course by number: "
}
