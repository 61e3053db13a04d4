package config

import (
	"sort"
	"strings"

	"github.com/kingrea/roster-onboard/internal/password"
)

// Variant names.
const (
	VariantSignup   = "signup"
	VariantCourse   = "course"
	VariantInstance = "instance"
)

// Listing kinds a variant can pick its enrollment target from.
const (
	ListingNone   = ""
	ListingFlat   = "flat"
	ListingNested = "nested"
)

// Variant describes one flavour of the onboarding workflow.
type Variant struct {
	Name           string
	Listing        string
	Enroll         bool
	PasswordLength int
}

// HasListing reports whether a course must be selected before the batch.
func (v Variant) HasListing() bool {
	return v.Listing != ListingNone
}

// signupPasswordLength is the shorter default of the signup-only preset.
const signupPasswordLength = 8

var variants = map[string]Variant{
	VariantSignup: {
		Name:           VariantSignup,
		Listing:        ListingNone,
		PasswordLength: signupPasswordLength,
	},
	VariantCourse: {
		Name:           VariantCourse,
		Listing:        ListingFlat,
		PasswordLength: password.DefaultLength,
	},
	VariantInstance: {
		Name:           VariantInstance,
		Listing:        ListingNested,
		Enroll:         true,
		PasswordLength: password.DefaultLength,
	},
}

// LookupVariant returns the preset registered under name.
func LookupVariant(name string) (Variant, bool) {
	v, ok := variants[strings.ToLower(strings.TrimSpace(name))]
	return v, ok
}

// VariantNames lists the known presets in alphabetical order.
func VariantNames() []string {
	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
