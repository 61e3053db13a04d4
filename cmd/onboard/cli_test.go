package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kingrea/roster-onboard/internal/config"
	"github.com/kingrea/roster-onboard/internal/fakeapi"
	"github.com/kingrea/roster-onboard/internal/roster"
)

const sampleRoster = "first_name,last_name,email\nAda,Lovelace,ada@example.com\nAlan,Turing,alan@example.com\n"

func setupWorkspace(t *testing.T, token string) string {
	t.Helper()
	for _, key := range []string{"ONBOARD_API_URL", "ONBOARD_VARIANT", "ONBOARD_PASSWORD_LENGTH", "ONBOARD_OUTPUT_DIR"} {
		t.Setenv(key, "")
	}
	t.Setenv(config.CredentialEnv, token)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "users.csv"), []byte(sampleRoster), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &out, &errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRunInstanceVariantEnrollsIntoChosenInstance(t *testing.T) {
	srv := fakeapi.New(t, fakeapi.WithCourseInstances(
		map[string]any{"id": 10, "course": map[string]any{"id": 1, "name": "Algebra"}},
		map[string]any{"id": 20, "course": map[string]any{"id": 2, "name": "Biology"}},
	))
	dir := setupWorkspace(t, srv.Token())

	out, err := execute(t, "abc\n5\n2\n", "-C", dir, "--api-url", srv.URL(), "--variant", "instance", "users.csv")
	if err != nil {
		t.Fatalf("run failed: %v\n%s", err, out)
	}
	for _, want := range []string{
		"1. Algebra (Instance ID: 10, Course ID: 1)",
		"2. Biology (Instance ID: 20, Course ID: 2)",
		"Select a course instance by number: ",
		"Invalid input. Please enter a number.",
		"Invalid selection. Please choose a valid number.",
		"Successfully assigned user fb-ada@example.com to course instance 20.",
		"Signup Completed: 2 Success, 0 Failed",
		"Enrollment: 2 enrolled, 0 failed, 0 unresolved",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	enrollments := srv.Enrollments()
	if len(enrollments) != 2 {
		t.Fatalf("expected 2 enrollments, got %d", len(enrollments))
	}
	for _, e := range enrollments {
		if string(e.Course) != "20" {
			t.Fatalf("enrolled into %s, want 20", e.Course)
		}
	}

	saved, err := roster.Load(filepath.Join(dir, "updated_users.csv"))
	if err != nil {
		t.Fatalf("updated roster: %v", err)
	}
	if saved.Len() != 2 || saved.Get(1, "password") == "" {
		t.Fatalf("unexpected updated roster: %+v", saved.Rows)
	}
	if _, err := os.Stat(filepath.Join(dir, config.OnboardDir, "logs", "onboard.log")); err != nil {
		t.Fatalf("log file missing: %v", err)
	}
}

func TestRunSignupVariantAsksForPath(t *testing.T) {
	srv := fakeapi.New(t)
	dir := setupWorkspace(t, srv.Token())

	out, err := execute(t, "\nusers.csv\n", "-C", dir, "--api-url", srv.URL(), "--variant", "signup", "--output-dir", "out")
	if err != nil {
		t.Fatalf("run failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, rosterQuestion) {
		t.Fatalf("expected path prompt:\n%s", out)
	}
	if srv.Calls(fakeapi.PathCourses)+srv.Calls(fakeapi.PathCourseInstances) != 0 {
		t.Fatalf("signup variant must not list courses")
	}
	if srv.Calls(fakeapi.PathUserLookup) != 0 || srv.Calls(fakeapi.PathEnrollments) != 0 {
		t.Fatalf("signup variant must not enroll")
	}
	for _, s := range srv.Signups() {
		if len(s.Password) != 8 {
			t.Fatalf("expected 8 character password, got %q", s.Password)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "out", "updated_users.csv")); err != nil {
		t.Fatalf("updated roster not in output dir: %v", err)
	}
}

func TestRunRequiresCredential(t *testing.T) {
	srv := fakeapi.New(t)
	dir := setupWorkspace(t, "")

	_, err := execute(t, "", "-C", dir, "--api-url", srv.URL(), "users.csv")
	if !errors.Is(err, config.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if srv.Calls(fakeapi.PathSignup) != 0 {
		t.Fatalf("no request may be sent without a credential")
	}
}

func TestRunRejectsInvalidRosterBeforeNetwork(t *testing.T) {
	srv := fakeapi.New(t, fakeapi.WithCourses(map[string]any{"course_id": 1, "name": "Art"}))
	dir := setupWorkspace(t, srv.Token())
	if err := os.WriteFile(filepath.Join(dir, "bad.csv"), []byte("first_name,email\nAda,ada@example.com\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := execute(t, "1\n", "-C", dir, "--api-url", srv.URL(), "--variant", "course", "bad.csv")
	var schemaErr *roster.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected schema error, got %v", err)
	}
	if srv.Calls(fakeapi.PathCourses) != 0 || srv.Calls(fakeapi.PathSignup) != 0 {
		t.Fatalf("schema errors must stop the run before any request")
	}
}

func TestRunAbortsWithoutCourses(t *testing.T) {
	srv := fakeapi.New(t)
	dir := setupWorkspace(t, srv.Token())

	out, err := execute(t, "", "-C", dir, "--api-url", srv.URL(), "--variant", "instance", "users.csv")
	if err == nil {
		t.Fatalf("expected error for empty listing")
	}
	if !strings.Contains(out, "No course instances available.") {
		t.Fatalf("missing notice:\n%s", out)
	}
	if srv.Calls(fakeapi.PathSignup) != 0 {
		t.Fatalf("no signup may happen without a target")
	}
}

func TestInitCmd(t *testing.T) {
	dir := setupWorkspace(t, "")

	out, err := execute(t, "", "init", "-C", dir, "--variant", "course")
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if !strings.Contains(out, "variant: course") {
		t.Fatalf("unexpected output %q", out)
	}
	cfg, err := config.Load(dir, config.Overrides{})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Variant().Name != config.VariantCourse {
		t.Fatalf("variant not persisted: %s", cfg.Variant().Name)
	}

	// Running it again keeps the existing file.
	if _, err := execute(t, "", "init", "-C", dir); err != nil {
		t.Fatalf("second init failed: %v", err)
	}
	cfg, err = config.Load(dir, config.Overrides{})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Variant().Name != config.VariantCourse {
		t.Fatalf("second init overwrote config: %s", cfg.Variant().Name)
	}
}
