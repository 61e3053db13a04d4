package onboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kingrea/roster-onboard/internal/api"
	"github.com/kingrea/roster-onboard/internal/password"
	"github.com/kingrea/roster-onboard/internal/roster"
)

// Backend is the part of the API client a run needs.
type Backend interface {
	Signup(ctx context.Context, req api.SignupRequest) error
	LookupUser(ctx context.Context, email string) (string, error)
	Enroll(ctx context.Context, req api.EnrollmentRequest) error
}

// Reporter receives operator-facing output. tui.Progress implements it.
type Reporter interface {
	Printf(format string, args ...any)
	Increment()
	Finish()
}

// Options configures a Runner. Zero values fall back to sensible defaults.
type Options struct {
	// OutputPath receives the roster with generated passwords. Required.
	OutputPath string
	// PasswordLength defaults to password.DefaultLength.
	PasswordLength int
	// Enroll resolves and enrolls every successful signup into the target.
	Enroll    bool
	Passwords *password.Generator
	Reporter  Reporter
	Logger    *zap.Logger
}

// Summary tallies one run.
type Summary struct {
	RunID        string
	Total        int
	Succeeded    int
	Failed       int
	Resolved     int
	Unresolved   int
	Enrolled     int
	EnrollFailed int
	OutputPath   string
}

// Runner processes a roster row by row. Per-row failures are reported and
// counted, never fatal.
type Runner struct {
	backend Backend
	opts    Options
}

// NewRunner returns a runner sending requests through backend.
func NewRunner(backend Backend, opts Options) *Runner {
	if opts.PasswordLength <= 0 {
		opts.PasswordLength = password.DefaultLength
	}
	if opts.Passwords == nil {
		opts.Passwords = password.New(nil)
	}
	if opts.Reporter == nil {
		opts.Reporter = textReporter{out: os.Stdout}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Runner{backend: backend, opts: opts}
}

// Run signs up every row of table. target is only used when enrollment is
// enabled. The returned error is non-nil only for conditions that stop the
// whole batch: output failures, a broken random source or cancellation.
func (r *Runner) Run(ctx context.Context, table *roster.Table, target api.Course) (Summary, error) {
	sum := Summary{
		RunID:      uuid.NewString(),
		Total:      table.Len(),
		OutputPath: r.opts.OutputPath,
	}
	enroll := r.opts.Enroll && !target.ID.IsZero()
	log := r.opts.Logger.With(zap.String("run_id", sum.RunID))
	log.Info("run started",
		zap.Int("rows", sum.Total),
		zap.Bool("enroll", enroll),
		zap.String("target", target.ID.String()),
		zap.String("output", sum.OutputPath))

	table.EnsureColumn(roster.ColumnPassword)
	out, err := roster.Create(r.opts.OutputPath, table.Header)
	if err != nil {
		return sum, fmt.Errorf("onboard: create output: %w", err)
	}

	runErr := r.process(ctx, log, table, target, enroll, out, &sum)
	r.opts.Reporter.Finish()
	if err := out.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("onboard: save output: %w", err)
	}
	if runErr == nil || errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
		r.opts.Reporter.Printf("Updated roster with passwords saved as: %s", sum.OutputPath)
	}
	r.opts.Reporter.Printf("Signup Completed: %d Success, %d Failed", sum.Succeeded, sum.Failed)

	fields := []zap.Field{
		zap.Int("succeeded", sum.Succeeded),
		zap.Int("failed", sum.Failed),
		zap.Int("resolved", sum.Resolved),
		zap.Int("unresolved", sum.Unresolved),
		zap.Int("enrolled", sum.Enrolled),
		zap.Int("enroll_failed", sum.EnrollFailed),
	}
	if runErr != nil {
		log.Error("run stopped", append(fields, zap.Error(runErr))...)
		return sum, runErr
	}
	log.Info("run finished", fields...)
	return sum, nil
}

func (r *Runner) process(ctx context.Context, log *zap.Logger, table *roster.Table, target api.Course, enroll bool, out roster.Writer, sum *Summary) error {
	for i := 0; i < table.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		pw, err := r.opts.Passwords.Generate(r.opts.PasswordLength)
		if err != nil {
			return fmt.Errorf("onboard: row %d: %w", i+1, err)
		}
		table.Set(i, roster.ColumnPassword, pw)
		if err := out.Append(table.Rows[i]); err != nil {
			return fmt.Errorf("onboard: write row %d: %w", i+1, err)
		}

		req := api.SignupRequest{
			FirstName: strings.TrimSpace(table.Get(i, roster.ColumnFirstName)),
			LastName:  strings.TrimSpace(table.Get(i, roster.ColumnLastName)),
			Email:     strings.TrimSpace(table.Get(i, roster.ColumnEmail)),
			Password:  pw,
		}
		rowLog := log.With(zap.Int("row", i+1), zap.String("email", req.Email))

		if err := r.backend.Signup(ctx, req); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			sum.Failed++
			r.opts.Reporter.Printf("Failed: %s - %s", req.Email, describe(err))
			rowLog.Warn("signup failed", zap.Error(err))
			r.opts.Reporter.Increment()
			continue
		}
		sum.Succeeded++
		rowLog.Info("signup succeeded")

		if enroll {
			if err := r.enroll(ctx, rowLog, req.Email, target, sum); err != nil {
				return err
			}
		}
		r.opts.Reporter.Increment()
	}
	return nil
}

// enroll resolves the user behind email and enrolls them into target. Only
// cancellation is returned; other failures are counted.
func (r *Runner) enroll(ctx context.Context, log *zap.Logger, email string, target api.Course, sum *Summary) error {
	userID, err := r.backend.LookupUser(ctx, email)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		sum.Unresolved++
		r.opts.Reporter.Printf("Failed to fetch Firebase UUID for %s - %s", email, describe(err))
		log.Warn("user lookup failed", zap.Error(err))
		return nil
	}
	sum.Resolved++

	err = r.backend.Enroll(ctx, api.EnrollmentRequest{User: userID, Course: target.ID})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		sum.EnrollFailed++
		r.opts.Reporter.Printf("Failed to assign user %s - %s", userID, describe(err))
		log.Warn("enrollment failed", zap.String("user", userID), zap.Error(err))
		return nil
	}
	sum.Enrolled++
	r.opts.Reporter.Printf("Successfully assigned user %s to course instance %s.", userID, target.ID)
	log.Info("enrolled", zap.String("user", userID), zap.String("target", target.ID.String()))
	return nil
}

// describe renders err as "<status> - <body>" for API rejections and as the
// plain error text otherwise.
func describe(err error) string {
	var se *api.StatusError
	if errors.As(err, &se) {
		return fmt.Sprintf("%d - %s", se.StatusCode, se.Body)
	}
	return err.Error()
}

type textReporter struct {
	out io.Writer
}

func (t textReporter) Printf(format string, args ...any) {
	fmt.Fprintf(t.out, format+"\n", args...)
}

func (textReporter) Increment() {}

func (textReporter) Finish() {}
