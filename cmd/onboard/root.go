package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kingrea/roster-onboard/internal/api"
	"github.com/kingrea/roster-onboard/internal/config"
	"github.com/kingrea/roster-onboard/internal/logging"
	"github.com/kingrea/roster-onboard/internal/onboard"
	"github.com/kingrea/roster-onboard/internal/roster"
	"github.com/kingrea/roster-onboard/internal/tui"
)

const (
	rosterQuestion = "Enter the path to the CSV file: "
	progressLabel  = "Processing Signups"
)

type rootOptions struct {
	workDir        string
	configPath     string
	variant        string
	passwordLength int
	apiURL         string
	outputDir      string
	useTUI         bool
	verbose        bool
}

func (o *rootOptions) overrides() config.Overrides {
	return config.Overrides{
		ConfigPath:     o.configPath,
		Variant:        o.variant,
		PasswordLength: o.passwordLength,
		BaseURL:        o.apiURL,
		OutputDir:      o.outputDir,
	}
}

func (o *rootOptions) resolveWorkDir() (string, error) {
	dir := o.workDir
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve working directory: %w", err)
	}
	return abs, nil
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "onboard [roster-file]",
		Short: "Bulk sign up a roster of users and enroll them into a course",
		Long: `Sign up every user listed in a CSV or XLSX roster.

The roster needs first_name, last_name and email columns. Each user gets a
generated password; the roster is written back as updated_<file> with a
password column so the credentials can be handed out.

Variants:
  signup   - sign users up only
  course   - pick a course from the course listing first
  instance - pick a course instance, then enroll every new user into it

The bearer token is read from AUTH_TOKEN (a .env file in the working
directory is loaded first).`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnboard(cmd.Context(), opts, args, in, out, errOut)
		},
	}
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	cmd.PersistentFlags().StringVarP(&opts.workDir, "workdir", "C", "", "working directory holding .onboard/ and .env (default: current directory)")
	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default: .onboard/config.yaml)")
	flags.StringVar(&opts.variant, "variant", "", "workflow variant: signup, course or instance")
	flags.IntVar(&opts.passwordLength, "password-length", 0, "generated password length (minimum 4)")
	flags.StringVar(&opts.apiURL, "api-url", "", "base URL of the onboarding API")
	flags.StringVar(&opts.outputDir, "output-dir", "", "directory for the updated roster")
	flags.BoolVar(&opts.useTUI, "tui", false, "pick the course from an interactive list when attached to a terminal")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log requests to stderr at debug level")

	cmd.AddCommand(newInitCmd(opts, out))
	return cmd
}

func runOnboard(ctx context.Context, opts *rootOptions, args []string, in io.Reader, out, errOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	workDir, err := opts.resolveWorkDir()
	if err != nil {
		return err
	}
	if err := config.LoadEnv(workDir); err != nil {
		return err
	}
	cfg, err := config.Load(workDir, opts.overrides())
	if err != nil {
		return err
	}
	if err := cfg.RequireCredential(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogsDir(), opts.verbose, errOut)
	if err != nil {
		return err
	}
	defer logger.Close()

	prompt := tui.NewPrompt(in, out)
	path := ""
	if len(args) > 0 {
		path = args[0]
	} else if path, err = prompt.Ask(ctx, rosterQuestion); err != nil {
		return fmt.Errorf("read roster path: %w", err)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(workDir, path)
	}

	table, err := roster.Load(path)
	if err != nil {
		return err
	}

	client, err := api.New(cfg.APISettings(), api.WithLogger(logger.Logger))
	if err != nil {
		return err
	}

	variant := cfg.Variant()
	var target api.Course
	if variant.HasListing() {
		shape, err := api.ParseShape(variant.Listing)
		if err != nil {
			return err
		}
		var selector onboard.Selector = prompt
		if opts.useTUI && isTerminal(in) && isTerminal(out) {
			selector = tui.NewPicker(in, out)
		}
		target, err = onboard.SelectTarget(ctx, client, shape, selector)
		if errors.Is(err, onboard.ErrNoCourses) {
			fmt.Fprintln(out, noCoursesMessage(shape))
		}
		if err != nil {
			return err
		}
		logger.Info("target selected",
			zap.String("variant", variant.Name),
			zap.String("target", target.ID.String()),
			zap.String("name", target.Name))
	}

	progress := tui.NewProgress(out, progressLabel, table.Len(), isTerminal(out))
	runner := onboard.NewRunner(client, onboard.Options{
		OutputPath:     roster.OutputPath(path, cfg.OutputDir()),
		PasswordLength: variant.PasswordLength,
		Enroll:         variant.Enroll,
		Reporter:       progress,
		Logger:         logger.Logger,
	})
	sum, err := runner.Run(ctx, table, target)
	if err != nil {
		return err
	}
	printSummary(out, cfg, variant, sum)
	return nil
}

func printSummary(out io.Writer, cfg *config.Config, variant config.Variant, sum onboard.Summary) {
	if variant.Enroll {
		line := fmt.Sprintf("Enrollment: %d enrolled, %d failed, %d unresolved", sum.Enrolled, sum.EnrollFailed, sum.Unresolved)
		if sum.EnrollFailed+sum.Unresolved > 0 {
			line = tui.Failure(line)
		} else {
			line = tui.Success(line)
		}
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, tui.Muted(fmt.Sprintf("Run %s logged to %s", sum.RunID, filepath.Join(cfg.LogsDir(), logging.FileName))))
}

func noCoursesMessage(shape api.Shape) string {
	if shape == api.ShapeNested {
		return "No course instances available."
	}
	return "No courses available."
}

func isTerminal(stream any) bool {
	f, ok := stream.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
