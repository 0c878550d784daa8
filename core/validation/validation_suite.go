// Package validation runs the sdprompt startup checks: environment file,
// backend configuration, model and output locations, free disk space and,
// for the remote backends, image API reachability.
//
// The run loop only starts after a quick suite has passed; `sdprompt check`
// runs the full suite, network included, with progress output.
package validation

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"sdprompt/core"
)

// ValidationStep represents a single validation step with its status.
type ValidationStep struct {
	Name    string
	Status  StepStatus
	Message string
	Error   error
	Latency time.Duration
}

// StepStatus represents the status of a validation step.
type StepStatus int

const (
	StepPending StepStatus = iota
	StepRunning
	StepPassed
	StepFailed
	StepWarning
	StepSkipped
)

// String returns the string representation of a step status.
func (s StepStatus) String() string {
	switch s {
	case StepPending:
		return "pending"
	case StepRunning:
		return "running"
	case StepPassed:
		return "passed"
	case StepFailed:
		return "failed"
	case StepWarning:
		return "warning"
	case StepSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// SuiteResult represents the complete result of validation suite execution.
type SuiteResult struct {
	Steps       []ValidationStep
	TotalSteps  int
	PassedSteps int
	FailedSteps int
	Warnings    int
	Duration    time.Duration
	Success     bool
}

// stepFunc is one check. A non-nil error with StepWarning is reported but
// does not fail the suite.
type stepFunc func(ctx context.Context) (StepStatus, string, error)

type check struct {
	name string
	fn   stepFunc
}

// ValidationSuite orchestrates the startup checks for one Config.
// This organism composes:
//   - validate_file.go: environment file and models directory
//   - validate_url.go: image API endpoint format
//   - disk_space.go: free space under the output and history locations
//   - connectivity.go: image API reachability
type ValidationSuite struct {
	cfg                 *core.Config
	output              io.Writer
	connectivityChecker *ConnectivityChecker
	envPath             string
	outputDir           string
	timeout             time.Duration
	showProgress        bool
	failFast            bool
}

// NewValidationSuite creates a new ValidationSuite with default settings.
func NewValidationSuite(cfg *core.Config) *ValidationSuite {
	if cfg == nil {
		cfg = core.LoadConfig()
	}
	return &ValidationSuite{
		cfg:    cfg,
		output: os.Stdout,
		connectivityChecker: NewConnectivityChecker().
			WithAllowSelfSignedCerts(cfg.AllowSelfSignedCerts),
		envPath:      ".env",
		outputDir:    ".",
		timeout:      30 * time.Second,
		showProgress: true,
	}
}

// WithOutput sets the output writer for progress messages.
func (s *ValidationSuite) WithOutput(w io.Writer) *ValidationSuite {
	s.output = w
	return s
}

// WithAllowSelfSignedCerts configures whether to allow self-signed certificates.
func (s *ValidationSuite) WithAllowSelfSignedCerts(allow bool) *ValidationSuite {
	s.connectivityChecker.WithAllowSelfSignedCerts(allow)
	return s
}

// WithTimeout sets the timeout for network operations.
func (s *ValidationSuite) WithTimeout(timeout time.Duration) *ValidationSuite {
	s.timeout = timeout
	s.connectivityChecker.WithTimeout(timeout)
	return s
}

// WithShowProgress enables or disables progress output.
func (s *ValidationSuite) WithShowProgress(show bool) *ValidationSuite {
	s.showProgress = show
	return s
}

// WithFailFast stops validation on first failure if enabled.
func (s *ValidationSuite) WithFailFast(failFast bool) *ValidationSuite {
	s.failFast = failFast
	return s
}

// WithEnvPath sets a custom path for the .env file.
func (s *ValidationSuite) WithEnvPath(path string) *ValidationSuite {
	s.envPath = path
	return s
}

// WithOutputDir sets the directory whose free space is checked for images.
func (s *ValidationSuite) WithOutputDir(dir string) *ValidationSuite {
	s.outputDir = dir
	return s
}

// Validate runs every check, including the image API connectivity probe for
// the remote backends.
func (s *ValidationSuite) Validate(ctx context.Context) SuiteResult {
	return s.run(ctx, "sdprompt Startup Checks", true)
}

// ValidateQuick runs only the checks that need no network.
// Used before the run loop starts.
func (s *ValidationSuite) ValidateQuick(ctx context.Context) SuiteResult {
	return s.run(ctx, "Quick Configuration Check", false)
}

func (s *ValidationSuite) run(ctx context.Context, title string, network bool) SuiteResult {
	startTime := time.Now()
	steps := make([]ValidationStep, 0, 6)

	if s.showProgress {
		s.printHeader(title)
	}

	checks := []check{
		{"Environment File", s.checkEnvFile},
		{"Backend Configuration", s.checkBackend},
	}
	if s.cfg.Backend == core.BackendLocal {
		checks = append(checks, check{"Models Directory", s.checkModelsDir})
	} else {
		checks = append(checks, check{"Image API Endpoint", s.checkEndpointURL})
	}
	checks = append(checks,
		check{"History Storage", s.checkHistoryStorage},
		check{"Output Disk Space", s.checkOutputSpace},
	)

	for _, c := range checks {
		step := s.runStep(ctx, c.name, c.fn)
		steps = append(steps, step)
		if s.failFast && step.Status == StepFailed {
			return s.finish(steps, startTime)
		}
	}

	if network {
		var step ValidationStep
		switch {
		case s.cfg.Backend == core.BackendLocal:
			step = s.skipStep("Image API Connectivity", "Not needed for the local backend")
		case !hasAllPassed(steps):
			step = s.skipStep("Image API Connectivity", "Skipped due to configuration errors")
		default:
			step = s.runStep(ctx, "Image API Connectivity", s.checkConnectivity)
		}
		steps = append(steps, step)
	}

	return s.finish(steps, startTime)
}

func (s *ValidationSuite) finish(steps []ValidationStep, startTime time.Time) SuiteResult {
	result := buildResult(steps, startTime)
	if s.showProgress {
		s.printSummary(result)
	}
	return result
}

func (s *ValidationSuite) checkEnvFile(context.Context) (StepStatus, string, error) {
	if err := CheckFileExists(s.envPath); err != nil {
		return StepWarning, "No .env file, using environment and defaults", err
	}
	return StepPassed, fmt.Sprintf("Found %s", s.envPath), nil
}

func (s *ValidationSuite) checkBackend(context.Context) (StepStatus, string, error) {
	if err := s.cfg.Validate(); err != nil {
		return StepFailed, "Backend configuration is incomplete", err
	}
	return StepPassed, fmt.Sprintf("Backend %s", s.cfg.Backend), nil
}

func (s *ValidationSuite) checkModelsDir(context.Context) (StepStatus, string, error) {
	if err := CheckDirExists(s.cfg.ModelsDir); err != nil {
		return StepWarning, "Models directory missing, weights must be reachable by name", err
	}
	return StepPassed, s.cfg.ModelsDir, nil
}

func (s *ValidationSuite) checkEndpointURL(context.Context) (StepStatus, string, error) {
	endpoint := s.endpoint()
	if err := ValidateEndpointURL(endpoint); err != nil {
		return StepFailed, "Image API endpoint is not a valid URL", core.ErrInvalidEndpoint(endpoint, err.Error())
	}
	return StepPassed, endpoint, nil
}

func (s *ValidationSuite) checkHistoryStorage(context.Context) (StepStatus, string, error) {
	if !s.cfg.HistoryEnabled() {
		return StepSkipped, "Run history disabled", nil
	}
	return s.checkSpace(s.cfg.HistoryDB)
}

func (s *ValidationSuite) checkOutputSpace(context.Context) (StepStatus, string, error) {
	return s.checkSpace(s.outputDir)
}

func (s *ValidationSuite) checkSpace(path string) (StepStatus, string, error) {
	info, err := GetDiskSpace(path)
	if err != nil {
		return StepWarning, "Could not determine free space", err
	}
	if info.Free < s.cfg.MinFreeSpace {
		return StepWarning, fmt.Sprintf("Low disk space: %s free", info.FreeFormatted), &DiskSpaceError{
			Path:      info.Path,
			Required:  s.cfg.MinFreeSpace,
			Available: info.Free,
		}
	}
	return StepPassed, fmt.Sprintf("%s free", info.FreeFormatted), nil
}

func (s *ValidationSuite) checkConnectivity(ctx context.Context) (StepStatus, string, error) {
	result := s.connectivityChecker.CheckEndpoint(ctx, s.endpoint())
	msg := result.Message
	if result.Latency > 0 {
		msg = fmt.Sprintf("%s (latency: %v)", msg, result.Latency.Round(time.Millisecond))
	}
	if !result.Reachable {
		return StepFailed, msg, result.Error
	}
	return StepPassed, msg, nil
}

// endpoint is the base URL the configured remote backend talks to.
func (s *ValidationSuite) endpoint() string {
	if s.cfg.Backend == core.BackendAzure {
		return s.cfg.AzureOpenAIEndpoint
	}
	return s.cfg.ImageLLMURL
}

// runStep executes a validation step with timing and progress output.
func (s *ValidationSuite) runStep(ctx context.Context, name string, fn stepFunc) ValidationStep {
	if s.showProgress {
		s.printStepStart(name)
	}

	startTime := time.Now()
	status, message, err := fn(ctx)
	step := ValidationStep{
		Name:    name,
		Status:  status,
		Message: message,
		Error:   err,
		Latency: time.Since(startTime),
	}

	if s.showProgress {
		s.printStep(step)
	}
	return step
}

func (s *ValidationSuite) skipStep(name, message string) ValidationStep {
	step := ValidationStep{Name: name, Status: StepSkipped, Message: message}
	if s.showProgress {
		s.printStep(step)
	}
	return step
}

// hasAllPassed checks that no step has failed. Warnings and skips count as passing.
func hasAllPassed(steps []ValidationStep) bool {
	for _, step := range steps {
		if step.Status == StepFailed {
			return false
		}
	}
	return true
}

// buildResult creates a SuiteResult from completed steps.
func buildResult(steps []ValidationStep, startTime time.Time) SuiteResult {
	result := SuiteResult{
		Steps:      steps,
		TotalSteps: len(steps),
		Duration:   time.Since(startTime),
		Success:    true,
	}

	for _, step := range steps {
		switch step.Status {
		case StepPassed:
			result.PassedSteps++
		case StepFailed:
			result.FailedSteps++
			result.Success = false
		case StepWarning:
			result.Warnings++
		}
	}
	return result
}

// printHeader prints a validation header.
func (s *ValidationSuite) printHeader(title string) {
	fmt.Fprintln(s.output)
	headerColor := color.New(color.FgCyan, color.Bold)
	headerColor.Fprintf(s.output, "━━━ %s ━━━\n", title)
	fmt.Fprintln(s.output)
}

// printStepStart prints the step name before execution (for real-time feedback).
func (s *ValidationSuite) printStepStart(name string) {
	fmt.Fprintf(s.output, "  ◌ %s...", name)
}

// printStep prints a completed validation step with status indicator.
func (s *ValidationSuite) printStep(step ValidationStep) {
	var icon string
	var clr *color.Color

	switch step.Status {
	case StepPassed:
		icon = "✓"
		clr = color.New(color.FgGreen)
	case StepFailed:
		icon = "✗"
		clr = color.New(color.FgRed)
	case StepWarning:
		icon = "!"
		clr = color.New(color.FgYellow)
	case StepSkipped:
		icon = "○"
		clr = color.New(color.FgHiBlack)
	default:
		icon = "?"
		clr = color.New(color.FgWhite)
	}

	fmt.Fprintf(s.output, "\r")
	clr.Fprintf(s.output, "  %s %s", icon, step.Name)
	if step.Message != "" {
		color.New(color.FgHiBlack).Fprintf(s.output, " - %s", step.Message)
	}
	fmt.Fprintln(s.output)

	if step.Status == StepFailed && step.Error != nil {
		color.New(color.FgRed).Fprintf(s.output, "    └─ %s\n", step.Error.Error())
	}
}

// printSummary prints the validation summary.
func (s *ValidationSuite) printSummary(result SuiteResult) {
	fmt.Fprintln(s.output)

	if result.Success {
		successColor := color.New(color.FgGreen, color.Bold)
		successColor.Fprintf(s.output, "━━━ Validation Passed ")
		color.New(color.FgHiBlack).Fprintf(s.output, "(%d/%d checks passed in %v)",
			result.PassedSteps, result.TotalSteps, result.Duration.Round(time.Millisecond))
		successColor.Fprintln(s.output, " ━━━")
	} else {
		failColor := color.New(color.FgRed, color.Bold)
		failColor.Fprintf(s.output, "━━━ Validation Failed ")
		color.New(color.FgHiBlack).Fprintf(s.output, "(%d passed, %d failed)",
			result.PassedSteps, result.FailedSteps)
		failColor.Fprintln(s.output, " ━━━")
	}

	fmt.Fprintln(s.output)
}

// GetErrors returns the errors of failed steps.
func (r SuiteResult) GetErrors() []error {
	errs := make([]error, 0)
	for _, step := range r.Steps {
		if step.Status == StepFailed && step.Error != nil {
			errs = append(errs, step.Error)
		}
	}
	return errs
}

// GetFirstError returns the first error from failed steps, or nil if none failed.
func (r SuiteResult) GetFirstError() error {
	for _, step := range r.Steps {
		if step.Status == StepFailed && step.Error != nil {
			return step.Error
		}
	}
	return nil
}

// GetWarnings returns the steps that finished with a warning.
func (r SuiteResult) GetWarnings() []ValidationStep {
	var warnings []ValidationStep
	for _, step := range r.Steps {
		if step.Status == StepWarning {
			warnings = append(warnings, step)
		}
	}
	return warnings
}

// Summary returns a human-readable summary string.
func (r SuiteResult) Summary() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Validation %s: ", map[bool]string{true: "Passed", false: "Failed"}[r.Success]))
	sb.WriteString(fmt.Sprintf("%d/%d checks passed", r.PassedSteps, r.TotalSteps))
	if r.FailedSteps > 0 {
		sb.WriteString(fmt.Sprintf(", %d failed", r.FailedSteps))
	}
	if r.Warnings > 0 {
		sb.WriteString(fmt.Sprintf(", %d warnings", r.Warnings))
	}
	sb.WriteString(fmt.Sprintf(" (took %v)", r.Duration.Round(time.Millisecond)))
	return sb.String()
}
