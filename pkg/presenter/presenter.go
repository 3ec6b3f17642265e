// Package presenter provides consistent CLI output functionality for user-facing messages,
// including success, error, warning, and informational output with color support and quiet mode.
package presenter

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillint/pkg/skill"
)

// Tally summarizes a check or fix run for the final report line.
type Tally struct {
	Checked   int
	Flagged   int
	Fixed     int
	Conflicts int
	Failures  int
	// Planned marks a dry run, where fixes are counted but not applied.
	Planned bool
}

// Presenter defines the interface for consistent CLI output
type Presenter interface {
	Error(err error, context string)
	Success(message string)
	Warning(message string)
	Info(message string)
	Section(title string)
	Document(path string)
	Issue(issue skill.Issue)
	Diff(diff string)
	Tally(tally *Tally)
	Separator()
	SetQuiet(quiet bool)
	IsQuiet() bool
}

// TerminalPresenter implements Presenter for terminal output
type TerminalPresenter struct {
	output      io.Writer
	errorOutput io.Writer
	colorMode   ColorMode
	quiet       bool
}

// ColorMode represents different color output modes
type ColorMode int

const (
	// ColorAuto automatically detects whether to use colored output based on terminal capabilities
	ColorAuto ColorMode = iota
	// ColorAlways forces colored output regardless of terminal capabilities
	ColorAlways
	// ColorNever disables colored output regardless of terminal capabilities
	ColorNever
)

// ParseColorMode converts a configuration string into a ColorMode.
func ParseColorMode(mode string) (ColorMode, error) {
	switch mode {
	case "always", "force":
		return ColorAlways, nil
	case "never", "off":
		return ColorNever, nil
	case "auto", "":
		return ColorAuto, nil
	default:
		return ColorAuto, errors.Errorf("invalid color mode %q (want auto, always, or never)", mode)
	}
}

// New creates a new TerminalPresenter with default settings
func New() *TerminalPresenter {
	return NewWithOptions(os.Stdout, os.Stderr, detectColorMode())
}

// NewWithOptions creates a TerminalPresenter with custom settings
func NewWithOptions(output, errorOutput io.Writer, colorMode ColorMode) *TerminalPresenter {
	presenter := &TerminalPresenter{
		output:      output,
		errorOutput: errorOutput,
		colorMode:   colorMode,
		quiet:       false,
	}

	// Configure color package based on mode
	switch colorMode {
	case ColorAlways:
		color.NoColor = false
	case ColorNever:
		color.NoColor = true
	case ColorAuto:
		// Let color package auto-detect
	}

	return presenter
}

// detectColorMode determines the appropriate color mode based on environment
func detectColorMode() ColorMode {
	// Check explicit environment variables
	if os.Getenv("NO_COLOR") != "" {
		return ColorNever
	}

	mode, err := ParseColorMode(os.Getenv("SKILLINT_COLOR"))
	if err != nil {
		return ColorAuto
	}
	return mode
}

// Error displays an error message to stderr
func (p *TerminalPresenter) Error(err error, context string) {
	if err == nil {
		return
	}

	errorColor := color.New(color.FgRed, color.Bold)
	if context != "" {
		errorColor.Fprintf(p.errorOutput, "[ERROR] %s: %v\n", context, err)
	} else {
		errorColor.Fprintf(p.errorOutput, "[ERROR] %v\n", err)
	}
}

// Success displays a success message
func (p *TerminalPresenter) Success(message string) {
	if p.quiet {
		return
	}

	successColor := color.New(color.FgGreen, color.Bold)
	successColor.Fprintf(p.output, "✓ %s\n", message)
}

// Warning displays a warning message
func (p *TerminalPresenter) Warning(message string) {
	if p.quiet {
		return
	}

	warningColor := color.New(color.FgYellow, color.Bold)
	warningColor.Fprintf(p.output, "⚠ %s\n", message)
}

// Info displays an informational message
func (p *TerminalPresenter) Info(message string) {
	if p.quiet {
		return
	}

	fmt.Fprintf(p.output, "%s\n", message)
}

// Section displays a section header with consistent formatting
func (p *TerminalPresenter) Section(title string) {
	if p.quiet {
		return
	}

	headerColor := color.New(color.Bold)
	separator := strings.Repeat("-", len(title))

	headerColor.Fprintf(p.output, "%s\n", title)
	headerColor.Fprintf(p.output, "%s\n", separator)
}

// Document displays a document path heading issues for that file.
func (p *TerminalPresenter) Document(path string) {
	if p.quiet {
		return
	}

	pathColor := color.New(color.Bold)
	pathColor.Fprintf(p.output, "%s\n", path)
}

// Issue displays a single rule violation, indented under its document.
func (p *TerminalPresenter) Issue(issue skill.Issue) {
	if p.quiet {
		return
	}

	issueColor := color.New(color.FgRed)
	issueColor.Fprintf(p.output, "  - %s\n", issue.String())
}

// Diff displays a unified diff with added, removed, and hunk lines colored.
func (p *TerminalPresenter) Diff(diff string) {
	if p.quiet || diff == "" {
		return
	}

	addColor := color.New(color.FgGreen)
	delColor := color.New(color.FgRed)
	hunkColor := color.New(color.FgCyan)

	for _, line := range strings.Split(strings.TrimRight(diff, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "+"):
			addColor.Fprintf(p.output, "%s\n", line)
		case strings.HasPrefix(line, "-"):
			delColor.Fprintf(p.output, "%s\n", line)
		case strings.HasPrefix(line, "@@"):
			hunkColor.Fprintf(p.output, "%s\n", line)
		default:
			fmt.Fprintf(p.output, "%s\n", line)
		}
	}
}

// Tally displays the run summary in a consistent format
func (p *TerminalPresenter) Tally(tally *Tally) {
	if p.quiet || tally == nil {
		return
	}

	tallyColor := color.New(color.FgCyan, color.Bold)
	tallyColor.Fprintf(p.output, "[Summary] Checked: %d | Clean: %d | Flagged: %d\n",
		tally.Checked, tally.Checked-tally.Flagged, tally.Flagged)

	if tally.Fixed > 0 || tally.Conflicts > 0 || tally.Failures > 0 {
		verb := "Applied"
		if tally.Planned {
			verb = "Planned"
		}
		tallyColor.Fprintf(p.output, "[Fixes] %s: %d | Conflicts: %d | IO failures: %d\n",
			verb, tally.Fixed, tally.Conflicts, tally.Failures)
	}
}

// Separator displays a visual separator
func (p *TerminalPresenter) Separator() {
	if p.quiet {
		return
	}

	separatorColor := color.New(color.Faint)
	separatorColor.Fprintf(p.output, "%s\n", strings.Repeat("-", 60))
}

// SetQuiet enables or disables quiet mode
func (p *TerminalPresenter) SetQuiet(quiet bool) {
	p.quiet = quiet
}

// IsQuiet returns whether quiet mode is enabled
func (p *TerminalPresenter) IsQuiet() bool {
	return p.quiet
}

// Global presenter instance for convenience
var defaultPresenter = New()

// SetColorMode rebuilds the default presenter with an explicit color mode,
// keeping the current quiet setting.
func SetColorMode(mode ColorMode) {
	quiet := defaultPresenter.IsQuiet()
	defaultPresenter = NewWithOptions(os.Stdout, os.Stderr, mode)
	defaultPresenter.SetQuiet(quiet)
}

// Error displays an error message using the default presenter instance.
func Error(err error, context string) {
	defaultPresenter.Error(err, context)
}

// Success displays a success message using the default presenter instance.
func Success(message string) {
	defaultPresenter.Success(message)
}

// Warning displays a warning message using the default presenter instance.
func Warning(message string) {
	defaultPresenter.Warning(message)
}

// Info displays an informational message using the default presenter instance.
func Info(message string) {
	defaultPresenter.Info(message)
}

// Section displays a section header using the default presenter instance.
func Section(title string) {
	defaultPresenter.Section(title)
}

// Document displays a document path using the default presenter instance.
func Document(path string) {
	defaultPresenter.Document(path)
}

// Issue displays a rule violation using the default presenter instance.
func Issue(issue skill.Issue) {
	defaultPresenter.Issue(issue)
}

// Diff displays a unified diff using the default presenter instance.
func Diff(diff string) {
	defaultPresenter.Diff(diff)
}

// ShowTally displays the run summary using the default presenter instance.
func ShowTally(tally *Tally) {
	defaultPresenter.Tally(tally)
}

// Separator displays a visual separator using the default presenter instance.
func Separator() {
	defaultPresenter.Separator()
}

// SetQuiet enables or disables quiet mode for the default presenter instance.
func SetQuiet(quiet bool) {
	defaultPresenter.SetQuiet(quiet)
}

// IsQuiet returns whether quiet mode is enabled for the default presenter instance.
func IsQuiet() bool {
	return defaultPresenter.IsQuiet()
}
