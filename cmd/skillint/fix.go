package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillint/pkg/discovery"
	"github.com/jingkaihe/skillint/pkg/lint"
	"github.com/jingkaihe/skillint/pkg/presenter"
)

// FixConfig holds configuration for the fix command
type FixConfig struct {
	DryRun bool
	Diff   bool
}

// NewFixConfig creates a new FixConfig with default values
func NewFixConfig() *FixConfig {
	return &FixConfig{
		DryRun: false,
		Diff:   false,
	}
}

var fixCmd = &cobra.Command{
	Use:   "fix [paths...]",
	Short: "Repair SKILL.md frontmatter where a safe fix exists",
	Long: `Fix rewrites discovered SKILL.md files into canonical form: it synthesizes
missing required fields, normalizes the frontmatter layout, and renames
mis-cased skill.md files to SKILL.md.

Violations without a mechanical repair (bad name characters, overlong fields,
unknown fields) are reported and left alone. The command exits non-zero when
any violation remains, a rename conflicts, or a write fails.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		config := NewLintConfig()
		if err := config.Validate(); err != nil {
			presenter.Error(err, "Invalid configuration")
			os.Exit(1)
		}
		fixConfig := getFixConfigFromFlags(cmd)

		root, docs, readOK := collectDocuments(ctx, config, args)
		if len(docs) == 0 {
			presenter.Error(errors.New("no SKILL.md files found"), "")
			os.Exit(1)
		}

		runner := lint.NewRunner(lint.WithWorkers(config.Jobs))
		report, err := runner.Fix(ctx, docs, lint.FixOptions{
			DryRun: fixConfig.DryRun,
			Diff:   fixConfig.Diff,
		})
		if err != nil {
			presenter.Error(err, "Fix aborted")
			os.Exit(1)
		}

		flagged := 0
		failures := 0
		for _, res := range report.Results {
			if !res.Plan.Changed && res.Err == nil && len(res.Remaining) == 0 {
				continue
			}
			path := discovery.DisplayPath(root, res.Doc.Path)
			presenter.Document(path)
			describePlan(res, fixConfig.DryRun)
			presenter.Diff(res.Diff)
			if res.Err != nil {
				failures++
				presenter.Error(res.Err, "Applying fixes to "+path)
			}
			for _, issue := range res.Remaining {
				presenter.Issue(issue)
			}
			if len(res.Remaining) > 0 {
				flagged++
			}
		}

		presenter.ShowTally(&presenter.Tally{
			Checked:   len(report.Results),
			Flagged:   flagged,
			Fixed:     report.Changed(),
			Conflicts: report.Conflicts(),
			Failures:  failures,
			Planned:   fixConfig.DryRun,
		})

		if !report.OK() || !readOK {
			os.Exit(1)
		}
		presenter.Success(fmt.Sprintf("%d skills conformant", len(report.Results)))
	},
}

func init() {
	defaults := NewFixConfig()
	fixCmd.Flags().Bool("dry-run", defaults.DryRun, "Report what would change without writing")
	fixCmd.Flags().Bool("diff", defaults.Diff, "Show a unified diff for each content change")
}

// getFixConfigFromFlags extracts fix configuration from command flags
func getFixConfigFromFlags(cmd *cobra.Command) *FixConfig {
	config := NewFixConfig()

	if dryRun, err := cmd.Flags().GetBool("dry-run"); err == nil {
		config.DryRun = dryRun
	}
	if diff, err := cmd.Flags().GetBool("diff"); err == nil {
		config.Diff = diff
	}

	return config
}

// describePlan prints one line per repair the plan carries.
func describePlan(res lint.FixOutcome, dryRun bool) {
	plan := res.Plan
	verb := func(did, would string) string {
		if dryRun {
			return would
		}
		return did
	}

	if plan.Renamed {
		presenter.Info(fmt.Sprintf("  %s %s -> %s",
			verb("renamed", "would rename"),
			filepath.Base(plan.Path), filepath.Base(plan.TargetPath)))
	}
	switch {
	case len(plan.FilledFields) > 0:
		presenter.Info(fmt.Sprintf("  %s %s",
			verb("filled", "would fill"), strings.Join(plan.FilledFields, ", ")))
	case !bytes.Equal(plan.Content, res.Doc.Raw):
		presenter.Info(fmt.Sprintf("  %s frontmatter",
			verb("rewrote", "would rewrite")))
	}
}
