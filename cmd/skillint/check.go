package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillint/pkg/discovery"
	"github.com/jingkaihe/skillint/pkg/lint"
	"github.com/jingkaihe/skillint/pkg/presenter"
)

var checkCmd = &cobra.Command{
	Use:   "check [paths...]",
	Short: "Validate SKILL.md frontmatter without changing anything",
	Long: `Check validates every discovered SKILL.md against the skill schema and
reports all violations per document.

With no paths it scans the repository root; paths may name skill files or
directories to scan recursively. The command exits non-zero when any document
has a violation, when a named path cannot be read, or when no skill files are
found at all.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		config := NewLintConfig()
		if err := config.Validate(); err != nil {
			presenter.Error(err, "Invalid configuration")
			os.Exit(1)
		}

		root, docs, readOK := collectDocuments(ctx, config, args)
		if len(docs) == 0 {
			presenter.Error(errors.New("no SKILL.md files found"), "")
			os.Exit(1)
		}

		runner := lint.NewRunner(lint.WithWorkers(config.Jobs))
		report, err := runner.Check(ctx, docs)
		if err != nil {
			presenter.Error(err, "Check aborted")
			os.Exit(1)
		}

		if report.Flagged() > 0 {
			presenter.Section("Violations")
		}
		for _, res := range report.Results {
			if len(res.Issues) == 0 {
				continue
			}
			presenter.Document(discovery.DisplayPath(root, res.Doc.Path))
			for _, issue := range res.Issues {
				presenter.Issue(issue)
			}
		}

		presenter.ShowTally(&presenter.Tally{
			Checked: len(report.Results),
			Flagged: report.Flagged(),
		})

		if !report.OK() || !readOK {
			os.Exit(1)
		}
		presenter.Success(fmt.Sprintf("%d skills conformant", len(report.Results)))
	},
}
