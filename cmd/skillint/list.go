package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillint/pkg/discovery"
	"github.com/jingkaihe/skillint/pkg/frontmatter"
	"github.com/jingkaihe/skillint/pkg/lint"
	"github.com/jingkaihe/skillint/pkg/presenter"
	"github.com/jingkaihe/skillint/pkg/skill"
)

// ListConfig holds configuration for the list command
type ListConfig struct {
	Format string
}

// NewListConfig creates a new ListConfig with default values
func NewListConfig() *ListConfig {
	return &ListConfig{
		Format: "table",
	}
}

// Validate validates the ListConfig and returns an error if invalid
func (c *ListConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Format, validation.In("table", "json")),
	)
}

// skillRow is one discovered skill in list output.
type skillRow struct {
	Name        string   `json:"name"`
	Directory   string   `json:"directory"`
	Path        string   `json:"path"`
	Description string   `json:"description"`
	Issues      []string `json:"issues,omitempty"`
}

var listCmd = &cobra.Command{
	Use:   "list [paths...]",
	Short: "List discovered skills with their current metadata",
	Long: `List discovers every SKILL.md, shows its declared name and description as
written, and counts outstanding violations per document.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		config := NewLintConfig()
		if err := config.Validate(); err != nil {
			presenter.Error(err, "Invalid configuration")
			os.Exit(1)
		}
		listConfig := getListConfigFromFlags(cmd)
		if err := listConfig.Validate(); err != nil {
			presenter.Error(err, "Invalid configuration")
			os.Exit(1)
		}

		root, docs, readOK := collectDocuments(ctx, config, args)
		if len(docs) == 0 {
			presenter.Info("no skills found")
			if !readOK {
				os.Exit(1)
			}
			return
		}

		runner := lint.NewRunner(lint.WithWorkers(config.Jobs))
		report, err := runner.Check(ctx, docs)
		if err != nil {
			presenter.Error(err, "List aborted")
			os.Exit(1)
		}

		rows := make([]skillRow, 0, len(report.Results))
		for _, res := range report.Results {
			rows = append(rows, buildRow(root, res))
		}

		if listConfig.Format == "json" {
			out, err := json.MarshalIndent(rows, "", "  ")
			if err != nil {
				presenter.Error(err, "Encoding skill list")
				os.Exit(1)
			}
			fmt.Println(string(out))
		} else {
			printTable(rows)
		}

		if !readOK {
			os.Exit(1)
		}
	},
}

func init() {
	defaults := NewListConfig()
	listCmd.Flags().String("format", defaults.Format, "Output format (table or json)")
}

// getListConfigFromFlags extracts list configuration from command flags
func getListConfigFromFlags(cmd *cobra.Command) *ListConfig {
	config := NewListConfig()

	if format, err := cmd.Flags().GetString("format"); err == nil {
		config.Format = format
	}

	return config
}

func buildRow(root string, res lint.DocResult) skillRow {
	row := skillRow{
		Name:        "-",
		Directory:   discovery.DisplayPath(root, res.Doc.Dir),
		Path:        discovery.DisplayPath(root, res.Doc.Path),
		Description: "",
	}
	fm, _ := frontmatter.Parse(res.Doc.Raw)
	if fm != nil {
		if val, ok := fm.Get(skill.FieldName); ok && val.Kind == frontmatter.ValueScalar && val.Str != "" {
			row.Name = val.Str
		}
		if val, ok := fm.Get(skill.FieldDescription); ok && val.Kind == frontmatter.ValueScalar {
			row.Description = val.Str
		}
	}
	for _, issue := range res.Issues {
		row.Issues = append(row.Issues, issue.String())
	}
	return row
}

func printTable(rows []skillRow) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDIRECTORY\tISSUES\tDESCRIPTION")
	fmt.Fprintln(w, "----\t---------\t------\t-----------")
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", row.Name, row.Directory, len(row.Issues), truncate(row.Description, 60))
	}
	w.Flush()
}

// truncate shortens s to at most n runes for table display.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
