package main

import (
	"context"

	"github.com/bmatcuk/doublestar/v4"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/jingkaihe/skillint/pkg/discovery"
	"github.com/jingkaihe/skillint/pkg/presenter"
	"github.com/jingkaihe/skillint/pkg/skill"
)

// LintConfig holds the settings shared by every command that walks skills
type LintConfig struct {
	Root   string
	Ignore []string
	Jobs   int
}

// NewLintConfig resolves the shared settings from flags, environment
// variables, and the config file
func NewLintConfig() *LintConfig {
	return &LintConfig{
		Root:   viper.GetString("root"),
		Ignore: viper.GetStringSlice("ignore"),
		Jobs:   viper.GetInt("jobs"),
	}
}

// Validate validates the shared settings and returns an error if invalid
func (c *LintConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Jobs, validation.Min(0)),
		validation.Field(&c.Ignore, validation.Each(validation.By(validGlobPattern))),
	)
}

func validGlobPattern(value interface{}) error {
	pattern, _ := value.(string)
	if !doublestar.ValidatePattern(pattern) {
		return errors.Errorf("invalid glob pattern %q", pattern)
	}
	return nil
}

// resolveRoot picks the configured root or falls back to the enclosing
// repository work tree.
func (c *LintConfig) resolveRoot(ctx context.Context) string {
	if c.Root != "" {
		return c.Root
	}
	return discovery.RepoRoot(ctx)
}

// collectDocuments discovers and loads the documents named by args, or every
// skill under the root when args is empty. Unreadable paths are reported and
// fail the run without stopping it.
func collectDocuments(ctx context.Context, config *LintConfig, args []string) (root string, docs []skill.Document, readOK bool) {
	root = config.resolveRoot(ctx)
	disc := discovery.New(
		discovery.WithRoot(root),
		discovery.WithIgnorePatterns(config.Ignore),
	)
	docs, err := disc.Collect(ctx, args)
	if err != nil {
		presenter.Error(err, "Some paths could not be read")
	}
	return root, docs, err == nil
}
