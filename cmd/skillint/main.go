package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jingkaihe/skillint/pkg/logger"
	"github.com/jingkaihe/skillint/pkg/presenter"
)

func init() {
	// Environment variables
	viper.SetEnvPrefix("SKILLINT")
	viper.AutomaticEnv()

	// Config file support
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.skillint")
	viper.AddConfigPath(".")

	// Load config file if it exists (ignore errors if it doesn't)
	_ = viper.ReadInConfig()

	viper.SetDefault("log_level", "warn")
	viper.SetDefault("log_format", "text")
	viper.SetDefault("color", "auto")
}

var rootCmd = &cobra.Command{
	Use:   "skillint",
	Short: "Lint and repair SKILL.md frontmatter",
	Long: `Skillint validates the YAML frontmatter of SKILL.md files against the
agent skill schema and can repair the violations that have a mechanical fix.`,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if err := logger.Configure(viper.GetString("log_level"), viper.GetString("log_format")); err != nil {
			return err
		}
		mode, err := presenter.ParseColorMode(viper.GetString("color"))
		if err != nil {
			return err
		}
		presenter.SetColorMode(mode)
		presenter.SetQuiet(viper.GetBool("quiet"))
		return nil
	},
	// Default behavior is to check when paths are given, otherwise show help
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) > 0 {
			checkCmd.Run(cmd, args)
		} else {
			cmd.Help()
			os.Exit(1)
		}
	},
}

func main() {
	// Add global flags
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text or json)")
	rootCmd.PersistentFlags().String("color", "auto", "Color output (auto, always, never)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress everything except errors")
	rootCmd.PersistentFlags().String("root", "", "Repository root (defaults to the enclosing git work tree)")
	rootCmd.PersistentFlags().StringSlice("ignore", nil, "Glob patterns to exclude from discovery")
	rootCmd.PersistentFlags().IntP("jobs", "j", 0, "Number of documents processed in parallel (0 = number of CPUs)")

	// Bind flags to viper
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("color", rootCmd.PersistentFlags().Lookup("color"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	viper.BindPFlag("root", rootCmd.PersistentFlags().Lookup("root"))
	viper.BindPFlag("ignore", rootCmd.PersistentFlags().Lookup("ignore"))
	viper.BindPFlag("jobs", rootCmd.PersistentFlags().Lookup("jobs"))

	// Add subcommands
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)

	// Execute
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
