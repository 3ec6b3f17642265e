package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillint/pkg/discovery"
	"github.com/jingkaihe/skillint/pkg/lint"
	"github.com/jingkaihe/skillint/pkg/logger"
	"github.com/jingkaihe/skillint/pkg/presenter"
	"github.com/jingkaihe/skillint/pkg/skill"
)

// WatchConfig holds configuration for the watch command
type WatchConfig struct {
	IgnoreDirs   []string
	DebounceTime int
}

// NewWatchConfig creates a new WatchConfig with default values
func NewWatchConfig() *WatchConfig {
	return &WatchConfig{
		IgnoreDirs:   []string{".git", "node_modules"},
		DebounceTime: 500,
	}
}

// Validate validates the WatchConfig and returns an error if invalid
func (c *WatchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DebounceTime, validation.Min(0)),
	)
}

// FileEvent represents a file system event with additional metadata
type FileEvent struct {
	Path string
	Op   fsnotify.Op
	Time time.Time
}

var watchCmd = &cobra.Command{
	Use:   "watch [paths...]",
	Short: "Re-check skill files whenever they change",
	Long: `Continuously monitors the repository for changes to SKILL.md files and
re-validates each one as it is written, reporting violations immediately.

With no paths the whole repository root is watched; paths restrict watching
to those directories. Directories are watched recursively, ignoring .git and
node_modules.`,
	Run: func(cmd *cobra.Command, args []string) {
		// Create a cancellable context that listens for signals
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		config := NewLintConfig()
		if err := config.Validate(); err != nil {
			presenter.Error(err, "Invalid configuration")
			os.Exit(1)
		}
		watchConfig := getWatchConfigFromFlags(cmd)
		if err := watchConfig.Validate(); err != nil {
			presenter.Error(err, "Invalid configuration")
			os.Exit(1)
		}

		// Set up signal handling
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigCh
			presenter.Warning("\nCancellation requested, shutting down...")
			cancel()
		}()

		root := config.resolveRoot(ctx)
		watched, err := watchRoots(root, args)
		if err != nil {
			presenter.Error(err, "Invalid watch path")
			os.Exit(1)
		}
		disc := discovery.New(
			discovery.WithRoot(root),
			discovery.WithIgnorePatterns(config.Ignore),
		)
		runner := lint.NewRunner(lint.WithWorkers(config.Jobs))

		// Baseline pass over the watched tree before watching.
		if docs, err := disc.Collect(ctx, args); err == nil && len(docs) > 0 {
			reportCheck(ctx, runner, root, docs)
			presenter.Separator()
		}

		runWatchMode(ctx, root, watched, disc, runner, watchConfig)
	},
}

// watchRoots resolves the directories to watch: each argument against the
// root, or the root itself when no arguments are given.
func watchRoots(root string, args []string) ([]string, error) {
	if len(args) == 0 {
		return []string{root}, nil
	}
	roots := make([]string, 0, len(args))
	for _, arg := range args {
		path := arg
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, errors.Wrapf(err, "resolving %s", arg)
		}
		if !info.IsDir() {
			return nil, errors.Errorf("%s is not a directory", arg)
		}
		roots = append(roots, path)
	}
	return roots, nil
}

func init() {
	defaults := NewWatchConfig()
	watchCmd.Flags().StringSliceP("ignore-dirs", "i", defaults.IgnoreDirs, "Directories to ignore")
	watchCmd.Flags().IntP("debounce", "d", defaults.DebounceTime, "Debounce time in milliseconds for file change events")
}

// getWatchConfigFromFlags extracts watch configuration from command flags
func getWatchConfigFromFlags(cmd *cobra.Command) *WatchConfig {
	config := NewWatchConfig()

	if ignoreDirs, err := cmd.Flags().GetStringSlice("ignore-dirs"); err == nil {
		config.IgnoreDirs = ignoreDirs
	}
	if debounceTime, err := cmd.Flags().GetInt("debounce"); err == nil {
		config.DebounceTime = debounceTime
	}

	return config
}

func runWatchMode(ctx context.Context, root string, watched []string, disc *discovery.Discovery, runner *lint.Runner, config *WatchConfig) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		presenter.Error(err, "Failed to create file watcher")
		logger.G(ctx).WithError(err).Fatal("Failed to create file watcher")
	}
	defer watcher.Close()

	// Setup debouncing mechanism
	events := make(chan FileEvent)
	debouncedEvents := make(chan FileEvent)

	// Start debouncer goroutine
	go debounceFileEvents(ctx, events, debouncedEvents, time.Duration(config.DebounceTime)*time.Millisecond)

	// Process events
	go func() {
		for {
			select {
			case event, ok := <-debouncedEvents:
				if !ok {
					return
				}
				presenter.Info(fmt.Sprintf("Change detected: %s (%s)", discovery.DisplayPath(root, event.Path), event.Op))
				logger.G(ctx).WithFields(map[string]interface{}{
					"file":      event.Path,
					"operation": event.Op.String(),
				}).Debug("Skill file change detected")
				processSkillChange(ctx, root, disc, runner, event.Path)
			case <-ctx.Done():
				return
			}
		}
	}()

	// Watch for events
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if skipPath(event.Name, config.IgnoreDirs) {
					continue
				}

				// Newly created directories need their own watch.
				if event.Op&fsnotify.Create != 0 {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						if err := watcher.Add(event.Name); err != nil {
							logger.G(ctx).WithError(err).WithField("directory", event.Name).Warn("Failed to watch new directory")
						}
						continue
					}
				}

				// Only skill files written or created trigger a re-check.
				if event.Op&(fsnotify.Write|fsnotify.Create) != 0 &&
					strings.EqualFold(filepath.Base(event.Name), skill.CanonicalFileName) {
					events <- FileEvent{
						Path: event.Name,
						Op:   event.Op,
						Time: time.Now(),
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				presenter.Error(err, "File watcher error")
				logger.G(ctx).WithError(err).Error("Error watching files")
			case <-ctx.Done():
				return
			}
		}
	}()

	// Add the watched directories and their subdirectories to the watcher
	for _, watchRoot := range watched {
		err := filepath.Walk(watchRoot, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				if skipPath(path, config.IgnoreDirs) {
					return filepath.SkipDir
				}
				logger.G(ctx).WithField("directory", path).Debug("Adding directory to watcher")
				return watcher.Add(path)
			}
			return nil
		})
		if err != nil {
			presenter.Error(err, "Failed to watch directories")
			logger.G(ctx).WithError(err).Fatal("Failed to watch directories")
		}
	}

	presenter.Info("Watching for skill file changes... Press Ctrl+C to stop")

	// Wait for context cancellation
	<-ctx.Done()
}

// skipPath reports whether the path sits inside one of the ignored
// directories.
func skipPath(path string, ignoreDirs []string) bool {
	for _, dir := range ignoreDirs {
		if filepath.Base(path) == dir || strings.Contains(path, string(os.PathSeparator)+dir+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}

// debounceFileEvents collapses bursts of events on the same path into one,
// emitted once delay elapses without a newer event for that path. Only this
// goroutine touches the timers map; expired timers report back over fired.
func debounceFileEvents(ctx context.Context, input <-chan FileEvent, output chan<- FileEvent, delay time.Duration) {
	timers := make(map[string]*time.Timer)
	fired := make(chan FileEvent)
	defer func() {
		for _, timer := range timers {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-input:
			if !ok {
				return
			}
			if timer, exists := timers[event.Path]; exists {
				timer.Stop()
			}
			timers[event.Path] = time.AfterFunc(delay, func() {
				select {
				case fired <- event:
				case <-ctx.Done():
				}
			})
		case event := <-fired:
			delete(timers, event.Path)
			select {
			case output <- event:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// processSkillChange re-checks a single skill file after a change.
func processSkillChange(ctx context.Context, root string, disc *discovery.Discovery, runner *lint.Runner, path string) {
	docs, err := disc.Collect(ctx, []string{path})
	if err != nil {
		presenter.Error(err, "Reading "+discovery.DisplayPath(root, path))
		return
	}
	if len(docs) == 0 {
		return
	}
	reportCheck(ctx, runner, root, docs)
}

// reportCheck runs a check over docs and prints per-document issues.
func reportCheck(ctx context.Context, runner *lint.Runner, root string, docs []skill.Document) {
	report, err := runner.Check(ctx, docs)
	if err != nil {
		presenter.Error(err, "Check aborted")
		return
	}
	for _, res := range report.Results {
		display := discovery.DisplayPath(root, res.Doc.Path)
		if len(res.Issues) == 0 {
			presenter.Success(display)
			continue
		}
		presenter.Document(display)
		for _, issue := range res.Issues {
			presenter.Issue(issue)
		}
	}
}
