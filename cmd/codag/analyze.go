package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/michaelzixizhou/codag-sub002/cache"
	"github.com/michaelzixizhou/codag-sub002/config"
	"github.com/michaelzixizhou/codag-sub002/display"
	"github.com/michaelzixizhou/codag-sub002/orchestrate"
	"github.com/michaelzixizhou/codag-sub002/registry"
	"github.com/michaelzixizhou/codag-sub002/remote"
	"github.com/michaelzixizhou/codag-sub002/scanner"
	"github.com/michaelzixizhou/codag-sub002/session"
	"github.com/michaelzixizhou/codag-sub002/watcher"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Analyze a workspace and print its workflow graph",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		deps, err := buildDeps(cfg)
		if err != nil {
			return err
		}
		defer deps.close()

		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		return deps.pipeline.AnalyzeWorkspace(ctx, workspaceRoot(args))
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Analyze a workspace and re-analyze on file changes",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		deps, err := buildDeps(cfg)
		if err != nil {
			return err
		}
		defer deps.close()

		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		root := workspaceRoot(args)
		if err := deps.pipeline.AnalyzeWorkspace(ctx, root); err != nil {
			if err != orchestrate.ErrNoInput {
				return err
			}
			logrus.Info("no analyzable files yet, watching for changes")
		}

		// Re-analysis runs off the watcher goroutine so the event loop keeps
		// draining and bumping sessions while a pass is in flight. Bursts of
		// invalidations coalesce into a single follow-up pass.
		rerun := orchestrate.NewRerunner(func() {
			err := deps.pipeline.HandleRetry(ctx, orchestrate.RetryRequest{
				Kind:       orchestrate.RetryWorkspace,
				TargetPath: root,
			})
			if err != nil && err != orchestrate.ErrNoInput {
				logrus.WithError(err).Warn("re-analysis after change failed")
			}
		})

		w, err := watcher.New(root, deps.store, deps.sessions,
			watcher.WithDebounce(time.Duration(cfg.DebounceMs)*time.Millisecond),
			watcher.WithInvalidateHook(func(paths []string) {
				rerun.Trigger()
			}),
		)
		if err != nil {
			return fmt.Errorf("failed to start watcher: %w", err)
		}
		defer w.Close()
		w.Run(ctx)
		return nil
	},
}

var clearCacheCmd = &cobra.Command{
	Use:   "clear-cache",
	Short: "Remove all cached analysis fragments",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.CacheDir == "" {
			logrus.Info("no cache directory configured, nothing to clear")
			return nil
		}
		if err := os.RemoveAll(cfg.CacheDir); err != nil {
			return fmt.Errorf("failed to clear cache %v: %w", cfg.CacheDir, err)
		}
		logrus.WithField("dir", cfg.CacheDir).Info("cache cleared")
		return nil
	},
}

type deps struct {
	pipeline *orchestrate.Pipeline
	store    *cache.Store
	sessions *session.Counter
	disk     *cache.DiskStore
}

func buildDeps(cfg *config.Config) (*deps, error) {
	reg := registry.Default()
	if cfg.Signatures != "" {
		overlay, err := registry.LoadOverlay(cfg.Signatures)
		if err != nil {
			return nil, fmt.Errorf("failed to load signature overlay %v: %w", cfg.Signatures, err)
		}
		reg = overlay
	}

	var storeOpts []cache.Option
	var disk *cache.DiskStore
	if cfg.CacheDir != "" {
		var err error
		disk, err = cache.OpenDiskStore(cfg.CacheDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open cache at %v: %w", cfg.CacheDir, err)
		}
		storeOpts = append(storeOpts, cache.WithDiskStore(disk, time.Duration(cfg.DebounceMs)*time.Millisecond))
	}
	store := cache.NewStore(storeOpts...)
	if err := store.Warm(); err != nil {
		logrus.WithError(err).Warn("failed to warm cache, starting cold")
	}

	if cfg.Remote.APIKey == "" {
		return nil, fmt.Errorf("no API key configured, set CODAG_API_KEY or --api_key")
	}
	analyzer := remote.NewOpenAIAnalyzer(cfg.Remote.APIKey, cfg.Remote.Model, cfg.Remote.BaseURL)

	sessions := &session.Counter{}
	orch := orchestrate.New(analyzer, store, display.NewLogDisplay(), sessions, cfg.Analysis.MaxConcurrency)
	source := scanner.New(
		scanner.WithExclusions(cfg.Exclusions),
		scanner.WithMaxFileSize(cfg.MaxFileSizeBytes),
	)
	pipeline := orchestrate.NewPipeline(source, reg, orch, orchestrate.Options{
		MaxBatchSize:      cfg.Analysis.MaxBatchSize,
		MaxTokensPerBatch: cfg.Analysis.MaxTokensPerBatch,
		RelatedDepth:      cfg.Analysis.RelatedDepth,
	})
	return &deps{pipeline: pipeline, store: store, sessions: sessions, disk: disk}, nil
}

func (d *deps) close() {
	d.store.Flush()
	if d.disk != nil {
		if err := d.disk.Close(); err != nil {
			logrus.WithError(err).Warn("failed to close cache")
		}
	}
}

func workspaceRoot(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	if project, err := scanner.DetectProject("."); err == nil {
		return project.RootPath
	}
	return "."
}
