package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"goaltrack/internal/clock"
	"goaltrack/internal/config"
	"goaltrack/internal/dates"
	"goaltrack/internal/logging"
	"goaltrack/internal/ops"
	"goaltrack/internal/store"
	"goaltrack/internal/tracker"
)

type opsFlags struct {
	configPath string
	driver     string
	dataDir    string
	sqlitePath string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &opsFlags{}
	root := &cobra.Command{
		Use:          "goaltrack-ops",
		Short:        "Maintenance commands for goaltrack data.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&f.configPath, "config", "goaltrack.yml", "Path to the YAML config file.")
	root.PersistentFlags().StringVar(&f.driver, "driver", "", "Override the store driver (memory, file, sqlite).")
	root.PersistentFlags().StringVar(&f.dataDir, "data-dir", "", "Override the data directory.")
	root.PersistentFlags().StringVar(&f.sqlitePath, "sqlite-path", "", "Override the sqlite database path.")

	root.AddCommand(
		newExportCmd(f),
		newImportCmd(f),
		newRolloverCmd(f),
		newDrillCmd(f),
	)
	return root
}

func (f *opsFlags) load() (*config.Config, error) {
	if err := config.LoadEnvFile(".env"); err != nil {
		return nil, err
	}
	cfg, err := config.FromEnv(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.driver != "" {
		cfg.Store.Driver = f.driver
	}
	if f.dataDir != "" {
		cfg.Store.DataDir = f.dataDir
		if f.sqlitePath == "" {
			cfg.Store.SQLitePath = filepath.Join(f.dataDir, "goaltrack.db")
		}
	}
	if f.sqlitePath != "" {
		cfg.Store.SQLitePath = f.sqlitePath
	}
	return cfg, nil
}

func (f *opsFlags) openBlobs() (*config.Config, store.BlobStore, error) {
	cfg, err := f.load()
	if err != nil {
		return nil, nil, err
	}
	blobs, err := store.OpenBlobs(cfg.Store)
	if err != nil {
		return nil, nil, err
	}
	return cfg, blobs, nil
}

func newExportCmd(f *opsFlags) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write goals and tasks to a .tar.gz archive.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, blobs, err := f.openBlobs()
			if err != nil {
				return err
			}
			defer blobs.Close()

			if out == "" {
				ts := time.Now().UTC().Format("20060102T150405Z")
				out = filepath.Join("backups", "goaltrack-"+ts+".tar.gz")
			}
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return err
			}
			file, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := ops.Export(cmd.Context(), blobs, file); err != nil {
				_ = file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Output archive path (.tar.gz).")
	return cmd
}

func newImportCmd(f *opsFlags) *cobra.Command {
	var archive string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace goals and tasks with the contents of an archive.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if archive == "" {
				return fmt.Errorf("--archive is required")
			}
			_, blobs, err := f.openBlobs()
			if err != nil {
				return err
			}
			defer blobs.Close()

			file, err := os.Open(archive)
			if err != nil {
				return err
			}
			defer file.Close()
			return ops.Import(cmd.Context(), file, blobs)
		},
	}
	cmd.Flags().StringVar(&archive, "archive", "", "Input archive (.tar.gz).")
	return cmd
}

func newRolloverCmd(f *opsFlags) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "rollover",
		Short: "Run the day-change pass against the configured store.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.load()
			if err != nil {
				return err
			}
			return rollover(cmd.Context(), cfg, clock.RealClock{}, date, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Day to roll over to (YYYY-MM-DD, default today).")
	return cmd
}

func rollover(ctx context.Context, cfg *config.Config, clk clock.Clock, date string, w io.Writer) error {
	loc, err := cfg.Clock.Location()
	if err != nil {
		return err
	}
	clk = clock.InLocation(clk, loc)

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	st, err := store.Open(cfg.Store, logger.Named("store"))
	if err != nil {
		return err
	}
	defer st.Close()

	svc, err := tracker.New(ctx, tracker.Options{
		Store:        st,
		Clock:        clk,
		Log:          logger.Named("tracker"),
		WriteRetries: cfg.Store.WriteRetries,
		RetryBackoff: cfg.Store.RetryBackoff,
	})
	if err != nil {
		return err
	}

	day := svc.Today()
	if date != "" {
		day = dates.ISODate(date)
		if !day.Valid() {
			return fmt.Errorf("bad --date %q", date)
		}
	}
	rep, err := svc.RunDayChange(ctx, day)
	if err != nil {
		logger.Error("rollover not saved", zap.Error(err))
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

func newDrillCmd(f *opsFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "drill",
		Short: "Export and re-import into memory, then compare digests.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, blobs, err := f.openBlobs()
			if err != nil {
				return err
			}
			defer blobs.Close()

			digest, size, err := ops.Drill(cmd.Context(), blobs)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "archive bytes:", size)
			fmt.Fprintln(out, "digest:", digest)
			return nil
		},
	}
}
