package main

import (
	"fmt"
	"os"

	"photokeep/internal/app"
	"photokeep/internal/backup"
	"photokeep/internal/config"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "Export", "Sync").
func newApp(operation string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// parseMode maps the --mode flag onto an import mode.
func parseMode(mode string) (backup.ImportMode, error) {
	switch mode {
	case "merge":
		return backup.MergeLatestWins, nil
	case "replace":
		return backup.ReplaceAll, nil
	default:
		return 0, fmt.Errorf("unknown mode %q (want merge or replace)", mode)
	}
}

var rootCmd = &cobra.Command{
	Use:   "photokeep",
	Short: "Photo library backup and sync engine",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		// Generate a new device ID
		deviceID := uuid.New().String()

		cfg := config.NewConfig(deviceID, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Device ID: %s\n", deviceID)
		fmt.Printf("Base Dir:  %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Device ID: %s\n", cfg.DeviceID)
		fmt.Printf("Base Dir:  %s\n", cfg.BaseDir)
		fmt.Printf("Media Dir: %s\n", cfg.MediaDir)
		fmt.Printf("Remote:    %s (%s)\n", cfg.Remote.Name, cfg.Remote.Type)
		return nil
	},
}

// export command
var exportCmd = &cobra.Command{
	Use:   "export TARGET_DIR",
	Short: "Export the library to a local folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		albumIDs, _ := cmd.Flags().GetInt64Slice("album")

		a, err := newApp("Export")
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.Export(cmd.Context(), args[0], albumIDs)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		fmt.Printf("Exported %d album(s), %d photo(s)\n", report.Albums, report.Photos)
		fmt.Printf("Files copied: %d, missing: %d\n", report.FilesCopied, report.FilesMissing)
		fmt.Printf("Snapshot: %s\n", report.SnapshotPath)
		return nil
	},
}

// import command
var importCmd = &cobra.Command{
	Use:   "import SOURCE_DIR",
	Short: "Import a backup folder into the library",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		modeFlag, _ := cmd.Flags().GetString("mode")
		mode, err := parseMode(modeFlag)
		if err != nil {
			return err
		}

		a, err := newApp("Import")
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.Import(cmd.Context(), args[0], mode)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		fmt.Printf("Albums: %d inserted, %d updated\n", report.AlbumsInserted, report.AlbumsUpdated)
		fmt.Printf("Photos: %d inserted, %d updated, %d skipped (missing file)\n",
			report.PhotosInserted, report.PhotosUpdated, report.PhotosSkippedMissingFile)
		return nil
	},
}

// restore command
var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore the library from the latest remote backup",
	RunE: func(cmd *cobra.Command, args []string) error {
		modeFlag, _ := cmd.Flags().GetString("mode")
		mode, err := parseMode(modeFlag)
		if err != nil {
			return err
		}

		a, err := newApp("Restore")
		if err != nil {
			return err
		}
		defer a.Close()

		progress := func(step string, done, total int) {
			fmt.Printf("\r%s: %d/%d", step, done, total)
			if done == total {
				fmt.Println()
			}
		}

		report, err := a.RestoreLatest(cmd.Context(), mode, progress)
		if err != nil {
			return fmt.Errorf("restore failed: %w", err)
		}

		fmt.Printf("Restored %d album(s), %d photo(s)\n", report.AlbumsAffected, report.PhotosAffected)
		if report.FilesMissing > 0 {
			fmt.Printf("Media files unavailable on remote: %d\n", report.FilesMissing)
		}
		return nil
	},
}

// sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Upload the library snapshot and changed media to the remote",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Sync")
		if err != nil {
			return err
		}
		defer a.Close()

		a.RequestSync(cmd.Context(), "cli")
		a.WaitForSync()

		state := a.SyncState()
		fmt.Printf("Sync finished: %s\n", state)
		if state == backup.SyncError {
			return fmt.Errorf("sync did not complete")
		}
		return nil
	},
}

// status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "View library and sync status",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Status")
		if err != nil {
			return err
		}
		defer a.Close()

		st, err := a.GetStatus(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Albums:      %d\n", st.Albums)
		fmt.Printf("Photos:      %d\n", st.Photos)
		fmt.Printf("Sync state:  %s\n", st.SyncState)
		fmt.Printf("Wi-Fi only:  %t\n", st.WifiOnly)
		if st.LastSyncedAt.IsZero() {
			fmt.Println("Last synced: never")
		} else {
			fmt.Printf("Last synced: %s\n", st.LastSyncedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().Int64Slice("album", nil, "Album id to export (repeatable; default all)")
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().String("mode", "merge", "Import mode: merge or replace")
	rootCmd.AddCommand(restoreCmd)
	restoreCmd.Flags().String("mode", "merge", "Restore mode: merge or replace")
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(statusCmd)
}
