package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"folderwatch/internal/app"
	"folderwatch/internal/config"
	"folderwatch/internal/encryption"
	"folderwatch/internal/watch"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file from the default location.
func loadConfig() (*config.Config, string, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, "", fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, "", fmt.Errorf("reading config: %w", err)
	}
	return cfg, defaults["config_path"], nil
}

// newApp reads the config and creates an App. The caller must defer app.Close().
func newApp(ctx context.Context, cmd *cobra.Command) (*app.App, *config.Config, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}

	a, err := app.NewFromConfig(ctx, cfg, level)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, cfg, nil
}

var rootCmd = &cobra.Command{
	Use:          "folderwatch",
	Short:        "Notify about new files in watched drive folders",
	SilenceUsage: true,
}

// check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one folder check and notify about new files",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, _, err := newApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.Check(ctx)
		if err != nil {
			return fmt.Errorf("check failed: %w", err)
		}

		if printState, _ := cmd.Flags().GetBool("print-state"); printState {
			fmt.Println(result.State)
			return nil
		}

		fmt.Printf("%s (%d file(s) checked, %d excluded folder(s), %d other folder(s) skipped)\n",
			result.Message, result.FilesChecked, result.ExcludedFolders, result.OtherFolders)
		for _, f := range result.NewFiles {
			fmt.Printf("  %-25s  %s\n", f.OwnerName, f.Name)
		}
		return nil
	},
}

// serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the check endpoint over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, cfg, err := newApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		opts := app.ServeOptions{
			ListenAddr: cfg.Server.ListenAddr,
			CronSecret: config.Env(cfg.Server.CronSecretEnv, "CRON_SECRET"),
		}
		if addr, _ := cmd.Flags().GetString("listen"); addr != "" {
			opts.ListenAddr = addr
		}

		interval := cfg.Server.Interval
		if flag, _ := cmd.Flags().GetString("interval"); flag != "" {
			interval = flag
		}
		if interval != "" {
			d, err := time.ParseDuration(interval)
			if err != nil {
				return fmt.Errorf("invalid interval %q: %w", interval, err)
			}
			opts.Interval = d
		}

		if err := a.Validate(ctx); err != nil {
			return fmt.Errorf("state store not ready: %w", err)
		}

		return a.Serve(ctx, opts)
	},
}

// test-notification command
var testNotificationCmd = &cobra.Command{
	Use:   "test-notification",
	Short: "Send a test message to the configured notifier",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, err := newApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.TestNotification(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Test notification sent")
		return nil
	},
}

// state command
var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect or reset the stored dedup state",
}

var stateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show files already notified about",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, err := newApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		snap, revision, err := a.ShowState(cmd.Context())
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		}

		printSnapshot(snap, revision)
		return nil
	},
}

func printSnapshot(snap watch.Snapshot, revision string) {
	if revision == "" {
		fmt.Println("No state stored yet.")
		return
	}

	lastCheck := "never"
	if !snap.LastCheckAt.IsZero() {
		lastCheck = snap.LastCheckAt.Local().Format("2006-01-02 15:04:05")
	}
	fmt.Printf("Revision:   %s\n", revision)
	fmt.Printf("Last check: %s\n", lastCheck)
	fmt.Printf("Seen files: %d\n", len(snap.Seen))

	ids := make([]string, 0, len(snap.Seen))
	for id := range snap.Seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return snap.Seen[ids[i]].NotifiedAt.After(snap.Seen[ids[j]].NotifiedAt)
	})

	for _, id := range ids {
		rec := snap.Seen[id]
		expires := rec.NotifiedAt.Add(watch.RetentionWindow)
		fmt.Printf("  %s  %-25s  %-30s  expires %s\n",
			rec.NotifiedAt.Local().Format("2006-01-02 15:04"),
			rec.OwnerName,
			rec.Name,
			expires.Local().Format("2006-01-02"),
		)
	}
}

var stateResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget all notified files",
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return errors.New("reset re-sends notifications for every file on the next check; pass --yes to confirm")
		}

		a, _, err := newApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.ResetState(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("State reset.")
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View recent runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, _, err := newApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.History(limit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}

		for _, r := range runs {
			duration := ""
			if r.FinishedAt != nil {
				duration = r.FinishedAt.Sub(r.StartedAt).Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-17s  %s  %-8s  %4d checked  %3d new  %-10s  %s\n",
				r.ID,
				r.Operation,
				r.StartedAt.Local().Format("2006-01-02 15:04:05"),
				r.Status,
				r.FilesChecked,
				r.NewFiles,
				duration,
				r.Message,
			)
		}
		return nil
	},
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

		cfg := config.NewConfig(defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		fmt.Println("Set AZURE_TENANT_ID, AZURE_CLIENT_ID, AZURE_CLIENT_SECRET and SLACK_WEBHOOK_URL before running 'folderwatch check'.")
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig()
		if err != nil {
			return err
		}

		fmt.Printf("Configuration from %s:\n\n", path)
		fmt.Printf("Base Dir:      %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:       %s\n", cfg.LogDir)
		fmt.Printf("Drive:         %s (root %q, suffix %q)\n", cfg.Drive.Type, cfg.Drive.RootName, cfg.Drive.TargetSuffix)
		fmt.Printf("Exclude:       %v\n", cfg.Drive.Exclude)
		fmt.Printf("Notifier:      %s\n", cfg.Notifier.Type)
		fmt.Printf("State store:   %s\n", cfg.State.Type)
		fmt.Printf("Database:      %s\n", cfg.Database.Type)
		fmt.Printf("Encryption:    %s\n", cfg.Encryption.Type)
		fmt.Printf("Listen:        %s\n", cfg.Server.ListenAddr)
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage state encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the key pair used to encrypt stored state",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}

		enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
		if err != nil {
			return err
		}
		if enc == nil {
			return errors.New("encryption type is \"none\"; set [encryption] type = \"age\" first")
		}
		if enc.IsConfigured() {
			return errors.New("encryption keys already exist")
		}

		passphrase, err := readNewPassphrase(cfg.Encryption.PassphraseEnv)
		if err != nil {
			return err
		}

		if err := enc.Setup(passphrase); err != nil {
			return fmt.Errorf("generating keys: %w", err)
		}

		fmt.Printf("Keys written to %s and %s\n", cfg.Encryption.PublicKeyPath, cfg.Encryption.PrivateKeyPath)
		return nil
	},
}

// readNewPassphrase prompts twice on a terminal, or falls back to the
// passphrase environment variable when stdin is not a terminal.
func readNewPassphrase(envName string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return encryption.EnvPassphrase(envName)()
	}

	fmt.Fprint(os.Stderr, "Passphrase: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}

	fmt.Fprint(os.Stderr, "Confirm passphrase: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}

	if string(first) != string(second) {
		return "", errors.New("passphrases do not match")
	}
	if len(first) == 0 {
		return "", errors.New("passphrase must not be empty")
	}
	return string(first), nil
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug output")

	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().Bool("print-state", false, "Print the new serialized state instead of a summary")

	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", "", "Listen address (overrides server.listen_addr)")
	serveCmd.Flags().String("interval", "", "Run a check every interval, e.g. 15m (overrides server.interval)")

	rootCmd.AddCommand(testNotificationCmd)

	stateCmd.AddCommand(stateShowCmd)
	stateShowCmd.Flags().Bool("json", false, "Print the snapshot as JSON")
	stateCmd.AddCommand(stateResetCmd)
	stateResetCmd.Flags().Bool("yes", false, "Confirm the reset")
	rootCmd.AddCommand(stateCmd)

	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of runs to show")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	rootCmd.AddCommand(configCmd)

	keysCmd.AddCommand(keysInitCmd)
	rootCmd.AddCommand(keysCmd)
}
