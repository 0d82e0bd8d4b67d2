package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"coursesniper/internal/browser"
	"coursesniper/internal/extract"
	"coursesniper/internal/locate"
	"coursesniper/internal/schedule"
	"coursesniper/internal/supervisor"
	"coursesniper/internal/terminal"
	"coursesniper/internal/timesync"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := execute(ctx, newRootCmd())
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// printedError marks an error the run has already shown the operator.
type printedError struct{ err error }

func (e printedError) Error() string { return e.err.Error() }

func (e printedError) Unwrap() error { return e.err }

// execute runs cmd and prints any error the command did not print itself.
func execute(ctx context.Context, cmd *cobra.Command) error {
	err := cmd.ExecuteContext(ctx)
	var printed printedError
	if err != nil && !errors.As(err, &printed) {
		cmd.PrintErrln("Error:", err)
	}
	return err
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		flags      Flags
		snipers    int
	)

	cmd := &cobra.Command{
		Use:   "coursesniper",
		Short: "Registers for courses in your shopping cart the moment registration opens",
		Args:  cobra.NoArgs,
		// execute prints errors.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if err := InitLocale(); err != nil {
				slog.Warn("locale initialization failed, using message keys", "error", err)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("snipers") {
				flags.Snipers = &snipers
			}
			return runSniper(cmd.Context(), cmd.ErrOrStderr(), configPath, flags)
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	cmd.Flags().BoolVarP(&flags.Detached, "detached", "d", false, "Run the browser without a window")
	cmd.Flags().IntVarP(&snipers, "snipers", "s", 0, fmt.Sprintf("Number of snipers (%d-%d)", MinSnipers, MaxSnipers))
	cmd.Flags().StringVar(&flags.At, "at", "", `Registration time, e.g. "9:30 AM" (skips the prompt)`)
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "Test mode: select courses but stop before submitting")
	cmd.Flags().BoolVar(&flags.Debug, "debug", false, "Enable detailed debug logging")

	cmd.AddCommand(newInspectCmd(&configPath))
	return cmd
}

func setupLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
	}))
	slog.SetDefault(logger)
	return logger
}

func runSniper(ctx context.Context, stderr io.Writer, configPath string, flags Flags) error {
	// Check for user data directory permission issues (after locale is loaded)
	checkUserDataDirPermissions()

	config, err := LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return printedError{err}
	}
	if err := config.ApplyFlags(flags); err != nil {
		return err
	}
	if err := config.Validate(); err != nil {
		fmt.Fprintf(stderr, "Invalid configuration: %v\n", err)
		return printedError{err}
	}

	log := setupLogger(config.DebugMode)
	set, _ := config.SelectorSet()
	preset, _ := config.PresetTime()

	printBanner(config)

	prompter := terminal.DefaultPrompter()
	fmt.Println(T("step_credentials"))
	username, password, err := prompter.Credentials()
	if err != nil {
		if errors.Is(err, terminal.ErrCancelled) {
			fmt.Fprintln(stderr, T("cancelled"))
			return printedError{err}
		}
		return err
	}

	var clock schedule.Clock = schedule.SystemClock{}
	if config.TimeSync {
		fmt.Printf(T("step_time_sync")+"\n", len(config.TimeSyncServers))
		ts := timesync.New(config.TimeSyncServers, log)
		if err := ts.Sync(ctx); err != nil {
			fmt.Printf(T("time_sync_failed")+"\n", err)
		} else {
			fmt.Printf(T("time_sync_done")+"\n", ts.Offset())
			clock = ts
			go keepSynced(ctx, ts, log)
		}
	}

	fmt.Println(T("step_browser"))
	session, err := browser.Launch(ctx, browser.Config{
		Headless:   config.Headless,
		ProfileDir: config.BrowserProfilePath,
		Bin:        config.BrowserBin,
		Logger:     log,
	})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return printedError{err}
	}
	succeeded := false
	defer func() {
		if succeeded && config.KeepBrowserOpen {
			fmt.Println(T("keeping_browser_open"))
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
			}
		}
		session.Close()
	}()
	session.Drain(ctx)

	console := &terminal.Console{Out: os.Stdout, Spin: os.Stderr, Clock: clock}
	locator := locate.New(config.LocateTimeout(), config.LocateInterval(), log)
	sup := &supervisor.Supervisor{
		Page:      session.Page(),
		Selectors: set,
		Locator:   locator,
		Extractor: extract.New(set, locator, config.ExtractConcurrency, log),
		Sequencer: &schedule.Sequencer{
			Locator:       locator,
			Selectors:     set,
			Clock:         clock,
			PollInterval:  config.FirePollInterval(),
			SubmitControl: config.SubmitControl,
			DryRun:        config.DryRun,
			Logger:        log,
			OnWait:        console.Waiting,
		},
		Operator:    prompter,
		Reporter:    console,
		PresetTime:  preset,
		ResultsWait: config.ResultsWait(),
		DebugDir:    config.DebugDir,
		Logger:      log,
	}

	fmt.Println(T("step_run"))
	report, err := sup.Run(ctx, supervisor.Credentials{Username: username, Password: password})
	if err != nil {
		var se *supervisor.StageError
		if errors.As(err, &se) {
			fmt.Fprintf(stderr, T("run_failed")+"\n", se.Stage, se.Err)
			for _, path := range se.Captures {
				fmt.Fprintf(stderr, T("capture_saved")+"\n", path)
			}
		} else {
			fmt.Fprintln(stderr, err)
		}
		return printedError{err}
	}

	succeeded = true
	fmt.Println()
	if report.State() == supervisor.ResultsCaptured {
		fmt.Println(T("run_complete"))
	} else {
		fmt.Println(T("run_dry_complete"))
	}
	return nil
}

// keepSynced refreshes the clock offset while the run waits.
func keepSynced(ctx context.Context, ts *timesync.TimeSync, log *slog.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !ts.ShouldResync() {
				continue
			}
			if err := ts.Sync(ctx); err != nil {
				log.Warn("clock resync failed, keeping previous offset", "error", err)
			}
		}
	}
}

func printBanner(config *Config) {
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Printf("║ %-57s ║\n", T("banner_title"))
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf(T("portal_line")+"\n", config.PortalURL)
	fmt.Printf(T("browser_profile_line")+"\n", config.BrowserProfilePath)
	fmt.Printf(T("submit_control_line")+"\n", config.SubmitControl)

	if config.Headless {
		fmt.Println(T("detached_mode"))
	}
	if config.DryRun {
		fmt.Println(T("dry_run_mode"))
	}
	if config.DebugMode {
		fmt.Println(T("debug_mode"))
	}
	if config.Snipers > 1 {
		fmt.Printf(T("snipers_not_wired")+"\n", config.Snipers)
	}
	fmt.Println()
}

// Store init error for later display (after locale is loaded)
var initUserDataDirError error

func init() {
	userDataDir := getUserDataDir()
	if err := os.MkdirAll(userDataDir, 0755); err != nil {
		initUserDataDirError = err
	}
}

func checkUserDataDirPermissions() {
	if initUserDataDirError != nil {
		userDataDir := getUserDataDir()
		// Check if this is a macOS permission issue
		if runtime.GOOS == "darwin" && strings.Contains(initUserDataDirError.Error(), "operation not permitted") {
			fmt.Println(T("error_macos_permission_header"))
			fmt.Printf(T("error_macos_permission_location"), userDataDir)
			fmt.Println(T("error_macos_permission_fix_instructions"))
			fmt.Println(T("error_macos_permission_step1"))
			fmt.Println(T("error_macos_permission_step2"))
			fmt.Println(T("error_macos_permission_step3"))
			fmt.Println(T("error_macos_permission_step4"))
			fmt.Println(T("error_macos_permission_alternative"))
			fmt.Println()
		}
		slog.Warn(fmt.Sprintf(T("error_macos_user_data_dir_warning"), initUserDataDirError))
	}
}

func getUserDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./coursesniper-data"
	}
	return filepath.Join(home, ".coursesniper")
}
