package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"coursesniper/internal/portaltest"
	"coursesniper/internal/selectors"
)

func TestGetUserDataDir(t *testing.T) {
	dir := getUserDataDir()

	if dir == "" {
		t.Fatal("getUserDataDir returned empty string")
	}

	if dir == "./coursesniper-data" {
		// Fallback path is acceptable
		return
	}

	if !strings.Contains(dir, ".coursesniper") {
		t.Errorf("Expected directory to contain '.coursesniper', got '%s'", dir)
	}

	if !filepath.IsAbs(dir) {
		t.Errorf("Expected absolute path, got '%s'", dir)
	}
}

func TestGetUserDataDirCreatesDirectory(t *testing.T) {
	dir := getUserDataDir()

	info, err := os.Stat(dir)
	if err != nil {
		t.Logf("Note: User data directory doesn't exist yet: %v", err)
		return
	}

	if !info.IsDir() {
		t.Errorf("Expected %s to be a directory", dir)
	}
}

func TestRootCommandFlags(t *testing.T) {
	cmd := newRootCmd()

	if err := cmd.ParseFlags([]string{"-d", "-s", "5", "--at", "9:30 AM", "--dry-run", "--config", "other.yaml"}); err != nil {
		t.Fatalf("Failed to parse flags: %v", err)
	}

	checks := map[string]string{
		"detached": "true",
		"snipers":  "5",
		"at":       "9:30 AM",
		"dry-run":  "true",
		"debug":    "false",
		"config":   "other.yaml",
	}
	for name, want := range checks {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			t.Errorf("Expected flag --%s to exist", name)
			continue
		}
		if got := flag.Value.String(); got != want {
			t.Errorf("Expected --%s to be '%s', got '%s'", name, want, got)
		}
	}

	if sub, _, err := cmd.Find([]string{"inspect"}); err != nil || sub.Name() != "inspect" {
		t.Errorf("Expected inspect subcommand, got %v, %v", sub, err)
	}
}

func runRoot(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = execute(context.Background(), cmd)
	return out.String(), errOut.String(), err
}

func TestCommandErrorsAreReported(t *testing.T) {
	missingConfig := filepath.Join(t.TempDir(), "config.yaml")

	testCases := []struct {
		name string
		args []string
		want string
	}{
		{"bad flag value", []string{"--snipers", "abc"}, "abc"},
		{"unknown flag", []string{"--sniper", "3"}, "sniper"},
		{"inspect missing page", []string{"inspect", "--config", missingConfig, filepath.Join(t.TempDir(), "none.html")}, "none.html"},
		{"inspect without page", []string{"inspect"}, "arg"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, stderr, err := runRoot(t, tc.args...)
			if err == nil {
				t.Fatal("Expected an error")
			}
			if !strings.Contains(stderr, tc.want) {
				t.Errorf("Expected stderr to mention '%s', got '%s'", tc.want, stderr)
			}
		})
	}
}

func TestPrintedErrorsAreNotRepeated(t *testing.T) {
	var errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetErr(&errOut)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.ErrOrStderr(), "already shown")
		return printedError{errors.New("already shown")}
	}
	cmd.SetArgs([]string{})

	err := execute(context.Background(), cmd)
	if err == nil {
		t.Fatal("Expected the run error back")
	}
	if got := strings.Count(errOut.String(), "already shown"); got != 1 {
		t.Errorf("Expected the error once, got %d times:\n%s", got, errOut.String())
	}
}

func TestZeroSnipersFlagIsRejected(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	_, stderr, err := runRoot(t, "--config", configPath, "-s", "0")
	if err == nil {
		t.Fatal("Expected --snipers 0 to fail validation")
	}
	if !strings.Contains(stderr, "snipers must be between") {
		t.Errorf("Expected a snipers range error, got '%s'", stderr)
	}
}

func TestInspectCommandTranslatesOutput(t *testing.T) {
	t.Setenv("LANG", "en_US.UTF-8")
	originalLocale := globalLocale
	globalLocale = nil
	defer func() {
		globalLocale = originalLocale
	}()

	path := writePage(t, portaltest.CartPage(0, portaltest.ThreeRows()...))
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	stdout, stderr, err := runRoot(t, "inspect", "--config", configPath, path)
	if err != nil {
		t.Fatalf("inspect failed: %v\n%s", err, stderr)
	}
	for _, want := range []string{"No shopping carts on this page.", "Courses in your cart:"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("Expected output to contain '%s'\n%s", want, stdout)
		}
	}
	if strings.Contains(stdout, "inspect_carts_none") || strings.Contains(stdout, "courses_header") {
		t.Errorf("Expected translated output, got message keys\n%s", stdout)
	}
}

func writePage(t *testing.T, html string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "debug-09:30:00.000.html")
	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		t.Fatalf("Failed to write page: %v", err)
	}
	return path
}

func TestInspectCartPage(t *testing.T) {
	t.Setenv("LANG", "en_US.UTF-8")
	originalLocale := globalLocale
	defer func() {
		globalLocale = originalLocale
	}()
	if err := InitLocale(); err != nil {
		t.Fatalf("InitLocale failed: %v", err)
	}

	path := writePage(t, portaltest.CartPage(0, portaltest.ThreeRows()...))

	var out bytes.Buffer
	if err := inspectPage(context.Background(), &out, selectors.Default(), path, false); err != nil {
		t.Fatalf("inspect failed: %v", err)
	}

	got := out.String()
	for _, want := range []string{"CS 170 Intro to Computer Science", "MATH 221 Linear Algebra", "Wait List", "Closed", "Open"} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected output to contain '%s'\n%s", want, got)
		}
	}
	if !strings.Contains(got, "No shopping carts on this page.") {
		t.Errorf("Expected a note that the page has no carts\n%s", got)
	}
}

func TestInspectResultsPage(t *testing.T) {
	rows := portaltest.ThreeRows()
	rows[0].Message = "Enrolled."
	path := writePage(t, portaltest.ResultsPage(rows[0]))

	var out bytes.Buffer
	if err := inspectPage(context.Background(), &out, selectors.Default(), path, true); err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	if !strings.Contains(out.String(), "Enrolled.") {
		t.Errorf("Expected result message in output\n%s", out.String())
	}
}

func TestInspectStructuralMismatch(t *testing.T) {
	rows := portaltest.ThreeRows()
	rows[1].Omit = []string{"instructor"}
	path := writePage(t, portaltest.CartPage(0, rows...))

	var out bytes.Buffer
	err := inspectPage(context.Background(), &out, selectors.Default(), path, false)
	if err == nil || !strings.Contains(err.Error(), "instructor") {
		t.Errorf("Expected structural error naming the instructor field, got %v", err)
	}
}

func TestInspectSelectorsWithoutConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")

	set, err := inspectSelectors(path)
	if err != nil {
		t.Fatalf("inspectSelectors failed: %v", err)
	}
	if set != selectors.Default() {
		t.Error("Expected the default catalog when no config exists")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("inspect should not create a config file")
	}
}
