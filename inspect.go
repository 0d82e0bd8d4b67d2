package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"coursesniper/internal/extract"
	"coursesniper/internal/locate"
	"coursesniper/internal/page"
	"coursesniper/internal/selectors"
	"coursesniper/internal/terminal"
)

// inspectTimeout is short because a saved page never changes.
const inspectTimeout = 50 * time.Millisecond

func newInspectCmd(configPath *string) *cobra.Command {
	var results bool

	cmd := &cobra.Command{
		Use:   "inspect <page.html>",
		Short: "Extract carts and courses (or results) from a saved portal page",
		Long: "Runs the extractor against a saved page, such as a debug-*.html capture,\n" +
			"using the selectors from the config file. No browser is started.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := inspectSelectors(*configPath)
			if err != nil {
				return err
			}
			return inspectPage(cmd.Context(), cmd.OutOrStdout(), set, args[0], results)
		},
	}
	cmd.Flags().BoolVar(&results, "results", false, "Read the registration results listing instead of the cart")
	return cmd
}

// inspectSelectors loads the catalog from the config file without creating
// one when it is missing.
func inspectSelectors(configPath string) (selectors.Set, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return selectors.Default(), nil
	}
	config, err := LoadConfig(configPath)
	if err != nil {
		return selectors.Set{}, err
	}
	set, err := config.SelectorSet()
	if err != nil {
		return selectors.Set{}, err
	}
	return set, set.Validate()
}

func inspectPage(ctx context.Context, out io.Writer, set selectors.Set, path string, results bool) error {
	p, err := page.LoadStatic(path)
	if err != nil {
		return err
	}

	log := slog.Default()
	x := extract.New(set, locate.New(inspectTimeout, 0, log), 0, log)
	console := &terminal.Console{Out: out}

	if results {
		rows, err := x.Results(ctx, p)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, T("results_header"))
		console.Results(rows)
		return nil
	}

	carts, err := x.Carts(ctx, p)
	switch {
	case errors.Is(err, locate.ErrNotFound):
		fmt.Fprintln(out, T("inspect_carts_none"))
	case err != nil:
		return err
	default:
		fmt.Fprintln(out, T("carts_header"))
		console.Carts(carts)
	}

	courses, err := x.Courses(ctx, p)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, T("courses_header"))
	console.Courses(courses)
	return nil
}
