package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/vikashrahii/pipeline"
	"github.com/vikashrahii/pipeline/internal/adapters/file"
	"github.com/vikashrahii/pipeline/internal/presentation/tui"
	"github.com/vikashrahii/pipeline/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Re-render a pipeline graph every time the file changes",
	Long: `Watches a pipeline graph file and prints every text node's variables, ports and
size after each save. With --submit, the graph is also sent to the validator.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		doSubmit, _ := cmd.Flags().GetBool("submit")
		debounce, _ := cmd.Flags().GetDuration("debounce")
		out := cmd.OutOrStdout()
		printer := tui.NewPrinterWithWriter(out, isTerminal(cmd))

		onChange := func(ctx context.Context, path string) error {
			g, err := file.LoadGraph(path)
			if err != nil {
				return err
			}
			editor := pipeline.New(
				pipeline.WithValidatorEndpoint(cfg.Validator.Endpoint),
				pipeline.WithNotifier(printer),
				pipeline.WithLogger(logger),
			)
			if err := editor.Load(ctx, g); err != nil {
				return err
			}
			if err := printTextNodes(ctx, out, printer, editor); err != nil {
				return err
			}
			if doSubmit {
				// Failures were already surfaced through the notifier.
				_, _ = editor.SubmitAndNotify(ctx)
			}
			return nil
		}

		w, err := watch.New(args[0], onChange, watch.WithDebounce(debounce), watch.WithLogger(logger))
		if err != nil {
			return err
		}
		if printer.Rich() {
			tui.PrintBanner(out)
		}
		return w.Run(cmd.Context())
	},
}

func printTextNodes(ctx context.Context, out io.Writer, printer *tui.Printer, editor *pipeline.Editor) error {
	for _, id := range editor.Canvas().TextNodes() {
		view, err := editor.View(id)
		if err != nil {
			return err
		}
		summary, _ := editor.Summary(id)
		if err := printer.PrintView(view, summary); err != nil {
			return err
		}
		dangling, err := editor.DanglingEdges(ctx, id)
		if err != nil {
			return err
		}
		for _, e := range dangling {
			fmt.Fprintf(out, "dangling edge %s -> %s\n", e.ID, e.TargetHandle)
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().Bool("submit", false, "Submit the graph to the validator after each change")
	watchCmd.Flags().Duration("debounce", watch.DefaultDebounce, "Quiet period after the last change")
}
