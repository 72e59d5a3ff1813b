package main

import (
	"github.com/spf13/cobra"
	"github.com/vikashrahii/pipeline"
	"github.com/vikashrahii/pipeline/internal/adapters/file"
	"github.com/vikashrahii/pipeline/internal/presentation/tui"
)

var submitCmd = &cobra.Command{
	Use:   "submit <file>",
	Short: "Submit a pipeline graph to the validator",
	Long: `Loads a pipeline graph (JSON or YAML), reconciles its text nodes and posts it to
the validator. Prints the analysis, or a single error notice when the submission fails.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		g, err := file.LoadGraph(args[0])
		if err != nil {
			return err
		}

		printer := tui.NewPrinterWithWriter(cmd.OutOrStdout(), isTerminal(cmd))
		editor := pipeline.New(
			pipeline.WithValidatorEndpoint(cfg.Validator.Endpoint),
			pipeline.WithNotifier(printer),
			pipeline.WithLogger(logger),
		)
		if err := editor.Load(cmd.Context(), g); err != nil {
			return err
		}

		// The notice already told the user; the exit status carries the failure.
		_, err = editor.SubmitAndNotify(cmd.Context())
		return err
	},
}

func init() {
	rootCmd.AddCommand(submitCmd)
}
