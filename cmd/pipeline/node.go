package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"github.com/vikashrahii/pipeline"
	"github.com/vikashrahii/pipeline/internal/presentation/tui"
	"github.com/vikashrahii/pipeline/pkg/domain"
)

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Reconcile a text node and show its ports and size",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		id, _ := cmd.Flags().GetString("id")
		text, _ := cmd.Flags().GetString("text")
		ctx := cmd.Context()

		editor := pipeline.New(pipeline.WithLogger(logger))
		if _, err := editor.AddTextNode(ctx, id, domain.Position{}); err != nil {
			return err
		}
		view, err := editor.EditText(ctx, id, text)
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(view)
		}
		summary, _ := editor.Summary(id)
		return tui.NewPrinterWithWriter(cmd.OutOrStdout(), isTerminal(cmd)).PrintView(view, summary)
	},
}

func init() {
	rootCmd.AddCommand(nodeCmd)
	nodeCmd.Flags().String("id", "text-1", "Node id")
	nodeCmd.Flags().String("text", "{{input}}", "Template text")
	nodeCmd.Flags().Bool("json", false, "Print the view as JSON")
}
