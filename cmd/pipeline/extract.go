package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vikashrahii/pipeline/pkg/template"
)

var extractCmd = &cobra.Command{
	Use:   "extract [text]",
	Short: "List the variables referenced in a template text",
	Long:  `Prints each distinct {{variable}} in order of first appearance. Reads stdin when no text is given.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var text string
		if len(args) == 1 {
			text = args[0]
		} else {
			b, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
			text = string(b)
		}

		vars := template.ExtractVariables(text)
		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return json.NewEncoder(out).Encode(vars)
		}
		if len(vars) > 0 {
			fmt.Fprintln(out, strings.Join(vars, "\n"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().Bool("json", false, "Print the variables as a JSON array")
}
