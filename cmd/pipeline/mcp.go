package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vikashrahii/pipeline"
	"github.com/vikashrahii/pipeline/pkg/adapters/mcp"
	"github.com/vikashrahii/pipeline/pkg/submit"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the pipeline editor as MCP tools: extract_variables, preview_node,
edit_node, get_pipeline and submit_pipeline.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")
		ctx := cmd.Context()

		storeOpts, closeStore, err := storeOptions(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeStore()

		// stdout belongs to the protocol.
		opts := append(storeOpts,
			pipeline.WithValidatorEndpoint(cfg.Validator.Endpoint),
			pipeline.WithNotifier(submit.WriterNotifier{W: os.Stderr}),
			pipeline.WithLogger(logger),
		)
		srv := mcp.NewServer(pipeline.New(opts...), logger)

		switch transport {
		case "stdio":
			return srv.ServeStdio()
		case "sse":
			addr := fmt.Sprintf(":%d", port)
			return srv.ServeSSE(ctx, addr, fmt.Sprintf("http://localhost:%d", port))
		default:
			return fmt.Errorf("unknown transport %q (want stdio or sse)", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("transport", "stdio", "Transport: stdio or sse")
	mcpCmd.Flags().Int("port", 8081, "Port for the sse transport")
}
