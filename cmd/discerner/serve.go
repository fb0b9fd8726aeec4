// SPDX-License-Identifier: Apache-2.0

package main

import (
	"log/slog"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/beaucronin/image-discerner/internal/tool"
)

func newServeCommand(rulesFlag, operatorsFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the fusion engine as an MCP tool server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := buildEngine(*rulesFlag, *operatorsFlag)
			if err != nil {
				return err
			}

			// stdout carries the MCP transport; logs go to stderr.
			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
			logger.Info("fusion engine ready",
				"rules", eng.library.Len(),
				"operators", len(eng.operators),
				"provider", eng.cfg.Provider)

			analyzer := tool.NewAnalyzer(eng.library, eng.operators, eng.cfg.Provider)

			server := mcp.NewServer(&mcp.Implementation{
				Name:    "image-discerner",
				Version: version,
			}, nil)
			mcp.AddTool(server, tool.MetadataAnalyzeScene, analyzer.AnalyzeScene)
			mcp.AddTool(server, tool.MetadataListPatterns, analyzer.ListPatterns)

			return server.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}
