package main

import (
	"context"
	"os"

	"github.com/jingkaihe/skillrunner/pkg/logger"
	"github.com/jingkaihe/skillrunner/pkg/mcp"
	"github.com/jingkaihe/skillrunner/pkg/presenter"
	"github.com/jingkaihe/skillrunner/pkg/version"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol integration",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve load_skill and execute_command over MCP stdio",
	Long: `Start an MCP (Model Context Protocol) server on standard input and output, exposing the
same load_skill and execute_command tools the built-in agent uses. Logs go to standard error.`,
	Run: func(cmd *cobra.Command, _ []string) {
		if err := runMCPServe(cmd.Context()); err != nil {
			presenter.Error(err, "MCP server failed")
			os.Exit(1)
		}
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
}

func runMCPServe(ctx context.Context) error {
	logger.SetLogOutput(os.Stderr)

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	srv, err := mcp.NewServer(a.tools, version.Get().Version)
	if err != nil {
		return err
	}

	logger.G(ctx).WithField("tools", a.tools.Names()).Info("serving MCP over stdio")
	return mcp.ServeStdio(ctx, srv, os.Stdin, os.Stdout)
}
