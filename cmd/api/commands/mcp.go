package commands

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/taskmaster/todo/internal/adapters/mcpserver"
	"github.com/taskmaster/todo/internal/infrastructure/config"
)

// NewMCPCommand serves the Model Context Protocol over stdin/stdout
func NewMCPCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve to-do tools, resources and prompts over MCP (stdio)",
		Long: "Expose get_all_todos, search_todos, get_all_users, the " + mcpserver.AllTodosURI +
			" resource and the remain_todos prompt to an MCP client on stdin/stdout.\n" +
			"No authentication is applied; run it only as a local subprocess of the client.",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap(cmd, logsOffStdout)
			if err != nil {
				return err
			}
			defer rt.Close()

			s := mcpserver.New(rt.taskService(), rt.userService(), Version, rt.logger)
			rt.logger.Infow("MCP server listening on stdio", "storage", rt.cfg.Database.Driver)

			return server.NewStdioServer(s).Listen(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// logsOffStdout moves console logging to stderr; stdout carries the protocol.
func logsOffStdout(cfg *config.Config) {
	if cfg.Logger.Output != "file" {
		cfg.Logger.Output = "stderr"
	}
}
