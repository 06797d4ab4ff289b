package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ansa/internal/adapters/driving/mcp"
)

var mcpHTTPAddr string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose the knowledge base over the Model Context Protocol",
	Long: `Expose the knowledge base to MCP clients as the "ask", "index_document"
and "status" tools plus browsable document resources.

Without flags the server speaks JSON-RPC over stdio, the transport
assistant hosts use to spawn it. Pass --http to listen on a streamable
HTTP endpoint instead, e.g. for the MCP Inspector or a remote client:

  ansa mcp                 # stdio, for an assistant host
  ansa mcp --http :8081    # HTTP, for Inspector or remote use

A typical host entry spawning the stdio server:

  {
    "mcpServers": {
      "ansa": {"command": "/path/to/ansa", "args": ["mcp"]}
    }
  }`,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpHTTPAddr, "http", "", "HTTP listen address (empty = stdio)")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	server, err := mcp.NewServer(&mcp.Ports{
		Query: queryService,
		Index: indexService,
		Admin: adminService,
	})
	if err != nil {
		return err
	}

	if mcpHTTPAddr != "" {
		cmd.Printf("MCP server listening on %s\n", mcpHTTPAddr)
		return server.RunHTTP(cmd.Context(), mcpHTTPAddr)
	}
	return server.Run(cmd.Context())
}
