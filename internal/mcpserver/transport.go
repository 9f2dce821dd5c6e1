package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"
)

// ServeStdio runs s over stdio, the default transport per spec.md's
// "stdio ... framed per MCP" contract.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

// ServeHTTP runs s over mcp-go's streamable-HTTP transport on addr, the
// expansion transport supplementing the distilled spec's stdio-only
// contract.
func ServeHTTP(s *server.MCPServer, addr string) error {
	httpServer := server.NewStreamableHTTPServer(s)
	return httpServer.Start(addr)
}
