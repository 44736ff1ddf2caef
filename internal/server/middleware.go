package server

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/thegrumpylion/gmail-manager/internal/logging"
)

const methodCallTool = "tools/call"

// instrument logs and measures tools/call requests. Other methods pass
// through untouched.
func (s *Server) instrument(next mcp.MethodHandler) mcp.MethodHandler {
	return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
		if method != methodCallTool {
			return next(ctx, method, req)
		}

		tool := "unknown"
		if ctr, ok := req.(*mcp.CallToolRequest); ok && ctr.Params != nil {
			tool = ctr.Params.Name
		}

		start := time.Now()
		res, err := next(ctx, method, req)
		elapsed := time.Since(start)

		status := logging.StatusSuccess
		if err != nil {
			status = logging.StatusError
		} else if r, ok := res.(*mcp.CallToolResult); ok && r.IsError {
			status = logging.StatusError
		}

		if s.metrics != nil {
			s.metrics.ObserveToolCall(tool, status, elapsed)
		}
		s.logger.Info("tool call",
			logging.Tool(tool),
			logging.Status(status),
			logging.Duration(elapsed),
			logging.Err(err),
		)
		return res, err
	}
}
