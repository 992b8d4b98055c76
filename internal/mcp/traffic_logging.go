package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const maxLoggedPayload = 2048

// trafficLoggingMiddleware logs every request/response pair at debug
// level. Tool calls additionally get the tool name and, where the
// arguments carry one, the encounter session ID, so a transcript of a
// whole encounter can be reassembled from the log.
func trafficLoggingMiddleware(logger *slog.Logger, direction string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if logger == nil || !logger.Enabled(ctx, slog.LevelDebug) {
				return next(ctx, method, req)
			}

			attrs := []any{"direction", direction, "method", method}
			if tool, encID := callDetails(req); tool != "" {
				attrs = append(attrs, "tool", tool)
				if encID != "" {
					attrs = append(attrs, "encounter_id", encID)
				}
			}

			logger.Debug("rpc request", append(attrs, "params", renderPayload(requestParams(req)))...)

			started := time.Now()
			result, err := next(ctx, method, req)
			if strings.HasPrefix(method, "notifications/") {
				return result, err
			}

			attrs = append(attrs, "elapsed", time.Since(started))
			if err != nil {
				logger.Debug("rpc response", append(attrs, "error", err)...)
			} else {
				logger.Debug("rpc response", append(attrs, "result", renderPayload(result))...)
			}
			return result, err
		}
	}
}

// callDetails pulls the tool name and session_id argument out of a
// tools/call request. It goes through JSON rather than the concrete
// params type so it works for both raw and typed variants; anything
// unexpected yields empty strings.
func callDetails(req sdkmcp.Request) (tool, encounterID string) {
	params := requestParams(req)
	if params == nil {
		return "", ""
	}
	data, err := json.Marshal(params)
	if err != nil {
		return "", ""
	}
	var call struct {
		Name      string `json:"name"`
		Arguments struct {
			SessionID string `json:"session_id"`
		} `json:"arguments"`
	}
	if err := json.Unmarshal(data, &call); err != nil {
		return "", ""
	}
	return call.Name, call.Arguments.SessionID
}

func requestParams(req sdkmcp.Request) any {
	if req == nil {
		return nil
	}
	defer func() { recover() }()
	return req.GetParams()
}

func renderPayload(payload any) string {
	if payload == nil {
		return "<nil>"
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%T", payload)
	}
	if len(data) > maxLoggedPayload {
		return string(data[:maxLoggedPayload]) + "...(truncated)"
	}
	return string(data)
}
