package mcp

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Bridge is a stateless JSON-RPC endpoint in front of the SDK server.
// Every POST body is relayed over a fresh in-memory connection, so
// clients that cannot hold a streaming MCP session (curl, simple HTTP
// integrations, the test harness) can still call tools one request at
// a time. Encounter state lives in the session store, not the MCP
// connection, so statelessness costs nothing here.
type Bridge struct {
	server *sdkmcp.Server
	logger *slog.Logger
}

// NewHTTPHandler wraps the SDK server in a Bridge.
func NewHTTPHandler(server *sdkmcp.Server, logger *slog.Logger) http.Handler {
	return &Bridge{server: server, logger: logger}
}

type rpcEnvelope struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      any             `json:"id,omitempty"`
}

type rpcReply struct {
	JSONRPC string    `json:"jsonrpc"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
	ID      any       `json:"id,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var env rpcEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		b.reply(w, rpcReply{JSONRPC: "2.0", Error: &rpcError{Code: -32700, Message: "Parse error"}})
		return
	}
	if env.Method == "" {
		b.reply(w, rpcReply{JSONRPC: "2.0", ID: env.ID, Error: &rpcError{Code: -32600, Message: "Invalid request: missing method"}})
		return
	}

	msg, err := b.relay(r, env)
	if err != nil {
		if b.logger != nil {
			b.logger.Error("bridge relay failed", "method", env.Method, "error", err)
		}
		b.reply(w, rpcReply{JSONRPC: "2.0", ID: env.ID, Error: &rpcError{Code: -32603, Message: fmt.Sprintf("Internal error: %v", err)}})
		return
	}

	out := rpcReply{JSONRPC: "2.0", Result: msg.Result, ID: msg.ID.Raw()}
	if msg.Error != nil {
		if we, ok := msg.Error.(*jsonrpc.Error); ok {
			out.Error = &rpcError{Code: int(we.Code), Message: we.Message, Data: we.Data}
		} else {
			out.Error = &rpcError{Code: -32603, Message: msg.Error.Error()}
		}
	}
	b.reply(w, out)
}

// relay runs one message through a throwaway in-memory connection and
// waits for the server's answer.
func (b *Bridge) relay(r *http.Request, env rpcEnvelope) (*jsonrpc.Response, error) {
	serverSide, clientSide := sdkmcp.NewInMemoryTransports()

	session, err := b.server.Connect(r.Context(), serverSide, nil)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer session.Close()

	conn, err := clientSide.Connect(r.Context())
	if err != nil {
		return nil, fmt.Errorf("connect client: %w", err)
	}
	defer conn.Close()

	id, err := jsonrpc.MakeID(env.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid id: %w", err)
	}

	// A fresh connection must complete the MCP initialization handshake
	// before any other method is accepted.
	if env.Method != "initialize" {
		if err := b.handshake(r, conn); err != nil {
			return nil, err
		}
	}

	if err := conn.Write(r.Context(), &jsonrpc.Request{
		ID:     id,
		Method: env.Method,
		Params: env.Params,
	}); err != nil {
		return nil, fmt.Errorf("send: %w", err)
	}

	msg, err := conn.Read(r.Context())
	if err != nil {
		return nil, fmt.Errorf("receive: %w", err)
	}
	resp, ok := msg.(*jsonrpc.Response)
	if !ok {
		return nil, fmt.Errorf("unexpected message type %T", msg)
	}
	return resp, nil
}

// handshake runs the initialize exchange the SDK server requires on
// every new connection before it will accept other methods.
func (b *Bridge) handshake(r *http.Request, conn sdkmcp.Connection) error {
	initID, err := jsonrpc.MakeID("clinsim-bridge-init")
	if err != nil {
		return fmt.Errorf("init id: %w", err)
	}
	initParams, err := json.Marshal(map[string]any{
		"protocolVersion": "2025-06-18",
		"capabilities":    map[string]any{},
		"clientInfo":      map[string]any{"name": "clinsim-bridge", "version": "0.0.0"},
	})
	if err != nil {
		return fmt.Errorf("init params: %w", err)
	}
	if err := conn.Write(r.Context(), &jsonrpc.Request{ID: initID, Method: "initialize", Params: initParams}); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	msg, err := conn.Read(r.Context())
	if err != nil {
		return fmt.Errorf("initialize response: %w", err)
	}
	resp, ok := msg.(*jsonrpc.Response)
	if !ok {
		return fmt.Errorf("unexpected initialize reply %T", msg)
	}
	if resp.Error != nil {
		return fmt.Errorf("initialize failed: %w", resp.Error)
	}
	if err := conn.Write(r.Context(), &jsonrpc.Request{Method: "notifications/initialized"}); err != nil {
		return fmt.Errorf("initialized notification: %w", err)
	}
	return nil
}

// JSON-RPC failures still travel as 200 OK bodies.
func (b *Bridge) reply(w http.ResponseWriter, out rpcReply) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil && b.logger != nil {
		b.logger.Error("bridge response encode failed", "error", err)
	}
}
