package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type contextKey int

const sessionIDKey contextKey = iota

// getSessionID returns the console key stored by sessionMiddleware, or "".
func getSessionID(ctx context.Context) string {
	v, _ := ctx.Value(sessionIDKey).(string)
	return v
}

// sessionMiddleware picks the console a request is routed to: the
// Mcp-Session-Id header over HTTP, otherwise _meta.session_id. Requests with
// neither fall back to the transport session in sessionFor.
func sessionMiddleware() sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			sessionID := headerSessionID(req)
			if sessionID == "" {
				sessionID = metaSessionID(req)
			}
			if sessionID != "" {
				ctx = context.WithValue(ctx, sessionIDKey, sessionID)
			}
			return next(ctx, method, req)
		}
	}
}

func headerSessionID(req sdkmcp.Request) string {
	extra := req.GetExtra()
	if extra == nil || extra.Header == nil {
		return ""
	}
	return extra.Header.Get("Mcp-Session-Id")
}

// metaSessionID reads _meta.session_id. Notifications such as "initialized"
// may carry nil params.
func metaSessionID(req sdkmcp.Request) (id string) {
	params := req.GetParams()
	if params == nil {
		return ""
	}
	defer func() {
		if recover() != nil {
			id = ""
		}
	}()
	if meta := params.GetMeta(); meta != nil {
		id, _ = meta["session_id"].(string)
	}
	return id
}
