package transport

import (
	"context"
	"net/http"
	"strings"
)

// SessionHeader carries the console session on /rpc requests. It matches the
// header streamable MCP clients already send.
const SessionHeader = "Mcp-Session-Id"

type consoleSessionKey struct{}

// ConsoleSession returns the console session bound to the request, if any.
func ConsoleSession(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(consoleSessionKey{}).(string)
	return id, ok && id != ""
}

// SessionMiddleware binds the console session named by SessionHeader, or by
// the "session" query parameter for clients that cannot set headers, and
// echoes it back on the response.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(SessionHeader))
		if id == "" {
			id = strings.TrimSpace(r.URL.Query().Get("session"))
		}
		if id == "" {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set(SessionHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), consoleSessionKey{}, id)))
	})
}
