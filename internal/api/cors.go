package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// The API is an internal tool behind basic auth, so CORS is wide open
// for browser clients on other origins.
var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Methods": "GET, POST, OPTIONS",
	"Access-Control-Allow-Headers": "Authorization, Content-Type, Accept, Origin",
	"Access-Control-Max-Age":       "86400",
}

// corsMiddleware stamps the CORS headers on every response and answers
// preflight requests that reach a registered route.
func corsMiddleware(ctx huma.Context, next func(huma.Context)) {
	for k, v := range corsHeaders {
		ctx.SetHeader(k, v)
	}
	if ctx.Method() == http.MethodOptions {
		ctx.SetStatus(http.StatusNoContent)
		return
	}
	next(ctx)
}

// registerPreflight catches OPTIONS requests at the mux, before huma
// routing rejects the method.
func registerPreflight(mux *http.ServeMux) {
	mux.HandleFunc("OPTIONS /", func(w http.ResponseWriter, _ *http.Request) {
		h := w.Header()
		for k, v := range corsHeaders {
			h.Set(k, v)
		}
		w.WriteHeader(http.StatusNoContent)
	})
}
