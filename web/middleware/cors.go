package middleware

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/adamwoolhether/animeshelf/web"
	"github.com/adamwoolhether/animeshelf/web/errs"
	"github.com/adamwoolhether/animeshelf/web/mux"
)

var defaultAllowHeaders = []string{
	"Accept",
	"Cache-Control",
	"Content-Type",
	"X-Requested-With",
}

// CORS answers cross-origin requests from the allowed origins. A `*`
// entry allows every origin. The service is read-only, so only GET and
// OPTIONS are advertised.
func CORS(allowedOrigins []string, allowedHeaders ...string) mux.Middleware {
	if len(allowedHeaders) == 0 {
		allowedHeaders = defaultAllowHeaders
	}

	originAllowed := CheckOriginFunc(allowedOrigins)
	headers := strings.Join(allowedHeaders, ", ")

	m := func(handler mux.Handler) mux.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return handler(ctx, w, r)
			}

			if !originAllowed(origin) {
				return web.RespondError(ctx, w, errs.New(http.StatusForbidden, fmt.Errorf("CORS origin[%s] not allowed", origin)))
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Max-Age", "86400")
			w.Header().Set("Access-Control-Allow-Headers", headers)

			if r.Method == http.MethodOptions {
				return web.RespondJSON(ctx, w, http.StatusNoContent, nil)
			}

			return handler(ctx, w, r)
		}

		return h
	}

	return m
}

// CheckOriginFunc returns a func reporting whether an origin is in the
// allowed list. Entries may be comma-separated and may hold path.Match
// wildcards such as `https://*.example.com`.
func CheckOriginFunc(allowedOrigins []string) func(string) bool {
	allowed := make(map[string]bool)
	var wildcards []string

	for _, entry := range allowedOrigins {
		for o := range strings.SplitSeq(entry, ",") {
			o = strings.TrimSpace(o)
			switch {
			case o == "":
			case o == "*":
				allowed["*"] = true
			case strings.Contains(o, "*"):
				wildcards = append(wildcards, o)
			default:
				allowed[o] = true
			}
		}
	}
	allowAll := allowed["*"]

	return func(origin string) bool {
		if allowAll || allowed[origin] {
			return true
		}

		for _, pattern := range wildcards {
			if ok, err := path.Match(pattern, origin); ok && err == nil {
				return true
			}
		}

		return false
	}
}
