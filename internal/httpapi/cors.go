package httpapi

import "net/http"

// withCORS grants the configured origins cross-origin access to the
// API. An empty allow-list disables CORS; requests from other origins
// pass through without the grant headers and the browser blocks them.
func (s *Server) withCORS(next http.Handler) http.Handler {
	if len(s.AllowedOrigins) == 0 {
		return next
	}
	allowed := make(map[string]bool, len(s.AllowedOrigins))
	any := false
	for _, o := range s.AllowedOrigins {
		if o == "*" {
			any = true
			continue
		}
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (any || allowed[origin]) {
			h := w.Header()
			if any {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
			h.Set("Access-Control-Expose-Headers", sessionHeader)

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE")
				h.Set("Access-Control-Allow-Headers", "Content-Type, "+sessionHeader)
				h.Set("Access-Control-Max-Age", "600")
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
