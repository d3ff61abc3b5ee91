package api

import (
	"errors"
	"net/http"
)

var errCrossOrigin = errors.New("api: cross-origin request rejected")

// crossOrigin rejects unsafe requests a browser sent from another site.
// The session cookie is accepted on every route, so a form on a foreign
// page could otherwise spend the visitor's credits. Requests without
// Sec-Fetch-Site or Origin (the mobile client, curl) pass, as do the
// configured CORS origins.
func (s *Server) crossOrigin() func(http.Handler) http.Handler {
	p := http.NewCrossOriginProtection()
	for _, origin := range s.origins {
		if err := p.AddTrustedOrigin(origin); err != nil {
			s.logger.Warn("ignoring trusted origin", "origin", origin, "error", err)
		}
	}
	p.SetDenyHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logFailure(r, http.StatusForbidden, errCrossOrigin)
		writeJSON(w, http.StatusForbidden, map[string]any{"success": false, "error": text(msgForbidden)})
	}))
	return p.Handler
}
