// Package cors decides which browser origins may call the API with
// credentials and adapts that decision to go-chi/cors.
package cors

import (
	"net/http"
	"strings"

	chicors "github.com/go-chi/cors"

	"github.com/redmonkez12/bookings-api/internal/logging"
)

const (
	wildcard = "*"
	// envPrefix is stripped when the whole assignment ends up in the value,
	// as happens with some hosting dashboards.
	envPrefix = "CORS_ORIGIN="
)

// AllowList is a parsed CORS_ORIGIN value.
type AllowList struct {
	Wildcard bool
	Origins  []string
}

// ParseAllowList parses a comma-separated origin list. A leading
// "CORS_ORIGIN=" and surrounding quotes are removed first; entries are
// trimmed and empty entries dropped. "*" in any position allows every origin.
func ParseAllowList(raw string) AllowList {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, envPrefix)
	raw = strings.Trim(strings.TrimSpace(raw), `"'`)

	var list AllowList
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		switch entry {
		case "":
			continue
		case wildcard:
			list.Wildcard = true
		default:
			list.Origins = append(list.Origins, entry)
		}
	}
	return list
}

// Allows reports whether a request from origin may proceed with CORS headers.
// An empty origin (same-origin or non-browser client) is always allowed.
// Matching is exact: no case folding, no trailing slash normalization.
func (l AllowList) Allows(origin string) bool {
	if origin == "" || l.Wildcard {
		return true
	}
	for _, allowed := range l.Origins {
		if origin == allowed {
			return true
		}
	}
	return false
}

// String renders the list for logs and the CLI.
func (l AllowList) String() string {
	if l.Wildcard {
		return wildcard
	}
	return strings.Join(l.Origins, ",")
}

// Gate is the CORS middleware for the API.
type Gate struct {
	list   AllowList
	logger *logging.Logger
}

func NewGate(list AllowList, logger *logging.Logger) *Gate {
	return &Gate{list: list, logger: logger}
}

// Handler returns the go-chi/cors middleware. Origins are checked through
// AllowOriginFunc, so a wildcard list still answers with the concrete
// origin, which browsers require when credentials are enabled.
func (g *Gate) Handler() func(http.Handler) http.Handler {
	return chicors.Handler(chicors.Options{
		AllowOriginFunc:  g.allowOrigin,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

func (g *Gate) allowOrigin(r *http.Request, origin string) bool {
	if g.list.Allows(origin) {
		return true
	}
	g.logger.Warn("CORS origin rejected", "origin", origin, "method", r.Method, "path", r.URL.Path)
	return false
}
