// Package router implements the (host, path) -> (binding, route) lookup
// from spec §4.5 (C8). The longest-prefix-wins matching rule and the
// route-ending-in-"/" semantics are adapted from the teacher's
// mux.ServeMux (mux/types.go): same rule, but factored into an explicit
// two-step lookup (virtual-host selection, then route selection) since
// this core serves several named bindings where the teacher's ServeMux
// only ever serves one.
package router

import (
	"strings"

	"github.com/mohalnassery/localhost/internal/config"
)

// Router resolves a request's Host header and decoded path to a binding
// and route pair.
type Router struct {
	bindings []*config.Binding
}

func New(bindings []*config.Binding) *Router {
	return &Router{bindings: bindings}
}

// Bindings returns every configured binding, used by callers that need to
// reason about the whole set rather than a single lookup (e.g. sizing a
// shared connection read buffer against the most permissive max body size
// configured anywhere).
func (r *Router) Bindings() []*config.Binding {
	return r.bindings
}

// Match implements spec §4.5 steps 1-3. ok is false when no route in the
// selected binding matches (RoutingError -> NotFound, per §4.7 step 1).
func (r *Router) Match(host, path string) (*config.Binding, *config.Route, bool) {
	binding := r.selectBinding(host)
	if binding == nil {
		return nil, nil, false
	}
	route := selectRoute(binding, path)
	if route == nil {
		return binding, nil, false
	}
	return binding, route, true
}

// selectBinding strips the port from the Host header and looks for a
// binding whose configured ServerName equals the hostname; falling back
// to the first configured binding, per spec §4.5 step 1.
func (r *Router) selectBinding(host string) *config.Binding {
	if len(r.bindings) == 0 {
		return nil
	}
	hostname := host
	if idx := strings.LastIndexByte(host, ':'); idx >= 0 {
		hostname = host[:idx]
	}
	for _, b := range r.bindings {
		if b.ServerName != "" && b.ServerName == hostname {
			return b
		}
	}
	return r.bindings[0]
}

// selectRoute implements the "Route prefix match" rule from the GLOSSARY:
// a route P matches path Q when Q == P, or P ends in "/" and Q starts
// with P, or Q starts with P followed by "/". Among all matches, the
// longest P wins (§8 "Router monotonicity").
func selectRoute(b *config.Binding, path string) *config.Route {
	var best *config.Route
	for i := range b.Routes {
		route := &b.Routes[i]
		if routeMatches(route.Path, path) {
			if best == nil || len(route.Path) > len(best.Path) {
				best = route
			}
		}
	}
	return best
}

func routeMatches(routePath, reqPath string) bool {
	if reqPath == routePath {
		return true
	}
	if strings.HasSuffix(routePath, "/") {
		return strings.HasPrefix(reqPath, routePath)
	}
	return strings.HasPrefix(reqPath, routePath+"/")
}
