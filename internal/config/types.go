// Package config implements the textual, line-oriented configuration
// format from spec §6. The grammar is this project's own small DSL, not
// TOML/YAML/JSON, so there is no pack library to model it on; this package
// is therefore hand-rolled stdlib (bufio.Scanner, strings) on purpose —
// see DESIGN.md. The only contract the rest of the core depends on is the
// typed Config/Binding/Route structures below.
package config

// Route mirrors spec §3 "A route is (path-prefix, allowed methods,
// optional redirect target, optional filesystem root, optional index
// filename, optional CGI interpreter path, directory-listing flag,
// upload-enabled flag)".
type Route struct {
	Path             string
	Methods          []string
	Redirect         string
	Root             string
	Index            string
	CGI              string
	DirectoryListing bool
	UploadEnabled    bool
}

func (r *Route) HasRedirect() bool { return r.Redirect != "" }
func (r *Route) HasCGI() bool      { return r.CGI != "" }

// AllowsMethod reports whether method is in the route's allow-list.
func (r *Route) AllowsMethod(method string) bool {
	for _, m := range r.Methods {
		if m == method {
			return true
		}
	}
	return false
}

// Binding mirrors spec §3 "A server-binding is (host, set of ports,
// optional virtual-host name, error-page overrides by status code,
// max-body-size, ordered list of routes)".
type Binding struct {
	Host        string
	Ports       []int
	ServerName  string
	ErrorPages  map[int]string
	MaxBodySize int64
	Routes      []Route
}

// Config is the top-level parse result: an ordered list of bindings.
type Config struct {
	Bindings []*Binding
}

const (
	DefaultHost        = "0.0.0.0"
	DefaultMaxBodySize = 1 << 20 // 1 MiB, matching the original's default
)

// DefaultBinding matches the original implementation's ServerConfig
// default (original_source/src/config/types.rs): serves "www" with
// index.html over GET/POST/DELETE at "/".
func DefaultBinding() *Binding {
	return &Binding{
		Host:        DefaultHost,
		ErrorPages:  map[int]string{},
		MaxBodySize: DefaultMaxBodySize,
		Routes: []Route{
			{
				Path:    "/",
				Methods: []string{"GET", "POST", "DELETE"},
				Root:    "www",
				Index:   "index.html",
			},
		},
	}
}
