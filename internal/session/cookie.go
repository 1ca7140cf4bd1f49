// Package session is the cookie/session adapter spec §9's Open Question
// leaves external to request dispatch: sessions are not wired into
// internal/dispatch's routing rules, but internal/cgi forwards the Cookie
// request header's parsed pairs to scripts as meta-variables, and this
// package supplies that parsing plus a Set-Cookie serializer for a future
// session layer. Adapted from the teacher's cli package (types_cookie.go's
// Cookie struct, cookie.go's String serializer), trimmed to the
// request/response-header handling a CGI pass-through and a future
// session layer need rather than a full RFC 6265 jar.
package session

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Cookie mirrors the teacher's cli.Cookie fields relevant to a pass-
// through adapter: name/value for round-tripping, the rest for
// serializing a Set-Cookie header. A CGI script's own Set-Cookie lines do
// not go through this type; internal/cgi passes them through verbatim.
type Cookie struct {
	Name     string
	Value    string
	Path     string
	Domain   string
	Expires  time.Time
	MaxAge   int
	Secure   bool
	HttpOnly bool
}

// ParseCookieHeader splits a request's Cookie header into name/value
// pairs, per RFC 6265 §5.4's semicolon-separated list.
func ParseCookieHeader(header string) map[string]string {
	out := map[string]string{}
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		eq := strings.IndexByte(part, '=')
		if eq < 0 {
			continue
		}
		out[part[:eq]] = part[eq+1:]
	}
	return out
}

// String serializes c for use in a Set-Cookie response header, following
// the teacher's cli.Cookie.String attribute order (Path, Domain, Expires,
// Max-Age, HttpOnly, Secure).
func (c *Cookie) String() string {
	if c == nil || c.Name == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte('=')
	b.WriteString(c.Value)

	if c.Path != "" {
		b.WriteString("; Path=")
		b.WriteString(c.Path)
	}
	if c.Domain != "" {
		b.WriteString("; Domain=")
		b.WriteString(c.Domain)
	}
	if !c.Expires.IsZero() {
		b.WriteString("; Expires=")
		b.WriteString(c.Expires.UTC().Format(time.RFC1123))
	}
	if c.MaxAge > 0 {
		b.WriteString("; Max-Age=")
		b.WriteString(strconv.Itoa(c.MaxAge))
	} else if c.MaxAge < 0 {
		b.WriteString("; Max-Age=0")
	}
	if c.HttpOnly {
		b.WriteString("; HttpOnly")
	}
	if c.Secure {
		b.WriteString("; Secure")
	}
	return b.String()
}

// NewSessionID mints a new opaque session identifier, grounded on
// original_source/src/session/manager.rs's SessionData, whose session
// keys are likewise opaque generated strings rather than derived from
// request content.
func NewSessionID() string {
	return uuid.NewString()
}
