// Package static implements the static-file and directory-listing handler
// from spec §4.6 (C9): safe path resolution, file serving, index
// fallback, and HTML directory listings. Adapted from the teacher's
// filetransport package (file_transport.go, file_handler.go): same
// strip-prefix-then-clean-then-serve shape, generalized from "one
// filesystem root for the whole server" to "one root per route", and
// with directory listing newly written (the teacher's filetransport has
// none — net/http's own listing lives in a different, unretrieved file).
package static

import (
	"html"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mohalnassery/localhost/internal/httpmsg"
	"github.com/mohalnassery/localhost/internal/mime"
)

// Result carries everything the dispatcher needs to turn a lookup into a
// response, kept separate from httpmsg.Response so the handler stays
// Version-agnostic (the caller finalizes with the request's version and
// keep-alive decision).
type Result struct {
	Status      httpmsg.Status
	Body        []byte
	ContentType string
	LastMod     time.Time
	HasLastMod  bool
}

// Serve implements spec §4.6. routePrefix is the matched route's path
// prefix (stripped from reqPath before joining against root); root is the
// route's filesystem root; index is the route's configured index filename
// (may be empty); listingEnabled is the route's directory_listing flag.
func Serve(root, routePrefix, reqPath, index string, listingEnabled bool) Result {
	resolved, ok := resolve(root, routePrefix, reqPath)
	if !ok {
		return Result{Status: httpmsg.StatusForbidden}
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return Result{Status: httpmsg.StatusNotFound}
	}

	if info.IsDir() {
		return serveDir(resolved, reqPath, index, listingEnabled)
	}
	return serveFile(resolved, info)
}

// resolve joins reqPath (with routePrefix stripped) against root and
// verifies the canonicalized result still lives under root, per spec
// §4.6's traversal check.
func resolve(root, routePrefix, reqPath string) (string, bool) {
	suffix := strings.TrimPrefix(reqPath, routePrefix)
	suffix = strings.TrimPrefix(suffix, "/")

	joined := filepath.Join(root, suffix)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", false
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		// Root itself may not exist yet; fall back to the absolute,
		// non-symlink-resolved form so a missing root still reports
		// NotFound rather than a resolve failure.
		realRoot = absRoot
	}

	absJoined, err := filepath.Abs(joined)
	if err != nil {
		return "", false
	}
	realJoined, err := filepath.EvalSymlinks(absJoined)
	if err != nil {
		// Target doesn't exist: check containment on the un-resolved
		// absolute path so a 404 can still be produced by the caller.
		realJoined = absJoined
	}

	if realJoined != realRoot && !strings.HasPrefix(realJoined, realRoot+string(filepath.Separator)) {
		return "", false
	}
	return realJoined, true
}

func serveFile(path string, info os.FileInfo) Result {
	body, err := os.ReadFile(path)
	if err != nil {
		return Result{Status: httpmsg.StatusNotFound}
	}
	return Result{
		Status:      httpmsg.StatusOK,
		Body:        body,
		ContentType: mime.ForPath(path),
		LastMod:     info.ModTime(),
		HasLastMod:  true,
	}
}

func serveDir(dirPath, reqPath, index string, listingEnabled bool) Result {
	if index != "" {
		indexPath := filepath.Join(dirPath, index)
		if info, err := os.Stat(indexPath); err == nil && !info.IsDir() {
			return serveFile(indexPath, info)
		}
	}
	if !listingEnabled {
		return Result{Status: httpmsg.StatusForbidden}
	}
	return Result{
		Status:      httpmsg.StatusOK,
		Body:        renderListing(dirPath, reqPath),
		ContentType: "text/html; charset=utf-8",
	}
}

type entry struct {
	name  string
	isDir bool
	size  int64
	mtime time.Time
}

// renderListing builds the HTML directory listing from spec §4.6:
// entries sorted directories-first then alphabetically, each linking to
// its URL, with human-readable sizes for files and "-" for directories.
func renderListing(dirPath, reqPath string) []byte {
	dirEntries, _ := os.ReadDir(dirPath)
	entries := make([]entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, entry{
			name:  de.Name(),
			isDir: de.IsDir(),
			size:  info.Size(),
			mtime: info.ModTime(),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].isDir != entries[j].isDir {
			return entries[i].isDir
		}
		return entries[i].name < entries[j].name
	})

	base := reqPath
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	escapedBase := html.EscapeString(base)
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><title>Index of ")
	b.WriteString(escapedBase)
	b.WriteString("</title></head><body><h1>Index of ")
	b.WriteString(escapedBase)
	b.WriteString("</h1><table>\n")
	for _, e := range entries {
		name := e.name
		href := base + name
		sizeStr := "-"
		if !e.isDir {
			sizeStr = humanize.Bytes(uint64(e.size))
		} else {
			name += "/"
			href += "/"
		}
		b.WriteString("<tr><td><a href=\"")
		b.WriteString(html.EscapeString(href))
		b.WriteString("\">")
		b.WriteString(html.EscapeString(name))
		b.WriteString("</a></td><td>")
		b.WriteString(sizeStr)
		b.WriteString("</td><td>")
		b.WriteString(httpmsg.FormatHTTPDate(e.mtime))
		b.WriteString("</td></tr>\n")
	}
	b.WriteString("</table></body></html>\n")
	return []byte(b.String())
}
