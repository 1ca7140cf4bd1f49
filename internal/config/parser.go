package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/mohalnassery/localhost/internal/servererr"
)

// Parse reads the block-structured config grammar from spec §6:
//
//	server {
//	    host VALUE
//	    port NUMBER            (repeatable)
//	    server_name VALUE
//	    error_page CODE PATH
//	    max_body_size BYTES
//	    route PATH {
//	        methods METHOD...
//	        redirect URL
//	        root PATH
//	        index FILENAME
//	        cgi INTERPRETER
//	        directory_listing on|off
//	        upload_enabled on|off
//	    }
//	}
//
// Lines starting with '#' and blank lines are ignored, per spec §6.
// Adapted line-for-line from original_source/src/config/parser.rs: a flat
// line scanner with brace-depth tracking rather than a recursive-descent
// parser, the same shape the original uses.
func Parse(r io.Reader) (*Config, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, servererr.Wrap(servererr.KindConfig, "reading config", err)
	}

	cfg := &Config{}
	var errs *multierror.Error

	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		if line == "" || strings.HasPrefix(line, "#") {
			i++
			continue
		}
		if strings.HasPrefix(line, "server") {
			binding, consumed, err := parseServerBlock(lines[i:])
			if err != nil {
				errs = multierror.Append(errs, err)
			} else {
				cfg.Bindings = append(cfg.Bindings, binding)
			}
			i += consumed
			continue
		}
		errs = multierror.Append(errs, fmt.Errorf("line %d: unexpected top-level directive %q", i+1, line))
		i++
	}

	if errs.ErrorOrNil() != nil {
		return nil, servererr.Wrap(servererr.KindConfig, "invalid configuration", errs)
	}

	if len(cfg.Bindings) == 0 {
		cfg.Bindings = append(cfg.Bindings, DefaultBinding())
	}
	return cfg, nil
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}

func parseServerBlock(lines []string) (*Binding, int, error) {
	if !strings.Contains(lines[0], "{") {
		return nil, 1, servererr.New(servererr.KindConfig, "expected '{' after server")
	}
	b := &Binding{Host: DefaultHost, ErrorPages: map[int]string{}, MaxBodySize: DefaultMaxBodySize}

	i := 1
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		if line == "" || strings.HasPrefix(line, "#") {
			i++
			continue
		}
		if line == "}" {
			i++
			break
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			i++
			continue
		}
		switch fields[0] {
		case "host":
			if len(fields) < 2 {
				return nil, i + 1, servererr.New(servererr.KindConfig, "host requires a value")
			}
			b.Host = fields[1]
		case "port":
			if len(fields) < 2 {
				return nil, i + 1, servererr.New(servererr.KindConfig, "port requires a value")
			}
			port, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, i + 1, servererr.Wrap(servererr.KindConfig, "invalid port", err)
			}
			b.Ports = append(b.Ports, port)
		case "server_name":
			if len(fields) < 2 {
				return nil, i + 1, servererr.New(servererr.KindConfig, "server_name requires a value")
			}
			b.ServerName = fields[1]
		case "error_page":
			if len(fields) < 3 {
				return nil, i + 1, servererr.New(servererr.KindConfig, "error_page requires status code and path")
			}
			code, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, i + 1, servererr.Wrap(servererr.KindConfig, "invalid error_page status code", err)
			}
			b.ErrorPages[code] = fields[2]
		case "max_body_size":
			if len(fields) < 2 {
				return nil, i + 1, servererr.New(servererr.KindConfig, "max_body_size requires a value")
			}
			size, err := strconv.ParseInt(fields[1], 10, 64)
			if err != nil {
				return nil, i + 1, servererr.Wrap(servererr.KindConfig, "invalid max_body_size", err)
			}
			b.MaxBodySize = size
		case "route":
			route, consumed, err := parseRouteBlock(lines[i:])
			if err != nil {
				return nil, i + consumed, err
			}
			b.Routes = append(b.Routes, *route)
			i += consumed
			continue
		default:
			return nil, i + 1, servererr.New(servererr.KindConfig, fmt.Sprintf("unknown directive %q", fields[0]))
		}
		i++
	}
	return b, i, nil
}

func parseRouteBlock(lines []string) (*Route, int, error) {
	first := strings.TrimSpace(lines[0])
	fields := strings.Fields(first)
	if len(fields) < 2 {
		return nil, 1, servererr.New(servererr.KindConfig, "route requires a path")
	}
	if !strings.Contains(first, "{") {
		return nil, 1, servererr.New(servererr.KindConfig, "expected '{' after route path")
	}
	route := &Route{Path: fields[1]}

	i := 1
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		if line == "" || strings.HasPrefix(line, "#") {
			i++
			continue
		}
		if line == "}" {
			i++
			break
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			i++
			continue
		}
		switch parts[0] {
		case "methods":
			for _, m := range parts[1:] {
				route.Methods = append(route.Methods, strings.ToUpper(m))
			}
		case "redirect":
			if len(parts) < 2 {
				return nil, i + 1, servererr.New(servererr.KindConfig, "redirect requires a URL")
			}
			route.Redirect = parts[1]
		case "root":
			if len(parts) < 2 {
				return nil, i + 1, servererr.New(servererr.KindConfig, "root requires a path")
			}
			route.Root = parts[1]
		case "index":
			if len(parts) < 2 {
				return nil, i + 1, servererr.New(servererr.KindConfig, "index requires a filename")
			}
			route.Index = parts[1]
		case "cgi":
			if len(parts) < 2 {
				return nil, i + 1, servererr.New(servererr.KindConfig, "cgi requires an interpreter")
			}
			route.CGI = parts[1]
		case "directory_listing":
			if len(parts) < 2 {
				return nil, i + 1, servererr.New(servererr.KindConfig, "directory_listing requires on/off")
			}
			route.DirectoryListing = parts[1] == "on"
		case "upload_enabled":
			if len(parts) < 2 {
				return nil, i + 1, servererr.New(servererr.KindConfig, "upload_enabled requires on/off")
			}
			route.UploadEnabled = parts[1] == "on"
		default:
			return nil, i + 1, servererr.New(servererr.KindConfig, fmt.Sprintf("unknown route directive %q", parts[0]))
		}
		i++
	}
	return route, i, nil
}
