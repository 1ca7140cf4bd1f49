package httpmsg

import (
	"strconv"
	"strings"

	"github.com/mohalnassery/localhost/internal/servererr"
)

// ParseState is the parser's tagged state (spec §3 "Parser state").
type ParseState int

const (
	AwaitRequestLine ParseState = iota
	AwaitHeaders
	AwaitBody
	Complete
)

// Parser is an incremental HTTP/1.1 request parser. It is fed a growing
// buffer and reports either a completed request plus bytes consumed, or
// "need more data" plus bytes consumed so far — it never blocks and is
// resumable after an arbitrary byte-boundary cut (spec §4.3, and the law
// in §8: "Parser resumability").
//
// A single Parser instance is reused across an entire keep-alive
// connection's requests; Reset returns it to AwaitRequestLine without
// allocating, mirroring how the teacher's conn.go reuses one bufio.Reader
// per connection rather than allocating per request.
type Parser struct {
	state         ParseState
	req           Request
	bodyRemaining int
	contentLength int
	hasContentLen bool
}

func NewParser() *Parser {
	p := &Parser{}
	p.Reset()
	return p
}

// Reset returns the parser to AwaitRequestLine for pipelined reuse
// (spec §4.8: "On transition to KeepAlive the parser is reset").
func (p *Parser) Reset() {
	p.state = AwaitRequestLine
	p.req = Request{Header: make(map[string]string)}
	p.bodyRemaining = 0
	p.contentLength = 0
	p.hasContentLen = false
}

func (p *Parser) State() ParseState { return p.state }

// Parse consumes a prefix of buf and reports either a completed request
// (consumed = how many bytes made it up through the body) or nil with
// consumed = how far it got before running out of data. An error means
// the request is malformed and the connection should answer BadRequest
// (spec §4.3).
func (p *Parser) Parse(buf []byte) (*Request, int, error) {
	total := 0
	for {
		switch p.state {
		case AwaitRequestLine:
			line, n, ok := readLine(buf[total:])
			if !ok {
				return nil, total, nil
			}
			if err := p.parseRequestLine(line); err != nil {
				return nil, total, err
			}
			total += n
			p.state = AwaitHeaders

		case AwaitHeaders:
			for {
				line, n, ok := readLine(buf[total:])
				if !ok {
					return nil, total, nil
				}
				if len(line) == 0 {
					// blank line: end of headers
					total += n
					if err := p.onHeadersComplete(); err != nil {
						return nil, total, err
					}
					break
				}
				if err := p.parseHeaderLine(line); err != nil {
					return nil, total, err
				}
				total += n
			}

		case AwaitBody:
			if p.bodyRemaining == 0 {
				p.state = Complete
				continue
			}
			avail := buf[total:]
			if len(avail) < p.bodyRemaining {
				return nil, total, nil
			}
			p.req.Body = append([]byte(nil), avail[:p.bodyRemaining]...)
			total += p.bodyRemaining
			p.bodyRemaining = 0
			p.state = Complete

		case Complete:
			req := p.req
			if req.Body == nil {
				req.Body = []byte{}
			}
			return &req, total, nil
		}
	}
}

// readLine scans buf for the first CRLF, returning the line (without the
// CRLF) and the number of bytes including the CRLF, or ok=false if no
// CRLF is present yet.
func readLine(buf []byte) (line []byte, consumed int, ok bool) {
	for i := 0; i+1 < len(buf); i++ {
		if buf[i] == '\r' && buf[i+1] == '\n' {
			return buf[:i], i + 2, true
		}
	}
	return nil, 0, false
}

func (p *Parser) parseRequestLine(line []byte) error {
	fields := strings.Fields(string(line))
	if len(fields) != 3 {
		return servererr.New(servererr.KindHTTPProtocol, "malformed request line")
	}
	method, ok := ParseMethod(fields[0])
	if !ok {
		return servererr.New(servererr.KindHTTPProtocol, "unrecognized method")
	}
	version, ok := ParseVersion(fields[2])
	if !ok {
		return servererr.New(servererr.KindHTTPProtocol, "unsupported HTTP version")
	}

	target := fields[1]
	rawPath := target
	rawQuery := ""
	if idx := strings.IndexByte(target, '?'); idx >= 0 {
		rawPath = target[:idx]
		rawQuery = target[idx+1:]
	}
	path, err := DecodePath(rawPath)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(path, "/") {
		return servererr.New(servererr.KindHTTPProtocol, "request-target must be origin-form")
	}
	query, err := ParseQuery(rawQuery)
	if err != nil {
		return err
	}

	p.req.Method = method
	p.req.Version = version
	p.req.RawTarget = target
	p.req.Path = path
	p.req.Query = query
	return nil
}

func (p *Parser) parseHeaderLine(line []byte) error {
	idx := strings.IndexByte(string(line), ':')
	if idx < 0 {
		return servererr.New(servererr.KindHTTPProtocol, "header line missing colon")
	}
	name := strings.ToLower(strings.TrimSpace(string(line[:idx])))
	value := strings.TrimSpace(string(line[idx+1:]))
	p.req.Header[name] = value
	return nil
}

func (p *Parser) onHeadersComplete() error {
	if te, ok := p.req.HeaderGet("transfer-encoding"); ok && strings.Contains(strings.ToLower(te), "chunked") {
		return servererr.New(servererr.KindHTTPProtocol, "chunked transfer-encoding on ingress is unsupported")
	}
	if cl, ok := p.req.HeaderGet("content-length"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(cl))
		if err != nil || n < 0 {
			return servererr.New(servererr.KindHTTPProtocol, "invalid Content-Length")
		}
		p.contentLength = n
		p.hasContentLen = true
		if n > 0 {
			p.bodyRemaining = n
			p.state = AwaitBody
			return nil
		}
	}
	p.state = Complete
	return nil
}
