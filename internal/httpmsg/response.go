package httpmsg

import (
	"strconv"
	"time"
)

// Response is the outgoing response model from spec §3.
type Response struct {
	Status  Status
	Version Version
	Header  *ResponseHeader
	Body    []byte
}

func NewResponse(status Status, version Version) *Response {
	return &Response{Status: status, Version: version, Header: NewResponseHeader()}
}

// Finalize enforces the two response invariants from spec §3: exactly one
// Content-Length header equal to len(Body), and exactly one Connection
// header reflecting keepAlive. Call this once, after the body is final and
// immediately before encoding — the teacher's response.write does the
// equivalent bookkeeping right before flushing to the wire.
func (r *Response) Finalize(keepAlive bool) {
	r.Header.Set("Content-Length", strconv.Itoa(len(r.Body)))
	if keepAlive {
		r.Header.Set("Connection", "keep-alive")
	} else {
		r.Header.Set("Connection", "close")
	}
	if _, ok := r.Header.Get("Server"); !ok {
		r.Header.Set("Server", "localhost")
	}
	if _, ok := r.Header.Get("Date"); !ok {
		r.Header.Set("Date", FormatHTTPDate(time.Now()))
	}
}

// FormatHTTPDate renders RFC 7231 IMF-fixdate, e.g.
// "Sun, 06 Nov 1994 08:49:37 GMT". spec §9 flags the original source's
// date formatting as a known bug; this core always emits the correct
// format for Date and Last-Modified.
func FormatHTTPDate(t time.Time) string {
	return t.UTC().Format("Mon, 02 Jan 2006 15:04:05 GMT")
}

// Encode renders the status line, headers and body to wire bytes
// (spec §6 "Wire protocol"). Finalize must have been called first.
func (r *Response) Encode() []byte {
	out := make([]byte, 0, 256+len(r.Body))
	out = append(out, r.Version.String()...)
	out = append(out, ' ')
	out = strconv.AppendInt(out, int64(r.Status), 10)
	out = append(out, ' ')
	out = append(out, r.Status.ReasonPhrase()...)
	out = append(out, "\r\n"...)
	for _, name := range r.Header.Keys() {
		v, _ := r.Header.Get(name)
		out = append(out, name...)
		out = append(out, ": "...)
		out = append(out, v...)
		out = append(out, "\r\n"...)
	}
	out = append(out, "\r\n"...)
	out = append(out, r.Body...)
	return out
}
