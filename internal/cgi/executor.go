package cgi

import (
	"bytes"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/mohalnassery/localhost/internal/httpmsg"
	"github.com/mohalnassery/localhost/internal/servererr"
)

// Default bounds from spec §4.4, matching executor.rs's CgiExecutor::new.
const (
	DefaultTimeout       = 30 * time.Second
	DefaultMaxOutputSize = 1 << 20
	pollInterval         = 10 * time.Millisecond
)

// Executor runs CGI scripts with a bounded timeout and output size,
// per spec §4.4.
type Executor struct {
	Timeout       time.Duration
	MaxOutputSize int
}

// New returns an Executor with the spec §4.4 defaults.
func New() *Executor {
	return &Executor{Timeout: DefaultTimeout, MaxOutputSize: DefaultMaxOutputSize}
}

// Run spawns interpreter scriptPath, feeds stdin, and polls for
// completion at a fixed interval rather than integrating the child's fds
// into the reactor (spec §4.4: CGI execution is explicitly exempt from
// the single-threaded non-blocking fd-set rule). It returns a parsed
// Response when the script exits with status zero and its output parses,
// and a *servererr.CGIError classifying the specific failure otherwise.
func (e *Executor) Run(interpreter, scriptPath string, env []string, stdin []byte, version httpmsg.Version) (*httpmsg.Response, error) {
	cmd := exec.Command(interpreter, scriptPath)
	cmd.Env = env

	stdinPipe, err := cmd.StdinPipe()
	if err != nil {
		return nil, servererr.NewCGI(servererr.CGISpawn, "creating stdin pipe", err)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, servererr.NewCGI(servererr.CGISpawn, "spawning CGI process", err)
	}

	if len(stdin) > 0 {
		if _, err := stdinPipe.Write(stdin); err != nil {
			cmd.Process.Kill()
			return nil, servererr.NewCGI(servererr.CGIIoPipe, "writing CGI stdin", err)
		}
	}
	stdinPipe.Close()

	start := time.Now()
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var waitErr error
	timedOut := false
loop:
	for {
		select {
		case waitErr = <-done:
			break loop
		case <-time.After(pollInterval):
			if time.Since(start) > e.Timeout {
				cmd.Process.Kill()
				<-done
				timedOut = true
				break loop
			}
		}
	}

	if timedOut {
		return nil, servererr.NewCGI(servererr.CGITimeout, "CGI script exceeded timeout", nil)
	}
	if stdout.Len() > e.MaxOutputSize {
		return nil, servererr.NewCGI(servererr.CGIOversize, "CGI output exceeded size limit", nil)
	}
	if waitErr != nil {
		return nil, servererr.NewCGI(servererr.CGINonZeroExit, "CGI script exited with error", waitErr)
	}

	return parseOutput(stdout.Bytes(), version)
}

// parseOutput splits the CGI script's stdout into headers and body at the
// first blank line, applying the Status:/Content-Type:/Location: special
// cases from spec §4.4, grounded on executor.rs's parse_cgi_output.
func parseOutput(output []byte, version httpmsg.Version) (*httpmsg.Response, error) {
	headerEnd, bodyStart, found := splitHeaders(output)
	if !found {
		resp := httpmsg.NewResponse(httpmsg.StatusOK, version)
		resp.Header.Set("Content-Type", "text/html; charset=utf-8")
		resp.Body = output
		return resp, nil
	}

	status := httpmsg.StatusOK
	resp := httpmsg.NewResponse(status, version)
	contentTypeSet := false

	headerBlock := string(output[:headerEnd])
	for _, line := range strings.Split(headerBlock, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			return nil, servererr.NewCGI(servererr.CGIBadHeaders, "malformed CGI header line: "+line, nil)
		}
		name := strings.TrimSpace(line[:colon])
		value := strings.TrimSpace(line[colon+1:])

		switch strings.ToLower(name) {
		case "content-type":
			resp.Header.Set("Content-Type", value)
			contentTypeSet = true
		case "status":
			if code, ok := parseStatusLine(value); ok {
				resp.Status = code
			}
		case "location":
			resp.Header.Set("Location", value)
		default:
			resp.Header.Set(name, value)
		}
	}

	if !contentTypeSet {
		resp.Header.Set("Content-Type", "text/html; charset=utf-8")
	}
	resp.Body = output[bodyStart:]
	return resp, nil
}

func splitHeaders(output []byte) (headerEnd, bodyStart int, found bool) {
	if idx := bytes.Index(output, []byte("\r\n\r\n")); idx >= 0 {
		return idx, idx + 4, true
	}
	if idx := bytes.Index(output, []byte("\n\n")); idx >= 0 {
		return idx, idx + 2, true
	}
	return 0, 0, false
}

func parseStatusLine(value string) (httpmsg.Status, bool) {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return 0, false
	}
	code, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, false
	}
	return httpmsg.SupportedStatus(code)
}
