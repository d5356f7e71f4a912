// Package httpwire reads and writes the minimal HTTP/1.x wire format the
// server speaks: one GET request line plus headers in, one response out.
package httpwire

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// DefaultMaxRequestBytes caps how much of a request is read before giving up.
const DefaultMaxRequestBytes = 4096

// ErrBadRequest marks any malformed or oversized request. Callers map it to a
// 400 response; wrap sites add detail for logging.
var ErrBadRequest = errors.New("bad request")

// Request is a parsed request line. Header lines are consumed but carry no
// meaning here; a query component is stripped and recorded, never interpreted.
type Request struct {
	Method   string
	RawPath  string
	Proto    string
	HadQuery bool
}

// ParseRequest reads one request from r, consuming the request line and all
// header lines up to the blank line. At most maxBytes are read (maxBytes <= 0
// selects DefaultMaxRequestBytes); a request line that does not fit the cap is
// a bad request, not a partial parse.
func ParseRequest(r io.Reader, maxBytes int) (*Request, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestBytes
	}
	lr := &io.LimitedReader{R: r, N: int64(maxBytes)}
	br := bufio.NewReaderSize(lr, min(maxBytes, DefaultMaxRequestBytes))

	line, err := br.ReadString('\n')
	switch {
	case err == io.EOF && lr.N == 0 && !strings.HasSuffix(line, "\n"):
		return nil, fmt.Errorf("%w: request line exceeds %d bytes", ErrBadRequest, maxBytes)
	case err == io.EOF && line != "":
		// Client closed without a line terminator; parse what arrived.
	case err != nil:
		return nil, fmt.Errorf("%w: reading request line: %v", ErrBadRequest, err)
	}

	req, err := parseRequestLine(strings.TrimRight(line, "\r\n"))
	if err != nil {
		return nil, err
	}

	// Headers are read and discarded up to the blank line. Truncation by the
	// cap or an early close just ends consumption; the request line already
	// carries everything this server uses.
	for {
		hline, herr := br.ReadString('\n')
		if herr != nil || strings.TrimRight(hline, "\r\n") == "" {
			break
		}
	}

	return req, nil
}

// parseRequestLine splits "METHOD /path HTTP/x.y" into a Request. The method
// token is preserved verbatim so the handler can reject non-GET itself.
func parseRequestLine(line string) (*Request, error) {
	if line == "" {
		return nil, fmt.Errorf("%w: empty request line", ErrBadRequest)
	}
	if !utf8.ValidString(line) {
		return nil, fmt.Errorf("%w: request line is not valid UTF-8", ErrBadRequest)
	}

	fields := strings.Split(line, " ")
	if len(fields) != 3 {
		return nil, fmt.Errorf("%w: expected 3 request-line tokens, got %d", ErrBadRequest, len(fields))
	}
	method, target, proto := fields[0], fields[1], fields[2]

	if method == "" || !isToken(method) {
		return nil, fmt.Errorf("%w: invalid method token", ErrBadRequest)
	}
	if !strings.HasPrefix(proto, "HTTP/") {
		return nil, fmt.Errorf("%w: invalid protocol version %q", ErrBadRequest, proto)
	}
	if !strings.HasPrefix(target, "/") {
		return nil, fmt.Errorf("%w: request target must be origin-form", ErrBadRequest)
	}
	if strings.ContainsFunc(target, isCTL) {
		return nil, fmt.Errorf("%w: control byte in request target", ErrBadRequest)
	}

	req := &Request{Method: method, RawPath: target, Proto: proto}
	if path, _, found := strings.Cut(target, "?"); found {
		req.RawPath = path
		req.HadQuery = true
	}
	return req, nil
}

func isToken(s string) bool {
	for _, r := range s {
		if r <= ' ' || r >= 0x7f {
			return false
		}
	}
	return true
}

func isCTL(r rune) bool {
	return r < 0x20 || r == 0x7f
}
