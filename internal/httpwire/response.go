package httpwire

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ReasonPhrase returns the phrase used on the status line. Every error other
// than 429 answers with the generic "Bad Request" phrase so that status
// classes are not distinguishable beyond the code itself.
func ReasonPhrase(code int) string {
	switch code {
	case http.StatusOK:
		return "OK"
	case http.StatusTooManyRequests:
		return "Too Many Requests"
	default:
		return "Bad Request"
	}
}

// WriteFile writes a 200 response with an exact Content-Length and streams
// length bytes from body. contentType may be empty, in which case the header
// is omitted.
func WriteFile(w io.Writer, length int64, contentType string, body io.Reader) error {
	var b strings.Builder
	fmt.Fprintf(&b, "HTTP/1.1 %d %s\r\n", http.StatusOK, ReasonPhrase(http.StatusOK))
	fmt.Fprintf(&b, "Content-Length: %d\r\n", length)
	if contentType != "" {
		fmt.Fprintf(&b, "Content-Type: %s\r\n", contentType)
	}
	b.WriteString("\r\n")
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}
	_, err := io.CopyN(w, body, length)
	return err
}

// WriteError writes the minimal error response for code: the status line, a
// Content-Length header, and a body of the bare numeric code. NotFound and
// Blacklisted both pass through here as 404, which keeps them byte-identical
// on the wire.
func WriteError(w io.Writer, code int) error {
	return writeSmall(w, code, 0)
}

// WriteRateLimited writes the 429 response with a Retry-After header carrying
// the remaining penalty, rounded up to whole seconds.
func WriteRateLimited(w io.Writer, retryAfter time.Duration) error {
	secs := int64(retryAfter.Seconds())
	if retryAfter > 0 && retryAfter%time.Second != 0 {
		secs++
	}
	if secs < 0 {
		secs = 0
	}
	return writeSmall(w, http.StatusTooManyRequests, secs)
}

func writeSmall(w io.Writer, code int, retryAfterSecs int64) error {
	body := fmt.Sprintf("%d\n", code)
	var b strings.Builder
	fmt.Fprintf(&b, "HTTP/1.1 %d %s\r\n", code, ReasonPhrase(code))
	if code == http.StatusTooManyRequests {
		fmt.Fprintf(&b, "Retry-After: %d\r\n", retryAfterSecs)
	}
	fmt.Fprintf(&b, "Content-Length: %d\r\n", len(body))
	b.WriteString("\r\n")
	b.WriteString(body)
	_, err := io.WriteString(w, b.String())
	return err
}
