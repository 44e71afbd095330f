package http

import (
	"fmt"
	"strings"
)

const ContentLengthHeader = "Content-Length"

// Header maps header names, in the case they were received, to trimmed
// values. Only the first occurrence of a name is kept.
type Header map[string]string

// Get looks name up ignoring case. An exact match is preferred.
func (h Header) Get(name string) string {
	if v, ok := h[name]; ok {
		return v
	}
	for k, v := range h {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// Request is what a receiver collected for one request.
type Request struct {
	Method string
	Target string
	Header Header

	// Head is the raw input before the blank line ending the headers.
	Head string
	Body []byte

	// ContentLength is -1 when the request declared no body.
	ContentLength int

	// Rest holds bytes that arrived past the end of the request.
	Rest []byte

	// PeerClosed reports that the peer closed before the request was
	// complete. The other fields hold whatever was parsed until then.
	PeerClosed bool
}

func newRequest() *Request {
	return &Request{
		Header:        make(Header),
		ContentLength: -1,
	}
}

func (r *Request) String() string {
	return fmt.Sprintf("[method:%s][target:%s][content_length:%d]",
		r.Method, r.Target, r.ContentLength)
}
