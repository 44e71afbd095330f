package http

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidMethod    = errors.New("http: invalid method")
	ErrProtocolMismatch = errors.New("http: protocol mismatch")
	ErrBadContentLength = errors.New("http: bad content length")
	ErrPeerClosed       = errors.New("http: peer closed before request completed")
	ErrTooLarge         = errors.New("http: request too large")
)

const (
	protocol = "HTTP/1.1"

	// maxBodyPrealloc caps the body buffer reserved up front.
	maxBodyPrealloc = 64 << 10
)

var (
	crlf     = []byte("\r\n")
	crlfcrlf = []byte("\r\n\r\n")
)

type State int

const (
	StateRequestLine State = iota
	StateHeaders
	StateBody
	StateComplete
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateRequestLine:
		return "request_line"
	case StateHeaders:
		return "headers"
	case StateBody:
		return "body"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Parser assembles one request from input arriving in arbitrary chunks.
// The zero value is not usable; call NewParser.
type Parser struct {
	allowed Method
	maxHead int
	maxBody int
	state   State
	err     error
	req     *Request
	buf     []byte
	lineEnd int
	scan    int
}

type ParserOption func(p *Parser)

// MaxHeadSize fails requests whose request line and headers exceed n
// bytes. Zero means no limit.
func MaxHeadSize(n int) ParserOption {
	return func(p *Parser) {
		p.maxHead = n
	}
}

// MaxBodySize fails requests declaring a Content-Length above n before any
// body byte is read. Zero means no limit.
func MaxBodySize(n int) ParserOption {
	return func(p *Parser) {
		p.maxBody = n
	}
}

func NewParser(allowed Method, opt ...ParserOption) *Parser {
	p := &Parser{
		allowed: allowed,
		req:     newRequest(),
	}
	for _, o := range opt {
		o(p)
	}
	return p
}

func (p *Parser) State() State {
	return p.state
}

func (p *Parser) Err() error {
	return p.err
}

// Request returns the request as parsed so far.
func (p *Parser) Request() *Request {
	return p.req
}

// Need returns how many body bytes are still missing, or -1 while the
// request head is incomplete. It is 0 once parsing has ended.
func (p *Parser) Need() int {
	switch p.state {
	case StateRequestLine, StateHeaders:
		return -1
	case StateBody:
		return p.req.ContentLength - len(p.req.Body)
	}
	return 0
}

// Feed consumes the next chunk of input and reports the resulting state.
// Input fed after completion is appended to Request.Rest.
func (p *Parser) Feed(chunk []byte) (State, error) {
	switch p.state {
	case StateFailed:
		return p.state, p.err
	case StateComplete:
		p.req.Rest = append(p.req.Rest, chunk...)
		return p.state, nil
	case StateBody:
		p.feedBody(chunk)
		return p.state, nil
	}

	p.buf = append(p.buf, chunk...)

	if p.state == StateRequestLine {
		if err := p.parseRequestLine(); err != nil {
			return p.fail(err)
		}
		if p.state == StateRequestLine {
			if err := p.checkHead(len(p.buf)); err != nil {
				return p.fail(err)
			}
			return p.state, nil
		}
	}

	if err := p.parseHeaders(); err != nil {
		return p.fail(err)
	}

	if p.state == StateHeaders {
		if err := p.checkHead(len(p.buf)); err != nil {
			return p.fail(err)
		}
	}

	return p.state, nil
}

func (p *Parser) checkHead(n int) error {
	if p.maxHead > 0 && n > p.maxHead {
		return fmt.Errorf("%w: head over [%d] bytes", ErrTooLarge, p.maxHead)
	}
	return nil
}

// Close tells the parser the peer closed the connection. An incomplete
// request is handed back together with ErrPeerClosed.
func (p *Parser) Close() (*Request, error) {
	switch p.state {
	case StateComplete:
		return p.req, nil
	case StateFailed:
		return p.req, p.err
	}

	p.req.PeerClosed = true
	if p.state != StateBody {
		p.req.Head = string(p.buf)
	}
	return p.req, ErrPeerClosed
}

func (p *Parser) fail(err error) (State, error) {
	p.state = StateFailed
	p.err = err
	return p.state, err
}

func (p *Parser) parseRequestLine() error {
	i := bytes.Index(p.buf, crlf)
	if i < 0 {
		return nil
	}

	line := string(p.buf[:i])

	sp := strings.IndexByte(line, ' ')
	if sp <= 0 {
		return fmt.Errorf("%w: request line [%s]", ErrInvalidMethod, line)
	}

	method := line[:sp]
	if !p.allowed.Allows(method) {
		return fmt.Errorf("%w: [%s] not in [%s]", ErrInvalidMethod, method, p.allowed)
	}

	if !strings.HasSuffix(line, protocol) {
		return fmt.Errorf("%w: request line [%s]", ErrProtocolMismatch, line)
	}

	var target string
	if end := len(line) - len(protocol); end > sp {
		target = strings.TrimSpace(line[sp:end])
	}

	p.req.Method = method
	p.req.Target = target
	p.lineEnd = i
	p.scan = i
	p.state = StateHeaders

	return nil
}

func (p *Parser) parseHeaders() error {
	j := bytes.Index(p.buf[p.scan:], crlfcrlf)
	if j < 0 {
		if n := len(p.buf) - len(crlfcrlf) + 1; n > p.scan {
			p.scan = n
		}
		return nil
	}
	j += p.scan

	if err := p.checkHead(j); err != nil {
		return err
	}

	var (
		contentLength string
		seenLength    bool
	)

	// the request line's CRLF may itself open the blank line
	if start := p.lineEnd + len(crlf); start <= j {
		for _, line := range strings.Split(string(p.buf[start:j]), "\r\n") {
			name, value, ok := strings.Cut(line, ":")
			if !ok {
				continue
			}
			name, value = strings.TrimSpace(name), strings.TrimSpace(value)
			if _, dup := p.req.Header[name]; !dup {
				p.req.Header[name] = value
			}
			if !seenLength && strings.EqualFold(name, ContentLengthHeader) {
				contentLength, seenLength = value, true
			}
		}
	}

	p.req.Head = string(p.buf[:j])
	rest := p.buf[j+len(crlfcrlf):]
	p.buf = nil

	if contentLength == "" {
		p.state = StateComplete
		if len(rest) > 0 {
			p.req.Rest = append([]byte(nil), rest...)
		}
		return nil
	}

	n, err := strconv.Atoi(contentLength)
	if err != nil || n < 0 {
		return fmt.Errorf("%w: [%s]", ErrBadContentLength, contentLength)
	}
	if p.maxBody > 0 && n > p.maxBody {
		return fmt.Errorf("%w: content length [%d] over [%d]", ErrTooLarge, n, p.maxBody)
	}

	p.req.ContentLength = n
	p.req.Body = make([]byte, 0, min(n, maxBodyPrealloc))
	p.state = StateBody
	p.feedBody(rest)

	return nil
}

func (p *Parser) feedBody(chunk []byte) {
	need := p.req.ContentLength - len(p.req.Body)
	if len(chunk) > need {
		p.req.Rest = append(p.req.Rest, chunk[need:]...)
		chunk = chunk[:need]
	}

	p.req.Body = append(p.req.Body, chunk...)

	if len(p.req.Body) == p.req.ContentLength {
		p.state = StateComplete
	}
}
