package http

import (
	"errors"
	"io"
	"time"

	"github.com/hsgames/knot/net/tcp"
	"github.com/hsgames/knot/pool/bytespool"
)

// ReceiveRequest reads one request from conn. Each read waits at most
// timeout and, once the body length is known, asks for no more than the
// body still missing.
//
// A peer that closes early yields the partial request and ErrPeerClosed.
// On any other error the request parsed so far is returned as well.
func ReceiveRequest(conn *tcp.Conn, timeout time.Duration, allowed Method, opt ...ParserOption) (*Request, error) {
	p := NewParser(allowed, opt...)

	buf := bytespool.Get(tcp.ChunkSize)
	defer bytespool.Put(buf)

	for {
		want := len(buf)
		if need := p.Need(); need > 0 && need < want {
			want = need
		}

		n, err := conn.ReceiveChunk(buf[:want], timeout)
		if n > 0 {
			state, perr := p.Feed(buf[:n])
			if perr != nil {
				return p.Request(), perr
			}
			if state == StateComplete {
				return p.Request(), nil
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				return p.Close()
			}
			return p.Request(), err
		}
	}
}
