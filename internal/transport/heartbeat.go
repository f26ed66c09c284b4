package transport

import "github.com/udisondev/floclient/internal/wire"

// AnswerPing echoes a transport-level ping back as a pong and reports
// whether f was a ping at all. Ping/pong handling belongs to whoever owns
// the read loop, not to the transport itself (spec.md §4.A) — this just
// saves every owner from re-deriving the one-line echo.
func AnswerPing(c *Conn, f wire.Frame) (handled bool, err error) {
	if !f.IsPing() {
		return false, nil
	}
	return true, c.Send(f.Pong())
}
