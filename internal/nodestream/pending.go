package nodestream

import "github.com/udisondev/floclient/internal/model"

// PendingSender is a Sender stand-in used when the lobby handler starts
// before a node Stream has finished dialing (spec.md §4.D: "a
// placeholder that buffers until connected"). Reports made before
// Attach are replayed, in order, onto the real Sender once attached;
// reports made after Attach pass straight through.
type PendingSender struct {
	attached Sender
	buffered []model.SlotClientStatus
}

// NewPendingSender returns an unattached placeholder.
func NewPendingSender() *PendingSender {
	return &PendingSender{}
}

// ReportSlotStatus buffers status if nothing is attached yet, otherwise
// forwards it immediately.
func (p *PendingSender) ReportSlotStatus(status model.SlotClientStatus) {
	if p.attached != nil {
		p.attached.ReportSlotStatus(status)
		return
	}
	p.buffered = append(p.buffered, status)
}

// Attach wires the real Sender and replays anything buffered so far.
// Not safe for concurrent use with ReportSlotStatus; internal/relay calls
// Attach before the lobby phase starts, so the two never overlap there.
func (p *PendingSender) Attach(s Sender) {
	p.attached = s
	for _, status := range p.buffered {
		s.ReportSlotStatus(status)
	}
	p.buffered = nil
}
