package bus

import "context"

// defaultQueueSize bounds the in-process channels; backpressure beyond this
// is left to implementers per spec §5.
const defaultQueueSize = 256

// InProcess is a bounded, in-memory MessageRouter suitable for the CLI and
// for tests. It mirrors the teacher's channel-backed bus plumbing
// (internal/bus/types.go's MessageRouter shape) without any network
// transport.
type InProcess struct {
	inbound  chan InboundMessage
	outbound chan OutboundMessage
}

// NewInProcess constructs a bus with a bounded queue of the given size;
// size <= 0 uses defaultQueueSize.
func NewInProcess(size int) *InProcess {
	if size <= 0 {
		size = defaultQueueSize
	}
	return &InProcess{
		inbound:  make(chan InboundMessage, size),
		outbound: make(chan OutboundMessage, size),
	}
}

func (b *InProcess) PublishInbound(msg InboundMessage) {
	b.inbound <- msg
}

// ConsumeInbound blocks until a message arrives or ctx is done, matching
// spec §5's 1-second poll-timeout discipline (callers typically wrap ctx
// with a 1-second timeout and loop).
func (b *InProcess) ConsumeInbound(ctx context.Context) (InboundMessage, bool) {
	select {
	case msg := <-b.inbound:
		return msg, true
	case <-ctx.Done():
		return InboundMessage{}, false
	}
}

func (b *InProcess) PublishOutbound(msg OutboundMessage) {
	b.outbound <- msg
}

func (b *InProcess) ConsumeOutbound(ctx context.Context) (OutboundMessage, bool) {
	select {
	case msg := <-b.outbound:
		return msg, true
	case <-ctx.Done():
		return OutboundMessage{}, false
	}
}
