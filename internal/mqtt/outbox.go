package mqtt

// pendingMsg is a serialized message waiting for the broker to come back.
type pendingMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox queues messages while disconnected. When full, the oldest message is
// discarded. Not safe for concurrent use; the caller must synchronize.
type outbox struct {
	msgs    []pendingMsg
	limit   int
	dropped int
}

func newOutbox(limit int) *outbox {
	return &outbox{
		msgs:  make([]pendingMsg, 0, limit),
		limit: limit,
	}
}

func (o *outbox) add(m pendingMsg) {
	if o.limit <= 0 {
		o.dropped++
		return
	}
	if len(o.msgs) == o.limit {
		copy(o.msgs, o.msgs[1:])
		o.msgs = o.msgs[:len(o.msgs)-1]
		o.dropped++
	}
	o.msgs = append(o.msgs, m)
}

// take empties the outbox, returning queued messages oldest first and how
// many were discarded since the last take.
func (o *outbox) take() ([]pendingMsg, int) {
	dropped := o.dropped
	o.dropped = 0
	if len(o.msgs) == 0 {
		return nil, dropped
	}

	out := make([]pendingMsg, len(o.msgs))
	copy(out, o.msgs)
	o.msgs = o.msgs[:0]
	return out, dropped
}

func (o *outbox) len() int {
	return len(o.msgs)
}
