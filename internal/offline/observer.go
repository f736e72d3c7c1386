package offline

import "github.com/mmcdole/flatsync/internal/domain"

// ChannelObserver adapts domain.SyncObserver to a channel.
// When the buffer is full the oldest status is dropped, so the reader always
// catches up to the latest value and the publisher never blocks.
type ChannelObserver struct {
	ch chan domain.SyncStatus
}

// NewChannelObserver creates a channel-based observer with the given buffer.
func NewChannelObserver(buffer int) *ChannelObserver {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelObserver{ch: make(chan domain.SyncStatus, buffer)}
}

// C returns the receive side of the channel
func (o *ChannelObserver) C() <-chan domain.SyncStatus {
	return o.ch
}

// OnStatus sends status, evicting the oldest buffered value if full.
func (o *ChannelObserver) OnStatus(status domain.SyncStatus) {
	for {
		select {
		case o.ch <- status:
			return
		default:
		}
		select {
		case <-o.ch:
		default:
		}
	}
}
