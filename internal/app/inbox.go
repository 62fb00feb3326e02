package app

import (
	"context"
	"sync"

	"github.com/relabs-tech/odom_plotter/internal/odometry"
)

// inbox is a bounded queue between the MQTT callback and the spin loop.
// When full, the oldest pending message is evicted (keep-last).
type inbox struct {
	mu       sync.Mutex
	ch       chan odometry.RawMessage
	overflow func()
}

func newInbox(depth int, overflow func()) *inbox {
	if depth < 1 {
		depth = 1
	}
	return &inbox{ch: make(chan odometry.RawMessage, depth), overflow: overflow}
}

func (b *inbox) push(msg odometry.RawMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for {
		select {
		case b.ch <- msg:
			return
		default:
		}
		select {
		case <-b.ch:
			if b.overflow != nil {
				b.overflow()
			}
		default:
		}
	}
}

// spin feeds pending messages to handle one at a time until ctx is done
// or handle fails.
func spin(ctx context.Context, in <-chan odometry.RawMessage, handle func(odometry.Message) error) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-in:
			if err := handle(msg); err != nil {
				return err
			}
		}
	}
}
