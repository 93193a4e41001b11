package object

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// MaxChannelCapacity bounds the buffer a single channel may preallocate.
const MaxChannelCapacity = 1 << 24

var (
	ErrChannelClosed   = errors.New("cannot send to closed channel")
	ErrChannelCapacity = errors.New("channel capacity must be >= 0")
	ErrChannelTooLarge = fmt.Errorf("channel capacity exceeds %d", MaxChannelCapacity)
)

// Channel is a bounded FIFO of values, or a rendezvous cell when Capacity is 0.
type Channel struct {
	header
	Capacity int

	mu         sync.Mutex
	notEmpty   *sync.Cond
	notFull    *sync.Cond
	rendezvous *sync.Cond

	buffer []Object
	head   int
	count  int
	closed bool

	// rendezvous handoff: one deposit at a time
	slot      Object
	slotFull  bool
	deposited uint64
	taken     uint64
}

func NewChannel(capacity int) (*Channel, error) {
	if capacity < 0 {
		return nil, ErrChannelCapacity
	}
	if capacity > MaxChannelCapacity {
		return nil, ErrChannelTooLarge
	}
	c := &Channel{Capacity: capacity}
	c.notEmpty = sync.NewCond(&c.mu)
	c.notFull = sync.NewCond(&c.mu)
	c.rendezvous = sync.NewCond(&c.mu)
	if capacity > 0 {
		c.buffer = make([]Object, capacity)
	}
	c.init()
	return c, nil
}

func (c *Channel) Type() ObjectType { return CHANNEL_OBJ }
func (c *Channel) Inspect() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	closed := ""
	if c.closed {
		closed = " closed"
	}
	return fmt.Sprintf("<channel capacity=%d count=%d%s>", c.Capacity, c.count, closed)
}
func (c *Channel) value() {}
func (c *Channel) children() []Object {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Object, 0, c.count+1)
	for i := 0; i < c.count; i++ {
		out = append(out, c.buffer[(c.head+i)%c.Capacity])
	}
	if c.slotFull {
		out = append(out, c.slot)
	}
	return out
}

func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

func (c *Channel) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close marks the channel closed and wakes every waiter. Repeated calls are no-ops.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.broadcast()
	slog.Debug("channel closed", slog.Int("capacity", c.Capacity), slog.Int("count", c.count))
}

func (c *Channel) broadcast() {
	c.notEmpty.Broadcast()
	c.notFull.Broadcast()
	c.rendezvous.Broadcast()
}

// Send blocks until v is buffered or, for a rendezvous channel, picked up.
func (c *Channel) Send(v Object) error {
	ok, err := c.send(v, nil)
	if err == nil && !ok {
		return ErrChannelClosed
	}
	return err
}

// SendTimeout reports false when the value could not be delivered in time.
func (c *Channel) SendTimeout(v Object, d time.Duration) (bool, error) {
	return c.send(v, c.deadline(d))
}

// Recv blocks until a value is available. A closed, drained channel yields null.
func (c *Channel) Recv() Object {
	v, _ := c.recv(nil)
	return v
}

// RecvTimeout returns null and false when nothing arrived in time.
func (c *Channel) RecvTimeout(d time.Duration) (Object, bool) {
	return c.recv(c.deadline(d))
}

type deadline struct {
	at    time.Time
	timer *time.Timer
}

func (d *deadline) expired() bool {
	return d != nil && !time.Now().Before(d.at)
}

func (d *deadline) stop() {
	if d != nil {
		d.timer.Stop()
	}
}

// deadline arms a timer that wakes all waiters once d has elapsed, so each
// wait loop can observe expiry.
func (c *Channel) deadline(d time.Duration) *deadline {
	if d < 0 {
		d = 0
	}
	dl := &deadline{at: time.Now().Add(d)}
	dl.timer = time.AfterFunc(d, func() {
		c.mu.Lock()
		c.broadcast()
		c.mu.Unlock()
	})
	return dl
}

func (c *Channel) send(v Object, dl *deadline) (bool, error) {
	defer dl.stop()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Capacity == 0 {
		return c.sendRendezvous(v, dl)
	}

	for c.count == c.Capacity && !c.closed {
		if dl.expired() {
			return false, nil
		}
		c.notFull.Wait()
	}
	if c.closed {
		return false, ErrChannelClosed
	}
	c.buffer[(c.head+c.count)%c.Capacity] = Retain(v)
	c.count++
	c.notEmpty.Broadcast()
	return true, nil
}

func (c *Channel) sendRendezvous(v Object, dl *deadline) (bool, error) {
	for c.slotFull && !c.closed {
		if dl.expired() {
			return false, nil
		}
		c.notFull.Wait()
	}
	if c.closed {
		return false, ErrChannelClosed
	}

	c.slot = Retain(v)
	c.slotFull = true
	c.deposited++
	ticket := c.deposited
	c.notEmpty.Broadcast()

	for c.taken < ticket {
		if c.closed || dl.expired() {
			// retract the unclaimed deposit
			c.slot = nil
			c.slotFull = false
			c.notFull.Broadcast()
			Release(v)
			if c.closed {
				return false, ErrChannelClosed
			}
			return false, nil
		}
		c.rendezvous.Wait()
	}
	return true, nil
}

func (c *Channel) recv(dl *deadline) (Object, bool) {
	defer dl.stop()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Capacity == 0 {
		for !c.slotFull && !c.closed {
			if dl.expired() {
				return NULL, false
			}
			c.notEmpty.Wait()
		}
		if c.closed {
			return NULL, true
		}
		v := c.slot
		c.slot = nil
		c.slotFull = false
		c.taken++
		c.rendezvous.Broadcast()
		c.notFull.Broadcast()
		return v, true
	}

	for c.count == 0 && !c.closed {
		if dl.expired() {
			return NULL, false
		}
		c.notEmpty.Wait()
	}
	if c.count == 0 {
		return NULL, true
	}
	v := c.buffer[c.head]
	c.buffer[c.head] = nil
	c.head = (c.head + 1) % c.Capacity
	c.count--
	c.notFull.Broadcast()
	return v, true
}
