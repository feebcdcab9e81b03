package glassgear

import (
	"sync"
	"sync/atomic"
)

// Notification is one notification as observed by the client side of a
// pipe link.
type Notification struct {
	Char    Characteristic
	Payload []byte
}

// NewPipeLink creates a connected in-process link pair: the device side
// implements Link, the client side drives it. Useful for tests and for
// running the core without a radio.
func NewPipeLink() (*PipeLink, *PipeClient) {
	l := &PipeLink{
		notifications: make(chan Notification, 1024),
		values:        make(map[Characteristic][]byte),
	}
	return l, &PipeClient{link: l}
}

// PipeLink is the device side of an in-process link.
type PipeLink struct {
	connected  atomic.Bool
	subscribed atomic.Bool

	mu      sync.Mutex
	handler LinkHandler
	values  map[Characteristic][]byte

	notifications chan Notification
}

// Connected reports whether the pipe client is attached.
func (l *PipeLink) Connected() bool { return l.connected.Load() }

// AudioSubscribed reports the client's audio opt-in.
func (l *PipeLink) AudioSubscribed() bool { return l.subscribed.Load() }

// SetHandler registers the inbound event handler.
func (l *PipeLink) SetHandler(h LinkHandler) {
	l.mu.Lock()
	l.handler = h
	l.mu.Unlock()
}

func (l *PipeLink) getHandler() LinkHandler {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.handler
}

// Notify delivers a notification to the client. When the client is not
// keeping up the notification is dropped; the link is a lossy stream.
func (l *PipeLink) Notify(ch Characteristic, payload []byte) error {
	if !l.connected.Load() {
		return nil
	}
	n := Notification{Char: ch, Payload: append([]byte(nil), payload...)}
	select {
	case l.notifications <- n:
	default:
	}
	return nil
}

// SetValue updates a characteristic's readable value.
func (l *PipeLink) SetValue(ch Characteristic, payload []byte) {
	l.mu.Lock()
	l.values[ch] = append([]byte(nil), payload...)
	l.mu.Unlock()
}

// PipeClient drives the client side of a pipe link.
type PipeClient struct {
	link *PipeLink
}

// Connect attaches the client. Subscriptions reset on connect.
func (c *PipeClient) Connect() {
	c.link.subscribed.Store(false)
	c.link.connected.Store(true)
	if h := c.link.getHandler(); h != nil {
		h.HandleConnect()
	}
}

// Disconnect detaches the client.
func (c *PipeClient) Disconnect() {
	c.link.connected.Store(false)
	c.link.subscribed.Store(false)
	if h := c.link.getHandler(); h != nil {
		h.HandleDisconnect()
	}
}

// SubscribeAudio sets the audio notification opt-in.
func (c *PipeClient) SubscribeAudio(enabled bool) {
	c.link.subscribed.Store(enabled)
	if h := c.link.getHandler(); h != nil {
		h.HandleAudioSubscription(enabled)
	}
}

// WritePhotoControl writes the photo control characteristic.
func (c *PipeClient) WritePhotoControl(v int8) {
	if h := c.link.getHandler(); h != nil {
		h.HandlePhotoControl(v)
	}
}

// WriteOTACommand writes the OTA control characteristic.
func (c *PipeClient) WriteOTACommand(cmd []byte) {
	if h := c.link.getHandler(); h != nil {
		h.HandleOTACommand(append([]byte(nil), cmd...))
	}
}

// Notifications returns the client-side notification stream.
func (c *PipeClient) Notifications() <-chan Notification {
	return c.link.notifications
}

// ReadValue reads a characteristic's current value.
func (c *PipeClient) ReadValue(ch Characteristic) []byte {
	c.link.mu.Lock()
	defer c.link.mu.Unlock()
	return append([]byte(nil), c.link.values[ch]...)
}
