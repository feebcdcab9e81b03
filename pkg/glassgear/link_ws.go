package glassgear

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

// Wire opcodes for client-to-device websocket messages. Device-to-
// client messages are [characteristic byte][payload...].
const (
	WSOpSubscribeAudio byte = 0x01 // [op][0|1]
	WSOpPhotoControl   byte = 0x02 // [op][int8]
	WSOpOTACommand     byte = 0x03 // [op][command bytes...]
)

// WSLink carries the device's characteristic notifications over a
// websocket, one client at a time. It stands in for the radio link in
// the simulator: the websocket session is the "connection" and the
// audio opt-in message is the subscription.
type WSLink struct {
	log      Logger
	upgrader websocket.Upgrader

	connected  atomic.Bool
	subscribed atomic.Bool

	mu      sync.Mutex
	handler LinkHandler
	values  map[Characteristic][]byte

	writeMu sync.Mutex
	conn    *websocket.Conn
}

// NewWSLink creates a websocket link. Register it on an HTTP mux and
// call SetHandler before serving.
func NewWSLink(log Logger) *WSLink {
	if log == nil {
		log = DefaultLogger()
	}
	return &WSLink{
		log:    log,
		values: make(map[Characteristic][]byte),
	}
}

// Connected reports whether a client session is open.
func (l *WSLink) Connected() bool { return l.connected.Load() }

// AudioSubscribed reports the client's audio opt-in.
func (l *WSLink) AudioSubscribed() bool { return l.subscribed.Load() }

// SetHandler registers the inbound event handler.
func (l *WSLink) SetHandler(h LinkHandler) {
	l.mu.Lock()
	l.handler = h
	l.mu.Unlock()
}

func (l *WSLink) getHandler() LinkHandler {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.handler
}

// SetValue updates a characteristic's readable value.
func (l *WSLink) SetValue(ch Characteristic, payload []byte) {
	l.mu.Lock()
	l.values[ch] = append([]byte(nil), payload...)
	l.mu.Unlock()
}

// Value reads a characteristic's current value.
func (l *WSLink) Value(ch Characteristic) []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]byte(nil), l.values[ch]...)
}

// Notify sends one notification. Write failures drop the notification
// and tear the session down; the loop sees a disconnect.
func (l *WSLink) Notify(ch Characteristic, payload []byte) error {
	l.writeMu.Lock()
	conn := l.conn
	if conn == nil {
		l.writeMu.Unlock()
		return nil
	}
	msg := make([]byte, 1+len(payload))
	msg[0] = byte(ch)
	copy(msg[1:], payload)
	err := conn.WriteMessage(websocket.BinaryMessage, msg)
	l.writeMu.Unlock()
	if err != nil {
		l.log.DebugPrintf("ws notify: %v", err)
		conn.Close()
	}
	return err
}

// ServeHTTP upgrades the request into the device session. A second
// concurrent client is rejected.
func (l *WSLink) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if l.connected.Load() {
		http.Error(w, "device busy", http.StatusConflict)
		return
	}
	conn, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.log.WarnPrintf("ws upgrade: %v", err)
		return
	}

	l.writeMu.Lock()
	l.conn = conn
	l.writeMu.Unlock()
	l.subscribed.Store(false)
	l.connected.Store(true)
	if h := l.getHandler(); h != nil {
		h.HandleConnect()
	}
	l.log.InfoPrintf("ws: client connected from %s", r.RemoteAddr)

	l.readLoop(conn)

	l.connected.Store(false)
	l.subscribed.Store(false)
	l.writeMu.Lock()
	if l.conn == conn {
		l.conn = nil
	}
	l.writeMu.Unlock()
	conn.Close()
	if h := l.getHandler(); h != nil {
		h.HandleDisconnect()
	}
	l.log.InfoPrintf("ws: client disconnected")
}

func (l *WSLink) readLoop(conn *websocket.Conn) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if len(msg) < 1 {
			continue
		}
		h := l.getHandler()
		switch msg[0] {
		case WSOpSubscribeAudio:
			enabled := len(msg) > 1 && msg[1] != 0
			l.subscribed.Store(enabled)
			if h != nil {
				h.HandleAudioSubscription(enabled)
			}
		case WSOpPhotoControl:
			if len(msg) > 1 && h != nil {
				h.HandlePhotoControl(int8(msg[1]))
			}
		case WSOpOTACommand:
			if len(msg) > 1 && h != nil {
				h.HandleOTACommand(append([]byte(nil), msg[1:]...))
			}
		}
	}
}

// WSClient is the client side of a WSLink, used by the monitor.
type WSClient struct {
	conn *websocket.Conn
}

// DialWS connects to a device serving a WSLink at url.
func DialWS(url string) (*WSClient, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("glassgear: dial %s: %w", url, err)
	}
	return &WSClient{conn: conn}, nil
}

// SubscribeAudio sets the audio notification opt-in.
func (c *WSClient) SubscribeAudio(enabled bool) error {
	b := byte(0)
	if enabled {
		b = 1
	}
	return c.conn.WriteMessage(websocket.BinaryMessage, []byte{WSOpSubscribeAudio, b})
}

// WritePhotoControl writes the photo control characteristic.
func (c *WSClient) WritePhotoControl(v int8) error {
	return c.conn.WriteMessage(websocket.BinaryMessage, []byte{WSOpPhotoControl, byte(v)})
}

// WriteOTACommand writes the OTA control characteristic.
func (c *WSClient) WriteOTACommand(cmd []byte) error {
	msg := make([]byte, 1+len(cmd))
	msg[0] = WSOpOTACommand
	copy(msg[1:], cmd)
	return c.conn.WriteMessage(websocket.BinaryMessage, msg)
}

// Next blocks for the next notification.
func (c *WSClient) Next() (Notification, error) {
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return Notification{}, fmt.Errorf("glassgear: read: %w", err)
		}
		if len(msg) < 1 {
			continue
		}
		return Notification{Char: Characteristic(msg[0]), Payload: msg[1:]}, nil
	}
}

// Close tears the session down.
func (c *WSClient) Close() error { return c.conn.Close() }
