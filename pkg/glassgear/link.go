package glassgear

// Link is the wireless transport surface consumed by the core. The
// link owns connection and session management; the core only asks for
// connection state and emits notifications.
//
// Implementations deliver inbound events (connection changes,
// subscription changes, control writes) to a LinkHandler. Handler
// methods may be called from the link's own goroutines; the core's
// handler only enqueues and the loop does the work.
type Link interface {
	// Connected reports whether a client is connected.
	Connected() bool

	// AudioSubscribed reports whether the client opted in to audio
	// notifications.
	AudioSubscribed() bool

	// Notify sends one notification on a characteristic. Failures are
	// local to the link; the core drops and continues.
	Notify(ch Characteristic, payload []byte) error

	// SetValue updates a characteristic's readable value without
	// notifying.
	SetValue(ch Characteristic, payload []byte)

	// SetHandler registers the inbound event handler. Must be called
	// before the link accepts clients.
	SetHandler(h LinkHandler)
}

// LinkHandler receives inbound link events.
type LinkHandler interface {
	// HandleConnect is called when a client connects. Subscriptions
	// are reset by the link before this call.
	HandleConnect()

	// HandleDisconnect is called when the client goes away.
	HandleDisconnect()

	// HandleAudioSubscription is called on audio CCCD changes.
	HandleAudioSubscription(enabled bool)

	// HandlePhotoControl is called with the single control byte
	// written to the photo control characteristic.
	HandlePhotoControl(v int8)

	// HandleOTACommand is called with raw OTA command bytes.
	HandleOTACommand(cmd []byte)
}
