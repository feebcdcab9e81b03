package glassgear

import (
	"context"
	"time"
)

// Options wires the collaborators into an App. Link is required; every
// other collaborator may be nil, in which case its loop step is a
// no-op.
type Options struct {
	Config  Config
	Logger  Logger
	Clock   Clock
	Link    Link
	Capture Capture
	Encoder Encoder
	Sensor  ImageSensor
	Power   PowerHAL
	Battery BatteryReader
	Button  ButtonInput
	LED     LED

	// OTA collaborators. The updater is created even when these are
	// nil so command parsing and status reporting still work.
	OTAJoiner NetworkJoiner
	OTASink   FirmwareSink

	Info *DeviceInfo
}

type linkEventKind int

const (
	evConnect linkEventKind = iota
	evDisconnect
	evAudioSubscription
	evPhotoControl
	evOTACommand
)

type linkEvent struct {
	kind    linkEventKind
	enabled bool
	control int8
	cmd     []byte
}

// App owns all loop state and runs the cooperative scheduler. All
// mutable state lives here or in the components it holds; link events
// arriving from other goroutines are queued and applied inside the
// loop.
type App struct {
	cfg   Config
	log   Logger
	clock Clock
	link  Link
	hal   PowerHAL
	info  DeviceInfo

	audio   *audioPipeline
	photo   *photoUploader
	power   *powerController
	button  *Button
	led     *ledDriver
	battery *batteryMonitor
	ota     *Updater

	events chan linkEvent

	state          DeviceState
	batteryPrimed  bool
	shutdownCalled bool
}

// New creates the control plane. It registers itself as the link's
// event handler.
func New(opts Options) *App {
	cfg := opts.Config
	if cfg.FrameSamples == 0 {
		cfg = DefaultConfig()
	}
	log := opts.Logger
	if log == nil {
		log = DefaultLogger()
	}
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock()
	}
	info := NewDeviceInfo()
	if opts.Info != nil {
		info = *opts.Info
	}

	a := &App{
		cfg:    cfg,
		log:    log,
		clock:  clock,
		link:   opts.Link,
		hal:    opts.Power,
		info:   info,
		events: make(chan linkEvent, 64),
		state:  StateBooting,
	}

	now := clock.Now()
	a.audio = newAudioPipeline(cfg, log, clock, opts.Capture, opts.Encoder, opts.Link)
	a.photo = newPhotoUploader(cfg, log, opts.Sensor, opts.Link)
	a.power = newPowerController(cfg, log, opts.Power, clock)
	a.button = NewButton(cfg, opts.Button)
	a.led = newLEDDriver(cfg, opts.LED, now)
	a.battery = newBatteryMonitor(cfg, log, opts.Battery, opts.Link)
	a.ota = NewUpdater(log, opts.Link, opts.OTAJoiner, opts.OTASink, nil)

	opts.Link.SetHandler(a)
	if opts.Encoder != nil {
		opts.Link.SetValue(CharCodec, []byte{opts.Encoder.CodecID()})
	}
	return a
}

// State returns the coarse device state.
func (a *App) State() DeviceState { return a.state }

// Info returns the device identity.
func (a *App) Info() DeviceInfo { return a.info }

// PowerMode returns the current CPU power mode.
func (a *App) PowerMode() PowerMode { return a.power.Mode() }

// ButtonSignal is the interrupt-context entry point for button edges.
func (a *App) ButtonSignal() { a.button.Signal() }

// Updater exposes the OTA worker.
func (a *App) Updater() *Updater { return a.ota }

// Run drives the scheduler loop until shutdown (long press) or context
// cancellation. Interval photo capture is armed at boot with the
// configured interval, first shot due immediately.
func (a *App) Run(ctx context.Context) error {
	a.log.InfoPrintf("boot: %s serial %s firmware %s",
		a.info.Model, a.info.SerialNumber, a.info.FirmwareRevision)

	now := a.clock.Now()
	a.photo.StartDefault(now)
	a.battery.Poll(now, true)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		now = a.clock.Now()
		if a.step(now) {
			return nil
		}
		a.clock.Sleep(a.pacing())
	}
}

// step runs one full scheduler iteration in fixed priority order. It
// returns true when the device has shut down.
func (a *App) step(now time.Time) bool {
	a.drainLinkEvents(now)

	// 1. Button: user interaction always first.
	switch a.button.Poll(now) {
	case ButtonLongPress:
		a.log.InfoPrintf("button: long press, shutdown sequence")
		a.led.StartShutdown(now)
		a.state = StateShuttingDown
	case ButtonShortPress:
		a.log.DebugPrintf("button: short press")
		a.power.Touch(now)
		a.power.ExitPowerSave()
	}

	// 2. LED feedback. A finished shutdown sequence powers off.
	if a.led.Update(now, a.link.Connected()) {
		a.shutdown()
		return true
	}
	if a.state == StateBooting && a.led.Mode() == LEDNormal {
		a.state = StateActive
	}

	// 3. The OTA worker runs on its own goroutine; commands were
	// already applied while draining link events.

	// 4. Audio capture and encode.
	a.audio.captureAndEncode()

	// 5. Audio send, ahead of any photo traffic.
	if a.audio.drainAndSend() > 0 {
		a.power.Touch(now)
	}

	// 6. Power mode.
	a.power.Evaluate(now, a.link.Connected(), a.photo.Uploading())

	// 7. Battery, on its own period plus a forced push on the first
	// connection.
	force := a.link.Connected() && !a.batteryPrimed
	if force {
		a.batteryPrimed = true
	}
	a.battery.Poll(now, force)

	// 8. Photo capture schedule.
	a.photo.MaybeCapture(now, a.link.Connected())

	// 9. Photo chunks, bounded per iteration and yielding to audio.
	chunks := 0
	for a.photo.Uploading() && chunks < a.cfg.MaxPhotoChunksPerLoop {
		if a.link.AudioSubscribed() && a.audio.pending() {
			chunks = 0
			break
		}
		if !a.photo.SendChunk() {
			break
		}
		a.power.Touch(now)
		chunks++
	}

	// 10. Opportunistic light sleep.
	if !a.photo.Uploading() && !a.link.AudioSubscribed() {
		headroom, scheduled := a.photo.TimeUntilNextCapture(now)
		a.power.MaybeLightSleep(now, a.link.Connected(), a.photo.Uploading(), headroom, scheduled)
	}

	return false
}

func (a *App) pacing() time.Duration {
	if a.photo.Uploading() || a.link.AudioSubscribed() {
		return a.cfg.ActivePacing
	}
	return a.cfg.IdlePacing
}

func (a *App) drainLinkEvents(now time.Time) {
	for {
		select {
		case ev := <-a.events:
			a.applyLinkEvent(ev, now)
		default:
			return
		}
	}
}

func (a *App) applyLinkEvent(ev linkEvent, now time.Time) {
	switch ev.kind {
	case evConnect:
		a.log.InfoPrintf("link: client connected")
		a.power.Touch(now)
		a.battery.Poll(now, true)
	case evDisconnect:
		a.log.InfoPrintf("link: client disconnected")
	case evAudioSubscription:
		a.log.InfoPrintf("link: audio notifications %v", ev.enabled)
		a.power.Touch(now)
	case evPhotoControl:
		a.power.Touch(now)
		a.photo.HandleControl(ev.control, now)
	case evOTACommand:
		a.ota.HandleCommand(ev.cmd)
	}
}

// shutdown is the irrevocable long-press path: stop producing, release
// the in-flight image, and hand off to the power HAL.
func (a *App) shutdown() {
	if a.shutdownCalled {
		return
	}
	a.shutdownCalled = true
	a.state = StateOff
	a.photo.Abort()
	a.log.InfoPrintf("shutdown: entering deep sleep")
	if a.hal != nil {
		a.hal.DeepSleep()
	}
}

// LinkHandler implementation. These run on the link's goroutines and
// only enqueue; a full queue drops the event, which the affected
// client observes as a lossy link.

func (a *App) HandleConnect() { a.enqueue(linkEvent{kind: evConnect}) }

func (a *App) HandleDisconnect() { a.enqueue(linkEvent{kind: evDisconnect}) }

func (a *App) HandleAudioSubscription(enabled bool) {
	a.enqueue(linkEvent{kind: evAudioSubscription, enabled: enabled})
}

func (a *App) HandlePhotoControl(v int8) {
	a.enqueue(linkEvent{kind: evPhotoControl, control: v})
}

func (a *App) HandleOTACommand(cmd []byte) {
	a.enqueue(linkEvent{kind: evOTACommand, cmd: cmd})
}

func (a *App) enqueue(ev linkEvent) {
	select {
	case a.events <- ev:
	default:
	}
}
