package glassgear

import "time"

// powerController tracks the activity clock and drives the CPU-rate
// power modes plus the opportunistic light-sleep pause.
type powerController struct {
	cfg   Config
	log   Logger
	hal   PowerHAL
	clock Clock

	lastActivity time.Time
	mode         PowerMode
}

func newPowerController(cfg Config, log Logger, hal PowerHAL, clock Clock) *powerController {
	p := &powerController{
		cfg:          cfg,
		log:          log,
		hal:          hal,
		clock:        clock,
		lastActivity: clock.Now(),
		mode:         PowerActive,
	}
	if hal != nil {
		hal.SetCPUFrequency(cfg.NormalCPUMHz)
	}
	return p
}

// Touch refreshes the activity clock. The clock never decreases.
func (p *powerController) Touch(now time.Time) {
	if now.After(p.lastActivity) {
		p.lastActivity = now
	}
}

// Mode returns the current power mode.
func (p *powerController) Mode() PowerMode { return p.mode }

// Saving reports whether the CPU is throttled.
func (p *powerController) Saving() bool { return p.mode == PowerSave }

// Evaluate runs the per-iteration power-mode policy. Repeated calls
// with no state change toggle the mode at most once per threshold
// crossing.
func (p *powerController) Evaluate(now time.Time, connected, uploading bool) {
	if connected || uploading {
		// Any active session counts as continuous activity; never
		// throttle mid-transfer.
		p.exitPowerSave()
		p.Touch(now)
		return
	}
	if now.Sub(p.lastActivity) > p.cfg.IdleThreshold {
		p.enterPowerSave()
	}
}

func (p *powerController) enterPowerSave() {
	if p.mode == PowerSave {
		return
	}
	p.mode = PowerSave
	if p.hal != nil {
		p.hal.SetCPUFrequency(p.cfg.PowerSaveCPUMHz)
	}
	p.log.InfoPrintf("power: save mode, cpu %d MHz", p.cfg.PowerSaveCPUMHz)
}

// ExitPowerSave restores the normal CPU rate.
func (p *powerController) ExitPowerSave() { p.exitPowerSave() }

func (p *powerController) exitPowerSave() {
	if p.mode == PowerActive {
		return
	}
	p.mode = PowerActive
	if p.hal != nil {
		p.hal.SetCPUFrequency(p.cfg.NormalCPUMHz)
	}
	p.log.InfoPrintf("power: active mode, cpu %d MHz", p.cfg.NormalCPUMHz)
}

// SleepBound computes the light-sleep duration for the given headroom
// until the next scheduled capture: min(headroom - wake margin, cap),
// or 0 when headroom does not exceed the minimum.
func (p *powerController) SleepBound(headroom time.Duration, scheduled bool) time.Duration {
	if !scheduled || headroom <= p.cfg.MinSleepHeadroom {
		return 0
	}
	d := headroom - p.cfg.SleepWakeMargin
	if d > p.cfg.MaxLightSleep {
		d = p.cfg.MaxLightSleep
	}
	return d
}

// MaybeLightSleep considers one opportunistic pause and returns the
// duration slept (0 when no sleep happened). The pause is bounded and
// resumes in place; activity refreshes on wake so the idle clocks
// restart.
func (p *powerController) MaybeLightSleep(now time.Time, connected, uploading bool, headroom time.Duration, scheduled bool) time.Duration {
	if !p.cfg.LightSleepEnabled || !connected || uploading {
		return 0
	}
	if now.Sub(p.lastActivity) < p.cfg.QuietWindow {
		return 0
	}
	d := p.SleepBound(headroom, scheduled)
	if d <= 0 {
		return 0
	}
	if p.hal != nil {
		p.hal.LightSleep(d)
	}
	p.Touch(p.clock.Now())
	return d
}
