package glassgear

import (
	"testing"
	"time"
)

func TestPowerController_IdleThrottle(t *testing.T) {
	cfg := DefaultConfig()
	hal := &fakePowerHAL{}
	clock := newFakeClock()
	p := newPowerController(cfg, DefaultLogger(), hal, clock)

	if got := hal.freqs; len(got) != 1 || got[0] != cfg.NormalCPUMHz {
		t.Fatalf("initial cpu rates %v, want [%d]", got, cfg.NormalCPUMHz)
	}

	t0 := clock.Now()
	p.Evaluate(t0, false, false)
	if p.Mode() != PowerActive {
		t.Fatalf("mode %v before idle threshold, want active", p.Mode())
	}

	idle := t0.Add(cfg.IdleThreshold + time.Second)
	p.Evaluate(idle, false, false)
	if p.Mode() != PowerSave {
		t.Fatalf("mode %v after idle threshold, want power save", p.Mode())
	}

	// Repeated evaluations with no state change must not touch the HAL
	// again.
	n := len(hal.freqs)
	for i := 0; i < 5; i++ {
		p.Evaluate(idle.Add(time.Duration(i)*time.Second), false, false)
	}
	if len(hal.freqs) != n {
		t.Fatalf("cpu rates %v, want no changes after entering power save", hal.freqs)
	}

	// Connecting restores the normal rate exactly once.
	p.Evaluate(idle.Add(10*time.Second), true, false)
	if p.Mode() != PowerActive {
		t.Fatalf("mode %v while connected, want active", p.Mode())
	}
	want := []int{cfg.NormalCPUMHz, cfg.PowerSaveCPUMHz, cfg.NormalCPUMHz}
	if len(hal.freqs) != len(want) {
		t.Fatalf("cpu rates %v, want %v", hal.freqs, want)
	}
	for i := range want {
		if hal.freqs[i] != want[i] {
			t.Fatalf("cpu rates %v, want %v", hal.freqs, want)
		}
	}
}

func TestPowerController_NeverThrottlesMidTransfer(t *testing.T) {
	cfg := DefaultConfig()
	hal := &fakePowerHAL{}
	clock := newFakeClock()
	p := newPowerController(cfg, DefaultLogger(), hal, clock)

	// Uploading counts as activity even far past the idle threshold.
	long := clock.Now().Add(10 * cfg.IdleThreshold)
	p.Evaluate(long, false, true)
	if p.Mode() != PowerActive {
		t.Fatalf("mode %v while uploading, want active", p.Mode())
	}
}

func TestPowerController_SleepBound(t *testing.T) {
	cfg := DefaultConfig()
	p := newPowerController(cfg, DefaultLogger(), nil, newFakeClock())

	tests := []struct {
		name      string
		headroom  time.Duration
		scheduled bool
		want      time.Duration
	}{
		{"not scheduled", 30 * time.Second, false, 0},
		{"at minimum headroom", cfg.MinSleepHeadroom, true, 0},
		{"below minimum headroom", 8 * time.Second, true, 0},
		{"margin subtracted", 12 * time.Second, true, 7 * time.Second},
		{"capped", 30 * time.Second, true, cfg.MaxLightSleep},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.SleepBound(tt.headroom, tt.scheduled); got != tt.want {
				t.Errorf("SleepBound(%v, %v) = %v, want %v", tt.headroom, tt.scheduled, got, tt.want)
			}
		})
	}
}

func TestPowerController_MaybeLightSleep(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("requires quiet window", func(t *testing.T) {
		hal := &fakePowerHAL{}
		clock := newFakeClock()
		p := newPowerController(cfg, DefaultLogger(), hal, clock)

		now := clock.Now().Add(cfg.QuietWindow / 2)
		if d := p.MaybeLightSleep(now, true, false, 30*time.Second, true); d != 0 {
			t.Fatalf("slept %v inside quiet window, want 0", d)
		}

		now = clock.Now().Add(cfg.QuietWindow + time.Second)
		d := p.MaybeLightSleep(now, true, false, 30*time.Second, true)
		if d != cfg.MaxLightSleep {
			t.Fatalf("slept %v, want %v", d, cfg.MaxLightSleep)
		}
		if len(hal.sleeps) != 1 || hal.sleeps[0] != cfg.MaxLightSleep {
			t.Fatalf("hal sleeps %v, want one of %v", hal.sleeps, cfg.MaxLightSleep)
		}
	})

	t.Run("never while uploading or disconnected", func(t *testing.T) {
		hal := &fakePowerHAL{}
		clock := newFakeClock()
		p := newPowerController(cfg, DefaultLogger(), hal, clock)
		now := clock.Now().Add(time.Minute)

		if d := p.MaybeLightSleep(now, true, true, 30*time.Second, true); d != 0 {
			t.Fatalf("slept %v while uploading", d)
		}
		if d := p.MaybeLightSleep(now, false, false, 30*time.Second, true); d != 0 {
			t.Fatalf("slept %v while disconnected", d)
		}
	})

	t.Run("disabled by config", func(t *testing.T) {
		off := cfg
		off.LightSleepEnabled = false
		clock := newFakeClock()
		p := newPowerController(off, DefaultLogger(), &fakePowerHAL{}, clock)
		now := clock.Now().Add(time.Minute)
		if d := p.MaybeLightSleep(now, true, false, 30*time.Second, true); d != 0 {
			t.Fatalf("slept %v with light sleep disabled", d)
		}
	})
}

func TestPowerController_TouchNeverDecreases(t *testing.T) {
	clock := newFakeClock()
	p := newPowerController(DefaultConfig(), DefaultLogger(), nil, clock)

	later := clock.Now().Add(time.Minute)
	p.Touch(later)
	p.Touch(clock.Now()) // older timestamp
	if !p.lastActivity.Equal(later) {
		t.Fatalf("lastActivity %v, want %v", p.lastActivity, later)
	}
}
