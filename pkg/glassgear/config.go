package glassgear

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

// Config holds the tunables of the control plane. Zero values are not
// usable; start from DefaultConfig.
type Config struct {
	// SampleRate is the PCM sample rate in Hz.
	SampleRate int `yaml:"sample_rate"`

	// FrameSamples is the number of samples per encoder frame.
	// 320 samples is 20 ms at 16 kHz.
	FrameSamples int `yaml:"frame_samples"`

	// SampleRingSamples is the capacity of the raw PCM ring,
	// about 500 ms of audio.
	SampleRingSamples int `yaml:"sample_ring_samples"`

	// MaxPacketBytes bounds one encoded packet.
	MaxPacketBytes int `yaml:"max_packet_bytes"`

	// PacketRingPackets sizes the encoded-packet ring in packets.
	PacketRingPackets int `yaml:"packet_ring_packets"`

	// CaptureReadTimeout bounds one capture driver read.
	CaptureReadTimeout time.Duration `yaml:"capture_read_timeout"`

	// SendPacing is the cooperative yield after each audio notify.
	SendPacing time.Duration `yaml:"send_pacing"`

	// MaxPhotoChunksPerLoop bounds photo emissions per iteration when
	// audio is idle.
	MaxPhotoChunksPerLoop int `yaml:"max_photo_chunks_per_loop"`

	// CaptureInterval is the fixed photo interval used for interval
	// capture, regardless of the client-requested value.
	CaptureInterval time.Duration `yaml:"capture_interval"`

	// DebounceWindow ignores button edges closer than this.
	DebounceWindow time.Duration `yaml:"debounce_window"`

	// LongPressThreshold is the hold duration that triggers shutdown.
	LongPressThreshold time.Duration `yaml:"long_press_threshold"`

	// IdleThreshold is the no-activity window before power save.
	IdleThreshold time.Duration `yaml:"idle_threshold"`

	// QuietWindow is the no-activity window required before light sleep
	// is considered.
	QuietWindow time.Duration `yaml:"quiet_window"`

	// MinSleepHeadroom is the minimum time until the next scheduled
	// photo capture for light sleep to be attempted.
	MinSleepHeadroom time.Duration `yaml:"min_sleep_headroom"`

	// SleepWakeMargin is how long before the next capture the device
	// must be awake again.
	SleepWakeMargin time.Duration `yaml:"sleep_wake_margin"`

	// MaxLightSleep caps one light-sleep pause.
	MaxLightSleep time.Duration `yaml:"max_light_sleep"`

	// LightSleepEnabled gates the opportunistic pause entirely.
	LightSleepEnabled bool `yaml:"light_sleep_enabled"`

	// NormalCPUMHz and PowerSaveCPUMHz are the two CPU rates.
	NormalCPUMHz    int `yaml:"normal_cpu_mhz"`
	PowerSaveCPUMHz int `yaml:"power_save_cpu_mhz"`

	// BatteryInterval is the battery poll period.
	BatteryInterval time.Duration `yaml:"battery_interval"`

	// BootLEDDuration/BootLEDHalfPeriod shape the boot blink pattern.
	BootLEDDuration   time.Duration `yaml:"boot_led_duration"`
	BootLEDHalfPeriod time.Duration `yaml:"boot_led_half_period"`

	// ShutdownLEDDuration/ShutdownLEDHalfPeriod shape the shutdown
	// blink pattern.
	ShutdownLEDDuration   time.Duration `yaml:"shutdown_led_duration"`
	ShutdownLEDHalfPeriod time.Duration `yaml:"shutdown_led_half_period"`

	// DisconnectedBlinkPeriod is the half-period of the slow blink
	// shown while not connected.
	DisconnectedBlinkPeriod time.Duration `yaml:"disconnected_blink_period"`

	// ActivePacing/IdlePacing are the loop delays while streaming or
	// idle respectively.
	ActivePacing time.Duration `yaml:"active_pacing"`
	IdlePacing   time.Duration `yaml:"idle_pacing"`
}

// DefaultConfig returns the production device configuration.
func DefaultConfig() Config {
	return Config{
		SampleRate:        16000,
		FrameSamples:      320, // 20 ms
		SampleRingSamples: 8000, // 500 ms
		MaxPacketBytes:    160,
		PacketRingPackets: 32,

		CaptureReadTimeout: 20 * time.Millisecond,
		SendPacing:         time.Millisecond,

		MaxPhotoChunksPerLoop: 2,
		CaptureInterval:       30 * time.Second,

		DebounceWindow:     50 * time.Millisecond,
		LongPressThreshold: 2 * time.Second,

		IdleThreshold:     45 * time.Second,
		QuietWindow:       5 * time.Second,
		MinSleepHeadroom:  10 * time.Second,
		SleepWakeMargin:   5 * time.Second,
		MaxLightSleep:     15 * time.Second,
		LightSleepEnabled: true,
		NormalCPUMHz:      80,
		PowerSaveCPUMHz:   40,

		BatteryInterval: 20 * time.Second,

		BootLEDDuration:         1500 * time.Millisecond,
		BootLEDHalfPeriod:       150 * time.Millisecond,
		ShutdownLEDDuration:     800 * time.Millisecond,
		ShutdownLEDHalfPeriod:   200 * time.Millisecond,
		DisconnectedBlinkPeriod: time.Second,

		ActivePacing: 5 * time.Millisecond,
		IdlePacing:   50 * time.Millisecond,
	}
}

// LoadConfig reads a YAML config file over the defaults. Fields absent
// from the file keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("glassgear: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("glassgear: parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("glassgear: config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.FrameSamples <= 0 {
		return fmt.Errorf("frame_samples must be positive")
	}
	if c.SampleRingSamples < c.FrameSamples {
		return fmt.Errorf("sample_ring_samples must hold at least one frame")
	}
	if c.MaxPacketBytes <= 0 || c.PacketRingPackets <= 0 {
		return fmt.Errorf("packet ring dimensions must be positive")
	}
	if c.MaxPhotoChunksPerLoop <= 0 {
		return fmt.Errorf("max_photo_chunks_per_loop must be positive")
	}
	return nil
}

// packetRingBytes is the byte capacity of the encoded packet ring.
func (c Config) packetRingBytes() int {
	return c.PacketRingPackets * (c.MaxPacketBytes + 2)
}
