package glassgear

import "time"

// Battery voltage envelope of the two-cell pack.
const (
	batteryMaxVoltage = 4.2
	batteryMinVoltage = 3.2
)

// batteryMonitor polls the battery reader on a fixed period, converts
// voltage to a smoothed percentage, and notifies the battery level
// characteristic.
type batteryMonitor struct {
	cfg    Config
	log    Logger
	reader BatteryReader
	link   Link

	voltage   float64
	percent   int
	lastCheck time.Time
	primed    bool
}

func newBatteryMonitor(cfg Config, log Logger, reader BatteryReader, link Link) *batteryMonitor {
	return &batteryMonitor{cfg: cfg, log: log, reader: reader, link: link}
}

// Percent returns the last computed battery percentage.
func (m *batteryMonitor) Percent() int { return m.percent }

// Poll refreshes the reading when the period elapsed or force is set,
// and pushes the level to the client.
func (m *batteryMonitor) Poll(now time.Time, force bool) {
	if m.reader == nil {
		return
	}
	if !force && m.primed && now.Sub(m.lastCheck) < m.cfg.BatteryInterval {
		return
	}
	m.lastCheck = now

	v, err := m.reader.ReadVoltage()
	if err != nil {
		m.log.WarnPrintf("battery read: %v", err)
		return
	}
	m.voltage = clampVoltage(v)

	raw := percentFromVoltage(m.voltage)
	if m.primed {
		m.percent = smoothPercent(m.percent, raw)
	} else {
		m.percent = raw
		m.primed = true
	}

	level := []byte{byte(m.percent)}
	m.link.SetValue(CharBattery, level)
	if m.link.Connected() {
		if err := m.link.Notify(CharBattery, level); err != nil {
			m.log.DebugPrintf("battery notify: %v", err)
		}
	}
	m.log.DebugPrintf("battery: %.2fV (%d%%)", m.voltage, m.percent)
}

func clampVoltage(v float64) float64 {
	if v > 5.0 {
		return 5.0
	}
	if v < 2.5 {
		return 2.5
	}
	return v
}

// percentFromVoltage maps the load-compensated voltage range linearly
// onto 0..100.
func percentFromVoltage(v float64) int {
	if v >= batteryMaxVoltage {
		return 100
	}
	if v <= batteryMinVoltage {
		return 0
	}
	return int((v - batteryMinVoltage) / (batteryMaxVoltage - batteryMinVoltage) * 100)
}

// smoothPercent limits jumps larger than 5 points to 2-point steps so
// the reported level never leaps.
func smoothPercent(prev, next int) int {
	diff := next - prev
	if diff > 5 {
		return prev + 2
	}
	if diff < -5 {
		return prev - 2
	}
	return next
}
