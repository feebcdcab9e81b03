package glassgear

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// OTA control command bytes written by the client.
const (
	OTACmdSetWifi   byte = 0x01
	OTACmdStart     byte = 0x02
	OTACmdCancel    byte = 0x03
	OTACmdGetStatus byte = 0x04
	OTACmdSetURL    byte = 0x05
)

// OTA status codes. Every status notification is [status][progress].
const (
	OTAStatusIdle           byte = 0x00
	OTAStatusWifiConnecting byte = 0x10
	OTAStatusWifiConnected  byte = 0x11
	OTAStatusWifiFailed     byte = 0x12
	OTAStatusDownloading    byte = 0x20
	OTAStatusDownloadDone   byte = 0x21
	OTAStatusDownloadFailed byte = 0x22
	OTAStatusInstalling     byte = 0x30
	OTAStatusInstallDone    byte = 0x31
	OTAStatusInstallFailed  byte = 0x32
	OTAStatusRebooting      byte = 0x40
	OTAStatusError          byte = 0xFF
)

const (
	wifiMaxSSIDLen = 32
	wifiMaxPassLen = 64
	otaMaxURLLen   = 256

	wifiJoinTimeout  = 15 * time.Second
	otaFetchTimeout  = 30 * time.Second
	otaProgressStep  = 5
	otaCopyChunkSize = 1024
)

// NetworkJoiner joins the configured network for the duration of an
// update. Join must respect the context deadline.
type NetworkJoiner interface {
	Join(ctx context.Context, ssid, password string) error
	Leave()
}

// FirmwareSink receives the downloaded image. Begin may reject the
// size; Commit finalizes the image for the next boot.
type FirmwareSink interface {
	Begin(size int64) error
	Write(p []byte) (int, error)
	Commit() error
	Abort()
}

// Updater is the over-the-air firmware worker. It exchanges only
// command bytes in and [status][progress] notifications out with the
// rest of the system, and runs the update on its own goroutine so the
// scheduler loop never blocks on it.
type Updater struct {
	log    Logger
	link   Link
	joiner NetworkJoiner
	sink   FirmwareSink
	reboot func()

	// HTTP client used to fetch the image. Replaceable in tests.
	client *http.Client

	mu       sync.Mutex
	status   byte
	progress byte
	ssid     string
	password string
	wifiSet  bool
	url      string
	urlSet   bool
	running  bool
	cancel   context.CancelFunc
}

// NewUpdater creates an OTA worker. reboot is invoked after a
// successful install.
func NewUpdater(log Logger, link Link, joiner NetworkJoiner, sink FirmwareSink, reboot func()) *Updater {
	return &Updater{
		log:    log,
		link:   link,
		joiner: joiner,
		sink:   sink,
		reboot: reboot,
		client: &http.Client{Timeout: otaFetchTimeout},
		status: OTAStatusIdle,
	}
}

// Status returns the current status and progress bytes.
func (u *Updater) Status() (status, progress byte) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.status, u.progress
}

// Busy reports whether an update is in flight.
func (u *Updater) Busy() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.running
}

// Cancel aborts a running update at the next checkpoint.
func (u *Updater) Cancel() {
	u.mu.Lock()
	cancel := u.cancel
	u.mu.Unlock()
	if cancel != nil {
		u.log.InfoPrintf("ota: cancelling")
		cancel()
	}
}

// HandleCommand parses and applies one OTA control write.
//
// Formats:
//
//	0x01 set wifi:  [cmd][ssid_len][ssid...][pass_len][pass...]
//	0x05 set url:   [cmd][len_hi][len_lo][url...]
//	0x02 start, 0x03 cancel, 0x04 status query: [cmd]
func (u *Updater) HandleCommand(data []byte) {
	if len(data) < 1 {
		return
	}
	switch data[0] {
	case OTACmdSetWifi:
		u.setWifi(data)
	case OTACmdSetURL:
		u.setURL(data)
	case OTACmdStart:
		u.start()
	case OTACmdCancel:
		u.Cancel()
	case OTACmdGetStatus:
		u.mu.Lock()
		s, p := u.status, u.progress
		u.mu.Unlock()
		u.notify(s, p)
	default:
		u.log.WarnPrintf("ota: unknown command 0x%02X", data[0])
		u.notify(OTAStatusError, 0)
	}
}

func (u *Updater) setWifi(data []byte) {
	if len(data) < 3 {
		u.notify(OTAStatusError, 0)
		return
	}
	ssidLen := int(data[1])
	if ssidLen > wifiMaxSSIDLen || len(data) < 3+ssidLen {
		u.notify(OTAStatusError, 0)
		return
	}
	passLen := int(data[2+ssidLen])
	if passLen > wifiMaxPassLen || len(data) < 3+ssidLen+passLen {
		u.notify(OTAStatusError, 0)
		return
	}
	ssid := string(data[2 : 2+ssidLen])
	u.mu.Lock()
	u.ssid = ssid
	u.password = string(data[3+ssidLen : 3+ssidLen+passLen])
	u.wifiSet = true
	u.mu.Unlock()
	u.log.InfoPrintf("ota: wifi credentials set, ssid %q", ssid)
	u.notify(OTAStatusIdle, 0)
}

func (u *Updater) setURL(data []byte) {
	if len(data) < 4 {
		u.notify(OTAStatusError, 0)
		return
	}
	urlLen := int(data[1])<<8 | int(data[2])
	if urlLen > otaMaxURLLen || len(data) < 3+urlLen {
		u.notify(OTAStatusError, 0)
		return
	}
	url := string(data[3 : 3+urlLen])
	u.mu.Lock()
	u.url = url
	u.urlSet = true
	u.mu.Unlock()
	u.log.InfoPrintf("ota: firmware url set: %s", url)
	u.notify(OTAStatusIdle, 0)
}

func (u *Updater) start() {
	if u.sink == nil {
		u.log.WarnPrintf("ota: start rejected, no firmware sink")
		u.notify(OTAStatusError, 0)
		return
	}
	u.mu.Lock()
	if !u.wifiSet || !u.urlSet {
		u.mu.Unlock()
		u.log.WarnPrintf("ota: start rejected, credentials or url missing")
		u.notify(OTAStatusError, 0)
		return
	}
	if u.running {
		u.mu.Unlock()
		u.log.WarnPrintf("ota: update already in progress")
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	u.running = true
	u.cancel = cancel
	ssid, password, url := u.ssid, u.password, u.url
	u.mu.Unlock()

	go u.run(ctx, ssid, password, url)
}

func (u *Updater) run(ctx context.Context, ssid, password, url string) {
	defer func() {
		u.mu.Lock()
		u.running = false
		u.cancel = nil
		u.mu.Unlock()
	}()

	u.log.InfoPrintf("ota: update started")

	if u.joiner != nil {
		u.notify(OTAStatusWifiConnecting, 0)
		joinCtx, cancel := context.WithTimeout(ctx, wifiJoinTimeout)
		err := u.joiner.Join(joinCtx, ssid, password)
		cancel()
		if err != nil {
			u.log.WarnPrintf("ota: wifi join: %v", err)
			u.notify(OTAStatusWifiFailed, 0)
			return
		}
		defer u.joiner.Leave()
		u.notify(OTAStatusWifiConnected, 0)
	}

	if ctx.Err() != nil {
		u.notify(OTAStatusIdle, 0)
		return
	}

	if err := u.downloadAndInstall(ctx, url); err != nil {
		u.log.WarnPrintf("ota: %v", err)
		return
	}

	u.notify(OTAStatusRebooting, 0)
	if u.reboot != nil {
		u.reboot()
	}
}

func (u *Updater) downloadAndInstall(ctx context.Context, url string) error {
	u.notify(OTAStatusDownloading, 0)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		u.notify(OTAStatusDownloadFailed, 0)
		return fmt.Errorf("request: %w", err)
	}
	req.Header.Set("User-Agent", "GlassGear-OTA/1.0")

	resp, err := u.client.Do(req)
	if err != nil {
		u.notify(OTAStatusDownloadFailed, 0)
		return fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		u.notify(OTAStatusDownloadFailed, 0)
		return fmt.Errorf("fetch: unexpected status %d", resp.StatusCode)
	}
	size := resp.ContentLength
	if size <= 0 {
		u.notify(OTAStatusDownloadFailed, 0)
		return fmt.Errorf("fetch: missing content length")
	}

	if err := u.sink.Begin(size); err != nil {
		u.notify(OTAStatusInstallFailed, 0)
		return fmt.Errorf("install begin: %w", err)
	}

	u.notify(OTAStatusInstalling, 0)
	buf := make([]byte, otaCopyChunkSize)
	var total int64
	lastProgress := -1
	for total < size {
		if ctx.Err() != nil {
			u.sink.Abort()
			u.notify(OTAStatusIdle, 0)
			return fmt.Errorf("cancelled")
		}
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := u.sink.Write(buf[:n]); werr != nil {
				u.sink.Abort()
				u.notify(OTAStatusInstallFailed, 0)
				return fmt.Errorf("install write: %w", werr)
			}
			total += int64(n)
			progress := int(total * 100 / size)
			if progress != lastProgress && progress%otaProgressStep == 0 {
				u.notify(OTAStatusInstalling, byte(progress))
				lastProgress = progress
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			u.sink.Abort()
			u.notify(OTAStatusDownloadFailed, 0)
			return fmt.Errorf("download: %w", err)
		}
	}

	if total != size {
		u.sink.Abort()
		u.notify(OTAStatusDownloadFailed, 0)
		return fmt.Errorf("download: incomplete, %d of %d bytes", total, size)
	}

	if err := u.sink.Commit(); err != nil {
		u.notify(OTAStatusInstallFailed, 0)
		return fmt.Errorf("install commit: %w", err)
	}

	u.log.InfoPrintf("ota: update complete, %d bytes", total)
	u.notify(OTAStatusInstallDone, 100)
	return nil
}

func (u *Updater) notify(status, progress byte) {
	u.mu.Lock()
	u.status = status
	u.progress = progress
	u.mu.Unlock()

	payload := []byte{status, progress}
	u.link.SetValue(CharOTAStatus, payload)
	if u.link.Connected() {
		if err := u.link.Notify(CharOTAStatus, payload); err != nil {
			u.log.DebugPrintf("ota notify: %v", err)
		}
	}
}
