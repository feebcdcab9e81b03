package glassgear

import "time"

// photoUploader owns at most one in-flight image and streams it to the
// photo characteristic in bounded chunks:
//
//	chunk 0:    [0x00][0x00][orientation][<=199 bytes]
//	chunk n:    [n_lo][n_hi][<=200 bytes]
//	terminator: [0xFF][0xFF]
//
// Chunks are never re-sent; the transport is a lossy notify stream and
// loss is accepted.
type photoUploader struct {
	cfg    Config
	log    Logger
	sensor ImageSensor
	link   Link

	capturing bool
	interval  time.Duration // 0 means single shot
	lastShot  time.Time

	uploading  bool
	img        *Image
	sentBytes  int
	sentChunks int

	chunk []byte // scratch, header + photoChunkCap
}

func newPhotoUploader(cfg Config, log Logger, sensor ImageSensor, link Link) *photoUploader {
	return &photoUploader{
		cfg:    cfg,
		log:    log,
		sensor: sensor,
		link:   link,
		chunk:  make([]byte, photoFirstHeaderSize+photoChunkCap),
	}
}

// HandleControl applies one photo control byte written by the client.
func (u *photoUploader) HandleControl(v int8, now time.Time) {
	switch {
	case v == PhotoControlSingle:
		u.capturing = true
		u.interval = 0
	case v == PhotoControlStop:
		u.capturing = false
		u.interval = 0
	case v >= PhotoControlMinInterval:
		// The configured interval wins over the requested one to
		// protect battery life.
		u.capturing = true
		u.interval = u.cfg.CaptureInterval
		// Trigger the first capture immediately.
		u.lastShot = now.Add(-u.interval)
		u.log.InfoPrintf("photo: interval capture every %s (requested %ds)", u.interval, v)
	}
}

// StartDefault begins interval capture with the configured interval,
// first shot due immediately.
func (u *photoUploader) StartDefault(now time.Time) {
	u.capturing = true
	u.interval = u.cfg.CaptureInterval
	u.lastShot = now.Add(-u.interval)
}

// Uploading reports whether a transfer session is active.
func (u *photoUploader) Uploading() bool { return u.uploading }

// MaybeCapture checks the capture schedule and, when due, takes one
// photo and opens a transfer session. A new capture never starts while
// a session is active or the link is down. Sensor failures skip this
// iteration.
func (u *photoUploader) MaybeCapture(now time.Time, connected bool) bool {
	if !u.capturing || u.uploading || !connected || u.sensor == nil {
		return false
	}
	if u.interval > 0 && now.Sub(u.lastShot) < u.interval {
		return false
	}
	if u.interval == 0 {
		// Single shot: disarm before capturing.
		u.capturing = false
	}

	img, err := u.sensor.Capture()
	if err != nil {
		u.log.WarnPrintf("photo capture: %v", err)
		return false
	}
	if img == nil || len(img.Data) == 0 {
		if img != nil {
			img.Release()
		}
		return false
	}

	u.img = img
	u.uploading = true
	u.sentBytes = 0
	u.sentChunks = 0
	u.lastShot = now
	u.log.InfoPrintf("photo: captured %d bytes, starting upload", len(img.Data))
	return true
}

// SendChunk emits exactly one chunk, or the terminator when all bytes
// are out. It reports whether a notification was sent. After the
// terminator the image buffer is released and the session closes.
func (u *photoUploader) SendChunk() bool {
	if !u.uploading || u.img == nil {
		return false
	}

	remaining := len(u.img.Data) - u.sentBytes
	if remaining <= 0 {
		u.chunk[0] = photoTerminator[0]
		u.chunk[1] = photoTerminator[1]
		if err := u.link.Notify(CharPhoto, u.chunk[:photoHeaderSize]); err != nil {
			u.log.DebugPrintf("photo terminator notify: %v", err)
		}
		u.link.SetValue(CharPhoto, u.chunk[:photoHeaderSize])
		u.log.InfoPrintf("photo: upload complete, %d chunks", u.sentChunks)
		u.finish()
		return true
	}

	var n, total int
	if u.sentChunks == 0 {
		n = remaining
		if n > photoFirstChunkCap {
			n = photoFirstChunkCap
		}
		u.chunk[0] = 0
		u.chunk[1] = 0
		u.chunk[2] = u.img.Orientation
		copy(u.chunk[photoFirstHeaderSize:], u.img.Data[u.sentBytes:u.sentBytes+n])
		total = photoFirstHeaderSize + n
	} else {
		n = remaining
		if n > photoChunkCap {
			n = photoChunkCap
		}
		u.chunk[0] = byte(u.sentChunks)
		u.chunk[1] = byte(u.sentChunks >> 8)
		copy(u.chunk[photoHeaderSize:], u.img.Data[u.sentBytes:u.sentBytes+n])
		total = photoHeaderSize + n
	}

	if err := u.link.Notify(CharPhoto, u.chunk[:total]); err != nil {
		u.log.DebugPrintf("photo notify: %v", err)
	}
	u.link.SetValue(CharPhoto, u.chunk[:total])
	u.sentBytes += n
	u.sentChunks++
	return true
}

// TimeUntilNextCapture returns the headroom until the next scheduled
// capture. scheduled is false when no interval capture is armed.
func (u *photoUploader) TimeUntilNextCapture(now time.Time) (headroom time.Duration, scheduled bool) {
	if !u.capturing || u.interval <= 0 {
		return 0, false
	}
	elapsed := now.Sub(u.lastShot)
	if elapsed >= u.interval {
		return 0, true
	}
	return u.interval - elapsed, true
}

// Abort drops any in-flight session and releases the image, without a
// terminator. Used on shutdown.
func (u *photoUploader) Abort() {
	u.capturing = false
	if u.uploading {
		u.finish()
	}
}

func (u *photoUploader) finish() {
	u.uploading = false
	if u.img != nil {
		u.img.Release()
		u.img = nil
	}
	u.sentBytes = 0
	u.sentChunks = 0
}
