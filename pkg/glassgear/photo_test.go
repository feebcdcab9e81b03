package glassgear

import (
	"bytes"
	"testing"
	"time"
)

func TestPhotoUploader_ChunkLayout(t *testing.T) {
	cfg := testConfig()
	link, client := NewPipeLink()
	client.Connect()

	img := make([]byte, 450)
	for i := range img {
		img[i] = byte(i)
	}
	sensor := &fakeSensor{data: img, orientation: 3}
	u := newPhotoUploader(cfg, DefaultLogger(), sensor, link)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	u.HandleControl(PhotoControlSingle, now)
	if !u.MaybeCapture(now, true) {
		t.Fatal("capture did not start")
	}
	for u.Uploading() {
		if !u.SendChunk() {
			t.Fatal("SendChunk returned false mid-session")
		}
	}

	got := drainNotifications(client)
	// 450 bytes split 199 + 200 + 51, then the terminator.
	if len(got) != 4 {
		t.Fatalf("got %d notifications, want 4", len(got))
	}

	c0 := got[0].Payload
	if len(c0) != 3+199 {
		t.Fatalf("chunk 0 length %d, want %d", len(c0), 3+199)
	}
	if c0[0] != 0 || c0[1] != 0 || c0[2] != 3 {
		t.Fatalf("chunk 0 header % X, want 00 00 03", c0[:3])
	}
	if !bytes.Equal(c0[3:], img[:199]) {
		t.Fatal("chunk 0 data mismatch")
	}

	c1 := got[1].Payload
	if len(c1) != 2+200 {
		t.Fatalf("chunk 1 length %d, want %d", len(c1), 2+200)
	}
	if c1[0] != 1 || c1[1] != 0 {
		t.Fatalf("chunk 1 header % X, want 01 00", c1[:2])
	}
	if !bytes.Equal(c1[2:], img[199:399]) {
		t.Fatal("chunk 1 data mismatch")
	}

	c2 := got[2].Payload
	if len(c2) != 2+51 {
		t.Fatalf("chunk 2 length %d, want %d", len(c2), 2+51)
	}
	if c2[0] != 2 || c2[1] != 0 {
		t.Fatalf("chunk 2 header % X, want 02 00", c2[:2])
	}
	if !bytes.Equal(c2[2:], img[399:]) {
		t.Fatal("chunk 2 data mismatch")
	}

	term := got[3].Payload
	if len(term) != 2 || term[0] != 0xFF || term[1] != 0xFF {
		t.Fatalf("terminator % X, want FF FF", term)
	}

	if sensor.releases != 1 {
		t.Fatalf("image released %d times, want 1", sensor.releases)
	}
}

func TestPhotoUploader_SingleShotDisarms(t *testing.T) {
	cfg := testConfig()
	link, client := NewPipeLink()
	client.Connect()
	sensor := &fakeSensor{data: []byte{1, 2, 3}}
	u := newPhotoUploader(cfg, DefaultLogger(), sensor, link)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	u.HandleControl(PhotoControlSingle, now)
	if !u.MaybeCapture(now, true) {
		t.Fatal("single shot did not capture")
	}
	for u.Uploading() {
		u.SendChunk()
	}
	if u.MaybeCapture(now.Add(time.Minute), true) {
		t.Fatal("single shot captured twice")
	}
	if sensor.captures != 1 {
		t.Fatalf("captures %d, want 1", sensor.captures)
	}
}

func TestPhotoUploader_IntervalUsesConfigured(t *testing.T) {
	cfg := testConfig()
	link, client := NewPipeLink()
	client.Connect()
	sensor := &fakeSensor{data: []byte{1}}
	u := newPhotoUploader(cfg, DefaultLogger(), sensor, link)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	// The client asks for 5 s but the configured interval wins.
	u.HandleControl(5, now)
	if !u.MaybeCapture(now, true) {
		t.Fatal("first interval capture not immediate")
	}
	for u.Uploading() {
		u.SendChunk()
	}

	if u.MaybeCapture(now.Add(5*time.Second), true) {
		t.Fatal("captured at requested interval instead of configured")
	}
	if !u.MaybeCapture(now.Add(cfg.CaptureInterval), true) {
		t.Fatal("did not capture at configured interval")
	}
}

func TestPhotoUploader_StopAndGates(t *testing.T) {
	cfg := testConfig()
	link, client := NewPipeLink()
	client.Connect()
	sensor := &fakeSensor{data: []byte{1}}
	u := newPhotoUploader(cfg, DefaultLogger(), sensor, link)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("stop disarms", func(t *testing.T) {
		u.HandleControl(5, now)
		u.HandleControl(PhotoControlStop, now)
		if u.MaybeCapture(now, true) {
			t.Fatal("captured after stop")
		}
	})

	t.Run("no capture while disconnected", func(t *testing.T) {
		u.HandleControl(PhotoControlSingle, now)
		if u.MaybeCapture(now, false) {
			t.Fatal("captured while disconnected")
		}
		// The request stays armed for when the link returns.
		if !u.MaybeCapture(now, true) {
			t.Fatal("did not capture after reconnect")
		}
		for u.Uploading() {
			u.SendChunk()
		}
	})

	t.Run("no capture while uploading", func(t *testing.T) {
		u.HandleControl(PhotoControlSingle, now)
		if !u.MaybeCapture(now, true) {
			t.Fatal("capture did not start")
		}
		u.capturing = true // re-arm while the session is open
		if u.MaybeCapture(now, true) {
			t.Fatal("captured while a session is active")
		}
		u.Abort()
	})
}

func TestPhotoUploader_SensorFailureSkips(t *testing.T) {
	cfg := testConfig()
	link, client := NewPipeLink()
	client.Connect()
	sensor := &fakeSensor{err: errSensor}
	u := newPhotoUploader(cfg, DefaultLogger(), sensor, link)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	u.HandleControl(PhotoControlSingle, now)
	if u.MaybeCapture(now, true) {
		t.Fatal("capture reported success on sensor failure")
	}
	if u.Uploading() {
		t.Fatal("session opened on sensor failure")
	}
}

func TestPhotoUploader_AbortReleasesImage(t *testing.T) {
	cfg := testConfig()
	link, client := NewPipeLink()
	client.Connect()
	sensor := &fakeSensor{data: make([]byte, 500)}
	u := newPhotoUploader(cfg, DefaultLogger(), sensor, link)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	u.HandleControl(PhotoControlSingle, now)
	u.MaybeCapture(now, true)
	u.SendChunk()
	u.Abort()
	if u.Uploading() {
		t.Fatal("still uploading after abort")
	}
	if sensor.releases != 1 {
		t.Fatalf("image released %d times, want 1", sensor.releases)
	}
	// No terminator on abort.
	for _, n := range drainNotifications(client) {
		if len(n.Payload) == 2 && n.Payload[0] == 0xFF && n.Payload[1] == 0xFF {
			t.Fatal("terminator sent on abort")
		}
	}
}
