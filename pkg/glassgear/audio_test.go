package glassgear

import (
	"testing"
)

func newTestPipeline(cfg Config, capture Capture, enc Encoder, link Link) *audioPipeline {
	return newAudioPipeline(cfg, DefaultLogger(), newFakeClock(), capture, enc, link)
}

func TestAudioPipeline_CaptureEncodeSend(t *testing.T) {
	cfg := testConfig()
	link, client := NewPipeLink()
	client.Connect()
	client.SubscribeAudio(true)

	// Two full frames arrive in one burst.
	burst := make([]int16, 2*cfg.FrameSamples)
	capture := &scriptedCapture{batches: [][]int16{burst[:cfg.FrameSamples], burst[cfg.FrameSamples:]}}
	enc := &countEncoder{frameSize: cfg.FrameSamples}
	p := newTestPipeline(cfg, capture, enc, link)

	p.captureAndEncode()
	p.captureAndEncode()
	if !p.pending() {
		t.Fatal("no packets pending after two frames")
	}
	if sent := p.drainAndSend(); sent != 2 {
		t.Fatalf("sent %d packets, want 2", sent)
	}

	got := drainNotifications(client)
	if len(got) != 2 {
		t.Fatalf("got %d notifications, want 2", len(got))
	}
	for i, n := range got {
		if n.Char != CharAudio {
			t.Fatalf("notification %d on %v, want audio", i, n.Char)
		}
		if len(n.Payload) != 3+2 {
			t.Fatalf("notification %d length %d, want 5", i, len(n.Payload))
		}
		seq := uint16(n.Payload[0]) | uint16(n.Payload[1])<<8
		if seq != uint16(i) {
			t.Fatalf("notification %d seq %d, want %d", i, seq, i)
		}
		if n.Payload[2] != 0 {
			t.Fatalf("notification %d sub-index %d, want 0", i, n.Payload[2])
		}
		if n.Payload[3] != byte(i+1) {
			t.Fatalf("notification %d packet tag %d, want %d", i, n.Payload[3], i+1)
		}
	}
}

func TestAudioPipeline_SequenceWraps(t *testing.T) {
	cfg := testConfig()
	link, client := NewPipeLink()
	client.Connect()
	client.SubscribeAudio(true)
	p := newTestPipeline(cfg, nil, &countEncoder{frameSize: cfg.FrameSamples}, link)

	p.seq = 65534
	for i := 0; i < 3; i++ {
		p.packets.Publish([]byte{byte(i)})
	}
	if sent := p.drainAndSend(); sent != 3 {
		t.Fatalf("sent %d packets, want 3", sent)
	}

	got := drainNotifications(client)
	want := []uint16{65534, 65535, 0}
	for i, n := range got {
		seq := uint16(n.Payload[0]) | uint16(n.Payload[1])<<8
		if seq != want[i] {
			t.Fatalf("notification %d seq %d, want %d", i, seq, want[i])
		}
	}
}

func TestAudioPipeline_NoSendUnlessSubscribed(t *testing.T) {
	cfg := testConfig()
	link, client := NewPipeLink()
	client.Connect()
	p := newTestPipeline(cfg, nil, &countEncoder{frameSize: cfg.FrameSamples}, link)

	p.packets.Publish([]byte{1})
	if sent := p.drainAndSend(); sent != 0 {
		t.Fatalf("sent %d packets while unsubscribed, want 0", sent)
	}
	if !p.pending() {
		t.Fatal("packet lost while unsubscribed")
	}

	// Subscribing later delivers what the ring still holds.
	client.SubscribeAudio(true)
	if sent := p.drainAndSend(); sent != 1 {
		t.Fatalf("sent %d packets after subscribe, want 1", sent)
	}
}

func TestAudioPipeline_PartialFrameWaits(t *testing.T) {
	cfg := testConfig()
	link, client := NewPipeLink()
	client.Connect()
	client.SubscribeAudio(true)

	half := make([]int16, cfg.FrameSamples/2)
	capture := &scriptedCapture{batches: [][]int16{half, half}}
	p := newTestPipeline(cfg, capture, &countEncoder{frameSize: cfg.FrameSamples}, link)

	p.captureAndEncode()
	if p.pending() {
		t.Fatal("packet produced from a partial frame")
	}
	p.captureAndEncode()
	if !p.pending() {
		t.Fatal("no packet once the frame completed")
	}
}
