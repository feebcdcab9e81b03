package glassgear

import (
	"github.com/haivivi/glassgear/pkg/buffer"
)

// audioPipeline is the capture -> encode -> packet -> notify path.
//
// Raw samples land in an overwrite-oldest ring so a capture burst never
// stalls the driver. Complete frames are drained to the encoder every
// poll; encoded packets are length-framed into the packet ring and sent
// as [seq_lo][seq_hi][0] notifications when the client is subscribed.
type audioPipeline struct {
	cfg   Config
	log   Logger
	clock Clock

	capture Capture
	enc     Encoder
	link    Link

	samples *buffer.Ring[int16]
	packets *buffer.PacketRing

	readBuf []int16 // capture scratch
	frame   []int16 // one encoder frame
	sendBuf []byte  // header + payload scratch

	seq uint16
}

func newAudioPipeline(cfg Config, log Logger, clock Clock, capture Capture, enc Encoder, link Link) *audioPipeline {
	frameSize := cfg.FrameSamples
	if enc != nil && enc.FrameSize() > 0 {
		frameSize = enc.FrameSize()
	}
	return &audioPipeline{
		cfg:     cfg,
		log:     log,
		clock:   clock,
		capture: capture,
		enc:     enc,
		link:    link,
		samples: buffer.NewRing[int16](cfg.SampleRingSamples),
		packets: buffer.NewPacketRing(cfg.packetRingBytes(), cfg.MaxPacketBytes),
		readBuf: make([]int16, frameSize),
		frame:   make([]int16, frameSize),
		sendBuf: make([]byte, audioHeaderSize+cfg.MaxPacketBytes),
	}
}

// captureAndEncode reads pending samples from the capture driver and
// drains every complete frame into the encoder. A capture timeout or an
// encoder failure skips that iteration's work; the loop continues.
func (p *audioPipeline) captureAndEncode() {
	if p.capture == nil || p.enc == nil {
		return
	}

	n, err := p.capture.Read(p.readBuf, p.cfg.CaptureReadTimeout)
	if err != nil {
		p.log.DebugPrintf("capture read: %v", err)
	} else if n > 0 {
		p.samples.Push(p.readBuf[:n])
	}

	// Drain all complete frames so a burst cannot starve the encoder.
	for p.samples.PopExact(p.frame) {
		pkt, err := p.enc.Encode(p.frame)
		if err != nil {
			p.log.DebugPrintf("encode: %v", err)
			continue
		}
		// Oversized or non-fitting packets drop whole.
		p.packets.Publish(pkt)
	}
}

// pending reports whether encoded packets are waiting to be sent.
func (p *audioPipeline) pending() bool { return p.packets.Pending() }

// drainAndSend empties the packet ring onto the link, one notification
// per record, and returns the number of packets transmitted. It is a
// no-op while disconnected or unsubscribed; queued packets stay in the
// ring, and fresher packets drop whole while the backlog holds it
// full.
func (p *audioPipeline) drainAndSend() int {
	if !p.link.Connected() || !p.link.AudioSubscribed() {
		return 0
	}

	sent := 0
	payload := p.sendBuf[audioHeaderSize:]
	for {
		n, ok := p.packets.Pop(payload)
		if !ok {
			break
		}
		p.sendBuf[0] = byte(p.seq)
		p.sendBuf[1] = byte(p.seq >> 8)
		p.sendBuf[2] = 0 // sub-index, reserved
		if err := p.link.Notify(CharAudio, p.sendBuf[:audioHeaderSize+n]); err != nil {
			p.log.DebugPrintf("audio notify: %v", err)
		}
		// The sequence number counts transmitted packets, not
		// produced ones.
		p.seq++
		sent++

		// Cooperative yield so the link stack is not overrun.
		p.clock.Sleep(p.cfg.SendPacing)
	}
	return sent
}
