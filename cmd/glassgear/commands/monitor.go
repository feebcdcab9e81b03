package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/glassgear/pkg/cli"
	"github.com/haivivi/glassgear/pkg/glassgear"
)

var monitorFlags struct {
	addr  string
	audio bool
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Attach to a running device and watch its streams",
	Long: `Connect to a device link, optionally subscribe to the audio
stream, and print a rolling summary of audio packet rate, photo
transfer progress, battery level, and OTA status.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMonitor(cmd.Context())
	},
}

func init() {
	monitorCmd.Flags().StringVar(&monitorFlags.addr, "addr", "ws://localhost:8931/link", "device link address")
	monitorCmd.Flags().BoolVar(&monitorFlags.audio, "audio", true, "subscribe to the audio stream")
	rootCmd.AddCommand(monitorCmd)
}

// monitorStats aggregates one reporting interval.
type monitorStats struct {
	audioPackets int
	audioBytes   int
	lastSeq      uint16
	seqGaps      int

	photoChunks int
	photoBytes  int
	photoDone   int

	battery   int
	otaStatus byte
	otaSeen   bool
}

func runMonitor(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := glassgear.DialWS(monitorFlags.addr)
	if err != nil {
		return err
	}
	defer client.Close()

	styles := cli.NewStyles(cli.DefaultTheme)
	fmt.Println(styles.Banner("glassgear monitor", monitorFlags.addr))

	if monitorFlags.audio {
		if err := client.SubscribeAudio(true); err != nil {
			return err
		}
	}

	notifications := make(chan glassgear.Notification, 256)
	readErr := make(chan error, 1)
	go func() {
		for {
			n, err := client.Next()
			if err != nil {
				readErr <- err
				return
			}
			notifications <- n
		}
	}()

	var stats monitorStats
	stats.battery = -1
	haveSeq := false
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			return fmt.Errorf("monitor: link lost: %w", err)
		case n := <-notifications:
			haveSeq = stats.apply(n, haveSeq)
		case <-ticker.C:
			fmt.Println(stats.render(styles))
			stats.audioPackets, stats.audioBytes = 0, 0
			stats.photoChunks, stats.photoBytes = 0, 0
		}
	}
}

func (s *monitorStats) apply(n glassgear.Notification, haveSeq bool) bool {
	switch n.Char {
	case glassgear.CharAudio:
		if len(n.Payload) < 3 {
			return haveSeq
		}
		seq := uint16(n.Payload[0]) | uint16(n.Payload[1])<<8
		if haveSeq && seq != s.lastSeq+1 {
			s.seqGaps++
		}
		s.lastSeq = seq
		s.audioPackets++
		s.audioBytes += len(n.Payload) - 3
		return true
	case glassgear.CharPhoto:
		if len(n.Payload) == 2 && n.Payload[0] == 0xFF && n.Payload[1] == 0xFF {
			s.photoDone++
			return haveSeq
		}
		s.photoChunks++
		s.photoBytes += len(n.Payload)
	case glassgear.CharBattery:
		if len(n.Payload) == 1 {
			s.battery = int(n.Payload[0])
		}
	case glassgear.CharOTAStatus:
		if len(n.Payload) == 2 {
			s.otaStatus = n.Payload[0]
			s.otaSeen = true
		}
	}
	return haveSeq
}

func (s *monitorStats) render(styles cli.Styles) string {
	battery := "?"
	if s.battery >= 0 {
		battery = fmt.Sprintf("%d%%", s.battery)
	}
	pairs := []string{
		"audio", fmt.Sprintf("%d pkt/s %d B/s", s.audioPackets, s.audioBytes),
		"gaps", fmt.Sprintf("%d", s.seqGaps),
		"photo", fmt.Sprintf("%d chunks %d B (%d done)", s.photoChunks, s.photoBytes, s.photoDone),
		"battery", battery,
	}
	if s.otaSeen {
		pairs = append(pairs, "ota", fmt.Sprintf("0x%02X", s.otaStatus))
	}
	return styles.StatusLine(pairs...)
}
