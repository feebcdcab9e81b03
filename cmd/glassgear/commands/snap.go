package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/glassgear/pkg/glassgear"
)

var snapFlags struct {
	addr    string
	output  string
	timeout time.Duration
}

var snapCmd = &cobra.Command{
	Use:   "snap",
	Short: "Request a single photo and save it to a file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSnap()
	},
}

func init() {
	snapCmd.Flags().StringVar(&snapFlags.addr, "addr", "ws://localhost:8931/link", "device link address")
	snapCmd.Flags().StringVarP(&snapFlags.output, "output", "o", "photo.jpg", "output file")
	snapCmd.Flags().DurationVar(&snapFlags.timeout, "timeout", 30*time.Second, "transfer timeout")
	rootCmd.AddCommand(snapCmd)
}

func runSnap() error {
	client, err := glassgear.DialWS(snapFlags.addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.WritePhotoControl(glassgear.PhotoControlSingle); err != nil {
		return err
	}

	assembler := glassgear.NewPhotoAssembler()
	deadline := time.Now().Add(snapFlags.timeout)
	for {
		if time.Now().After(deadline) {
			return fmt.Errorf("snap: no complete photo within %s", snapFlags.timeout)
		}
		n, err := client.Next()
		if err != nil {
			return fmt.Errorf("snap: %w", err)
		}
		if n.Char != glassgear.CharPhoto {
			continue
		}
		data, done, err := assembler.Add(n.Payload)
		if err != nil {
			// A gap voids this transfer; keep waiting for the next one.
			if IsVerbose() {
				fmt.Fprintf(os.Stderr, "snap: %v\n", err)
			}
			continue
		}
		if !done {
			continue
		}
		if err := os.WriteFile(snapFlags.output, data, 0o644); err != nil {
			return fmt.Errorf("snap: %w", err)
		}
		fmt.Printf("saved %d bytes to %s (orientation %d)\n", len(data), snapFlags.output, assembler.Orientation())
		return nil
	}
}
