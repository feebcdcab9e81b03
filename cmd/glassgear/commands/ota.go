package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/glassgear/pkg/glassgear"
)

var otaFlags struct {
	addr    string
	ssid    string
	pass    string
	url     string
	timeout time.Duration
}

var otaCmd = &cobra.Command{
	Use:   "ota",
	Short: "Drive an over-the-air firmware update",
	Long: `Send wifi credentials and a firmware URL to the device, start the
update, and follow the status notifications until it finishes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOTA()
	},
}

func init() {
	otaCmd.Flags().StringVar(&otaFlags.addr, "addr", "ws://localhost:8931/link", "device link address")
	otaCmd.Flags().StringVar(&otaFlags.ssid, "ssid", "", "wifi network name")
	otaCmd.Flags().StringVar(&otaFlags.pass, "pass", "", "wifi password")
	otaCmd.Flags().StringVar(&otaFlags.url, "url", "", "firmware image URL")
	otaCmd.Flags().DurationVar(&otaFlags.timeout, "timeout", 5*time.Minute, "overall update timeout")
	otaCmd.MarkFlagRequired("ssid")
	otaCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(otaCmd)
}

func otaStatusName(s byte) string {
	switch s {
	case glassgear.OTAStatusIdle:
		return "idle"
	case glassgear.OTAStatusWifiConnecting:
		return "wifi connecting"
	case glassgear.OTAStatusWifiConnected:
		return "wifi connected"
	case glassgear.OTAStatusWifiFailed:
		return "wifi failed"
	case glassgear.OTAStatusDownloading:
		return "downloading"
	case glassgear.OTAStatusDownloadDone:
		return "download done"
	case glassgear.OTAStatusDownloadFailed:
		return "download failed"
	case glassgear.OTAStatusInstalling:
		return "installing"
	case glassgear.OTAStatusInstallDone:
		return "install done"
	case glassgear.OTAStatusInstallFailed:
		return "install failed"
	case glassgear.OTAStatusRebooting:
		return "rebooting"
	default:
		return fmt.Sprintf("0x%02X", s)
	}
}

func runOTA() error {
	client, err := glassgear.DialWS(otaFlags.addr)
	if err != nil {
		return err
	}
	defer client.Close()

	wifi := []byte{glassgear.OTACmdSetWifi, byte(len(otaFlags.ssid))}
	wifi = append(wifi, otaFlags.ssid...)
	wifi = append(wifi, byte(len(otaFlags.pass)))
	wifi = append(wifi, otaFlags.pass...)
	if err := client.WriteOTACommand(wifi); err != nil {
		return err
	}

	urlCmd := []byte{glassgear.OTACmdSetURL, byte(len(otaFlags.url) >> 8), byte(len(otaFlags.url))}
	urlCmd = append(urlCmd, otaFlags.url...)
	if err := client.WriteOTACommand(urlCmd); err != nil {
		return err
	}

	if err := client.WriteOTACommand([]byte{glassgear.OTACmdStart}); err != nil {
		return err
	}

	deadline := time.Now().Add(otaFlags.timeout)
	lastPrinted := ""
	for {
		if time.Now().After(deadline) {
			return fmt.Errorf("ota: timed out after %s", otaFlags.timeout)
		}
		n, err := client.Next()
		if err != nil {
			return fmt.Errorf("ota: %w", err)
		}
		if n.Char != glassgear.CharOTAStatus || len(n.Payload) != 2 {
			continue
		}
		status, progress := n.Payload[0], n.Payload[1]
		line := otaStatusName(status)
		if status == glassgear.OTAStatusInstalling {
			line = fmt.Sprintf("%s %d%%", line, progress)
		}
		if line != lastPrinted {
			fmt.Println(line)
			lastPrinted = line
		}

		switch status {
		case glassgear.OTAStatusRebooting:
			return nil
		case glassgear.OTAStatusWifiFailed, glassgear.OTAStatusDownloadFailed,
			glassgear.OTAStatusInstallFailed, glassgear.OTAStatusError:
			return fmt.Errorf("ota: update failed: %s", otaStatusName(status))
		}
	}
}
