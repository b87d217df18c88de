package commands

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xx25/go-ymodem"
	"github.com/xx25/go-ymodem/ymodemio"
)

var receiveDir string

var receiveCmd = &cobra.Command{
	Use:   "receive",
	Short: "Receive a file over YMODEM",
	Args:  cobra.NoArgs,
	RunE:  runReceive,
}

func init() {
	receiveCmd.Flags().StringVarP(&receiveDir, "dir", "d", ".", "directory to write the received file into")
}

func runReceive(cmd *cobra.Command, args []string) error {
	port, err := openConfiguredPort()
	if err != nil {
		return err
	}
	defer port.Close()

	cb := ymodemio.NewSerialCallbacks(port)
	// The YMODEM filename arrives embedded in packet 0, so FileOpen must be
	// overridden to confine it under receiveDir rather than being known up
	// front.
	baseOpen := cb.FileOpen
	cb.FileOpen = func(name string, writing bool) (ymodem.FileHandle, error) {
		return baseOpen(filepath.Join(receiveDir, filepath.Base(name)), writing)
	}

	cfg := ymodem.DefaultConfig()
	cfg.Logger = slog.New(newLogrusHandler(log))

	receiver, err := ymodem.NewReceiver(cb, cfg)
	if err != nil {
		return fmt.Errorf("ymodem: %w", err)
	}

	log.Infof("waiting for sender on %s", viper.GetString("port"))
	start := time.Now()
	info, err := receiver.Receive(context.Background())
	if err != nil {
		return fmt.Errorf("receive: %w", err)
	}
	log.Infof("received %s (%d bytes) in %s", info.Name, info.Size, time.Since(start).Round(time.Millisecond))
	return nil
}
