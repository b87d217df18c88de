package commands

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.bug.st/serial"

	"github.com/xx25/go-ymodem"
	"github.com/xx25/go-ymodem/ymodemio"
)

var sendCmd = &cobra.Command{
	Use:   "send <file>",
	Short: "Send a file over YMODEM",
	Args:  cobra.ExactArgs(1),
	RunE:  runSend,
}

func runSend(cmd *cobra.Command, args []string) error {
	path := args[0]

	port, err := openConfiguredPort()
	if err != nil {
		return err
	}
	defer port.Close()

	cb := ymodemio.NewSerialCallbacks(port)
	cfg := ymodem.DefaultConfig()
	cfg.Logger = slog.New(newLogrusHandler(log))

	sender, err := ymodem.NewSender(cb, cfg)
	if err != nil {
		return fmt.Errorf("ymodem: %w", err)
	}

	basename := filepath.Base(path)
	log.Infof("sending %s as %s", path, basename)

	start := time.Now()
	if err := sender.Send(context.Background(), path, basename); err != nil {
		return fmt.Errorf("send %s: %w", path, err)
	}
	log.Infof("sent %s in %s", basename, time.Since(start).Round(time.Millisecond))
	return nil
}

func openConfiguredPort() (serial.Port, error) {
	name := viper.GetString("port")
	if name == "" {
		return nil, fmt.Errorf("no --port given and no port configured")
	}
	mode := &serial.Mode{BaudRate: viper.GetInt("baud")}
	return serial.Open(name, mode)
}
