// Command ymodem sends or receives a single file over a serial port using
// the YMODEM protocol.
package main

import (
	"fmt"
	"os"

	"github.com/xx25/go-ymodem/cmd/ymodem/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
