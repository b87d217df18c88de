// Package commands implements the ymodem CLI's subcommands.
package commands

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	log     = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:   "ymodem",
	Short: "Send or receive a file over YMODEM",
	Long: `ymodem drives a single-file YMODEM transfer over a serial port.

Use "ymodem [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute runs the root command; its child commands are added in init.
// Called once from main.main.
func Execute() error {
	return rootCmd.Execute()
}

// Exit prints an error to stderr and exits with status 1.
func Exit(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
	os.Exit(1)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.ymodem.yaml)")
	rootCmd.PersistentFlags().String("port", "", "serial port device (e.g. /dev/ttyUSB0)")
	rootCmd.PersistentFlags().Int("baud", 115200, "serial baud rate")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")

	viper.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
	viper.BindPFlag("baud", rootCmd.PersistentFlags().Lookup("baud"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(receiveCmd)
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".ymodem")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("YMODEM")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return err
		}
	}

	if viper.GetBool("verbose") {
		log.SetLevel(logrus.DebugLevel)
	}
	return nil
}
