package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calvinmclean/autovalve/monitor"
)

func init() {
	rootCmd.AddCommand(portsCmd)
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List USB serial ports that a board could be connected to",
	RunE: func(_ *cobra.Command, _ []string) error {
		ports, err := monitor.GetSerialPorts()
		if errors.Is(err, monitor.ErrNoUSBSerial) {
			fmt.Println("No USB serial ports found")
			return nil
		}
		if err != nil {
			return err
		}

		for _, port := range ports {
			fmt.Println(port)
		}
		return nil
	},
}
