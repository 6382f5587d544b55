//go:build tinygo

package main

import (
	"context"

	"github.com/calvinmclean/autovalve/firmware/commands"
	"github.com/calvinmclean/autovalve/firmware/device"
)

func main() {
	d, err := device.New(board, boardConfig())
	if err != nil {
		panic(err)
	}

	err = d.Run(context.Background(), func() {
		commands.Poll(d)
	})
	if err != nil {
		panic(err)
	}
}
