package ui

import (
	"io"
	"time"
)

// controllerWrapper sends the board's single-byte commands
type controllerWrapper struct {
	writer         io.Writer
	lastEventTimer *timer
}

func (c *controllerWrapper) send(cmd byte) {
	_, _ = c.writer.Write([]byte{cmd})
}

func (c *controllerWrapper) Debug() {
	c.send('D')
}

func (c *controllerWrapper) Verbose() {
	c.send('V')
}

func (c *controllerWrapper) Timing() {
	c.send('T')
}

func (c *controllerWrapper) Rehome() {
	c.lastEventTimer.Set(time.Now())
	c.send('R')
}
