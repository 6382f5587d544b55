// Package monitor reads the trace a board writes to serial and fans it out to handlers: logs, a status
// snapshot, Prometheus metrics and the UI
package monitor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/calvinmclean/autovalve"
)

// Handler gets every line read from the board
type Handler interface {
	// HandleEvent is called for trace lines
	HandleEvent(autovalve.Event)
	// HandleLine is called for free text and for trace lines that could not be parsed
	HandleLine(string)
}

// Monitor reads lines and passes them to its Handlers in order
type Monitor struct {
	handlers []Handler
}

// New creates a Monitor. nil Handlers are skipped
func New(handlers ...Handler) *Monitor {
	m := &Monitor{}
	for _, h := range handlers {
		if h != nil {
			m.handlers = append(m.handlers, h)
		}
	}
	return m
}

// Read handles lines from r until it is closed or the context is done
func (m *Monitor) Read(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		m.handle(scanner.Text())
	}

	err := scanner.Err()
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("error reading trace: %w", err)
	}
	return nil
}

func (m *Monitor) handle(line string) {
	// serial output from the board ends lines with \r\n and may have padding
	line = strings.Trim(line, "\r\x00 \t")
	if line == "" {
		return
	}

	e, ok, err := autovalve.ParseTraceLine(line)
	if err != nil {
		log.WithError(err).WithField("line", line).Warn("invalid trace line")
	}
	if !ok || err != nil {
		for _, h := range m.handlers {
			h.HandleLine(line)
		}
		return
	}

	for _, h := range m.handlers {
		h.HandleEvent(e)
	}
}

// SendCommands copies command bytes from r to the board. Whitespace is dropped because the board reads a
// single byte per command, and letters are upper-cased
func SendCommands(ctx context.Context, r io.Reader, w io.Writer) error {
	reader := bufio.NewReader(r)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		b, err := reader.ReadByte()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("error reading commands: %w", err)
		}

		switch {
		case b == ' ' || b == '\t' || b == '\r' || b == '\n':
			continue
		case b >= 'a' && b <= 'z':
			b -= 'a' - 'A'
		}

		_, err = w.Write([]byte{b})
		if err != nil {
			return fmt.Errorf("error sending command: %w", err)
		}
		log.WithField("command", string(b)).Debug("sent command")
	}
}

// Options configure Run
type Options struct {
	// Board is the serial connection. Lines are read from it and commands are written to it
	Board io.ReadWriter
	// Commands is optional input, usually stdin, forwarded to the board
	Commands io.Reader
	// Metrics and History are optional. They are added as Handlers and served on MetricsAddr
	Metrics     *Metrics
	History     *History
	MetricsAddr string
	Handlers    []Handler
}

// Run reads the board until it is closed or the context is done. The HTTP server runs alongside it and
// the first error stops everything. The board is closed when the context is done if it is an io.Closer, so
// a blocked read returns
func Run(ctx context.Context, opts Options) error {
	if opts.Board == nil {
		return errors.New("board connection is required")
	}

	handlers := opts.Handlers
	if opts.Metrics != nil {
		handlers = append(handlers, opts.Metrics)
	}
	if opts.History != nil {
		handlers = append(handlers, opts.History)
	}
	m := New(handlers...)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		defer cancel()
		return m.Read(ctx, opts.Board)
	})

	if closer, ok := opts.Board.(io.Closer); ok {
		eg.Go(func() error {
			<-ctx.Done()
			_ = closer.Close()
			return nil
		})
	}

	if (opts.Metrics != nil || opts.History != nil) && opts.MetricsAddr != "" {
		eg.Go(func() error {
			return Serve(ctx, opts.MetricsAddr, opts.Metrics, opts.History)
		})
	}

	// stdin can't be interrupted, so the forwarder is left out of the group and ends with the process
	if opts.Commands != nil {
		go func() {
			err := SendCommands(ctx, opts.Commands, opts.Board)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Warn("stopped forwarding commands")
			}
		}()
	}

	err := eg.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
