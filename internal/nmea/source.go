package nmea

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"go.bug.st/serial"

	"github.com/banshee-data/roadwatch/internal/monitoring"
	"github.com/banshee-data/roadwatch/internal/motion"
)

// Source reads sentences from a serial GPS receiver and delivers parsed
// samples to a callback. It implements the engine's location source: read or
// parse errors produce no sample rather than a crash.
type Source struct {
	port io.ReadCloser
}

// NewSource wraps an already-open serial port (or any reader in tests).
func NewSource(port io.ReadCloser) *Source {
	return &Source{port: port}
}

// Open opens the serial device at the given path and baud rate and returns a
// Source reading from it.
func Open(device string, baud int) (*Source, error) {
	port, err := serial.Open(device, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("failed to open GPS serial port %s: %w", device, err)
	}
	return NewSource(port), nil
}

// Run reads sentences until the context is cancelled or the port closes,
// invoking emit for every valid RMC fix. Void fixes and unparseable lines
// are skipped; only unexpected parse failures are logged.
func (s *Source) Run(ctx context.Context, emit func(motion.Sample)) error {
	scanner := bufio.NewScanner(s.port)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := scanner.Text()
		if line == "" {
			continue
		}

		sample, err := ParseRMC(line)
		if err != nil {
			if !errors.Is(err, ErrNotRMC) && !errors.Is(err, ErrVoidFix) {
				monitoring.Debugf("nmea: dropping sentence: %v", err)
			}
			continue
		}
		emit(sample)
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("GPS serial read failed: %w", err)
	}
	return ctx.Err()
}

// Close closes the underlying port.
func (s *Source) Close() error {
	return s.port.Close()
}
