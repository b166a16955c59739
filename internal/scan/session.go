package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultInterval is the delay between two decoded frames.
const DefaultInterval = 300 * time.Millisecond

// ErrBusy is returned by Start while another session holds the device.
var ErrBusy = errors.New("сканер уже используется")

// DeviceError reports a capture device failure. The session that hit it is
// over and the device has been released.
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("Ошибка камеры (%s): %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// One device per process.
var (
	deviceMu   sync.Mutex
	deviceHeld bool
)

func acquire() bool {
	deviceMu.Lock()
	defer deviceMu.Unlock()
	if deviceHeld {
		return false
	}
	deviceHeld = true
	return true
}

func release() {
	deviceMu.Lock()
	deviceHeld = false
	deviceMu.Unlock()
}

// Options tune a Session.
type Options struct {
	Interval time.Duration
	Decoder  Decoder
	Logger   *zap.Logger
}

// Session polls a FrameSource and emits each newly decoded code on Codes.
// A code equal to the previous one is not emitted again.
type Session struct {
	src      FrameSource
	dec      Decoder
	interval time.Duration
	log      *zap.Logger

	codes  chan string
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
	err    error
}

// Start opens src and begins polling it. The returned session must be
// closed; it is also torn down when ctx is cancelled.
func Start(ctx context.Context, src FrameSource, opts Options) (*Session, error) {
	if !acquire() {
		return nil, ErrBusy
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Decoder == nil {
		opts.Decoder = NewQRDecoder()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if err := src.Open(ctx); err != nil {
		release()
		return nil, &DeviceError{Op: "open", Err: err}
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		src:      src,
		dec:      opts.Decoder,
		interval: opts.Interval,
		log:      opts.Logger,
		codes:    make(chan string),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go s.run(ctx)
	return s, nil
}

// Codes delivers decoded codes. It is closed when the session ends.
func (s *Session) Codes() <-chan string { return s.codes }

// Done is closed when the session has ended and the device is released.
func (s *Session) Done() <-chan struct{} { return s.done }

// Err returns the device failure that ended the session, if any. It is only
// meaningful after Done is closed.
func (s *Session) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Close stops the session and waits for the device to be released. It is
// safe to call more than once.
func (s *Session) Close() error {
	s.once.Do(s.cancel)
	<-s.done
	return s.err
}

func (s *Session) run(ctx context.Context) {
	defer func() {
		if err := s.src.Close(); err != nil {
			s.log.Warn("closing capture device", zap.Error(err))
		}
		release()
		close(s.done)
		close(s.codes)
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		img, err := s.src.Next(ctx)
		switch {
		case errors.Is(err, ErrNoFrame):
			continue
		case errors.Is(err, io.EOF):
			return
		case ctx.Err() != nil:
			return
		case err != nil:
			s.err = &DeviceError{Op: "read", Err: err}
			s.log.Warn("capture failed", zap.Error(err))
			return
		}

		code, err := s.dec.Decode(img)
		if err != nil {
			if !errors.Is(err, ErrNoCode) {
				s.log.Debug("decode failed", zap.Error(err))
			}
			continue
		}
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		s.log.Debug("code scanned", zap.String("code", code))

		select {
		case s.codes <- code:
		case <-ctx.Done():
			return
		}
	}
}
