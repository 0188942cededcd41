package drivers

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"husk/canbus"
)

// outboundFrame pairs a frame with the pacing delay the sender wants applied
// before it goes out. The isotp segmenter uses this to carry STmin between
// consecutive frames without owning the link itself: the link stays the sole
// owner of the driver's send side, ISO-TP just enqueues.
type outboundFrame struct {
	frame canbus.Frame
	delay time.Duration
	errCh chan error
}

// Link is the single RX task / TX task pair that owns a Driver. Every other
// layer (ISO-TP segmenter/reassembler, raw trace subscribers) talks to the
// link through channels, never to the Driver directly.
type Link struct {
	driver Driver
	log    *logrus.Entry

	sendCh chan outboundFrame

	mu          sync.RWMutex
	subscribers map[chan canbus.Frame]struct{}

	cancel context.CancelFunc
	done   chan struct{}
}

// NewLink starts the RX and TX tasks over driver and returns the running Link.
func NewLink(ctx context.Context, driver Driver, log *logrus.Entry) *Link {
	linkCtx, cancel := context.WithCancel(ctx)
	l := &Link{
		driver:      driver,
		log:         log,
		sendCh:      make(chan outboundFrame, 256),
		subscribers: make(map[chan canbus.Frame]struct{}),
		cancel:      cancel,
		done:        make(chan struct{}),
	}
	go l.run(linkCtx)
	return l
}

func (l *Link) run(ctx context.Context) {
	defer close(l.done)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		l.txLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		l.rxLoop(ctx)
	}()
	wg.Wait()
}

// txLoop is the single task that owns the driver's send side. Pacing for
// consecutive ISO-TP frames (STmin) is applied here against one monotonic
// clock.
func (l *Link) txLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case out := <-l.sendCh:
			if out.delay > 0 {
				timer := time.NewTimer(out.delay)
				select {
				case <-timer.C:
				case <-ctx.Done():
					timer.Stop()
					out.errCh <- ctx.Err()
					continue
				}
			}
			err := l.driver.Send(ctx, out.frame)
			if err != nil {
				l.log.WithError(err).Warn("frame send failed")
			}
			if out.errCh != nil {
				out.errCh <- err
			}
		}
	}
}

// rxLoop pulls frames from the driver and fans them out to every subscriber.
// Cross-ID ordering across subscribers is not promised when multiple frame
// IDs interleave.
func (l *Link) rxLoop(ctx context.Context) {
	frames := l.driver.Subscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			l.broadcast(frame)
		}
	}
}

func (l *Link) broadcast(frame canbus.Frame) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for ch := range l.subscribers {
		select {
		case ch <- frame:
		default:
			l.log.Warn("slow subscriber, dropping frame")
		}
	}
}

// Send enqueues frame for transmission, optionally waiting delay before it is
// sent. It blocks until the driver has accepted (or rejected) the frame.
func (l *Link) Send(ctx context.Context, frame canbus.Frame, delay time.Duration) error {
	errCh := make(chan error, 1)
	select {
	case l.sendCh <- outboundFrame{frame: frame, delay: delay, errCh: errCh}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe returns a channel of every frame received on the link.
func (l *Link) Subscribe() chan canbus.Frame {
	ch := make(chan canbus.Frame, 128)
	l.mu.Lock()
	l.subscribers[ch] = struct{}{}
	l.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a subscription returned by Subscribe.
func (l *Link) Unsubscribe(ch chan canbus.Frame) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.subscribers[ch]; ok {
		delete(l.subscribers, ch)
		close(ch)
	}
}

// Capabilities reports the underlying driver's capabilities.
func (l *Link) Capabilities() Capabilities { return l.driver.Capabilities() }

// Close stops the RX/TX tasks and the underlying driver.
func (l *Link) Close() error {
	l.cancel()
	<-l.done
	l.mu.Lock()
	for ch := range l.subscribers {
		delete(l.subscribers, ch)
		close(ch)
	}
	l.mu.Unlock()
	return l.driver.Close()
}
