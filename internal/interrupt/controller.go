package interrupt

import (
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"scrivener/internal/logging"
)

// Controller holds a one-way interrupt flag. Once set it is never cleared;
// create a new Controller per job.
type Controller struct {
	flag   atomic.Bool
	logger *slog.Logger

	mu      sync.Mutex
	signals chan os.Signal
	done    chan struct{}
}

// New returns a controller with the flag unset.
func New(logger *slog.Logger) *Controller {
	return &Controller{logger: logging.NewComponentLogger(logger, "interrupt")}
}

// Install starts listening for SIGINT and SIGTERM. Calling it twice is a no-op.
func (c *Controller) Install() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.signals != nil {
		return
	}
	c.signals = make(chan os.Signal, 2)
	c.done = make(chan struct{})
	signal.Notify(c.signals, unix.SIGINT, unix.SIGTERM)

	go func(signals <-chan os.Signal, done <-chan struct{}) {
		for {
			select {
			case sig := <-signals:
				if !c.flag.Swap(true) {
					c.logger.Info("interrupt requested; finishing current step",
						logging.String("signal", sig.String()),
					)
				}
			case <-done:
				return
			}
		}
	}(c.signals, c.done)
}

// Interrupted reports whether a stop was requested.
func (c *Controller) Interrupted() bool {
	return c.flag.Load()
}

// Trigger sets the flag without a signal.
func (c *Controller) Trigger() {
	c.flag.Store(true)
}

// Stop unregisters the signal handlers. The flag keeps its value.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.signals == nil {
		return
	}
	signal.Stop(c.signals)
	close(c.done)
	c.signals = nil
	c.done = nil
}
