package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// InterruptHandler manages graceful shutdown with friendly messages.
type InterruptHandler struct {
	writer      io.Writer
	notify      func(chan<- os.Signal)
	hint        string
	interrupted bool
	mu          sync.Mutex
}

// NewInterruptHandler creates a new interrupt handler.
func NewInterruptHandler(writer io.Writer) *InterruptHandler {
	if writer == nil {
		writer = os.Stdout
	}
	return &InterruptHandler{
		writer: writer,
		notify: func(c chan<- os.Signal) {
			signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		},
	}
}

// HandleInterrupts returns a context that is canceled on SIGINT or SIGTERM.
// hint, when set, is printed below the interrupt notice.
func (h *InterruptHandler) HandleInterrupts(ctx context.Context, hint string) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	h.mu.Lock()
	h.hint = hint
	h.mu.Unlock()

	sigChan := make(chan os.Signal, 1)
	h.notify(sigChan)

	go func() {
		select {
		case <-sigChan:
		case <-ctx.Done():
			return
		}
		h.mu.Lock()
		if !h.interrupted {
			h.interrupted = true
			h.showInterruptMessage()
		}
		h.mu.Unlock()
		cancel()
	}()

	return ctx
}

func (h *InterruptHandler) showInterruptMessage() {
	msg := "\n\n" + FormatWarning("Interrupted!")

	if h.hint != "" {
		msg += "\n" + FormatInfo(h.hint)
	}

	msg += "\n" + FormatInfo("See you later! "+CashbackIcon) + "\n"

	if _, err := fmt.Fprint(h.writer, msg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write interrupt message: %v\n", err)
	}
}

// WasInterrupted returns true if the process was interrupted.
func (h *InterruptHandler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}
