package chat

import (
	"fmt"
	"io"
	"sync"
)

const prompt = "> "

// Console renders chat events on a terminal. Both loops print, so writes are serialised.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.w, format, args...)
}

func (c *Console) Banner() {
	c.printf("\nSecure channel established!\nType your messages below (Ctrl+C to quit):\n\n")
}

func (c *Console) Prompt() { c.printf(prompt) }

// Received prints an incoming message over the pending prompt and redraws it.
func (c *Console) Received(text string) {
	c.printf("\r[RECV] %s\n%s", text, prompt)
}

func (c *Console) Sent(text string) {
	c.printf("[SENT] %s\n%s", text, prompt)
}

func (c *Console) Notice(text string) {
	c.printf("[!] %s\n%s", text, prompt)
}

func (c *Console) Closed() {
	c.printf("\nConnection closed.\n")
}
