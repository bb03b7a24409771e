package feed

import "sync"

// Composer holds the draft text for one room's input box. Send clears it
// optimistically before the write resolves and restores the exact original
// text if the write fails.
type Composer struct {
	mu   sync.Mutex
	text string
}

func NewComposer(text string) *Composer {
	return &Composer{text: text}
}

func (c *Composer) SetText(text string) {
	c.mu.Lock()
	c.text = text
	c.mu.Unlock()
}

func (c *Composer) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

// take clears the draft and returns what it held.
func (c *Composer) take() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	text := c.text
	c.text = ""
	return text
}

func (c *Composer) restore(text string) {
	c.mu.Lock()
	c.text = text
	c.mu.Unlock()
}
