package httpadapter

import "sync"

// editorBuffer is the server-side copy of the client's editor content.
type editorBuffer struct {
	mu      sync.RWMutex
	content string
}

func (b *editorBuffer) Content() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.content
}

func (b *editorBuffer) SetContent(html string) {
	b.mu.Lock()
	b.content = html
	b.mu.Unlock()
}
