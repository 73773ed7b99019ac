package sync

import "github.com/atotto/clipboard"

// SystemClipboard is the atotto-backed Clipboard used outside of tests.
type SystemClipboard struct{}

func (SystemClipboard) ReadAll() (string, error) {
	return clipboard.ReadAll()
}

func (SystemClipboard) WriteAll(text string) error {
	return clipboard.WriteAll(text)
}
