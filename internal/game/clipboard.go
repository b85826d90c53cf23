package game

import "github.com/atotto/clipboard"

// setClipboardText copies text to the system clipboard. Some platforms
// reject an empty write, so a blank report becomes a single space.
func setClipboardText(text string) error {
	if text == "" {
		text = " "
	}
	return clipboard.WriteAll(text)
}
