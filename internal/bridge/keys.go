package bridge

import (
	"strings"

	"github.com/chromedp/chromedp/kb"
)

var namedKeys = map[string]string{
	"enter":      kb.Enter,
	"tab":        kb.Tab,
	"escape":     kb.Escape,
	"backspace":  kb.Backspace,
	"delete":     kb.Delete,
	"arrowup":    kb.ArrowUp,
	"arrowdown":  kb.ArrowDown,
	"arrowleft":  kb.ArrowLeft,
	"arrowright": kb.ArrowRight,
	"home":       kb.Home,
	"end":        kb.End,
	"space":      " ",
}

// KeyFor maps a key name such as "Enter" to the sequence chromedp.KeyEvent
// expects. Anything else is typed as is.
func KeyFor(name string) string {
	if k, ok := namedKeys[strings.ToLower(name)]; ok {
		return k
	}
	return name
}
