// Package translate formats user-facing text with the printer for the
// user's locale.
package translate

import (
	"log"
	"sync"

	"github.com/jeandeaual/go-locale"
	"golang.org/x/text/message"
)

var (
	once    sync.Once
	printer *message.Printer
)

func load() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("lulu: locale: %v", err)
	}
	if len(locales) == 0 {
		locales = []string{"en-US"}
	}
	printer = message.NewPrinter(message.MatchLanguage(locales...))
}

// From formats an en-US Sprintf format for the current locale.
func From(key message.Reference, args ...any) string {
	once.Do(load)
	return printer.Sprintf(key, args...)
}
