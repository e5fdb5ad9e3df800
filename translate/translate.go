// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package translate localizes the user visible text of tinyvm.
package translate

import (
	"log"
	"os"
	"strings"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/message"
)

// LANG_ENV overrides the system locale when set, as a comma separated list.
const LANG_ENV = "TINYVM_LANG"

var printer *message.Printer

func init() {
	printer = NewPrinter(os.Getenv(LANG_ENV))
}

// NewPrinter creates a message printer for the override locales, or
// for the system locales if the override is empty.
func NewPrinter(override string) *message.Printer {
	var locales []string
	for _, tag := range strings.Split(override, ",") {
		tag = strings.TrimSpace(tag)
		if len(tag) != 0 {
			locales = append(locales, tag)
		}
	}

	if len(locales) == 0 {
		var err error
		locales, err = locale.GetLocales()
		if err != nil {
			log.Printf("tinyvm: locale: %v", err)
		}
	}

	if len(locales) == 0 {
		locales = []string{"en-US"}
	}

	return message.NewPrinter(message.MatchLanguage(locales...))
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}
