package util

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Lower folds s to lowercase using the Unicode default casing rules.
func Lower(s string) string {
	return cases.Lower(language.Und).String(s)
}
