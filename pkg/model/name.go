package model

import (
	"strings"

	"golang.org/x/text/cases"
)

// NameKey folds a grocery name so "Milk", "milk " and "MILK" compare equal.
func NameKey(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}
