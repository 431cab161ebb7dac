package util

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// HumanSize converts a byte count to a human-readable string, using KB below
// one mebibyte and MB above, with thousands separators.
func HumanSize(sizeInBytes int64) string {
	if sizeInBytes < 1024*1024 {
		return printer.Sprintf("%.0f KB", float64(sizeInBytes)/1024)
	}
	return printer.Sprintf("%.2f MB", float64(sizeInBytes)/(1024*1024))
}

// Percent formats a ratio as a percentage with three decimals.
func Percent(ratio float64) string {
	return printer.Sprintf("%.3f%%", ratio*100)
}
