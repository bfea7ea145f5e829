package utils

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// 英文千分位，例如 1,234,567
var printer = message.NewPrinter(language.English)

// FormatCount 整数加千分位
func FormatCount(n int) string {
	return printer.Sprintf("%d", n)
}

// FormatMean 四舍五入到整数后加千分位
func FormatMean(v float64) string {
	return printer.Sprintf("%.0f", v)
}
