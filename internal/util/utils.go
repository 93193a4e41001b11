package util

import (
	"strings"
	"unicode/utf8"
)

// GetLineAndColumn converts a byte offset into 1-based line and rune column.
func GetLineAndColumn(src string, pos int) (line int, column int) {
	if pos > len(src) {
		pos = len(src)
	}
	if pos < 0 {
		pos = 0
	}
	before := src[:pos]
	line = strings.Count(before, "\n") + 1
	column = utf8.RuneCountInString(before[strings.LastIndexByte(before, '\n')+1:]) + 1
	return
}
