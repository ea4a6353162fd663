package delimited

import (
	"bufio"
	"bytes"
	"strings"
)

const sniffWindow = 8192

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// separatorCandidates lists the separators DetectSeparator considers, in
// tie-breaking order.
var separatorCandidates = []rune{',', ';', '\t', '|'}

// DetectSeparator picks the candidate occurring most often in the first
// line. A line with no candidate at all falls back to comma.
func DetectSeparator(firstLine string) rune {
	detected := ','
	maxCount := 0
	for _, sep := range separatorCandidates {
		if count := strings.Count(firstLine, string(sep)); count > maxCount {
			maxCount = count
			detected = sep
		}
	}
	return detected
}

// skipBOM discards a leading UTF-8 byte order mark if present.
func skipBOM(br *bufio.Reader) {
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}
}

// peekFirstLine returns the first line of the buffered input without
// consuming it, capped at the sniff window.
func peekFirstLine(br *bufio.Reader) string {
	peek, _ := br.Peek(sniffWindow)
	if i := bytes.IndexByte(peek, '\n'); i >= 0 {
		peek = peek[:i]
	}
	return strings.TrimSuffix(string(peek), "\r")
}
