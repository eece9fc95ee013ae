// Package parser extracts spoken text from downloaded caption files.
package parser

import (
	"strings"
	"unicode"
)

const (
	vttHeader  = "WEBVTT"
	cueArrow   = " --> "
	lineBreaks = "\r\n"
)

// ParseVTT returns the caption text lines of a WebVTT document, dropping the
// header, cue timing lines and cue sequence numbers. Invalid UTF-8 is removed.
func ParseVTT(raw []byte) []string {
	text := strings.ToValidUTF8(string(raw), "")

	fields := strings.FieldsFunc(text, func(r rune) bool {
		return strings.ContainsRune(lineBreaks, r)
	})

	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		ln := strings.TrimSpace(f)
		if isStructural(ln) {
			continue
		}
		lines = append(lines, ln)
	}
	return lines
}

// JoinTranscript concatenates caption lines from one or more files into a
// single transcript.
func JoinTranscript(lines []string) string {
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func isStructural(ln string) bool {
	if ln == "" {
		return true
	}
	if strings.HasPrefix(ln, vttHeader) {
		return true
	}
	if strings.Contains(ln, cueArrow) {
		return true
	}
	return isDigits(ln)
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
