// Package textutil classifies restored file contents.
package textutil

import "bytes"

// BinarySniffLength is the number of leading bytes searched for a NUL, as git does.
const BinarySniffLength = 8000

// IsBinary reports whether data has a NUL byte within the first BinarySniffLength bytes.
// Empty data is text.
func IsBinary(data []byte) bool {
	sniff := data
	if len(sniff) > BinarySniffLength {
		sniff = sniff[:BinarySniffLength]
	}

	return bytes.IndexByte(sniff, 0) >= 0
}

// CountLines counts newline-terminated lines plus a trailing partial line.
func CountLines(data []byte) int {
	if len(data) == 0 {
		return 0
	}

	lines := bytes.Count(data, []byte{'\n'})

	if data[len(data)-1] != '\n' {
		lines++
	}

	return lines
}
