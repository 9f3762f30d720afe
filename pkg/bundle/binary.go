package bundle

import "bytes"

// sniffLen is how much of a file isBinary looks at.
const sniffLen = 512

// isBinary reports whether content looks binary: a NUL byte in the first
// sniffLen bytes, or more than 30% ASCII control characters. Bytes >= 0x80 are
// not counted so UTF-8 and legacy 8-bit text pass.
func isBinary(content []byte) bool {
	sample := content
	if len(sample) > sniffLen {
		sample = sample[:sniffLen]
	}
	if len(sample) == 0 {
		return false
	}
	if bytes.IndexByte(sample, 0) >= 0 {
		return true
	}

	control := 0
	for _, c := range sample {
		if isControl(c) {
			control++
		}
	}
	return float64(control)/float64(len(sample)) > 0.3
}

func isControl(c byte) bool {
	switch c {
	case '\n', '\r', '\t', '\f', '\v':
		return false
	}
	return c < 32 || c == 127
}
