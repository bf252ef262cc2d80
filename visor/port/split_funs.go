package port

import (
	"bufio"
	"bytes"
)

// DecodeBoundedLines works like [bufio.ScanLines] but never asks for more
// than max bytes of buffer: a line longer than max is returned in max sized
// pieces instead of failing the scan with [bufio.ErrTooLong].
func DecodeBoundedLines(max int) bufio.SplitFunc {
	return func(data []byte, atEOF bool) (advance int, token []byte, err error) {
		if atEOF && len(data) == 0 {
			return 0, nil, nil
		}
		if i := bytes.IndexByte(data, '\n'); i >= 0 && i < max {
			return i + 1, dropCR(data[0:i]), nil
		}
		if len(data) >= max {
			return max, data[0:max], nil
		}
		if atEOF {
			return len(data), dropCR(data), nil
		}
		return 0, nil, nil
	}
}

func dropCR(data []byte) []byte {
	if len(data) > 0 && data[len(data)-1] == '\r' {
		return data[0 : len(data)-1]
	}
	return data
}
