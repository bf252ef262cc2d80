package logmux

import (
	"regexp"
)

// wrappedLine matches the warning php-fpm style pool managers emit when a
// worker writes to its stdout or stderr. The payload is closed by a quote, or
// cut with "..." when it was too long for the writer's buffer.
var wrappedLine = regexp.MustCompile(
	`^\[[^\]]*\] WARNING: \[pool [^\]]*\] child [0-9]+ said into std(?:err|out): "(.*)("|\.\.\.)$`)

const truncationMarker = "..."

// Rewrite unwraps a worker output line to its payload. The closing quote is
// dropped and a truncation marker is kept. Lines that do not match are
// returned unchanged with ok false.
func Rewrite(line []byte) (out []byte, ok bool) {
	m := wrappedLine.FindSubmatchIndex(line)
	if m == nil {
		return line, false
	}
	payload := line[m[2]:m[3]]
	if string(line[m[4]:m[5]]) != truncationMarker {
		return payload, true
	}
	out = make([]byte, 0, len(payload)+len(truncationMarker))
	out = append(out, payload...)
	return append(out, truncationMarker...), true
}
