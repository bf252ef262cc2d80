package port

import (
	"bufio"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
)

func scanAll(t *testing.T, in string, split bufio.SplitFunc) []string {
	t.Helper()
	s := bufio.NewScanner(strings.NewReader(in))
	s.Buffer(make([]byte, 4), 64)
	s.Split(split)
	var out []string
	for s.Scan() {
		out = append(out, s.Text())
	}
	assert.NilError(t, s.Err())
	return out
}

func TestDecodeBoundedLines(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{name: "plain lines", in: "a\nbb\n", want: []string{"a", "bb"}},
		{name: "crlf", in: "a\r\nb\r\n", want: []string{"a", "b"}},
		{name: "no trailing newline", in: "a\nlast", want: []string{"a", "last"}},
		{name: "long line is chunked", in: "abcdefghij\nk\n", want: []string{"abcd", "efgh", "ij", "k"}},
		{name: "empty", in: "", want: nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.DeepEqual(t, scanAll(t, tc.in, DecodeBoundedLines(4)), tc.want)
		})
	}
}
