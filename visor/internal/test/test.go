package test

import (
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"testing"
)

// NeedsProgram skips the test when name is not on PATH.
func NeedsProgram(t *testing.T, name string) {
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("skipping: %s not found on PATH", name)
	}
}

// NeedsProcfs skips the test when /proc is not available.
func NeedsProcfs(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("skipping: needs /proc")
	}
}

// Alive reports whether a process with the given pid exists and is not a
// zombie waiting to be reaped.
func Alive(pid int) bool {
	stat, err := os.ReadFile("/proc/" + strconv.Itoa(pid) + "/stat")
	if err != nil {
		return false
	}
	// state is the field after the parenthesised command name
	for i := len(stat) - 1; i >= 0; i-- {
		if stat[i] == ')' {
			return i+2 < len(stat) && stat[i+2] != 'Z'
		}
	}
	return false
}
