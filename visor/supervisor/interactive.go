package supervisor

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// InteractiveMode decides whether SIGINT shuts the supervisor down. Outside
// a terminal nobody can press ^C, so a stray INT is ignored.
type InteractiveMode string

const (
	InteractiveAuto   InteractiveMode = "auto"
	InteractiveAlways InteractiveMode = "always"
	InteractiveNever  InteractiveMode = "never"
)

func ParseInteractiveMode(s string) (InteractiveMode, error) {
	switch m := InteractiveMode(s); m {
	case InteractiveAuto, InteractiveAlways, InteractiveNever:
		return m, nil
	case "":
		return InteractiveAuto, nil
	default:
		return "", fmt.Errorf("invalid interactive mode %q: want auto, always or never", s)
	}
}

// Interactive resolves the mode. Auto checks whether stdout is a terminal.
func (m InteractiveMode) Interactive() bool {
	switch m {
	case InteractiveAlways:
		return true
	case InteractiveNever:
		return false
	default:
		return term.IsTerminal(int(os.Stdout.Fd()))
	}
}
