package internal

import (
	"fmt"
	"unicode/utf8"
)

// MaxPathLen bound of every text field on an event, in bytes.
const MaxPathLen = 255

type Action uint8

const (
	Create Action = iota + 1
	Delete
	Modify
	Move
)

func (a Action) String() string {
	switch a {
	case Create:
		return "create"
	case Delete:
		return "delete"
	case Modify:
		return "modify"
	case Move:
		return "move"
	default:
		return "unknown"
	}
}

func (a Action) Valid() bool { return a >= Create && a <= Move }

type Event struct {
	Action  Action
	Root    string
	Path    string
	OldPath string
}

// NewEvent copies the given fields into an event, truncating each one to
// MaxPathLen. OldPath is kept only for moves.
func NewEvent(action Action, root, path, oldPath string) Event {
	e := Event{
		Action: action,
		Root:   truncate(root),
		Path:   truncate(path),
	}
	if action == Move {
		e.OldPath = truncate(oldPath)
	}
	return e
}

func (e Event) Valid() bool {
	if !e.Action.Valid() || len(e.Path) == 0 {
		return false
	}
	return e.Action != Move || len(e.OldPath) > 0
}

func (e Event) String() string {
	if e.Action == Move {
		return fmt.Sprintf("%-7s %q -> %q (root %q)", e.Action, e.OldPath, e.Path, e.Root)
	}
	return fmt.Sprintf("%-7s %q (root %q)", e.Action, e.Path, e.Root)
}

func truncate(s string) string {
	if len(s) <= MaxPathLen {
		return s
	}
	// back off to a rune boundary, invalid utf-8 is cut at the byte bound.
	for i := MaxPathLen; i > MaxPathLen-utf8.UTFMax; i-- {
		if utf8.RuneStart(s[i]) {
			return s[:i]
		}
	}
	return s[:MaxPathLen]
}
