package internal

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestAction_String(t *testing.T) {
	require.Equal(t, "create", Create.String())
	require.Equal(t, "delete", Delete.String())
	require.Equal(t, "modify", Modify.String())
	require.Equal(t, "move", Move.String())
	require.Equal(t, "unknown", Action(0).String())
	require.False(t, Action(42).Valid())
}

func TestNewEvent_Truncate(t *testing.T) {
	long := strings.Repeat("a", 300)

	e := NewEvent(Move, long, long, long)
	require.Len(t, e.Root, MaxPathLen)
	require.Len(t, e.Path, MaxPathLen)
	require.Len(t, e.OldPath, MaxPathLen)

	// 254 ascii bytes followed by a 3 byte rune straddling the bound.
	mixed := strings.Repeat("b", 254) + "€" + "tail"
	e = NewEvent(Create, "/root", mixed, "")
	require.Equal(t, strings.Repeat("b", 254), e.Path)
	require.True(t, utf8.ValidString(e.Path))

	exact := strings.Repeat("c", MaxPathLen)
	e = NewEvent(Modify, "/root", exact, "")
	require.Equal(t, exact, e.Path)
}

func TestNewEvent_OldPathOnlyForMove(t *testing.T) {
	e := NewEvent(Create, "/root", "a.txt", "ignored")
	require.Empty(t, e.OldPath)
	require.True(t, e.Valid())

	e = NewEvent(Move, "/root", "b.txt", "a.txt")
	require.Equal(t, "a.txt", e.OldPath)
	require.True(t, e.Valid())
}

func TestEvent_Valid(t *testing.T) {
	require.False(t, NewEvent(Create, "/root", "", "").Valid())
	require.False(t, NewEvent(Move, "/root", "b.txt", "").Valid())
	require.False(t, NewEvent(Action(9), "/root", "a.txt", "").Valid())
}

func TestEvent_String(t *testing.T) {
	e := NewEvent(Create, "/w", "a.txt", "")
	require.Equal(t, `create  "a.txt" (root "/w")`, e.String())

	e = NewEvent(Move, "/w", "b.txt", "a.txt")
	require.Equal(t, `move    "a.txt" -> "b.txt" (root "/w")`, e.String())
}
