package pkg

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ManouchehrRasoulli/rfspoll/internal"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

var (
	lg *log.Logger
)

func TestMain(m *testing.M) {
	lg = log.New(os.Stdout, "test --> ", 1|4)
	os.Exit(m.Run())
}

// leakOptions ignores the dispatch goroutines rjeczalik/notify starts on
// import and whatever an earlier test left behind.
func leakOptions() []goleak.Option {
	return []goleak.Option{
		goleak.IgnoreCurrent(),
		goleak.IgnoreTopFunction("github.com/rjeczalik/notify.(*nonrecursiveTree).dispatch"),
		goleak.IgnoreTopFunction("github.com/rjeczalik/notify.(*nonrecursiveTree).internal"),
	}
}

func pollUntil(t *testing.T, b *Bridge, cond func(msgs []Message) bool) []Message {
	t.Helper()

	msgs := make([]Message, 0)
	require.Eventually(t, func() bool {
		b.Poll(func(m Message) { msgs = append(msgs, m) })
		return cond(msgs)
	}, 5*time.Second, 10*time.Millisecond, "messages so far %v", msgs)
	return msgs
}

func TestBridge_PollEmpty(t *testing.T) {
	b, err := NewBridge(nil, lg)
	require.NoError(t, err)

	calls := 0
	require.Equal(t, 0, b.Poll(func(m Message) { calls++ }))
	require.Equal(t, 0, calls)
	require.Equal(t, 0, b.Pending())
}

func TestBridge_Sequencing(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions()...)

	b, err := NewBridge(&Config{Backend: internal.FsnotifyBackend}, lg)
	require.NoError(t, err)

	require.ErrorIs(t, b.Unwatch(), internal.ErrNotWatching)

	x := t.TempDir()
	y := t.TempDir()
	require.NoError(t, b.Watch(x))
	require.ErrorIs(t, b.Watch(y), internal.ErrAlreadyWatching)
	require.Equal(t, x, b.Root())

	require.NoError(t, b.Unwatch())
	require.Empty(t, b.Root())
	require.NoError(t, b.Watch(y))
	require.Equal(t, y, b.Root())
	require.NoError(t, b.Unwatch())
}

func TestBridge_FsnotifyCreateAndRename(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions()...)

	b, err := NewBridge(&Config{Backend: internal.FsnotifyBackend}, lg)
	require.NoError(t, err)

	root := t.TempDir()
	require.NoError(t, b.Watch(root))
	defer func() { _ = b.Unwatch() }()

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), nil, 0644))
	msgs := pollUntil(t, b, func(msgs []Message) bool { return len(msgs) > 0 })
	require.Equal(t, Message{Action: "create", Root: root, File: "a.txt", Old: ""}, msgs[0])

	// let trailing notifications for a.txt settle before the rename
	time.Sleep(50 * time.Millisecond)
	b.Poll(nil)

	// fsnotify cannot pair the halves of a rename
	require.NoError(t, os.Rename(filepath.Join(root, "a.txt"), filepath.Join(root, "b.txt")))
	msgs = pollUntil(t, b, func(msgs []Message) bool { return len(msgs) >= 2 })
	require.Equal(t, []Message{
		{Action: "delete", Root: root, File: "a.txt"},
		{Action: "create", Root: root, File: "b.txt"},
	}, msgs)
}

func TestBridge_UnwatchKeepsQueue(t *testing.T) {
	b, err := NewBridge(&Config{Backend: internal.FsnotifyBackend}, lg)
	require.NoError(t, err)

	root := t.TempDir()
	require.NoError(t, b.Watch(root))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), nil, 0644))
	require.Eventually(t, func() bool { return b.Pending() > 0 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, b.Unwatch())
	msgs := make([]Message, 0)
	require.Positive(t, b.Poll(func(m Message) { msgs = append(msgs, m) }))
	require.Equal(t, "create", msgs[0].Action)
}

func TestBridge_UnknownBackend(t *testing.T) {
	_, err := NewBridge(&Config{Backend: "kqueue"}, lg)
	require.ErrorIs(t, err, internal.ErrUnsupportedBackend)
}

func TestMessage_JSON(t *testing.T) {
	m := newMessage(internal.NewEvent(internal.Modify, "/tmp/x", "a.txt", "ignored"))
	data, err := json.Marshal(m)
	require.NoError(t, err)
	require.JSONEq(t, `{"action":"modify","root":"/tmp/x","file":"a.txt","old":""}`, string(data))
}
