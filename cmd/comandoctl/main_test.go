package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/comando/internal/protocol/codec"
	"github.com/danmuck/comando/internal/stream"
	"github.com/danmuck/comando/internal/testutil/loopback"
	"github.com/danmuck/comando/internal/testutil/testlog"
	"github.com/stretchr/testify/require"
)

const testConfig = `
[link]
transport = "tcp"
address = "controller.test:7000"
protocol_id = 3

[[commands]]
id = 0
name = "ping"
args = ["int"]
result = ["int"]
doc = "echo"

[[commands]]
id = 1
name = "status"
result = ["string", "bool"]

[[commands]]
id = 2
name = "reset"
`

type closingStream struct {
	*loopback.Stream
	closed bool
}

func (c *closingStream) Close() error {
	c.closed = true
	return nil
}

// useLoopback points the CLI at an in-memory stream instead of a real link.
func useLoopback(t *testing.T) *closingStream {
	t.Helper()
	s := &closingStream{Stream: loopback.New()}
	prev := openStream
	openStream = func(ctx context.Context, cfg stream.Config) (io.ReadWriteCloser, error) {
		require.Equal(t, stream.KindTCP, cfg.Kind)
		require.Equal(t, "controller.test:7000", cfg.Address)
		return s, nil
	}
	t.Cleanup(func() { openStream = prev })
	return s
}

// silentStream never delivers a byte; reads block until Close.
type silentStream struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func (s *silentStream) Read(p []byte) (int, error)  { return s.r.Read(p) }
func (s *silentStream) Write(p []byte) (int, error) { return len(p), nil }

func (s *silentStream) Close() error {
	_ = s.w.Close()
	return s.r.Close()
}

func useSilent(t *testing.T) {
	t.Helper()
	prev := openStream
	openStream = func(ctx context.Context, cfg stream.Config) (io.ReadWriteCloser, error) {
		r, w := io.Pipe()
		return &silentStream{r: r, w: w}, nil
	}
	t.Cleanup(func() { openStream = prev })
}

// executeAsync runs the CLI in the background and waits up to limit for it.
func executeAsync(t *testing.T, ctx context.Context, limit time.Duration, args ...string) error {
	t.Helper()
	done := make(chan error, 1)
	go func() {
		root := rootCmd()
		root.SetOut(io.Discard)
		root.SetErr(io.Discard)
		root.SetArgs(args)
		done <- root.ExecuteContext(ctx)
	}()
	select {
	case err := <-done:
		return err
	case <-time.After(limit):
		t.Fatalf("comandoctl %v still running after %v", args, limit)
		return nil
	}
}

func writeTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "comando.toml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := rootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// feed queues an inbound event frame for protocol 3.
func feed(t *testing.T, s *loopback.Stream, cid uint8, values ...any) {
	t.Helper()
	payload := []byte{3, cid}
	for _, v := range values {
		typ, err := codec.TypeOf(v)
		require.NoError(t, err)
		payload, err = codec.AppendPack(payload, typ, v)
		require.NoError(t, err)
	}
	require.NoError(t, s.FeedFrame(payload))
}

func TestTriggerWritesCommandFrame(t *testing.T) {
	testlog.Start(t)
	s := useLoopback(t)
	path := writeTestConfig(t)

	_, err := execute(t, "--config", path, "trigger", "ping", "5")
	require.NoError(t, err)
	frames, err := s.Frames()
	require.NoError(t, err)
	require.Equal(t, [][]byte{{3, 0, 5, 0, 0, 0}}, frames)
	require.True(t, s.closed)

	_, err = execute(t, "--config", path, "trigger", "ping")
	require.Error(t, err)
}

func TestCallPrintsReply(t *testing.T) {
	testlog.Start(t)
	s := useLoopback(t)
	s.OnWrite = func(ls *loopback.Stream, p []byte) {
		feed(t, ls, 1, "warming", false)
		feed(t, ls, 0, 42)
	}

	out, err := execute(t, "--config", writeTestConfig(t), "call", "ping", "41")
	require.NoError(t, err)
	require.Equal(t, "42\n", out)
}

func TestCallFailsWhenStreamEnds(t *testing.T) {
	testlog.Start(t)
	useLoopback(t)
	_, err := execute(t, "--config", writeTestConfig(t), "call", "reset")
	require.Error(t, err)
}

func TestListenPrintsEvents(t *testing.T) {
	testlog.Start(t)
	s := useLoopback(t)
	feed(t, s.Stream, 1, "ready", true)
	feed(t, s.Stream, 2)
	feed(t, s.Stream, 0, 7)

	out, err := execute(t, "--config", writeTestConfig(t), "listen")
	require.NoError(t, err)
	require.Equal(t, "status ready true\nreset\nping 7\n", out)
}

func TestListenStopsAfterCount(t *testing.T) {
	testlog.Start(t)
	s := useLoopback(t)
	feed(t, s.Stream, 0, 1)
	feed(t, s.Stream, 0, 2)

	out, err := execute(t, "--config", writeTestConfig(t), "listen", "-n", "1")
	require.NoError(t, err)
	require.Equal(t, "ping 1\n", out)
	require.Greater(t, s.Pending(), 0)
}

func TestCommandsListsTable(t *testing.T) {
	testlog.Start(t)
	out, err := execute(t, "--config", writeTestConfig(t), "commands")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	require.Contains(t, lines[1], "ping")
	require.Contains(t, lines[1], "echo")
	require.Contains(t, lines[2], "string,bool")
	require.Contains(t, lines[3], "reset")
}

func TestInitThenValidate(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "comando.toml")
	_, err := execute(t, "init", "--kind", "websocket", "-o", path)
	require.NoError(t, err)

	out, err := execute(t, "--config", path, "validate")
	require.NoError(t, err)
	require.Contains(t, out, "websocket, 3 commands")

	_, err = execute(t, "init", "--kind", "websocket", "-o", path)
	require.Error(t, err)
}

func TestVersionShort(t *testing.T) {
	testlog.Start(t)
	out, err := execute(t, "version", "--short")
	require.NoError(t, err)
	require.Equal(t, version+"\n", out)
}

func TestBadLogLevel(t *testing.T) {
	testlog.Start(t)
	_, err := execute(t, "--log-level", "loud", "version")
	require.Error(t, err)
}

func TestCallTimeoutInterruptsBlockedRead(t *testing.T) {
	testlog.Start(t)
	useSilent(t)
	path := writeTestConfig(t)

	start := time.Now()
	err := executeAsync(t, context.Background(), 5*time.Second,
		"--config", path, "call", "ping", "1", "--timeout", "200ms")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), 3*time.Second)
}

func TestListenStopsOnCancel(t *testing.T) {
	testlog.Start(t)
	useSilent(t)
	path := writeTestConfig(t)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)
	err := executeAsync(t, ctx, 5*time.Second, "--config", path, "listen")
	require.NoError(t, err)
}
