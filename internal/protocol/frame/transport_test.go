package frame

import (
	"bytes"
	"errors"
	"testing"

	"github.com/danmuck/comando/internal/testutil/testlog"
)

type rwPair struct {
	in  *bytes.Buffer
	out *bytes.Buffer
}

func (p rwPair) Read(b []byte) (int, error)  { return p.in.Read(b) }
func (p rwPair) Write(b []byte) (int, error) { return p.out.Write(b) }

type captureConsumer struct {
	got [][]byte
	err error
}

func (c *captureConsumer) ReceiveMessage(payload []byte) error {
	c.got = append(c.got, payload)
	return c.err
}

func TestTransportSendAndReceive(t *testing.T) {
	testlog.Start(t)
	in, _ := Encode([]byte{9, 8, 7})
	empty, _ := Encode(nil)
	rw := rwPair{in: bytes.NewBuffer(append(in, empty...)), out: &bytes.Buffer{}}

	tr := NewTransport(rw)
	c := &captureConsumer{}
	tr.SetConsumer(c)

	if err := tr.Send([]byte{1, 2}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if !bytes.Equal(rw.out.Bytes(), []byte{2, 1, 2, 3}) {
		t.Fatalf("unexpected wire: %x", rw.out.Bytes())
	}

	if err := tr.ReceiveOne(); err != nil {
		t.Fatalf("receive: %v", err)
	}
	if err := tr.ReceiveOne(); err != nil {
		t.Fatalf("receive empty: %v", err)
	}
	if len(c.got) != 2 || !bytes.Equal(c.got[0], []byte{9, 8, 7}) || len(c.got[1]) != 0 {
		t.Fatalf("unexpected deliveries: %x", c.got)
	}

	if err := tr.ReceiveOne(); !errors.Is(err, ErrShortRead) {
		t.Fatalf("expected ErrShortRead at end of stream, got %v", err)
	}
}

func TestTransportPropagatesConsumerError(t *testing.T) {
	testlog.Start(t)
	in, _ := Encode([]byte{1})
	rw := rwPair{in: bytes.NewBuffer(in), out: &bytes.Buffer{}}
	tr := NewTransport(rw)
	boom := errors.New("boom")
	tr.SetConsumer(&captureConsumer{err: boom})
	if err := tr.ReceiveOne(); !errors.Is(err, boom) {
		t.Fatalf("expected consumer error, got %v", err)
	}
}

func TestTransportRequiresConsumer(t *testing.T) {
	testlog.Start(t)
	tr := NewTransport(rwPair{in: &bytes.Buffer{}, out: &bytes.Buffer{}})
	if err := tr.ReceiveOne(); !errors.Is(err, ErrNoConsumer) {
		t.Fatalf("expected ErrNoConsumer, got %v", err)
	}
}
