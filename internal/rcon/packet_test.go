package rcon

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestWritePacketLayout(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePacket(&buf, Packet{ID: 7, Type: TypeExec, Body: "list"}); err != nil {
		t.Fatal(err)
	}

	raw := buf.Bytes()
	if len(raw) != 4+10+4 {
		t.Fatalf("packet length = %d, want 18", len(raw))
	}
	if size := binary.LittleEndian.Uint32(raw[0:4]); size != 14 {
		t.Errorf("size field = %d, want 14", size)
	}
	if id := binary.LittleEndian.Uint32(raw[4:8]); id != 7 {
		t.Errorf("id field = %d, want 7", id)
	}
	if typ := binary.LittleEndian.Uint32(raw[8:12]); typ != uint32(TypeExec) {
		t.Errorf("type field = %d, want %d", typ, TypeExec)
	}
	if string(raw[12:16]) != "list" {
		t.Errorf("body = %q, want list", raw[12:16])
	}
	if !bytes.Equal(raw[16:], []byte{0, 0}) {
		t.Errorf("terminator = %v, want two NUL bytes", raw[16:])
	}
}

func TestReadPacketRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	want := Packet{ID: 42, Type: TypeResponse, Body: "There are 3/20 players online:"}
	if err := WritePacket(&buf, want); err != nil {
		t.Fatal(err)
	}

	got, err := ReadPacket(&buf)
	if err != nil {
		t.Fatalf("ReadPacket() error: %v", err)
	}
	if got != want {
		t.Errorf("ReadPacket() = %+v, want %+v", got, want)
	}
}

func TestReadPacketEmptyBody(t *testing.T) {
	var buf bytes.Buffer
	WritePacket(&buf, Packet{ID: 1, Type: TypeAuthResponse})

	got, err := ReadPacket(&buf)
	if err != nil {
		t.Fatalf("ReadPacket() error: %v", err)
	}
	if got.Body != "" {
		t.Errorf("Body = %q, want empty", got.Body)
	}
}

func TestReadPacketRejectsBadSize(t *testing.T) {
	for _, size := range []int32{0, 9, maxPacketSize + 1, -5} {
		var buf bytes.Buffer
		binary.Write(&buf, binary.LittleEndian, size)
		buf.Write(make([]byte, 16))

		_, err := ReadPacket(&buf)
		if !errors.Is(err, ErrPacketSize) {
			t.Errorf("size %d: error = %v, want ErrPacketSize", size, err)
		}
	}
}

func TestReadPacketTruncated(t *testing.T) {
	var buf bytes.Buffer
	WritePacket(&buf, Packet{ID: 1, Type: TypeResponse, Body: "hello"})
	truncated := bytes.NewReader(buf.Bytes()[:buf.Len()-3])

	if _, err := ReadPacket(truncated); err == nil {
		t.Fatal("expected error for truncated packet")
	}
}
