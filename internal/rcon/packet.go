package rcon

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Packet types of the Source RCON protocol. An auth response and an exec
// request share type 2.
const (
	TypeResponse     int32 = 0
	TypeExec         int32 = 2
	TypeAuthResponse int32 = 2
	TypeAuth         int32 = 3
)

const (
	// id + type + two NUL terminators
	packetOverhead = 10
	// Minecraft drops requests with a longer body.
	maxCommandLen = 1446
	maxPacketSize = 1 << 16
)

// AuthFailedID is the request id the server echoes when the password is wrong.
const AuthFailedID int32 = -1

// Packet is one RCON frame.
type Packet struct {
	ID   int32
	Type int32
	Body string
}

// WritePacket encodes p as size|id|type|body|0x00 0x00, little endian, and
// writes it in one call.
func WritePacket(w io.Writer, p Packet) error {
	var buf bytes.Buffer
	buf.Grow(4 + packetOverhead + len(p.Body))
	size := int32(packetOverhead + len(p.Body))
	for _, v := range []int32{size, p.ID, p.Type} {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	buf.WriteString(p.Body)
	buf.Write([]byte{0x00, 0x00})
	_, err := w.Write(buf.Bytes())
	return err
}

// ReadPacket decodes one frame written by WritePacket.
func ReadPacket(r io.Reader) (Packet, error) {
	var size int32
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return Packet{}, err
	}
	if size < packetOverhead || size > maxPacketSize {
		return Packet{}, fmt.Errorf("%w: %d", ErrPacketSize, size)
	}

	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Packet{}, err
	}

	body := bytes.TrimRight(buf[8:len(buf)-2], "\x00")
	return Packet{
		ID:   int32(binary.LittleEndian.Uint32(buf[0:4])),
		Type: int32(binary.LittleEndian.Uint32(buf[4:8])),
		Body: string(body),
	}, nil
}
