package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"unicode"

	"github.com/coreward/fullnode/cryptoutil"
)

const (
	// FramePrefixBytes is the fixed header length for every P2P message:
	// magic(4) || command(12) || length(4) || checksum(4).
	FramePrefixBytes = 24
	CommandBytes     = 12

	// MaxPayloadBytes bounds the declared payload length before any
	// read is attempted against an attacker-controlled length field.
	MaxPayloadBytes = 32 * 1024 * 1024
)

// Message is a framed P2P message: a magic value identifying the
// network, a command name, and an opaque payload.
type Message struct {
	Magic   uint32
	Command string
	Payload []byte
}

// ReadError conveys how a peer connection should treat a malformed
// message: whether to apply a ban-score penalty and whether to drop
// the connection entirely.
type ReadError struct {
	Err           error
	BanScoreDelta int
	Disconnect    bool
}

func (e *ReadError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func encodeCommand(cmd string) ([CommandBytes]byte, error) {
	var out [CommandBytes]byte
	if cmd == "" || len(cmd) > CommandBytes {
		return out, fmt.Errorf("wire: command %q has invalid length", cmd)
	}
	for i := 0; i < len(cmd); i++ {
		c := cmd[i]
		if c >= 0x80 || c == 0x00 || !unicode.IsPrint(rune(c)) {
			return out, fmt.Errorf("wire: command contains non-printable byte")
		}
		out[i] = c
	}
	return out, nil
}

func decodeCommand(b [CommandBytes]byte) (string, error) {
	n := CommandBytes
	for i := 0; i < CommandBytes; i++ {
		if b[i] == 0x00 {
			n = i
			break
		}
	}
	for i := n; i < CommandBytes; i++ {
		if b[i] != 0x00 {
			return "", fmt.Errorf("wire: command not NUL-right-padded")
		}
	}
	if n == 0 {
		return "", fmt.Errorf("wire: empty command")
	}
	return string(b[:n]), nil
}

func checksum4(payload []byte) [4]byte {
	d := cryptoutil.Sha256d(payload)
	var out [4]byte
	copy(out[:], d[:4])
	return out
}

// WriteMessage writes one framed message to w.
func WriteMessage(w io.Writer, magic uint32, command string, payload []byte) error {
	cmd12, err := encodeCommand(command)
	if err != nil {
		return err
	}
	if uint64(len(payload)) > MaxPayloadBytes {
		return fmt.Errorf("wire: payload of %d bytes exceeds max", len(payload))
	}
	c4 := checksum4(payload)

	var hdr [FramePrefixBytes]byte
	binary.LittleEndian.PutUint32(hdr[0:4], magic)
	copy(hdr[4:16], cmd12[:])
	binary.LittleEndian.PutUint32(hdr[16:20], uint32(len(payload)))
	copy(hdr[20:24], c4[:])

	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	_, err = w.Write(payload)
	return err
}

// ReadMessage reads exactly one framed message from r.
//
// Disposition on malformed input:
//   - magic mismatch or oversize declared length: disconnect, no ban score
//   - checksum mismatch: +10 ban score, message dropped, connection kept
//   - truncated payload: +20 ban score, disconnect
func ReadMessage(r io.Reader, expectedMagic uint32, maxPayload uint32) (*Message, *ReadError) {
	var hdr [FramePrefixBytes]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, &ReadError{Err: err, Disconnect: true}
	}

	magic := binary.LittleEndian.Uint32(hdr[0:4])
	if magic != expectedMagic {
		return nil, &ReadError{Err: fmt.Errorf("wire: magic mismatch"), Disconnect: true}
	}

	var cmdBytes [CommandBytes]byte
	copy(cmdBytes[:], hdr[4:16])
	cmd, err := decodeCommand(cmdBytes)
	if err != nil {
		return nil, &ReadError{Err: err, BanScoreDelta: 10}
	}

	payloadLen := binary.LittleEndian.Uint32(hdr[16:20])
	if payloadLen > maxPayload {
		return nil, &ReadError{Err: fmt.Errorf("wire: payload length %d exceeds max %d", payloadLen, maxPayload), Disconnect: true}
	}

	expectedC4 := hdr[20:24]

	payload := make([]byte, int(payloadLen))
	if payloadLen > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, &ReadError{Err: err, BanScoreDelta: 20, Disconnect: true}
		}
	}

	computedC4 := checksum4(payload)
	if !bytes.Equal(expectedC4, computedC4[:]) {
		return nil, &ReadError{Err: fmt.Errorf("wire: checksum mismatch"), BanScoreDelta: 10}
	}

	return &Message{Magic: magic, Command: cmd, Payload: payload}, nil
}
