package socket

import (
	"encoding/binary"
	"fmt"
	"io"
)

// maxFrameSize bounds a single request or response payload.
const maxFrameSize = 64 << 20

// readFrame reads one length-prefixed payload. A zero-length frame is legal
// and returns an empty slice.
func readFrame(r io.Reader, limit uint32) ([]byte, error) {
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return nil, err
	}
	if length > limit {
		return nil, fmt.Errorf("frame of %d bytes exceeds limit of %d", length, limit)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// writeFrame writes payload with a 4-byte big-endian length prefix.
func writeFrame(w io.Writer, payload []byte, limit uint32) error {
	if uint64(len(payload)) > uint64(limit) {
		return fmt.Errorf("frame of %d bytes exceeds limit of %d", len(payload), limit)
	}
	if err := binary.Write(w, binary.BigEndian, uint32(len(payload))); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}
