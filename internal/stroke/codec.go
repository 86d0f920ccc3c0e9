package stroke

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/DoyleJ11/sketchroom/pkg/types"
)

// RecordSize is the packed size of one stamp:
// [color, radius, xHi, xLo, yHi, yLo, connected].
const RecordSize = 7

var ErrDecode = errors.New("stroke decode error")

// EncodeBinary packs stamps into consecutive 7-byte records.
func EncodeBinary(stamps []types.Stamp) []byte {
	buf := make([]byte, 0, len(stamps)*RecordSize)
	for _, s := range stamps {
		var connected byte
		if s.Connected {
			connected = 1
		}
		buf = append(buf,
			s.Color,
			s.Radius,
			byte(s.X>>8), byte(s.X),
			byte(s.Y>>8), byte(s.Y),
			connected,
		)
	}
	return buf
}

// Encode packs stamps and base64-encodes them for a JSON string field.
func Encode(stamps []types.Stamp) string {
	if len(stamps) == 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString(EncodeBinary(stamps))
}

// DecodeBinary is the inverse of EncodeBinary. A buffer that does not hold a
// whole number of records is rejected outright; no partial stamps are
// returned.
func DecodeBinary(buf []byte) ([]types.Stamp, error) {
	if len(buf)%RecordSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %d", ErrDecode, len(buf), RecordSize)
	}
	stamps := make([]types.Stamp, 0, len(buf)/RecordSize)
	for i := 0; i < len(buf); i += RecordSize {
		r := buf[i : i+RecordSize]
		stamps = append(stamps, types.Stamp{
			Color:     r[0],
			Radius:    r[1],
			X:         uint16(r[2])<<8 | uint16(r[3]),
			Y:         uint16(r[4])<<8 | uint16(r[5]),
			Connected: r[6] > 0,
		})
	}
	return stamps, nil
}

// Decode reverses Encode. The empty string is an empty canvas.
func Decode(b64 string) ([]types.Stamp, error) {
	if b64 == "" {
		return []types.Stamp{}, nil
	}
	buf, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return DecodeBinary(buf)
}
