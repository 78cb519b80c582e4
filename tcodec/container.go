package tcodec

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/google/uuid"
)

// headerSize is the fixed-width portion of a serialized CompressedFrame,
// per the byte layout in §6 (everything up to and including payload_size).
const headerSize = 4 + 4 + 8 + 4 + 1 + 4 + 8 + 4 + 4 + 1 + 2 + 2 + 4

// Serialize writes cf's wire form (little-endian, per §6) to buf, reusing
// buf's backing array when it is already large enough.
func Serialize(cf *CompressedFrame, buf *bytes.Buffer) []byte {
	if buf == nil {
		buf = new(bytes.Buffer)
	} else {
		buf.Reset()
	}
	buf.Grow(headerSize + len(cf.Payload))

	var scratch [8]byte

	putU32 := func(v uint32) {
		binary.LittleEndian.PutUint32(scratch[:4], v)
		buf.Write(scratch[:4])
	}
	putU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(scratch[:8], v)
		buf.Write(scratch[:8])
	}
	putU16 := func(v uint16) {
		binary.LittleEndian.PutUint16(scratch[:2], v)
		buf.Write(scratch[:2])
	}
	putBool := func(v bool) {
		if v {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	}

	putU32(cf.Width)
	putU32(cf.Height)
	putU64(cf.Time)
	putU32(cf.Index)
	putBool(cf.IsKeyframe)
	putU32(cf.NearLossless)
	putU64(math.Float64bits(cf.QuantQ))
	putU32(cf.DeadZoneT)
	putU32(cf.FPBits)
	putBool(cf.UseRangeMap)
	putU16(cf.RangeMin)
	putU16(cf.RangeMax)
	putU32(uint32(len(cf.Payload)))
	buf.Write(cf.Payload)

	return buf.Bytes()
}

// Parse validates and decodes a CompressedFrame's wire form. It rejects
// records whose remaining bytes do not equal the embedded payload length,
// or whose fp_bits exceeds 16.
func Parse(data []byte) (*CompressedFrame, error) {
	if len(data) < headerSize {
		return nil, newErr(uuid.Nil, KindMalformedRecord, "record too short: got %d bytes, need at least %d", len(data), headerSize)
	}

	r := bytes.NewReader(data)
	var scratch [8]byte

	readU32 := func() uint32 {
		r.Read(scratch[:4])
		return binary.LittleEndian.Uint32(scratch[:4])
	}
	readU64 := func() uint64 {
		r.Read(scratch[:8])
		return binary.LittleEndian.Uint64(scratch[:8])
	}
	readU16 := func() uint16 {
		r.Read(scratch[:2])
		return binary.LittleEndian.Uint16(scratch[:2])
	}
	readBool := func() (bool, error) {
		b, err := r.ReadByte()
		if err != nil {
			return false, err
		}
		if b != 0 && b != 1 {
			return false, newErr(uuid.Nil, KindMalformedRecord, "boolean field has invalid value %d", b)
		}
		return b == 1, nil
	}

	cf := &CompressedFrame{}
	cf.Width = readU32()
	cf.Height = readU32()
	cf.Time = readU64()
	cf.Index = readU32()

	isKey, err := readBool()
	if err != nil {
		return nil, err
	}
	cf.IsKeyframe = isKey

	cf.NearLossless = readU32()
	cf.QuantQ = math.Float64frombits(readU64())
	cf.DeadZoneT = readU32()
	cf.FPBits = readU32()

	useRM, err := readBool()
	if err != nil {
		return nil, err
	}
	cf.UseRangeMap = useRM

	cf.RangeMin = readU16()
	cf.RangeMax = readU16()
	payloadSize := readU32()

	if cf.FPBits > 16 {
		return nil, newErr(uuid.Nil, KindMalformedRecord, "fp_bits=%d exceeds maximum of 16", cf.FPBits)
	}
	if cf.Width == 0 || cf.Height == 0 {
		return nil, newErr(uuid.Nil, KindMalformedRecord, "invalid dimensions %dx%d", cf.Width, cf.Height)
	}
	if cf.RangeMin > cf.RangeMax {
		return nil, newErr(uuid.Nil, KindMalformedRecord, "range_min %d exceeds range_max %d", cf.RangeMin, cf.RangeMax)
	}

	remaining := data[headerSize:]
	if uint32(len(remaining)) != payloadSize {
		return nil, newErr(uuid.Nil, KindMalformedRecord, "payload_size=%d does not match remaining %d bytes", payloadSize, len(remaining))
	}
	if payloadSize == 0 {
		return nil, newErr(uuid.Nil, KindMalformedRecord, "payload must be non-empty")
	}

	cf.Payload = make([]byte, len(remaining))
	copy(cf.Payload, remaining)

	return cf, nil
}
