package medcodec

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

const (
	magic      = "MDLS"
	headerSize = 4 + 4 + 4 + 1 + 1 // magic, width, height, bits, near
)

// Codec implements tcodec.CodecAdapter. The zero value is ready to use;
// all mutable state (the pooled zstd sessions) lives in package-level
// pools, matching svanichkin-babe's zstdEncPool/zstdDecPool convention, so
// a Codec value itself carries no per-call state.
type Codec struct{}

// New returns a ready-to-use Codec.
func New() *Codec { return &Codec{} }

func mustNewZstdEncoder() *zstd.Encoder {
	enc, err := zstd.NewWriter(
		nil,
		zstd.WithEncoderConcurrency(1),
		zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
		zstd.WithLowerEncoderMem(true),
	)
	if err != nil {
		panic(err)
	}
	return enc
}

func mustNewZstdDecoder() *zstd.Decoder {
	dec, err := zstd.NewReader(
		nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(true),
	)
	if err != nil {
		panic(err)
	}
	return dec
}

var zstdEncPool = sync.Pool{New: func() any { return mustNewZstdEncoder() }}
var zstdDecPool = sync.Pool{New: func() any { return mustNewZstdDecoder() }}

func compressZstd(data []byte) []byte {
	enc := zstdEncPool.Get().(*zstd.Encoder)
	out := enc.EncodeAll(data, nil)
	zstdEncPool.Put(enc)
	return out
}

func decompressZstd(data []byte) ([]byte, error) {
	dec := zstdDecPool.Get().(*zstd.Decoder)
	out, err := dec.DecodeAll(data, nil)
	zstdDecPool.Put(dec)
	return out, err
}

// Encode implements tcodec.CodecAdapter.
func (Codec) Encode(samples []uint16, w, h uint32, bitsPerSample uint32, near uint32) ([]byte, error) {
	if bitsPerSample != 12 && bitsPerSample != 16 {
		return nil, fmt.Errorf("medcodec: unsupported bits_per_sample %d, want 12 or 16", bitsPerSample)
	}
	if near > 255 {
		return nil, fmt.Errorf("medcodec: near=%d exceeds maximum of 255", near)
	}
	if uint64(w)*uint64(h) != uint64(len(samples)) {
		return nil, fmt.Errorf("medcodec: %d samples does not match %dx%d", len(samples), w, h)
	}

	maxVal := int32(1)<<bitsPerSample - 1
	nearI := int32(near)

	recon := make([]int32, len(samples))
	mapped := make([]byte, len(samples)*4)

	width := int(w)
	for row := 0; row < int(h); row++ {
		for col := 0; col < width; col++ {
			idx := row*width + col
			a, b, c := causalNeighbors(recon, width, row, col, maxVal)
			pred := predictMED(a, b, c)

			errval := int32(samples[idx]) - pred
			q := quantizeNearLossless(errval, nearI)
			binary.LittleEndian.PutUint32(mapped[idx*4:], mapErrorValue(q))

			dequant := dequantizeNearLossless(q, nearI)
			rec := pred + dequant
			if rec < 0 {
				rec = 0
			} else if rec > maxVal {
				rec = maxVal
			}
			recon[idx] = rec
		}
	}

	body := compressZstd(mapped)

	out := make([]byte, headerSize+len(body))
	copy(out[0:4], magic)
	binary.LittleEndian.PutUint32(out[4:8], w)
	binary.LittleEndian.PutUint32(out[8:12], h)
	out[12] = byte(bitsPerSample)
	out[13] = byte(near)
	copy(out[headerSize:], body)

	return out, nil
}

// Decode implements tcodec.CodecAdapter.
func (Codec) Decode(data []byte, w, h uint32) ([]uint16, uint32, error) {
	if len(data) < headerSize {
		return nil, 0, fmt.Errorf("medcodec: payload too short: %d bytes", len(data))
	}
	if string(data[0:4]) != magic {
		return nil, 0, fmt.Errorf("medcodec: bad magic %q", data[0:4])
	}

	gotW := binary.LittleEndian.Uint32(data[4:8])
	gotH := binary.LittleEndian.Uint32(data[8:12])
	if gotW != w || gotH != h {
		return nil, 0, fmt.Errorf("medcodec: payload dimensions %dx%d do not match requested %dx%d", gotW, gotH, w, h)
	}
	bitsPerSample := uint32(data[12])
	near := int32(data[13])
	if bitsPerSample != 12 && bitsPerSample != 16 {
		return nil, 0, fmt.Errorf("medcodec: unsupported bits_per_sample %d in payload", bitsPerSample)
	}

	mapped, err := decompressZstd(data[headerSize:])
	if err != nil {
		return nil, 0, fmt.Errorf("medcodec: zstd decode: %w", err)
	}

	n := int(w) * int(h)
	if len(mapped) != n*4 {
		return nil, 0, fmt.Errorf("medcodec: decompressed length %d does not match %d samples", len(mapped), n)
	}

	maxVal := int32(1)<<bitsPerSample - 1
	recon := make([]int32, n)
	out := make([]uint16, n)

	width := int(w)
	for row := 0; row < int(h); row++ {
		for col := 0; col < width; col++ {
			idx := row*width + col
			a, b, c := causalNeighbors(recon, width, row, col, maxVal)
			pred := predictMED(a, b, c)

			q := unmapErrorValue(binary.LittleEndian.Uint32(mapped[idx*4:]))
			dequant := dequantizeNearLossless(q, near)
			rec := pred + dequant
			if rec < 0 {
				rec = 0
			} else if rec > maxVal {
				rec = maxVal
			}
			recon[idx] = rec
			out[idx] = uint16(rec)
		}
	}

	return out, bitsPerSample, nil
}
