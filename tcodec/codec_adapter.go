package tcodec

// CodecAdapter is the narrow capability the core depends on for the
// near-lossless still-image backend (§4.5). Implementations must be
// deterministic and stateless between calls, and must guarantee that with
// NEAR=n every reconstructed sample lies within ±n of the input.
//
// A tagged variant or vtable-like abstraction is unnecessary here — this
// interface is the whole contract, matching the shape of
// cocosip-go-dicom-codec's Codec interface narrowed to a fixed operation
// set.
type CodecAdapter interface {
	// Encode compresses samples (len(samples) == w*h) at the given bit
	// depth (12 or 16) with the given NEAR bound, returning a single
	// self-delimited byte stream.
	Encode(samples []uint16, w, h uint32, bitsPerSample uint32, near uint32) ([]byte, error)

	// Decode inverts Encode, returning the reconstructed grid and the bit
	// depth it was encoded at.
	Decode(data []byte, w, h uint32) (samples []uint16, bitsPerSample uint32, err error)
}
