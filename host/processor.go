// Package host adapts ordinary audio buffers onto the fixed-width verb core.
//
// Each physical channel owns an independent verb.Reverb. Every input sample is
// fanned out to all internal channels and the internal outputs are averaged
// back down to one sample.
package host

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-verb/verb"
)

// MaxChannels bounds the physical channel count accepted by NewProcessor.
const MaxChannels = 64

var (
	// ErrChannelCount reports a buffer whose channel count does not match the processor.
	ErrChannelCount = errors.New("host: channel count mismatch")
	// ErrBlockLength reports planar channels of unequal length.
	ErrBlockLength = errors.New("host: planar channels differ in length")
)

// Processor runs one reverb per physical channel. It is not safe for
// concurrent use.
type Processor struct {
	sampleRate float64
	params     verb.Params
	reverbs    []*verb.Reverb
}

// NewProcessor validates params and configures channels reverbs for sampleRate.
// A nil params uses verb.NewDefaultParams. Channel c is seeded with params.Seed+c.
func NewProcessor(sampleRate float64, channels int, params *verb.Params) (*Processor, error) {
	if channels < 1 || channels > MaxChannels {
		return nil, fmt.Errorf("host: channels must be in [1,%d]: %d", MaxChannels, channels)
	}
	if params == nil {
		params = verb.NewDefaultParams()
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("host: %w", err)
	}

	p := &Processor{
		sampleRate: sampleRate,
		params:     *params,
		reverbs:    make([]*verb.Reverb, channels),
	}
	for c := range p.reverbs {
		cp := p.params
		cp.Seed = p.params.Seed + int64(c)
		r := verb.NewReverb(&cp)
		if err := r.Configure(sampleRate); err != nil {
			return nil, fmt.Errorf("host: channel %d: %w", c, err)
		}
		p.reverbs[c] = r
	}
	return p, nil
}

// SetParams validates and stores new parameters. They take effect at the
// start of the next block. The seed is fixed at construction.
func (p *Processor) SetParams(params *verb.Params) error {
	if err := params.Validate(); err != nil {
		return fmt.Errorf("host: %w", err)
	}
	seed := p.params.Seed
	p.params = *params
	p.params.Seed = seed
	return nil
}

// Params returns a copy of the current parameters.
func (p *Processor) Params() verb.Params { return p.params }

// Process runs planar buffers in place. planar must hold one slice per
// channel, all of the same length.
func (p *Processor) Process(planar [][]float32) error {
	if len(planar) != len(p.reverbs) {
		return fmt.Errorf("%w: got %d, want %d", ErrChannelCount, len(planar), len(p.reverbs))
	}
	n := len(planar[0])
	for _, ch := range planar[1:] {
		if len(ch) != n {
			return ErrBlockLength
		}
	}

	p.beginBlock()
	for c, r := range p.reverbs {
		buf := planar[c]
		for i, x := range buf {
			buf[i] = processSample(r, x)
		}
	}
	p.endBlock()
	return nil
}

// ProcessInterleaved runs an interleaved buffer in place. len(buf) must be a
// multiple of the channel count.
func (p *Processor) ProcessInterleaved(buf []float32) error {
	channels := len(p.reverbs)
	if len(buf)%channels != 0 {
		return fmt.Errorf("%w: %d samples is not a multiple of %d channels", ErrChannelCount, len(buf), channels)
	}

	p.beginBlock()
	for i := 0; i < len(buf); i += channels {
		for c, r := range p.reverbs {
			buf[i+c] = processSample(r, buf[i+c])
		}
	}
	p.endBlock()
	return nil
}

func processSample(r *verb.Reverb, x float32) float32 {
	var in verb.Frame
	for k := range in {
		in[k] = x
	}
	out := r.Process(in)

	var sum float32
	for _, y := range out {
		sum += y
	}
	return sum / verb.Channels
}

func (p *Processor) beginBlock() {
	for _, r := range p.reverbs {
		r.ApplyParams(&p.params)
	}
}

func (p *Processor) endBlock() {
	for _, r := range p.reverbs {
		r.FlushDenormals()
	}
}

// Reset clears the signal state of every channel.
func (p *Processor) Reset() {
	for _, r := range p.reverbs {
		r.Reset()
	}
}

// TailSeconds reports the longest tail over all channels.
func (p *Processor) TailSeconds() float64 {
	var tail float64
	for _, r := range p.reverbs {
		r.ApplyParams(&p.params)
		tail = max(tail, r.TailSeconds())
	}
	return tail
}

// Channels returns the physical channel count.
func (p *Processor) Channels() int { return len(p.reverbs) }

// SampleRate returns the configured sample rate.
func (p *Processor) SampleRate() float64 { return p.sampleRate }
