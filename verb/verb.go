// Package verb implements a real-time feedback-delay-network reverberator.
//
// Signal flow per sample: Diffuser (six stages of staggered delays, Hadamard
// mixing and polarity flips) feeds a FeedbackNetwork (eight cross-coupled
// delay lines with a Householder matrix, per-line damping and decay gain).
// Reverb blends the network output with the dry input.
//
// Process methods never allocate, lock, or loop over anything but the fixed
// channel count. Configure is the only operation that sizes delay lines or
// draws random numbers and must not run concurrently with Process.
package verb

const (
	// Channels is the width of the internal channel vector. Must be a power of two.
	Channels = 8

	// DiffusionSteps is the number of chained diffusion stages.
	DiffusionSteps = 6
)

// Channels must be a power of two for the Hadamard butterfly; this fails to
// compile otherwise.
var _ = [1]struct{}{}[Channels&(Channels-1)]

// Frame is one sample tick across all internal channels.
type Frame [Channels]float32
