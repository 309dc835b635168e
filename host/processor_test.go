package host

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-verb/verb"
)

func impulseBlock(channels, n int) [][]float32 {
	planar := make([][]float32, channels)
	for c := range planar {
		planar[c] = make([]float32, n)
		planar[c][0] = 1
	}
	return planar
}

func TestNewProcessor_RejectsBadInput(t *testing.T) {
	_, err := NewProcessor(48000, 0, nil)
	require.Error(t, err)

	_, err = NewProcessor(48000, MaxChannels+1, nil)
	require.Error(t, err)

	_, err = NewProcessor(10, 2, nil)
	require.Error(t, err)

	bad := verb.NewDefaultParams()
	bad.RoomSize = 1
	_, err = NewProcessor(48000, 2, bad)
	require.Error(t, err)
}

func TestProcess_DryOnlyIsIdentity(t *testing.T) {
	params := verb.NewDefaultParams()
	params.Dry = 1
	params.Wet = 0
	p, err := NewProcessor(44100, 2, params)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(3))
	planar := [][]float32{make([]float32, 512), make([]float32, 512)}
	want := [][]float32{make([]float32, 512), make([]float32, 512)}
	for c := range planar {
		for i := range planar[c] {
			x := float32(rng.Float64()*2 - 1)
			planar[c][i] = x
			want[c][i] = x
		}
	}

	require.NoError(t, p.Process(planar))
	for c := range planar {
		for i := range planar[c] {
			assert.InDelta(t, want[c][i], planar[c][i], 1e-6, "channel %d sample %d", c, i)
		}
	}
}

func TestProcess_ChannelsUseDistinctSeeds(t *testing.T) {
	p, err := NewProcessor(48000, 2, nil)
	require.NoError(t, err)

	planar := impulseBlock(2, 8192)
	require.NoError(t, p.Process(planar))

	differ := false
	for i := range planar[0] {
		if planar[0][i] != planar[1][i] {
			differ = true
			break
		}
	}
	assert.True(t, differ, "left and right tails should decorrelate")
}

func TestProcess_RejectsMismatchedBuffers(t *testing.T) {
	p, err := NewProcessor(48000, 2, nil)
	require.NoError(t, err)

	err = p.Process([][]float32{make([]float32, 16)})
	require.ErrorIs(t, err, ErrChannelCount)

	err = p.Process([][]float32{make([]float32, 16), make([]float32, 8)})
	require.ErrorIs(t, err, ErrBlockLength)

	err = p.ProcessInterleaved(make([]float32, 5))
	require.ErrorIs(t, err, ErrChannelCount)
}

func TestProcessInterleaved_MatchesPlanar(t *testing.T) {
	const n = 4096
	planarProc, err := NewProcessor(48000, 2, nil)
	require.NoError(t, err)
	interProc, err := NewProcessor(48000, 2, nil)
	require.NoError(t, err)

	planar := impulseBlock(2, n)
	planar[1][0] = 0.5
	inter := make([]float32, 2*n)
	inter[0] = 1
	inter[1] = 0.5

	require.NoError(t, planarProc.Process(planar))
	require.NoError(t, interProc.ProcessInterleaved(inter))
	for i := 0; i < n; i++ {
		require.Equal(t, planar[0][i], inter[2*i], "left sample %d", i)
		require.Equal(t, planar[1][i], inter[2*i+1], "right sample %d", i)
	}
}

func TestProcess_BlockSizeDoesNotChangeOutput(t *testing.T) {
	const n = 6000
	whole, err := NewProcessor(44100, 1, nil)
	require.NoError(t, err)
	split, err := NewProcessor(44100, 1, nil)
	require.NoError(t, err)

	a := impulseBlock(1, n)
	require.NoError(t, whole.Process(a))

	b := impulseBlock(1, n)
	for start := 0; start < n; start += 256 {
		end := min(start+256, n)
		require.NoError(t, split.Process([][]float32{b[0][start:end]}))
	}
	for i := range a[0] {
		require.InDelta(t, a[0][i], b[0][i], 1e-6, "sample %d", i)
	}
}

func TestSetParams_AppliesAtNextBlock(t *testing.T) {
	p, err := NewProcessor(48000, 1, nil)
	require.NoError(t, err)

	next := verb.NewDefaultParams()
	next.Seed = 42
	next.Dry = 1
	next.Wet = 0
	require.NoError(t, p.SetParams(next))
	assert.Equal(t, int64(1), p.Params().Seed, "seed is fixed at construction")
	assert.Equal(t, float32(1), p.Params().Dry)

	block := [][]float32{{0.25, -0.5, 0.75}}
	require.NoError(t, p.Process(block))
	assert.InDeltaSlice(t, []float32{0.25, -0.5, 0.75}, block[0], 1e-6)

	bad := verb.NewDefaultParams()
	bad.Decay = -1
	require.Error(t, p.SetParams(bad))
	require.Error(t, p.SetParams(nil))
	assert.Equal(t, float32(1), p.Params().Dry)
}

func TestReset_RestartsTail(t *testing.T) {
	p, err := NewProcessor(48000, 1, nil)
	require.NoError(t, err)

	first := impulseBlock(1, 4096)
	require.NoError(t, p.Process(first))
	p.Reset()
	second := impulseBlock(1, 4096)
	require.NoError(t, p.Process(second))
	assert.Equal(t, first[0], second[0])
}

func TestTailSeconds_Finite(t *testing.T) {
	p, err := NewProcessor(48000, 2, nil)
	require.NoError(t, err)
	tail := p.TailSeconds()
	assert.Greater(t, tail, 0.0)
	assert.False(t, math.IsInf(tail, 0))
	assert.Equal(t, 2, p.Channels())
	assert.Equal(t, 48000.0, p.SampleRate())
}

func TestNewProcessor_TinyModulationRate(t *testing.T) {
	params := verb.NewDefaultParams()
	params.ModulationEnabled = true
	params.ModFreq = 1e-15
	require.NoError(t, params.Validate())

	proc, err := NewProcessor(48000, 2, params)
	require.NoError(t, err)

	block := impulseBlock(2, 512)
	require.NoError(t, proc.Process(block))
	for _, ch := range block {
		for _, v := range ch {
			assert.False(t, math.IsNaN(float64(v)) || math.IsInf(float64(v), 0))
		}
	}
}
