package audio

import (
	"bytes"
	"testing"

	"github.com/go-audio/wav"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTone_Samples(t *testing.T) {
	samples := ActivationChime.Samples(SampleRate)

	require.Len(t, samples, 13230)
	assert.Equal(t, 0, samples[0])

	peak := func(from, to int) int {
		m := 0
		for _, s := range samples[from:to] {
			if s < 0 {
				s = -s
			}
			if s > m {
				m = s
			}
		}
		return m
	}

	head := peak(0, 1000)
	tail := peak(len(samples)-1000, len(samples))
	limit := 0.3 * float64(maxSample16)
	assert.LessOrEqual(t, head, int(limit)+1)
	assert.Greater(t, head, tail)
}

func TestSoundBank_Render(t *testing.T) {
	fs := afero.NewMemMapFs()

	bank, err := NewSoundBank(&Config{FileSys: fs})
	require.NoError(t, err)
	assert.False(t, bank.Has(ActivationKey))

	require.NoError(t, bank.Render(ActivationKey, ActivationChime))
	assert.True(t, bank.Has(ActivationKey))

	data, err := bank.Read(ActivationKey)
	require.NoError(t, err)

	dec := wav.NewDecoder(bytes.NewReader(data))
	require.True(t, dec.IsValidFile())

	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)
	assert.Equal(t, uint32(SampleRate), dec.SampleRate)
	assert.Equal(t, uint16(16), dec.BitDepth)
	assert.Equal(t, uint16(1), dec.NumChans)
	assert.Len(t, buf.Data, 13230)
}

func TestNewSoundBank(t *testing.T) {
	_, err := NewSoundBank(nil)
	assert.Error(t, err)

	_, err = NewSoundBank(&Config{})
	assert.Error(t, err)
}
