package audio

import (
	"fmt"
	"math"
	"path"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/afero"
)

const (
	SampleRate    = 44100
	bitDepth      = 16
	wavFormatPCM  = 1
	maxSample16   = math.MaxInt16
	ActivationKey = "activation"
)

// Tone is a sine with an exponential pitch sweep and an exponential fade.
type Tone struct {
	StartHz   float64
	EndHz     float64
	Sweep     time.Duration
	StartGain float64
	EndGain   float64
	Length    time.Duration
}

// ActivationChime is the short falling A5 to A4 blip played on wake word.
var ActivationChime = Tone{
	StartHz:   880,
	EndHz:     440,
	Sweep:     200 * time.Millisecond,
	StartGain: 0.3,
	EndGain:   0.01,
	Length:    300 * time.Millisecond,
}

// Samples renders the tone as signed 16-bit mono samples.
func (t Tone) Samples(sampleRate int) []int {
	n := int(int64(t.Length) * int64(sampleRate) / int64(time.Second))
	out := make([]int, n)

	sweep := t.Sweep.Seconds()
	length := t.Length.Seconds()
	phase := 0.0

	for i := 0; i < n; i++ {
		at := float64(i) / float64(sampleRate)

		freq := t.EndHz
		if sweep > 0 && at < sweep {
			freq = t.StartHz * math.Pow(t.EndHz/t.StartHz, at/sweep)
		}

		gain := t.StartGain * math.Pow(t.EndGain/t.StartGain, at/length)

		out[i] = int(math.Sin(phase) * gain * maxSample16)
		phase += 2 * math.Pi * freq / float64(sampleRate)
	}

	return out
}

type ISoundBank interface {
	Render(name string, tone Tone) error
	Read(name string) ([]byte, error)
	Has(name string) bool
}

type Config struct {
	FileSys afero.Fs
	Dir     string
}

type soundBank struct {
	fileSys afero.Fs
	dir     string
}

func NewSoundBank(cfg *Config) (ISoundBank, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.FileSys == nil {
		return nil, fmt.Errorf("fileSys is nil")
	}

	dir := cfg.Dir
	if dir == "" {
		dir = "/sounds"
	}

	if err := cfg.FileSys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create sound dir: %w", err)
	}

	return &soundBank{fileSys: cfg.FileSys, dir: dir}, nil
}

func (b *soundBank) filename(name string) string {
	return path.Join(b.dir, name+".wav")
}

// Render writes tone as a PCM WAV file under name, replacing any previous one.
func (b *soundBank) Render(name string, tone Tone) error {
	f, err := b.fileSys.Create(b.filename(name))
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, SampleRate, bitDepth, 1, wavFormatPCM)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: SampleRate},
		Data:           tone.Samples(SampleRate),
		SourceBitDepth: bitDepth,
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize %s: %w", name, err)
	}

	return nil
}

func (b *soundBank) Read(name string) ([]byte, error) {
	return afero.ReadFile(b.fileSys, b.filename(name))
}

func (b *soundBank) Has(name string) bool {
	ok, err := afero.Exists(b.fileSys, b.filename(name))
	return err == nil && ok
}
