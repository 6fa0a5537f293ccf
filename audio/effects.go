package audio

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
)

// Tone returns a sine at freq cut to d samples; an invalid frequency yields silence of the same length
func Tone(freq float64, d time.Duration, rate beep.SampleRate) beep.Streamer {
	sine, err := generators.SineTone(rate, freq)
	if err != nil {
		return beep.Silence(rate.N(d))
	}
	return beep.Take(rate.N(d), sine)
}

// Noise returns uniform white noise cut to d
func Noise(d time.Duration, rate beep.SampleRate) beep.Streamer {
	left := rate.N(d)
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if left <= 0 {
			return 0, false
		}
		n := min(len(samples), left)
		for i := range samples[:n] {
			v := rand.Float64()*2 - 1
			samples[i] = [2]float64{v, v}
		}
		left -= n
		return n, true
	})
}

// Shape applies a linear attack ramp from zero and a release ramp to zero ending at d
// Output stops at d even if s runs longer
func Shape(s beep.Streamer, d, attack, release time.Duration, rate beep.SampleRate) beep.Streamer {
	total, att, rel := rate.N(d), rate.N(attack), rate.N(release)
	pos := 0
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if pos >= total {
			return 0, false
		}
		n, ok := s.Stream(samples[:min(len(samples), total-pos)])
		for i := range samples[:n] {
			gain := 1.0
			if att > 0 && pos < att {
				gain = float64(pos) / float64(att)
			}
			if rel > 0 && pos >= total-rel {
				gain = float64(total-pos) / float64(rel)
			}
			samples[i][0] *= gain
			samples[i][1] *= gain
			pos++
		}
		return n, ok && n > 0
	})
}

// gain scales s linearly through effects.Volume, which works in log space
func gain(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}

// thud is a low knock with a short noise transient
func thud(cfg *AudioConfig) beep.Streamer {
	rate := beep.SampleRate(cfg.SampleRate)
	body := Shape(Tone(140, ThudDuration, rate), ThudDuration, ThudAttack, ThudRelease, rate)
	click := Shape(Noise(ThudAttack*4, rate), ThudAttack*4, 0, ThudAttack*3, rate)
	return gain(beep.Mix(gain(body, 0.8), gain(click, 0.2)), cfg.EffectVolumes[SoundThud]*cfg.MasterVolume)
}

// knell is a falling two-note chime for an entity at zero health
func knell(cfg *AudioConfig) beep.Streamer {
	rate := beep.SampleRate(cfg.SampleRate)
	half := KnellDuration / 2
	note := func(freq float64, release time.Duration) beep.Streamer {
		// Octave partial gives the chime its edge
		chord := beep.Mix(gain(Tone(freq, half, rate), 0.7), gain(Tone(freq*2, half, rate), 0.3))
		return Shape(chord, half, KnellAttack, release, rate)
	}
	return gain(beep.Seq(note(220, half/2), note(110, half-KnellAttack)), cfg.EffectVolumes[SoundKnell]*cfg.MasterVolume)
}

// Cue returns a fresh streamer for t, nil if t is unknown
func Cue(t SoundType, cfg *AudioConfig) beep.Streamer {
	switch t {
	case SoundThud:
		return thud(cfg)
	case SoundKnell:
		return knell(cfg)
	default:
		return nil
	}
}
