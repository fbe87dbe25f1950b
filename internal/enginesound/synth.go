// Package enginesound synthesises a looping engine hum that follows the
// car's speed.
package enginesound

import (
	"encoding/binary"
	"math"
	"sync/atomic"
)

const (
	SampleRate    = 44100
	ChannelCount  = 2
	bytesPerFrame = 4 * ChannelCount // float32 LE per channel
)

const (
	idleFreq = 38.0  // Hz at rest
	topFreq  = 140.0 // Hz at full speed
	idleGain = 0.12
	topGain  = 0.35
)

// Synth is an endless io.Reader of stereo float32 PCM.
type Synth struct {
	throttle atomic.Uint64 // float64 bits, 0..1

	phase    float64
	modPhase float64
	freq     float64 // smoothed
	gain     float64 // smoothed
	noise    uint64
}

func New() *Synth {
	return &Synth{freq: idleFreq, gain: idleGain, noise: 0x9E3779B97F4A7C15}
}

// SetSpeed sets the engine load from the car's speed. Safe to call while
// the audio goroutine reads.
func (s *Synth) SetSpeed(speed, maxSpeed float64) {
	t := 0.0
	if maxSpeed > 0 {
		t = math.Abs(speed) / maxSpeed
	}
	if t > 1 {
		t = 1
	}
	s.throttle.Store(math.Float64bits(t))
}

func (s *Synth) Throttle() float64 {
	return math.Float64frombits(s.throttle.Load())
}

// TargetFrequency is the steady-state fundamental for throttle t.
func TargetFrequency(t float64) float64 {
	return idleFreq + (topFreq-idleFreq)*t
}

func (s *Synth) Read(p []byte) (int, error) {
	frames := len(p) / bytesPerFrame
	t := s.Throttle()
	wantFreq := TargetFrequency(t)
	wantGain := idleGain + (topGain-idleGain)*t

	// one-pole smoothing so pitch glides instead of stepping per buffer
	const glide = 0.0015
	for i := 0; i < frames; i++ {
		s.freq += (wantFreq - s.freq) * glide
		s.gain += (wantGain - s.gain) * glide

		s.phase += s.freq / SampleRate
		if s.phase >= 1 {
			s.phase -= 1
		}
		s.modPhase += s.freq * 0.5 / SampleRate
		if s.modPhase >= 1 {
			s.modPhase -= 1
		}

		mod := math.Sin(2 * math.Pi * s.modPhase)
		v := math.Sin(2*math.Pi*s.phase + 1.8*mod)
		v += 0.35 * math.Sin(4*math.Pi*s.phase)
		v += 0.05 * s.rand()
		v = softSat(v * s.gain)

		putStereoF32(p, i, v)
	}
	return frames * bytesPerFrame, nil
}

func (s *Synth) rand() float64 {
	s.noise ^= s.noise << 13
	s.noise ^= s.noise >> 7
	s.noise ^= s.noise << 17
	return float64(s.noise>>11)/(1<<52) - 1
}

func softSat(x float64) float64 {
	return math.Tanh(x)
}

func putStereoF32(buf []byte, i int, sample float64) {
	bits := math.Float32bits(float32(sample))
	o := i * bytesPerFrame
	binary.LittleEndian.PutUint32(buf[o:], bits)
	binary.LittleEndian.PutUint32(buf[o+4:], bits)
}
