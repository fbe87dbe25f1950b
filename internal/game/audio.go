package game

import (
	"sync"

	"github.com/hajimehoshi/oto/v2"

	"github.com/lallassu/citydrive/internal/enginesound"
)

// EngineAudio plays the engine synth through oto. The player starts once
// the device is ready; until then the car is silent.
type EngineAudio struct {
	ctx   *oto.Context
	synth *enginesound.Synth

	mu     sync.Mutex
	player oto.Player
	closed bool
}

func NewEngineAudio(synth *enginesound.Synth, volume float64) (*EngineAudio, error) {
	ctx, ready, err := oto.NewContext(enginesound.SampleRate, enginesound.ChannelCount, oto.FormatFloat32LE)
	if err != nil {
		return nil, err
	}
	a := &EngineAudio{ctx: ctx, synth: synth}
	go func() {
		<-ready
		a.mu.Lock()
		defer a.mu.Unlock()
		if a.closed {
			return
		}
		a.player = ctx.NewPlayer(synth)
		a.player.SetVolume(volume)
		a.player.Play()
	}()
	return a, nil
}

func (a *EngineAudio) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	if a.player == nil {
		return nil
	}
	return a.player.Close()
}
