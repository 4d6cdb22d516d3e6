// Package input tracks held keys and turns them into orbit camera steps.
package input

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
)

// KeyState is the set of keys currently held. The zero value is ready to use and
// safe for concurrent use.
type KeyState struct {
	mu   sync.Mutex
	held map[uint32]bool
}

// Press marks key as held.
func (k *KeyState) Press(key uint32) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.held == nil {
		k.held = make(map[uint32]bool)
	}
	k.held[key] = true
}

// Release marks key as released.
func (k *KeyState) Release(key uint32) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.held, key)
}

// Held reports whether key is held.
func (k *KeyState) Held(key uint32) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.held[key]
}

// Orbit is one frame's camera movement in controller steps.
type Orbit struct {
	Azimuth   float32
	Elevation float32
	Zoom      float32
}

// Zero reports whether the orbit moves nothing.
func (o Orbit) Zero() bool {
	return o == Orbit{}
}

// CameraOrbit maps held keys to orbit steps. Left/Right and A/D turn the camera
// around its target, Up/Down and W/S raise and lower it, and Q/E or PageUp/PageDown
// zoom in and out. Opposite keys cancel.
//
// Parameters:
//   - k: the held keys
//
// Returns:
//   - Orbit: the steps to apply this frame
func CameraOrbit(k *KeyState) Orbit {
	axis := func(pos, neg []uint32) float32 {
		var v float32
		for _, key := range pos {
			if k.Held(key) {
				v++
				break
			}
		}
		for _, key := range neg {
			if k.Held(key) {
				v--
				break
			}
		}
		return v
	}
	return Orbit{
		Azimuth:   axis([]uint32{common.KeyRight, common.KeyD}, []uint32{common.KeyLeft, common.KeyA}),
		Elevation: axis([]uint32{common.KeyUp, common.KeyW}, []uint32{common.KeyDown, common.KeyS}),
		Zoom:      axis([]uint32{common.KeyE, common.KeyPageUp}, []uint32{common.KeyQ, common.KeyPageDown}),
	}
}
