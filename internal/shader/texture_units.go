package shader

import (
	"errors"
	"fmt"
)

// ErrUnitExhausted means every texture unit the context offers is leased.
// Too many simultaneous samplers is a configuration error, so allocation
// fails hard instead of wrapping around.
var ErrUnitExhausted = errors.New("texture units exhausted")

// TextureUnits leases texture binding-unit indices in [0, max). One
// allocator is shared by every program on a context; sampler setters lease a
// unit per call and the renderer resets the allocator between draws.
type TextureUnits struct {
	max          int
	next         int32
	leased       []bool
	placeholders map[TextureTarget]uint32
	blockScratch []int32
}

// NewTextureUnits sizes the allocator to the context's unit limit.
func NewTextureUnits(ctx Context) *TextureUnits {
	max := ctx.MaxTextureUnits()
	return &TextureUnits{
		max:          max,
		leased:       make([]bool, max),
		placeholders: make(map[TextureTarget]uint32),
	}
}

// SetPlaceholder registers the resource bound whenever a sampler of the
// given kind has no supplied value, so a program never samples an unbound
// slot.
func (t *TextureUnits) SetPlaceholder(target TextureTarget, texture uint32) {
	t.placeholders[target] = texture
}

// Placeholder returns the registered fallback for a target, zero if none.
func (t *TextureUnits) Placeholder(target TextureTarget) uint32 {
	return t.placeholders[target]
}

// Allocate leases the next free unit.
func (t *TextureUnits) Allocate() (int32, error) {
	if int(t.next) >= t.max {
		return 0, fmt.Errorf("%w: limit %d", ErrUnitExhausted, t.max)
	}
	unit := t.next
	t.leased[unit] = true
	t.next++
	return unit, nil
}

// AllocateBlock leases n consecutive units in one batch, for sampler arrays.
// The returned slice is reused by the next AllocateBlock call.
func (t *TextureUnits) AllocateBlock(n int) ([]int32, error) {
	if int(t.next)+n > t.max {
		return nil, fmt.Errorf("%w: limit %d, need %d more", ErrUnitExhausted, t.max, n)
	}
	if cap(t.blockScratch) < n {
		t.blockScratch = make([]int32, n)
	}
	block := t.blockScratch[:n]
	for i := 0; i < n; i++ {
		block[i] = t.next
		t.leased[t.next] = true
		t.next++
	}
	return block, nil
}

// Release returns one unit to the pool. Call only at disposal points between
// draws so a pending draw never sees its unit re-leased.
func (t *TextureUnits) Release(unit int32) {
	if unit < 0 || int(unit) >= t.max {
		return
	}
	t.leased[unit] = false
	if unit < t.next {
		// Keep next pointing past the highest lease; compaction happens on
		// the per-frame Reset.
		for t.next > 0 && !t.leased[t.next-1] {
			t.next--
		}
	}
}

// Reset returns every unit to the pool. Called once per frame before
// uniform uploads begin.
func (t *TextureUnits) Reset() {
	for i := range t.leased {
		t.leased[i] = false
	}
	t.next = 0
}

// Leased reports how many units are currently out.
func (t *TextureUnits) Leased() int {
	n := 0
	for _, l := range t.leased {
		if l {
			n++
		}
	}
	return n
}

// Max returns the context's unit limit.
func (t *TextureUnits) Max() int { return t.max }
