package shader

import (
	"Glint/internal/logger"

	"go.uber.org/zap"
)

// ProgramCache deduplicates compiled programs across materials. The key is
// template identity plus the configuration's derived key, so only a real
// feature difference triggers a new compilation.
type ProgramCache struct {
	ctx      Context
	lib      *ChunkLibrary
	programs map[string]*CompiledProgram
	onError  func(*Diagnostics)
}

// NewProgramCache returns an empty cache over the given context and chunk
// library. onError may be nil for the default handler.
func NewProgramCache(ctx Context, lib *ChunkLibrary, onError func(*Diagnostics)) *ProgramCache {
	return &ProgramCache{
		ctx:      ctx,
		lib:      lib,
		programs: make(map[string]*CompiledProgram),
		onError:  onError,
	}
}

// Acquire returns a compiled program for the template and configuration,
// reusing a cached one when the key matches. The returned program's
// reference count is already incremented; pair every Acquire with a Release.
// Preprocessing failures (unresolved includes) block program creation.
func (c *ProgramCache) Acquire(tpl ShaderTemplate, cfg *FeatureConfiguration) (*CompiledProgram, error) {
	key := tpl.ID + "\x00" + cfg.DeriveKey()
	if p, ok := c.programs[key]; ok {
		p.Retain()
		return p, nil
	}

	vertex, fragment, err := Preprocess(c.lib, tpl, cfg)
	if err != nil {
		return nil, err
	}

	p := Compile(c.ctx, cfg.Name, vertex, fragment, c.onError)
	p.cacheKey = key
	p.Retain()
	c.programs[key] = p

	logger.Log.Debug("Compiled new shader program",
		zap.String("name", cfg.Name),
		zap.String("template", tpl.ID),
		zap.Int("cached", len(c.programs)))
	return p, nil
}

// Release drops one reference; the program is destroyed and evicted when the
// count reaches zero.
func (c *ProgramCache) Release(p *CompiledProgram) {
	if p == nil {
		return
	}
	p.usedTimes--
	if p.usedTimes > 0 {
		return
	}
	delete(c.programs, p.cacheKey)
	p.Destroy()
}

// Len reports how many distinct programs are alive in the cache.
func (c *ProgramCache) Len() int { return len(c.programs) }
