package shader

import "fmt"

// fakeContext implements Context in memory, recording every upload so tests
// can assert on diff suppression and call ordering without a GPU.
type fakeContext struct {
	uniforms   []ActiveUniform
	attributes []ActiveAttribute

	compileOK bool
	linkOK    bool
	parallel  bool
	done      bool

	stageLogs  map[StageHandle]string
	programLog string

	nextStage   StageHandle
	nextProgram ProgramHandle

	stageSources    map[StageHandle]string
	deletedStages   []StageHandle
	deletedPrograms []ProgramHandle

	reflectionCalls int
	maxUnits        int

	calls []string
}

var _ Context = (*fakeContext)(nil)

func newFakeContext() *fakeContext {
	return &fakeContext{
		compileOK:    true,
		linkOK:       true,
		stageLogs:    map[StageHandle]string{},
		stageSources: map[StageHandle]string{},
		maxUnits:     16,
	}
}

func (c *fakeContext) record(format string, args ...any) {
	c.calls = append(c.calls, fmt.Sprintf(format, args...))
}

// uploads counts recorded uniform upload calls (not texture binds).
func (c *fakeContext) uploads() int {
	n := 0
	for _, call := range c.calls {
		if len(call) >= 7 && call[:7] == "Uniform" {
			n++
		}
	}
	return n
}

func (c *fakeContext) CompileStage(stage Stage, source string) StageHandle {
	c.nextStage++
	c.stageSources[c.nextStage] = source
	return c.nextStage
}

func (c *fakeContext) LinkProgram(vs, fs StageHandle) ProgramHandle {
	c.nextProgram++
	return c.nextProgram
}

func (c *fakeContext) CompileStatus(s StageHandle) bool { return c.compileOK }
func (c *fakeContext) StageLog(s StageHandle) string    { return c.stageLogs[s] }
func (c *fakeContext) LinkStatus(p ProgramHandle) bool  { return c.linkOK }
func (c *fakeContext) ProgramLog(p ProgramHandle) string {
	return c.programLog
}

func (c *fakeContext) DeleteStage(s StageHandle) {
	c.deletedStages = append(c.deletedStages, s)
}

func (c *fakeContext) DeleteProgram(p ProgramHandle) {
	c.deletedPrograms = append(c.deletedPrograms, p)
}

func (c *fakeContext) ParallelCompileSupported() bool { return c.parallel }
func (c *fakeContext) CompileDone(p ProgramHandle) bool {
	return c.done
}

func (c *fakeContext) ActiveUniforms(p ProgramHandle) []ActiveUniform {
	c.reflectionCalls++
	return c.uniforms
}

func (c *fakeContext) ActiveAttributes(p ProgramHandle) []ActiveAttribute {
	return c.attributes
}

func (c *fakeContext) MaxTextureUnits() int { return c.maxUnits }

func (c *fakeContext) Uniform1f(loc int32, v float32)    { c.record("Uniform1f(%d,%v)", loc, v) }
func (c *fakeContext) Uniform1fv(loc int32, v []float32) { c.record("Uniform1fv(%d,%v)", loc, v) }
func (c *fakeContext) Uniform2fv(loc int32, v []float32) { c.record("Uniform2fv(%d,%v)", loc, v) }
func (c *fakeContext) Uniform3fv(loc int32, v []float32) { c.record("Uniform3fv(%d,%v)", loc, v) }
func (c *fakeContext) Uniform4fv(loc int32, v []float32) { c.record("Uniform4fv(%d,%v)", loc, v) }
func (c *fakeContext) Uniform1i(loc int32, v int32)      { c.record("Uniform1i(%d,%v)", loc, v) }
func (c *fakeContext) Uniform1iv(loc int32, v []int32)   { c.record("Uniform1iv(%d,%v)", loc, v) }
func (c *fakeContext) Uniform2iv(loc int32, v []int32)   { c.record("Uniform2iv(%d,%v)", loc, v) }
func (c *fakeContext) Uniform3iv(loc int32, v []int32)   { c.record("Uniform3iv(%d,%v)", loc, v) }
func (c *fakeContext) Uniform4iv(loc int32, v []int32)   { c.record("Uniform4iv(%d,%v)", loc, v) }
func (c *fakeContext) Uniform1ui(loc int32, v uint32)    { c.record("Uniform1ui(%d,%v)", loc, v) }

func (c *fakeContext) UniformMatrix2fv(loc int32, v []float32) {
	c.record("UniformMatrix2fv(%d,%v)", loc, v)
}

func (c *fakeContext) UniformMatrix3fv(loc int32, v []float32) {
	c.record("UniformMatrix3fv(%d,%v)", loc, v)
}

func (c *fakeContext) UniformMatrix4fv(loc int32, v []float32) {
	c.record("UniformMatrix4fv(%d,%v)", loc, v)
}

func (c *fakeContext) BindTexture(unit int32, target TextureTarget, texture uint32) {
	c.record("BindTexture(%d,%d,%d)", unit, target, texture)
}

// binds counts recorded BindTexture calls.
func (c *fakeContext) binds() int {
	n := 0
	for _, call := range c.calls {
		if len(call) >= 4 && call[:4] == "Bind" {
			n++
		}
	}
	return n
}
