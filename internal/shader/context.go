package shader

// StageHandle and ProgramHandle are opaque context-owned object names.
type (
	StageHandle   uint32
	ProgramHandle uint32
)

// Context is everything the binding core needs from a graphics context:
// stage compilation and program linking, post-link reflection, typed uniform
// uploads and texture binding. The core never fetches compile or link logs
// eagerly; status and log queries are separate so diagnostics can stay lazy.
//
// All calls are synchronous and must be made from the context's thread.
type Context interface {
	// Compilation and linking. CompileStage and LinkProgram submit work and
	// return immediately; success is only known through the status queries.
	CompileStage(stage Stage, source string) StageHandle
	LinkProgram(vs, fs StageHandle) ProgramHandle
	CompileStatus(s StageHandle) bool
	StageLog(s StageHandle) string
	LinkStatus(p ProgramHandle) bool
	ProgramLog(p ProgramHandle) string
	DeleteStage(s StageHandle)
	DeleteProgram(p ProgramHandle)

	// ParallelCompileSupported reports whether CompileDone is meaningful.
	// Without support, linking is synchronous and completion is immediate.
	ParallelCompileSupported() bool
	CompileDone(p ProgramHandle) bool

	// Reflection, valid after linking.
	ActiveUniforms(p ProgramHandle) []ActiveUniform
	ActiveAttributes(p ProgramHandle) []ActiveAttribute

	MaxTextureUnits() int

	// Typed uploads against the currently bound program.
	Uniform1f(location int32, v float32)
	Uniform1fv(location int32, v []float32)
	Uniform2fv(location int32, v []float32)
	Uniform3fv(location int32, v []float32)
	Uniform4fv(location int32, v []float32)
	Uniform1i(location int32, v int32)
	Uniform1iv(location int32, v []int32)
	Uniform2iv(location int32, v []int32)
	Uniform3iv(location int32, v []int32)
	Uniform4iv(location int32, v []int32)
	Uniform1ui(location int32, v uint32)
	UniformMatrix2fv(location int32, v []float32)
	UniformMatrix3fv(location int32, v []float32)
	UniformMatrix4fv(location int32, v []float32)

	// BindTexture binds a resource to a numbered unit.
	BindTexture(unit int32, target TextureTarget, texture uint32)
}
