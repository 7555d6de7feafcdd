package shader

import (
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
)

const glCompletionStatus = 0x91B1 // COMPLETION_STATUS_KHR

// GLContext implements Context on top of an initialized OpenGL 4.1 core
// context. The caller owns context creation (glfw etc.) and must call gl.Init
// before constructing one.
type GLContext struct {
	parallel bool
	maxUnits int
}

var _ Context = (*GLContext)(nil)

// NewGLContext queries the capabilities the binding core cares about and
// returns a ready context wrapper.
func NewGLContext() *GLContext {
	ctx := &GLContext{}

	var units int32
	gl.GetIntegerv(gl.MAX_COMBINED_TEXTURE_IMAGE_UNITS, &units)
	ctx.maxUnits = int(units)

	var n int32
	gl.GetIntegerv(gl.NUM_EXTENSIONS, &n)
	for i := int32(0); i < n; i++ {
		ext := gl.GoStr(gl.GetStringi(gl.EXTENSIONS, uint32(i)))
		if ext == "GL_KHR_parallel_shader_compile" {
			ctx.parallel = true
			break
		}
	}
	return ctx
}

func (c *GLContext) CompileStage(stage Stage, source string) StageHandle {
	glStage := uint32(gl.VERTEX_SHADER)
	if stage == FragmentStage {
		glStage = gl.FRAGMENT_SHADER
	}
	handle := gl.CreateShader(glStage)
	cSources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(handle, 1, cSources, nil)
	free()
	gl.CompileShader(handle)
	return StageHandle(handle)
}

func (c *GLContext) LinkProgram(vs, fs StageHandle) ProgramHandle {
	program := gl.CreateProgram()
	gl.AttachShader(program, uint32(vs))
	gl.AttachShader(program, uint32(fs))
	gl.LinkProgram(program)
	return ProgramHandle(program)
}

func (c *GLContext) CompileStatus(s StageHandle) bool {
	var status int32
	gl.GetShaderiv(uint32(s), gl.COMPILE_STATUS, &status)
	return status == gl.TRUE
}

func (c *GLContext) StageLog(s StageHandle) string {
	var logLength int32
	gl.GetShaderiv(uint32(s), gl.INFO_LOG_LENGTH, &logLength)
	if logLength == 0 {
		return ""
	}
	log := strings.Repeat("\x00", int(logLength+1))
	gl.GetShaderInfoLog(uint32(s), logLength, nil, gl.Str(log))
	return strings.TrimRight(log, "\x00")
}

func (c *GLContext) LinkStatus(p ProgramHandle) bool {
	var status int32
	gl.GetProgramiv(uint32(p), gl.LINK_STATUS, &status)
	return status == gl.TRUE
}

func (c *GLContext) ProgramLog(p ProgramHandle) string {
	var logLength int32
	gl.GetProgramiv(uint32(p), gl.INFO_LOG_LENGTH, &logLength)
	if logLength == 0 {
		return ""
	}
	log := strings.Repeat("\x00", int(logLength+1))
	gl.GetProgramInfoLog(uint32(p), logLength, nil, gl.Str(log))
	return strings.TrimRight(log, "\x00")
}

func (c *GLContext) DeleteStage(s StageHandle) { gl.DeleteShader(uint32(s)) }

func (c *GLContext) DeleteProgram(p ProgramHandle) { gl.DeleteProgram(uint32(p)) }

func (c *GLContext) ParallelCompileSupported() bool { return c.parallel }

func (c *GLContext) CompileDone(p ProgramHandle) bool {
	var done int32
	gl.GetProgramiv(uint32(p), glCompletionStatus, &done)
	return done == gl.TRUE
}

func (c *GLContext) ActiveUniforms(p ProgramHandle) []ActiveUniform {
	program := uint32(p)
	var count int32
	gl.GetProgramiv(program, gl.ACTIVE_UNIFORMS, &count)

	uniforms := make([]ActiveUniform, 0, count)
	buf := make([]uint8, 256)
	for i := int32(0); i < count; i++ {
		var length, size int32
		var xtype uint32
		gl.GetActiveUniform(program, uint32(i), int32(len(buf)), &length, &size, &xtype, &buf[0])
		name := string(buf[:length])
		location := gl.GetUniformLocation(program, gl.Str(name+"\x00"))
		uniforms = append(uniforms, ActiveUniform{
			Name:     name,
			Type:     GLType(xtype),
			Size:     size,
			Location: location,
		})
	}
	return uniforms
}

func (c *GLContext) ActiveAttributes(p ProgramHandle) []ActiveAttribute {
	program := uint32(p)
	var count int32
	gl.GetProgramiv(program, gl.ACTIVE_ATTRIBUTES, &count)

	attributes := make([]ActiveAttribute, 0, count)
	buf := make([]uint8, 256)
	for i := int32(0); i < count; i++ {
		var length, size int32
		var xtype uint32
		gl.GetActiveAttrib(program, uint32(i), int32(len(buf)), &length, &size, &xtype, &buf[0])
		name := string(buf[:length])
		location := gl.GetAttribLocation(program, gl.Str(name+"\x00"))
		attributes = append(attributes, ActiveAttribute{
			Name:     name,
			Type:     GLType(xtype),
			Location: location,
		})
	}
	return attributes
}

func (c *GLContext) MaxTextureUnits() int { return c.maxUnits }

func (c *GLContext) Uniform1f(location int32, v float32) { gl.Uniform1f(location, v) }

func (c *GLContext) Uniform1fv(location int32, v []float32) {
	gl.Uniform1fv(location, int32(len(v)), &v[0])
}

func (c *GLContext) Uniform2fv(location int32, v []float32) {
	gl.Uniform2fv(location, int32(len(v)/2), &v[0])
}

func (c *GLContext) Uniform3fv(location int32, v []float32) {
	gl.Uniform3fv(location, int32(len(v)/3), &v[0])
}

func (c *GLContext) Uniform4fv(location int32, v []float32) {
	gl.Uniform4fv(location, int32(len(v)/4), &v[0])
}

func (c *GLContext) Uniform1i(location int32, v int32) { gl.Uniform1i(location, v) }

func (c *GLContext) Uniform1iv(location int32, v []int32) {
	gl.Uniform1iv(location, int32(len(v)), &v[0])
}

func (c *GLContext) Uniform2iv(location int32, v []int32) {
	gl.Uniform2iv(location, int32(len(v)/2), &v[0])
}

func (c *GLContext) Uniform3iv(location int32, v []int32) {
	gl.Uniform3iv(location, int32(len(v)/3), &v[0])
}

func (c *GLContext) Uniform4iv(location int32, v []int32) {
	gl.Uniform4iv(location, int32(len(v)/4), &v[0])
}

func (c *GLContext) Uniform1ui(location int32, v uint32) { gl.Uniform1ui(location, v) }

func (c *GLContext) UniformMatrix2fv(location int32, v []float32) {
	gl.UniformMatrix2fv(location, int32(len(v)/4), false, &v[0])
}

func (c *GLContext) UniformMatrix3fv(location int32, v []float32) {
	gl.UniformMatrix3fv(location, int32(len(v)/9), false, &v[0])
}

func (c *GLContext) UniformMatrix4fv(location int32, v []float32) {
	gl.UniformMatrix4fv(location, int32(len(v)/16), false, &v[0])
}

func (c *GLContext) BindTexture(unit int32, target TextureTarget, texture uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(uint32(target), texture)
}

// GLTexture is a minimal Texture value for callers that manage raw GL texture
// names themselves.
type GLTexture struct {
	ID   uint32
	Kind TextureTarget
}

func (t GLTexture) TextureID() uint32 { return t.ID }

func (t GLTexture) Target() TextureTarget { return t.Kind }
