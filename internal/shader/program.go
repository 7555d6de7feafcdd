package shader

import (
	"fmt"
	"strconv"
	"strings"

	"Glint/internal/logger"
	"go.uber.org/zap"
)

// ProgramState tracks where a program is in its life: submitted, linked and
// usable, or failed to link.
type ProgramState int

const (
	ProgramPending ProgramState = iota
	ProgramReady
	ProgramFailed
)

// Diagnostics carries everything known about a failed (or checked) build.
// Populated lazily on first real use, never at link time.
type Diagnostics struct {
	ProgramName     string
	Runnable        bool
	ProgramLog      string
	VertexLog       string
	FragmentLog     string
	VertexExcerpt   string
	FragmentExcerpt string
}

// CompiledProgram is one linked GPU program plus its reflection-derived
// binding tree. Create through Compile or a ProgramCache.
type CompiledProgram struct {
	ID   int
	Name string

	ctx    Context
	handle ProgramHandle
	vs, fs StageHandle

	vertexSource   string
	fragmentSource string

	usedTimes int
	state     ProgramState
	destroyed bool

	diagnosed   bool
	diagnostics *Diagnostics
	onError     func(*Diagnostics)

	uniforms   *UniformContainer
	attributes map[string]ActiveAttribute

	cacheKey string
}

var programID int

// Compile submits both stages and links. It returns immediately without
// querying status or logs; callers poll readiness across frames and
// diagnostics surface on first use of the reflection accessors. onError may
// be nil for the default zap handler.
func Compile(ctx Context, name, vertexSource, fragmentSource string, onError func(*Diagnostics)) *CompiledProgram {
	programID++
	p := &CompiledProgram{
		ID:             programID,
		Name:           name,
		ctx:            ctx,
		vertexSource:   vertexSource,
		fragmentSource: fragmentSource,
		onError:        onError,
	}
	p.vs = ctx.CompileStage(VertexStage, vertexSource)
	p.fs = ctx.CompileStage(FragmentStage, fragmentSource)
	p.handle = ctx.LinkProgram(p.vs, p.fs)
	return p
}

// Handle exposes the underlying program object for the caller's UseProgram.
func (p *CompiledProgram) Handle() ProgramHandle { return p.handle }

// State returns the current readiness state. Pending until diagnostics run.
func (p *CompiledProgram) State() ProgramState { return p.state }

// PollReady reports whether the link has completed. Non-blocking; without
// asynchronous-compile support it is immediately true. Callers re-poll
// across frames rather than block.
func (p *CompiledProgram) PollReady() bool {
	if p.diagnosed {
		return true
	}
	if !p.ctx.ParallelCompileSupported() {
		return true
	}
	return p.ctx.CompileDone(p.handle)
}

// completeDiagnostics performs the once-only status check. Failed links are
// reported through the error callback; successful ones release the stage
// objects.
func (p *CompiledProgram) completeDiagnostics() {
	if p.diagnosed {
		return
	}
	p.diagnosed = true

	if p.ctx.LinkStatus(p.handle) {
		p.state = ProgramReady
		p.ctx.DeleteStage(p.vs)
		p.ctx.DeleteStage(p.fs)
		return
	}

	p.state = ProgramFailed
	d := &Diagnostics{
		ProgramName: p.Name,
		Runnable:    false,
		ProgramLog:  p.ctx.ProgramLog(p.handle),
	}
	if !p.ctx.CompileStatus(p.vs) {
		d.VertexLog = p.ctx.StageLog(p.vs)
		d.VertexExcerpt = sourceExcerpt(p.vertexSource, d.VertexLog)
	}
	if !p.ctx.CompileStatus(p.fs) {
		d.FragmentLog = p.ctx.StageLog(p.fs)
		d.FragmentExcerpt = sourceExcerpt(p.fragmentSource, d.FragmentLog)
	}
	p.diagnostics = d

	handler := p.onError
	if handler == nil {
		handler = defaultDiagnosticsHandler
	}
	handler(d)
}

func defaultDiagnosticsHandler(d *Diagnostics) {
	logger.Log.Error("Shader program failed to link",
		zap.String("program", d.ProgramName),
		zap.String("programLog", d.ProgramLog),
		zap.String("vertexLog", d.VertexLog),
		zap.String("fragmentLog", d.FragmentLog))
	if d.VertexExcerpt != "" {
		logger.Log.Error("Vertex source near first error", zap.String("excerpt", d.VertexExcerpt))
	}
	if d.FragmentExcerpt != "" {
		logger.Log.Error("Fragment source near first error", zap.String("excerpt", d.FragmentExcerpt))
	}
}

// Diagnostics forces the once-only status check and returns the captured
// result, nil when the program linked cleanly.
func (p *CompiledProgram) Diagnostics() *Diagnostics {
	p.completeDiagnostics()
	return p.diagnostics
}

// Uniforms returns the binding tree, building it on first call. The first
// call also completes diagnostics.
func (p *CompiledProgram) Uniforms() *UniformContainer {
	p.completeDiagnostics()
	if p.uniforms == nil {
		p.uniforms = NewUniformContainer(p.ctx, p.handle)
	}
	return p.uniforms
}

// Attributes returns the reflected vertex attributes by name, memoized.
func (p *CompiledProgram) Attributes() map[string]ActiveAttribute {
	p.completeDiagnostics()
	if p.attributes == nil {
		p.attributes = make(map[string]ActiveAttribute)
		for _, a := range p.ctx.ActiveAttributes(p.handle) {
			p.attributes[a.Name] = a
		}
	}
	return p.attributes
}

// Retain bumps the reference count for a shared program.
func (p *CompiledProgram) Retain() { p.usedTimes++ }

// UsedTimes returns the current reference count.
func (p *CompiledProgram) UsedTimes() int { return p.usedTimes }

// Destroy releases the GPU program. Idempotent.
func (p *CompiledProgram) Destroy() {
	if p.destroyed {
		return
	}
	p.destroyed = true
	if !p.diagnosed {
		// Stages were never released by the diagnostics pass.
		p.ctx.DeleteStage(p.vs)
		p.ctx.DeleteStage(p.fs)
	}
	p.ctx.DeleteProgram(p.handle)
	p.uniforms = nil
}

// sourceExcerpt extracts the lines around the first error position reported
// in a GL info log ("ERROR: 0:123: ..."), numbered, with a marker on the
// offending line.
func sourceExcerpt(source, log string) string {
	line := firstErrorLine(log)
	if line <= 0 {
		return ""
	}
	lines := strings.Split(source, "\n")
	from := line - 6
	if from < 0 {
		from = 0
	}
	to := line + 5
	if to > len(lines) {
		to = len(lines)
	}
	var b strings.Builder
	for i := from; i < to; i++ {
		marker := "  "
		if i == line-1 {
			marker = "> "
		}
		fmt.Fprintf(&b, "%s%d: %s\n", marker, i+1, lines[i])
	}
	return strings.TrimRight(b.String(), "\n")
}

func firstErrorLine(log string) int {
	i := strings.Index(log, "ERROR: 0:")
	if i < 0 {
		return 0
	}
	rest := log[i+len("ERROR: 0:"):]
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(rest[:end])
	if err != nil {
		return 0
	}
	return n
}
