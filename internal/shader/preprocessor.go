package shader

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ShaderTemplate is the authored source for both stages. Templates are
// immutable; many programs specialize one template with different
// configurations.
type ShaderTemplate struct {
	// ID is the template's identity for program-cache keying.
	ID       string
	Vertex   string
	Fragment string
	// Raw skips the generated prologue and the legacy-token compatibility
	// layer; the template must carry its own version line and declarations.
	Raw bool
}

// UnresolvedIncludeError reports an #include marker naming a chunk that
// exists neither in the library nor in the deprecated-alias table. Fatal:
// no valid source can be produced.
type UnresolvedIncludeError struct {
	Name string
}

func (e *UnresolvedIncludeError) Error() string {
	return fmt.Sprintf("unresolved shader include <%s>", e.Name)
}

var (
	includePattern = regexp.MustCompile(`(?m)^[ \t]*#include +<([\w.]+)>`)
	unrollPattern  = regexp.MustCompile(`#pragma unroll_loop_start\s+for\s*\(\s*int\s+i\s*=\s*(\d+)\s*;\s*i\s*<\s*(\d+)\s*;\s*i\s*\+\+\s*\)\s*{([\s\S]+?)}\s*#pragma unroll_loop_end`)
	loopIndexSub   = regexp.MustCompile(`\[\s*i\s*\]`)
)

// ResolveIncludes replaces every #include <name> marker with the named
// chunk's text, recursively, so no marker survives in the output.
func ResolveIncludes(src string, lib *ChunkLibrary) (string, error) {
	var firstErr error
	out := includePattern.ReplaceAllStringFunc(src, func(marker string) string {
		name := includePattern.FindStringSubmatch(marker)[1]
		chunk, ok := lib.Resolve(name)
		if !ok {
			if firstErr == nil {
				firstErr = &UnresolvedIncludeError{Name: name}
			}
			return marker
		}
		resolved, err := ResolveIncludes(chunk, lib)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		return resolved
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

// UnrollLoops expands every bounded-loop pragma block, emitting the body once
// per index in [start, end) with the literal substituted for both the
// UNROLLED_LOOP_INDEX token and [i]-style subscripts. end <= start yields an
// empty expansion.
func UnrollLoops(src string) string {
	return unrollPattern.ReplaceAllStringFunc(src, func(block string) string {
		m := unrollPattern.FindStringSubmatch(block)
		start, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[2])
		body := m[3]

		var b strings.Builder
		for i := start; i < end; i++ {
			idx := strconv.Itoa(i)
			expanded := loopIndexSub.ReplaceAllString(body, "[ "+idx+" ]")
			expanded = strings.ReplaceAll(expanded, "UNROLLED_LOOP_INDEX", idx)
			b.WriteString(expanded)
		}
		return b.String()
	})
}

// Preprocess produces the final per-stage source for a template specialized
// by a configuration. Deterministic: equal inputs yield byte-identical
// output. The only failure mode is an unresolved include.
func Preprocess(lib *ChunkLibrary, tpl ShaderTemplate, cfg *FeatureConfiguration) (vertex, fragment string, err error) {
	vertex, err = preprocessStage(lib, tpl, cfg, VertexStage)
	if err != nil {
		return "", "", err
	}
	fragment, err = preprocessStage(lib, tpl, cfg, FragmentStage)
	if err != nil {
		return "", "", err
	}
	return vertex, fragment, nil
}

func preprocessStage(lib *ChunkLibrary, tpl ShaderTemplate, cfg *FeatureConfiguration, stage Stage) (string, error) {
	body := tpl.Vertex
	if stage == FragmentStage {
		body = tpl.Fragment
	}

	body, err := ResolveIncludes(body, lib)
	if err != nil {
		return "", err
	}
	body = cfg.replaceCounts(body)
	body = UnrollLoops(body)

	var b strings.Builder
	b.WriteString("#version " + cfg.version() + "\n")
	if cfg.Name != "" {
		b.WriteString("#define SHADER_NAME " + cfg.Name + "\n")
	}
	if stage == VertexStage {
		b.WriteString("#define STAGE_VERTEX\n")
	} else {
		b.WriteString("#define STAGE_FRAGMENT\n")
	}
	for _, line := range cfg.defineLines(stage) {
		b.WriteString(line + "\n")
	}
	if !tpl.Raw {
		writePrologue(&b, cfg, stage)
	}
	b.WriteString(body)
	return b.String(), nil
}

// writePrologue emits the precision block, the legacy-token compatibility
// layer and the standard per-stage declarations.
func writePrologue(b *strings.Builder, cfg *FeatureConfiguration, stage Stage) {
	if cfg.isES() {
		p := cfg.precision()
		b.WriteString("precision " + p + " float;\n")
		b.WriteString("precision " + p + " int;\n")
		b.WriteString("precision " + p + " sampler2D;\n")
		b.WriteString("precision " + p + " samplerCube;\n")
	}

	if stage == VertexStage {
		// Legacy stage-I/O names map onto the in/out declaration style.
		b.WriteString(`#define attribute in
#define varying out
#define texture2D texture
uniform mat4 modelMatrix;
uniform mat4 modelViewMatrix;
uniform mat4 projectionMatrix;
uniform mat4 viewMatrix;
uniform mat3 normalMatrix;
uniform vec3 cameraPosition;
in vec3 position;
in vec3 normal;
in vec2 uv;
#ifdef USE_INSTANCING
in mat4 instanceMatrix;
#endif
#ifdef USE_COLOR
in vec4 color;
#endif
`)
		return
	}

	// Fragment: legacy names, an explicit output variable standing in for
	// the implicit gl_FragColor, and the generated color pipeline functions.
	b.WriteString(`#define varying in
#define texture2D texture
#define textureCube texture
out vec4 outgoingFragColor;
#define gl_FragColor outgoingFragColor
uniform mat4 viewMatrix;
uniform vec3 cameraPosition;
vec3 saturateRGB(vec3 v) { return clamp(v, 0.0, 1.0); }
`)
	b.WriteString(toneMappingFunction(cfg.ToneMapping) + "\n")
	b.WriteString(colorSpaceFunction(cfg.OutputColorSpace) + "\n")
}
