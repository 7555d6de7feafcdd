package shader

import (
	"errors"
	"strings"
	"testing"
)

func testLibrary() *ChunkLibrary {
	lib := NewChunkLibrary()
	lib.Register("outer", "// outer\n#include <inner>\nfloat outerValue = 1.0;")
	lib.Register("inner", "float innerValue = 2.0;")
	return lib
}

func TestResolveIncludesRecursive(t *testing.T) {
	lib := testLibrary()

	out, err := ResolveIncludes("#include <outer>\nvoid main() {}", lib)
	if err != nil {
		t.Fatalf("ResolveIncludes failed: %v", err)
	}
	if strings.Contains(out, "#include") {
		t.Errorf("output still contains an include marker:\n%s", out)
	}
	if !strings.Contains(out, "innerValue") {
		t.Error("nested include was not substituted")
	}
	if !strings.Contains(out, "outerValue") {
		t.Error("outer include was not substituted")
	}
}

func TestResolveIncludesUnknownName(t *testing.T) {
	lib := testLibrary()

	_, err := ResolveIncludes("#include <no_such_chunk>", lib)
	if err == nil {
		t.Fatal("expected an error for an unknown chunk")
	}
	var unresolved *UnresolvedIncludeError
	if !errors.As(err, &unresolved) {
		t.Fatalf("expected UnresolvedIncludeError, got %T", err)
	}
	if unresolved.Name != "no_such_chunk" {
		t.Errorf("error names %q, want no_such_chunk", unresolved.Name)
	}
}

func TestResolveIncludesDeprecatedAlias(t *testing.T) {
	lib := NewChunkLibrary()

	out, err := ResolveIncludes("#include <encodings_fragment>", lib)
	if err != nil {
		t.Fatalf("deprecated alias should resolve: %v", err)
	}
	if !strings.Contains(out, "linearToOutputTexel") {
		t.Errorf("alias did not substitute the replacement chunk: %q", out)
	}
}

func TestUnrollLoops(t *testing.T) {
	src := `#pragma unroll_loop_start
for (int i = 0; i < 3; i++) {
	x[i] += UNROLLED_LOOP_INDEX;
}
#pragma unroll_loop_end`

	out := UnrollLoops(src)

	if strings.Contains(out, "unroll_loop") {
		t.Errorf("pragma survived unrolling:\n%s", out)
	}
	for _, want := range []string{"x[ 0 ] += 0", "x[ 1 ] += 1", "x[ 2 ] += 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing expansion %q in:\n%s", want, out)
		}
	}
	if strings.Count(out, "+=") != 3 {
		t.Errorf("want exactly 3 statements, got %d", strings.Count(out, "+="))
	}
}

func TestUnrollLoopsEmptyRange(t *testing.T) {
	src := `#pragma unroll_loop_start
for (int i = 2; i < 2; i++) {
	x[i] = 0.0;
}
#pragma unroll_loop_end`

	out := UnrollLoops(src)

	if strings.Contains(out, "x[") {
		t.Errorf("END <= START should expand to nothing, got:\n%s", out)
	}
}

func TestPreprocessDeterministic(t *testing.T) {
	lib := NewChunkLibrary()
	tpl := ShaderTemplate{
		ID:       "lit",
		Vertex:   "#include <begin_vertex>\nvoid main() {}",
		Fragment: "#include <common>\nvoid main() {}",
	}
	cfg := &FeatureConfiguration{
		Name:           "lit",
		UseFog:         true,
		NumDirLights:   2,
		NumPointLights: 1,
		ToneMapping:    ACESFilmicToneMapping,
		Defines:        []Define{{Name: "CUSTOM_FLAG"}, {Name: "MAX_BONES", Value: "64"}},
	}

	v1, f1, err := Preprocess(lib, tpl, cfg)
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	v2, f2, err := Preprocess(lib, tpl, cfg)
	if err != nil {
		t.Fatalf("second Preprocess failed: %v", err)
	}
	if v1 != v2 || f1 != f2 {
		t.Error("equal inputs must produce byte-identical output")
	}
}

func TestPreprocessDefineGating(t *testing.T) {
	lib := NewChunkLibrary()
	tpl := ShaderTemplate{ID: "t", Vertex: "void main() {}", Fragment: "void main() {}"}

	with := &FeatureConfiguration{UseFog: true, Defines: []Define{{Name: "MAX_BONES", Value: "64"}}}
	without := &FeatureConfiguration{}

	v, _, err := Preprocess(lib, tpl, with)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(v, "#define USE_FOG\n") != 1 {
		t.Error("truthy flag should appear exactly once")
	}
	if !strings.Contains(v, "#define MAX_BONES 64") {
		t.Error("valued define missing")
	}

	v, _, err = Preprocess(lib, tpl, without)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(v, "USE_FOG") {
		t.Error("falsy flag must not emit a define")
	}
}

func TestPreprocessCountSubstitution(t *testing.T) {
	lib := NewChunkLibrary()
	tpl := ShaderTemplate{
		ID:       "t",
		Vertex:   "void main() {}",
		Fragment: "#include <clipping_planes_pars_fragment>\n#include <clipping_planes_fragment>\nvoid main() {}",
	}
	cfg := &FeatureConfiguration{NumClippingPlanes: 4, NumClipIntersection: 1}

	_, frag, err := Preprocess(lib, tpl, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(frag, "NUM_CLIPPING_PLANES") || strings.Contains(frag, "UNION_CLIPPING_PLANES") {
		t.Error("symbolic counts survived substitution")
	}
	if !strings.Contains(frag, "clippingPlanes[4]") {
		t.Error("clipping plane array size not substituted")
	}
	// Union count 3 drives the unrolled loop: planes 0..2.
	if !strings.Contains(frag, "clippingPlanes[ 2 ]") {
		t.Error("union count should unroll three plane checks")
	}
	if strings.Contains(frag, "clippingPlanes[ 3 ]") {
		t.Error("intersection planes must not be in the union unroll")
	}
}

func TestPreprocessLightCountsAndUnroll(t *testing.T) {
	lib := NewChunkLibrary()
	tpl := ShaderTemplate{
		ID:       "t",
		Vertex:   "void main() {}",
		Fragment: "#include <lights_pars>\n#include <lights_fragment>\nvoid main() {}",
	}
	cfg := &FeatureConfiguration{NumDirLights: 2}

	_, frag, err := Preprocess(lib, tpl, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(frag, "directionalLights[2]") {
		t.Error("light array size not substituted")
	}
	if !strings.Contains(frag, "directionalLights[ 1 ]") {
		t.Error("light loop not unrolled")
	}
	if strings.Contains(frag, "pointLights[ 0 ]") {
		t.Error("zero point lights should unroll to nothing")
	}
}

func TestPreprocessFragmentPrologue(t *testing.T) {
	lib := NewChunkLibrary()
	tpl := ShaderTemplate{ID: "t", Vertex: "void main() {}", Fragment: "void main() {}"}
	cfg := &FeatureConfiguration{
		ToneMapping:      ReinhardToneMapping,
		OutputColorSpace: SRGBColorSpace,
	}

	_, frag, err := Preprocess(lib, tpl, cfg)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"#version 330 core",
		"#define STAGE_FRAGMENT",
		"#define gl_FragColor outgoingFragColor",
		"out vec4 outgoingFragColor;",
		"vec3 toneMapping(vec3 color)",
		"vec4 linearToOutputTexel(vec4 value)",
		"toneMappingExposure",
	} {
		if !strings.Contains(frag, want) {
			t.Errorf("fragment prologue missing %q", want)
		}
	}
	if !strings.Contains(frag, "12.92") {
		t.Error("sRGB transfer function not generated")
	}
}

func TestPreprocessVertexPrologueGatedAttributes(t *testing.T) {
	lib := NewChunkLibrary()
	tpl := ShaderTemplate{ID: "t", Vertex: "void main() {}", Fragment: "void main() {}"}

	vert, _, err := Preprocess(lib, tpl, &FeatureConfiguration{Instancing: true})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(vert, "#define USE_INSTANCING") {
		t.Error("instancing define missing")
	}
	if !strings.Contains(vert, "in mat4 instanceMatrix;") {
		t.Error("instanced attribute declaration missing")
	}
	if !strings.Contains(vert, "in vec3 position;") {
		t.Error("standard attributes missing")
	}
}

func TestPreprocessRawTemplate(t *testing.T) {
	lib := NewChunkLibrary()
	tpl := ShaderTemplate{
		ID:       "raw",
		Raw:      true,
		Vertex:   "void main() {}",
		Fragment: "void main() {}",
	}

	vert, frag, err := Preprocess(lib, tpl, &FeatureConfiguration{})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(vert, "uniform mat4 modelMatrix;") {
		t.Error("raw template must not get the standard uniform block")
	}
	if strings.Contains(frag, "toneMapping") {
		t.Error("raw template must not get generated functions")
	}
	if !strings.Contains(vert, "#version") {
		t.Error("raw template still gets the version line")
	}
}

func TestPreprocessESPrecision(t *testing.T) {
	lib := NewChunkLibrary()
	tpl := ShaderTemplate{ID: "t", Vertex: "void main() {}", Fragment: "void main() {}"}
	cfg := &FeatureConfiguration{GLSLVersion: "300 es", Precision: "mediump"}

	vert, _, err := Preprocess(lib, tpl, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(vert, "precision mediump float;") {
		t.Error("ES target should declare default precision")
	}
}

func TestCubeUVDefines(t *testing.T) {
	lines := cubeUVDefineLines(256)
	if len(lines) != 3 {
		t.Fatalf("want 3 defines, got %d", len(lines))
	}
	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "CUBEUV_MAX_MIP 6.0") {
		t.Errorf("log2(256)-2 should be 6, got:\n%s", joined)
	}

	if got := cubeUVDefineLines(0); got != nil {
		t.Error("degenerate height should emit nothing")
	}
}
