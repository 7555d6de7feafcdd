package shader

import (
	"strings"
	"testing"
)

func TestCompileDoesNotQueryStatus(t *testing.T) {
	ctx := newFakeContext()
	p := Compile(ctx, "test", "vertex src", "fragment src", nil)

	if p.State() != ProgramPending {
		t.Error("freshly compiled program should be pending")
	}
	for _, call := range ctx.calls {
		t.Errorf("compile must not touch uniform state: %s", call)
	}
}

func TestPollReadyWithoutParallelSupport(t *testing.T) {
	ctx := newFakeContext()
	p := Compile(ctx, "test", "v", "f", nil)

	if !p.PollReady() {
		t.Error("without async-compile support readiness is immediate")
	}
}

func TestPollReadyWithParallelSupport(t *testing.T) {
	ctx := newFakeContext()
	ctx.parallel = true
	p := Compile(ctx, "test", "v", "f", nil)

	if p.PollReady() {
		t.Error("pending completion flag should report not ready")
	}
	ctx.done = true
	if !p.PollReady() {
		t.Error("completion flag set should report ready")
	}
}

func TestDiagnosticsAreLazyAndOnce(t *testing.T) {
	ctx := newFakeContext()
	ctx.linkOK = false
	ctx.compileOK = false
	ctx.programLog = "link failed"
	reported := 0
	p := Compile(ctx, "broken", "v", "f", func(d *Diagnostics) { reported++ })

	if reported != 0 {
		t.Fatal("diagnostics must not run at link time")
	}
	p.Uniforms()
	if reported != 1 {
		t.Fatalf("first use should report once, got %d", reported)
	}
	if p.State() != ProgramFailed {
		t.Error("failed link should mark the program failed")
	}
	p.Uniforms()
	p.Attributes()
	if reported != 1 {
		t.Errorf("diagnostics must be cached, reported %d times", reported)
	}
	if d := p.Diagnostics(); d == nil || d.ProgramLog != "link failed" {
		t.Errorf("diagnostics not captured: %+v", p.Diagnostics())
	}
}

func TestSuccessfulLinkReleasesStages(t *testing.T) {
	ctx := newFakeContext()
	p := Compile(ctx, "ok", "v", "f", nil)

	p.Uniforms()
	if len(ctx.deletedStages) != 2 {
		t.Errorf("stages should be released after the diagnostics pass, got %d", len(ctx.deletedStages))
	}
	if p.State() != ProgramReady {
		t.Error("clean link should be ready")
	}
	if p.Diagnostics() != nil {
		t.Error("clean link has no diagnostics")
	}
}

func TestUniformsMemoized(t *testing.T) {
	ctx := newFakeContext()
	ctx.uniforms = []ActiveUniform{{Name: "opacity", Type: TypeFloat, Size: 1}}
	p := Compile(ctx, "ok", "v", "f", nil)

	a := p.Uniforms()
	b := p.Uniforms()
	if a != b {
		t.Error("uniform tree must be built at most once")
	}
	if ctx.reflectionCalls != 1 {
		t.Errorf("reflection enumerated %d times, want 1", ctx.reflectionCalls)
	}
}

func TestDestroyIdempotent(t *testing.T) {
	ctx := newFakeContext()
	p := Compile(ctx, "ok", "v", "f", nil)

	p.Destroy()
	p.Destroy()
	if len(ctx.deletedPrograms) != 1 {
		t.Errorf("program deleted %d times, want 1", len(ctx.deletedPrograms))
	}
	if len(ctx.deletedStages) != 2 {
		t.Errorf("undiagnosed destroy should release both stages, got %d", len(ctx.deletedStages))
	}
}

func TestSourceExcerpt(t *testing.T) {
	source := "line one\nline two\nbad line\nline four"
	log := "ERROR: 0:3: 'bad' : syntax error"

	excerpt := sourceExcerpt(source, log)
	if !strings.Contains(excerpt, "> 3: bad line") {
		t.Errorf("excerpt should mark the offending line:\n%s", excerpt)
	}
	if !strings.Contains(excerpt, "  1: line one") {
		t.Errorf("excerpt should include surrounding context:\n%s", excerpt)
	}

	if sourceExcerpt(source, "no error position here") != "" {
		t.Error("unparsable log yields no excerpt")
	}
}

func TestProgramCacheReuse(t *testing.T) {
	ctx := newFakeContext()
	lib := NewChunkLibrary()
	cache := NewProgramCache(ctx, lib, nil)
	tpl := ShaderTemplate{ID: "lit", Vertex: "void main() {}", Fragment: "void main() {}"}
	cfg := &FeatureConfiguration{Name: "lit", UseFog: true}

	p1, err := cache.Acquire(tpl, cfg)
	if err != nil {
		t.Fatal(err)
	}
	p2, err := cache.Acquire(tpl, &FeatureConfiguration{Name: "lit", UseFog: true})
	if err != nil {
		t.Fatal(err)
	}
	if p1 != p2 {
		t.Error("equal configurations must share one program")
	}
	if p1.UsedTimes() != 2 {
		t.Errorf("refcount = %d, want 2", p1.UsedTimes())
	}
	if cache.Len() != 1 {
		t.Errorf("cache holds %d programs, want 1", cache.Len())
	}

	p3, err := cache.Acquire(tpl, &FeatureConfiguration{Name: "lit"})
	if err != nil {
		t.Fatal(err)
	}
	if p3 == p1 {
		t.Error("a flag difference must compile a new program")
	}
}

func TestProgramCacheRelease(t *testing.T) {
	ctx := newFakeContext()
	cache := NewProgramCache(ctx, NewChunkLibrary(), nil)
	tpl := ShaderTemplate{ID: "t", Vertex: "void main() {}", Fragment: "void main() {}"}

	p, err := cache.Acquire(tpl, &FeatureConfiguration{})
	if err != nil {
		t.Fatal(err)
	}
	p.Retain()
	cache.Release(p)
	if len(ctx.deletedPrograms) != 0 {
		t.Error("releasing with remaining references must not destroy")
	}
	cache.Release(p)
	if len(ctx.deletedPrograms) != 1 {
		t.Error("last release should destroy the program")
	}
	if cache.Len() != 0 {
		t.Error("destroyed program should be evicted")
	}
}

func TestProgramCacheUnresolvedIncludeBlocksCreation(t *testing.T) {
	ctx := newFakeContext()
	cache := NewProgramCache(ctx, NewChunkLibrary(), nil)
	tpl := ShaderTemplate{ID: "t", Vertex: "#include <nope>", Fragment: "void main() {}"}

	if _, err := cache.Acquire(tpl, &FeatureConfiguration{}); err == nil {
		t.Fatal("unresolved include must block program creation")
	}
	if cache.Len() != 0 {
		t.Error("failed acquire must not cache anything")
	}
}
