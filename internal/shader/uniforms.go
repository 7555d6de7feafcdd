package shader

import (
	"strconv"

	"Glint/internal/logger"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// UniformNode is one node of a program's binding tree: a leaf bound to a GPU
// slot or a structured composite forwarding into its children.
type UniformNode interface {
	Ident() string
	// SetValue uploads v through the node's type-selected routine. Leaves
	// diff against their cached last upload and skip the GPU call when
	// nothing changed. Values the routine cannot coerce are skipped.
	SetValue(ctx Context, v any, units *TextureUnits) error
}

// UniformContainer holds an ordered child sequence plus a name lookup. It is
// the root of a program's tree and the embedded body of every structured
// node.
type UniformContainer struct {
	Seq    []UniformNode
	byName map[string]UniformNode
}

func (c *UniformContainer) add(n UniformNode) {
	if c.byName == nil {
		c.byName = make(map[string]UniformNode)
	}
	c.Seq = append(c.Seq, n)
	c.byName[n.Ident()] = n
}

// Get returns the direct child with the given identifier, nil when absent.
func (c *UniformContainer) Get(name string) UniformNode {
	return c.byName[name]
}

// SetValue routes a value to the named child. Unknown names are a no-op so
// one value map can serve programs with different active uniform sets.
func (c *UniformContainer) SetValue(ctx Context, name string, v any, units *TextureUnits) error {
	node := c.byName[name]
	if node == nil {
		return nil
	}
	return node.SetValue(ctx, v, units)
}

// SetOptional uploads values[name] if the key is present.
func (c *UniformContainer) SetOptional(ctx Context, values map[string]any, name string, units *TextureUnits) error {
	v, ok := values[name]
	if !ok {
		return nil
	}
	return c.SetValue(ctx, name, v, units)
}

// NewUniformContainer enumerates a linked program's active uniforms and
// builds the binding tree. Build once per program; CompiledProgram memoizes
// the result. Distinct programs never share nodes, their slot addresses
// differ even for identical names.
func NewUniformContainer(ctx Context, p ProgramHandle) *UniformContainer {
	root := &UniformContainer{}
	for _, info := range ctx.ActiveUniforms(p) {
		addUniform(root, info)
	}
	return root
}

func addUniform(root *UniformContainer, info ActiveUniform) {
	path, err := parseUniformPath(info.Name)
	if err != nil {
		logger.Log.Warn("Skipping unparsable uniform name",
			zap.String("name", info.Name), zap.Error(err))
		return
	}
	container := root
	for _, seg := range path {
		switch seg.Kind {
		case segStruct:
			if existing, ok := container.byName[seg.Ident].(*StructuredUniform); ok {
				container = &existing.UniformContainer
				continue
			}
			child := &StructuredUniform{ident: seg.Ident}
			container.add(child)
			container = &child.UniformContainer
		case segLeaf:
			container.add(newSingleUniform(seg.Ident, info))
		case segArrayLeaf:
			container.add(newPureArrayUniform(seg.Ident, info))
		}
	}
}

// warnedTypes guards the one-time unsupported-type warning per type tag.
var warnedTypes = map[GLType]bool{}

func warnUnsupported(t GLType, name string) {
	if warnedTypes[t] {
		return
	}
	warnedTypes[t] = true
	logger.Log.Warn("No setter registered for uniform type",
		zap.Uint32("type", uint32(t)), zap.String("uniform", name))
}

// ---------------------------------------------------------------
//
//	Structured nodes
//
// ---------------------------------------------------------------

// StructuredUniform forwards the relevant key of a supplied value object to
// each child. Values are map[string]any for named members and []any for
// index members; a missing key skips that child only.
type StructuredUniform struct {
	ident string
	UniformContainer
}

func (s *StructuredUniform) Ident() string { return s.ident }

func (s *StructuredUniform) SetValue(ctx Context, v any, units *TextureUnits) error {
	for _, child := range s.Seq {
		cv, ok := lookupChild(v, child.Ident())
		if !ok {
			continue
		}
		if err := child.SetValue(ctx, cv, units); err != nil {
			return err
		}
	}
	return nil
}

func lookupChild(v any, ident string) (any, bool) {
	switch val := v.(type) {
	case map[string]any:
		cv, ok := val[ident]
		return cv, ok
	case []any:
		idx, err := strconv.Atoi(ident)
		if err != nil || idx < 0 || idx >= len(val) {
			return nil, false
		}
		return val[idx], true
	}
	return nil, false
}

// ---------------------------------------------------------------
//
//	Single-slot leaves
//
// ---------------------------------------------------------------

type singularSetter func(u *SingleUniform, ctx Context, v any, units *TextureUnits) error

// SingleUniform is a scalar, vector, matrix or sampler leaf. The slot
// address and cache size are fixed at construction for the program's
// lifetime.
type SingleUniform struct {
	ident    string
	location int32
	glType   GLType
	target   TextureTarget
	cacheF   []float32
	cacheI   []int32
	setter   singularSetter
}

func (u *SingleUniform) Ident() string { return u.ident }

// Location exposes the GPU slot address, mainly for tests and tooling.
func (u *SingleUniform) Location() int32 { return u.location }

func (u *SingleUniform) SetValue(ctx Context, v any, units *TextureUnits) error {
	if u.setter == nil {
		return nil
	}
	return u.setter(u, ctx, v, units)
}

func newSingleUniform(ident string, info ActiveUniform) *SingleUniform {
	u := &SingleUniform{
		ident:    ident,
		location: info.Location,
		glType:   info.Type,
		target:   samplerTarget(info.Type),
	}
	switch info.Type {
	case TypeFloat:
		u.cacheF = newFloatCache(1)
		u.setter = setSingleFloat
	case TypeVec2:
		u.cacheF = newFloatCache(2)
		u.setter = setSingleVec2
	case TypeVec3:
		u.cacheF = newFloatCache(3)
		u.setter = setSingleVec3
	case TypeVec4:
		u.cacheF = newFloatCache(4)
		u.setter = setSingleVec4
	case TypeMat2:
		u.cacheF = newFloatCache(4)
		u.setter = setSingleMat2
	case TypeMat3:
		u.cacheF = newFloatCache(9)
		u.setter = setSingleMat3
	case TypeMat4:
		u.cacheF = newFloatCache(16)
		u.setter = setSingleMat4
	case TypeInt, TypeBool:
		u.cacheI = newIntCache(1)
		u.setter = setSingleInt
	case TypeIVec2, TypeBVec2:
		u.cacheI = newIntCache(2)
		u.setter = setSingleIVec(2)
	case TypeIVec3, TypeBVec3:
		u.cacheI = newIntCache(3)
		u.setter = setSingleIVec(3)
	case TypeIVec4, TypeBVec4:
		u.cacheI = newIntCache(4)
		u.setter = setSingleIVec(4)
	case TypeUint:
		u.cacheI = newIntCache(1)
		u.setter = setSingleUint
	case TypeSampler2D, TypeSampler2DShadow, TypeSampler3D, TypeSamplerCube,
		TypeSamplerCubeShadow, TypeSampler2DArray, TypeSampler2DArrayShadow,
		TypeIntSampler2D, TypeUintSampler2D:
		u.cacheI = newIntCache(1)
		u.setter = setSingleSampler
	default:
		warnUnsupported(info.Type, info.Name)
	}
	return u
}

func setSingleFloat(u *SingleUniform, ctx Context, v any, _ *TextureUnits) error {
	f, ok := toFloat32(v)
	if !ok {
		return nil
	}
	if u.cacheF[0] == f {
		return nil
	}
	ctx.Uniform1f(u.location, f)
	u.cacheF[0] = f
	return nil
}

func setSingleVec(u *SingleUniform, ctx Context, v any, n int, upload func(int32, []float32)) error {
	s, ok := toFloats(v, n)
	if !ok {
		return nil
	}
	if floatsEqual(u.cacheF, s) {
		return nil
	}
	upload(u.location, s)
	copy(u.cacheF, s)
	return nil
}

func setSingleVec2(u *SingleUniform, ctx Context, v any, _ *TextureUnits) error {
	return setSingleVec(u, ctx, v, 2, ctx.Uniform2fv)
}

func setSingleVec3(u *SingleUniform, ctx Context, v any, _ *TextureUnits) error {
	return setSingleVec(u, ctx, v, 3, ctx.Uniform3fv)
}

func setSingleVec4(u *SingleUniform, ctx Context, v any, _ *TextureUnits) error {
	return setSingleVec(u, ctx, v, 4, ctx.Uniform4fv)
}

func setSingleMat(u *SingleUniform, ctx Context, v any, dim int, upload func(int32, []float32)) error {
	s, ok := toFloats(v, dim)
	if !ok {
		return nil
	}
	if floatsEqual(u.cacheF, s) {
		return nil
	}
	// Upload goes through the per-rank shared scratch so callers may pass
	// values backed by memory the driver must not retain.
	scratch := floatScratchBuf(dim)
	copy(scratch, s)
	upload(u.location, scratch)
	copy(u.cacheF, s)
	return nil
}

func setSingleMat2(u *SingleUniform, ctx Context, v any, _ *TextureUnits) error {
	return setSingleMat(u, ctx, v, 4, ctx.UniformMatrix2fv)
}

func setSingleMat3(u *SingleUniform, ctx Context, v any, _ *TextureUnits) error {
	return setSingleMat(u, ctx, v, 9, ctx.UniformMatrix3fv)
}

func setSingleMat4(u *SingleUniform, ctx Context, v any, _ *TextureUnits) error {
	return setSingleMat(u, ctx, v, 16, ctx.UniformMatrix4fv)
}

func setSingleInt(u *SingleUniform, ctx Context, v any, _ *TextureUnits) error {
	i, ok := toInt32(v)
	if !ok {
		return nil
	}
	if u.cacheI[0] == i {
		return nil
	}
	ctx.Uniform1i(u.location, i)
	u.cacheI[0] = i
	return nil
}

func setSingleIVec(n int) singularSetter {
	return func(u *SingleUniform, ctx Context, v any, _ *TextureUnits) error {
		s, ok := toInts(v, n)
		if !ok {
			return nil
		}
		if intsEqual(u.cacheI, s) {
			return nil
		}
		switch n {
		case 2:
			ctx.Uniform2iv(u.location, s)
		case 3:
			ctx.Uniform3iv(u.location, s)
		case 4:
			ctx.Uniform4iv(u.location, s)
		}
		copy(u.cacheI, s)
		return nil
	}
}

func setSingleUint(u *SingleUniform, ctx Context, v any, _ *TextureUnits) error {
	i, ok := toInt32(v)
	if !ok {
		return nil
	}
	if u.cacheI[0] == i {
		return nil
	}
	ctx.Uniform1ui(u.location, uint32(i))
	u.cacheI[0] = i
	return nil
}

// setSingleSampler leases a unit, uploads the unit binding only when it
// changed, and always rebinds the resource so the slot never samples stale
// state. A nil value binds the placeholder of the matching kind.
func setSingleSampler(u *SingleUniform, ctx Context, v any, units *TextureUnits) error {
	unit, err := units.Allocate()
	if err != nil {
		return err
	}
	if u.cacheI[0] != unit {
		ctx.Uniform1i(u.location, unit)
		u.cacheI[0] = unit
	}
	target := u.target
	var id uint32
	if tex, ok := v.(Texture); ok && tex != nil {
		id = tex.TextureID()
		if t := tex.Target(); t != 0 {
			target = t
		}
	} else {
		id = units.Placeholder(u.target)
	}
	ctx.BindTexture(unit, target, id)
	return nil
}

// ---------------------------------------------------------------
//
//	Whole-array leaves
//
// ---------------------------------------------------------------

type arraySetter func(u *PureArrayUniform, ctx Context, v any, units *TextureUnits) error

// PureArrayUniform is a leaf for a uniform declared as a fixed-size array of
// scalars, vectors, matrices or samplers. One leaf covers the whole declared
// array; the cache holds length × components elements and is never resized.
type PureArrayUniform struct {
	ident    string
	location int32
	glType   GLType
	size     int // declared array length
	comps    int // components per element
	target   TextureTarget
	cacheF   []float32
	cacheI   []int32
	setter   arraySetter
}

func (u *PureArrayUniform) Ident() string { return u.ident }

// Len returns the declared array length.
func (u *PureArrayUniform) Len() int { return u.size }

func (u *PureArrayUniform) SetValue(ctx Context, v any, units *TextureUnits) error {
	if u.setter == nil {
		return nil
	}
	return u.setter(u, ctx, v, units)
}

func newPureArrayUniform(ident string, info ActiveUniform) *PureArrayUniform {
	u := &PureArrayUniform{
		ident:    ident,
		location: info.Location,
		glType:   info.Type,
		size:     int(info.Size),
		target:   samplerTarget(info.Type),
	}
	switch info.Type {
	case TypeFloat:
		u.comps = 1
		u.setter = setArrayFloats(1, func(ctx Context) func(int32, []float32) { return ctx.Uniform1fv })
	case TypeVec2:
		u.comps = 2
		u.setter = setArrayFloats(2, func(ctx Context) func(int32, []float32) { return ctx.Uniform2fv })
	case TypeVec3:
		u.comps = 3
		u.setter = setArrayFloats(3, func(ctx Context) func(int32, []float32) { return ctx.Uniform3fv })
	case TypeVec4:
		u.comps = 4
		u.setter = setArrayFloats(4, func(ctx Context) func(int32, []float32) { return ctx.Uniform4fv })
	case TypeMat2:
		u.comps = 4
		u.setter = setArrayFloats(4, func(ctx Context) func(int32, []float32) { return ctx.UniformMatrix2fv })
	case TypeMat3:
		u.comps = 9
		u.setter = setArrayFloats(9, func(ctx Context) func(int32, []float32) { return ctx.UniformMatrix3fv })
	case TypeMat4:
		u.comps = 16
		u.setter = setArrayFloats(16, func(ctx Context) func(int32, []float32) { return ctx.UniformMatrix4fv })
	case TypeInt, TypeBool:
		u.comps = 1
		u.setter = setArrayInts(func(ctx Context) func(int32, []int32) { return ctx.Uniform1iv })
	case TypeIVec2, TypeBVec2:
		u.comps = 2
		u.setter = setArrayInts(func(ctx Context) func(int32, []int32) { return ctx.Uniform2iv })
	case TypeIVec3, TypeBVec3:
		u.comps = 3
		u.setter = setArrayInts(func(ctx Context) func(int32, []int32) { return ctx.Uniform3iv })
	case TypeIVec4, TypeBVec4:
		u.comps = 4
		u.setter = setArrayInts(func(ctx Context) func(int32, []int32) { return ctx.Uniform4iv })
	case TypeSampler2D, TypeSampler2DShadow, TypeSampler3D, TypeSamplerCube,
		TypeSamplerCubeShadow, TypeSampler2DArray, TypeSampler2DArrayShadow:
		u.comps = 1
		u.setter = setArraySamplers
	default:
		warnUnsupported(info.Type, info.Name)
	}
	if u.setter != nil {
		switch info.Type {
		case TypeInt, TypeBool, TypeIVec2, TypeBVec2, TypeIVec3, TypeBVec3,
			TypeIVec4, TypeBVec4, TypeSampler2D, TypeSampler2DShadow, TypeSampler3D,
			TypeSamplerCube, TypeSamplerCubeShadow, TypeSampler2DArray, TypeSampler2DArrayShadow:
			u.cacheI = newIntCache(u.size * u.comps)
		default:
			u.cacheF = newFloatCache(u.size * u.comps)
		}
	}
	return u
}

func setArrayFloats(comps int, pick func(Context) func(int32, []float32)) arraySetter {
	return func(u *PureArrayUniform, ctx Context, v any, _ *TextureUnits) error {
		flat, ok := flattenFloats(v, u.size, comps)
		if !ok {
			return nil
		}
		if floatsEqual(u.cacheF, flat) {
			return nil
		}
		pick(ctx)(u.location, flat)
		copy(u.cacheF, flat)
		return nil
	}
}

func setArrayInts(pick func(Context) func(int32, []int32)) arraySetter {
	return func(u *PureArrayUniform, ctx Context, v any, _ *TextureUnits) error {
		s, ok := toInts(v, u.size*u.comps)
		if !ok {
			return nil
		}
		if intsEqual(u.cacheI, s) {
			return nil
		}
		pick(ctx)(u.location, s)
		copy(u.cacheI, s)
		return nil
	}
}

// setArraySamplers leases one unit per element in a single batch, diffs the
// whole unit-index array, then rebinds every element's resource.
func setArraySamplers(u *PureArrayUniform, ctx Context, v any, units *TextureUnits) error {
	leased, err := units.AllocateBlock(u.size)
	if err != nil {
		return err
	}
	if !intsEqual(u.cacheI, leased) {
		ctx.Uniform1iv(u.location, leased)
		copy(u.cacheI, leased)
	}
	for i := 0; i < u.size; i++ {
		target := u.target
		var id uint32
		if tex := textureAt(v, i); tex != nil {
			id = tex.TextureID()
			if t := tex.Target(); t != 0 {
				target = t
			}
		} else {
			id = units.Placeholder(u.target)
		}
		ctx.BindTexture(leased[i], target, id)
	}
	return nil
}

func textureAt(v any, i int) Texture {
	switch s := v.(type) {
	case []Texture:
		if i < len(s) {
			return s[i]
		}
	case []any:
		if i < len(s) {
			if tex, ok := s[i].(Texture); ok {
				return tex
			}
		}
	}
	return nil
}

// ---------------------------------------------------------------
//
//	Batch upload
//
// ---------------------------------------------------------------

// Entry pairs a value with an optional dirty flag. A nil NeedsUpdate means
// "always upload"; pointing at false skips the entry for this batch.
type Entry struct {
	Value       any
	NeedsUpdate *bool
}

// Upload pushes every sequenced node whose entry is not explicitly clean.
// Run SeqWithValue first and memoize its result per value-map shape so
// per-frame uploads do not rescan for missing entries.
func Upload(ctx Context, seq []UniformNode, values map[string]*Entry, units *TextureUnits) error {
	for _, node := range seq {
		e := values[node.Ident()]
		if e == nil {
			continue
		}
		if e.NeedsUpdate != nil && !*e.NeedsUpdate {
			continue
		}
		if err := node.SetValue(ctx, e.Value, units); err != nil {
			return err
		}
	}
	return nil
}

// SeqWithValue filters a node sequence down to those with a corresponding
// entry in the value map.
func SeqWithValue(seq []UniformNode, values map[string]*Entry) []UniformNode {
	out := make([]UniformNode, 0, len(seq))
	for _, node := range seq {
		if _, ok := values[node.Ident()]; ok {
			out = append(out, node)
		}
	}
	return out
}

// ---------------------------------------------------------------
//
//	Value coercion, caches, scratch pools
//
// ---------------------------------------------------------------

// floatNever poisons fresh caches so a first upload of zero still happens.
const floatNever = float32(-1e30)

func newFloatCache(n int) []float32 {
	c := make([]float32, n)
	for i := range c {
		c[i] = floatNever
	}
	return c
}

// intNever poisons fresh integer caches; -1 would collide with legitimate
// first uploads of -1.
const intNever = int32(-1 << 31)

func newIntCache(n int) []int32 {
	c := make([]int32, n)
	for i := range c {
		c[i] = intNever
	}
	return c
}

func floatsEqual(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func intsEqual(a, b []int32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func toFloat32(v any) (float32, bool) {
	switch n := v.(type) {
	case float32:
		return n, true
	case float64:
		return float32(n), true
	case int:
		return float32(n), true
	case int32:
		return float32(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func toInt32(v any) (int32, bool) {
	switch n := v.(type) {
	case int32:
		return n, true
	case int:
		return int32(n), true
	case uint32:
		return int32(n), true
	case float32:
		return int32(n), true
	case float64:
		return int32(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// toFloats views a component-bearing value as an n-length float sequence.
// Accepted: []float32 of at least n elements, and the mgl32 vector/matrix
// whose component count is exactly n.
func toFloats(v any, n int) ([]float32, bool) {
	switch s := v.(type) {
	case []float32:
		if len(s) >= n {
			return s[:n], true
		}
	case mgl32.Vec2:
		if n == 2 {
			return s[:], true
		}
	case mgl32.Vec3:
		if n == 3 {
			return s[:], true
		}
	case mgl32.Vec4:
		if n == 4 {
			return s[:], true
		}
	case mgl32.Mat2:
		if n == 4 {
			return s[:], true
		}
	case mgl32.Mat3:
		if n == 9 {
			return s[:], true
		}
	case mgl32.Mat4:
		if n == 16 {
			return s[:], true
		}
	}
	return nil, false
}

func toInts(v any, n int) ([]int32, bool) {
	switch s := v.(type) {
	case []int32:
		if len(s) >= n {
			return s[:n], true
		}
	case []int:
		if len(s) < n {
			return nil, false
		}
		scratch := intScratchBuf(n)
		for i := 0; i < n; i++ {
			scratch[i] = int32(s[i])
		}
		return scratch, true
	case []bool:
		if len(s) < n {
			return nil, false
		}
		scratch := intScratchBuf(n)
		for i := 0; i < n; i++ {
			scratch[i] = 0
			if s[i] {
				scratch[i] = 1
			}
		}
		return scratch, true
	}
	return nil, false
}

// flattenFloats produces the count×comps flat form of an array value,
// copying element types into the shared scratch sized to the requirement.
// An already-flat []float32 is used directly.
func flattenFloats(v any, count, comps int) ([]float32, bool) {
	total := count * comps
	switch s := v.(type) {
	case []float32:
		if len(s) >= total {
			return s[:total], true
		}
	case []mgl32.Vec2:
		return flattenInto(total, comps, len(s), func(i int) []float32 { return s[i][:] })
	case []mgl32.Vec3:
		return flattenInto(total, comps, len(s), func(i int) []float32 { return s[i][:] })
	case []mgl32.Vec4:
		return flattenInto(total, comps, len(s), func(i int) []float32 { return s[i][:] })
	case []mgl32.Mat2:
		return flattenInto(total, comps, len(s), func(i int) []float32 { return s[i][:] })
	case []mgl32.Mat3:
		return flattenInto(total, comps, len(s), func(i int) []float32 { return s[i][:] })
	case []mgl32.Mat4:
		return flattenInto(total, comps, len(s), func(i int) []float32 { return s[i][:] })
	}
	return nil, false
}

func flattenInto(total, comps, n int, elem func(int) []float32) ([]float32, bool) {
	if n*comps < total {
		return nil, false
	}
	scratch := floatScratchBuf(total)
	for i := 0; i < total/comps; i++ {
		copy(scratch[i*comps:], elem(i))
	}
	return scratch, true
}

// Shared scratch buffers keyed by required size, reused across unrelated
// leaves and programs. Contents are invalid once the issuing call returns;
// single-threaded discipline keeps reuse safe.
var (
	floatScratchPool = map[int][]float32{}
	intScratchPool   = map[int][]int32{}
)

func floatScratchBuf(n int) []float32 {
	if b, ok := floatScratchPool[n]; ok {
		return b
	}
	b := make([]float32, n)
	floatScratchPool[n] = b
	return b
}

func intScratchBuf(n int) []int32 {
	if b, ok := intScratchPool[n]; ok {
		return b
	}
	b := make([]int32, n)
	intScratchPool[n] = b
	return b
}
