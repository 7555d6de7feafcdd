package shader

// GLType is a reflected uniform/attribute type tag. Values match the GL
// enumerants so a context backend can hand reflection results through
// untranslated.
type GLType uint32

const (
	TypeFloat GLType = 0x1406
	TypeVec2  GLType = 0x8B50
	TypeVec3  GLType = 0x8B51
	TypeVec4  GLType = 0x8B52

	TypeInt   GLType = 0x1404
	TypeIVec2 GLType = 0x8B53
	TypeIVec3 GLType = 0x8B54
	TypeIVec4 GLType = 0x8B55

	TypeUint  GLType = 0x1405
	TypeUVec2 GLType = 0x8DC6
	TypeUVec3 GLType = 0x8DC7
	TypeUVec4 GLType = 0x8DC8

	TypeBool  GLType = 0x8B56
	TypeBVec2 GLType = 0x8B57
	TypeBVec3 GLType = 0x8B58
	TypeBVec4 GLType = 0x8B59

	TypeMat2 GLType = 0x8B5A
	TypeMat3 GLType = 0x8B5B
	TypeMat4 GLType = 0x8B5C

	TypeSampler2D            GLType = 0x8B5E
	TypeSampler3D            GLType = 0x8B5F
	TypeSamplerCube          GLType = 0x8B60
	TypeSampler2DShadow      GLType = 0x8B62
	TypeSampler2DArray       GLType = 0x8DC1
	TypeSampler2DArrayShadow GLType = 0x8DC4
	TypeSamplerCubeShadow    GLType = 0x8DC5
	TypeIntSampler2D         GLType = 0x8DCA
	TypeUintSampler2D        GLType = 0x8DD2
)

// TextureTarget identifies the binding target a sampler uniform samples from.
// Values match the GL enumerants.
type TextureTarget uint32

const (
	Target2D      TextureTarget = 0x0DE1
	Target3D      TextureTarget = 0x806F
	TargetCube    TextureTarget = 0x8513
	Target2DArray TextureTarget = 0x8C1A
)

// samplerTarget maps a sampler type tag to the target its resource binds to.
// Returns 0 for non-sampler types.
func samplerTarget(t GLType) TextureTarget {
	switch t {
	case TypeSampler2D, TypeSampler2DShadow, TypeIntSampler2D, TypeUintSampler2D:
		return Target2D
	case TypeSampler3D:
		return Target3D
	case TypeSamplerCube, TypeSamplerCubeShadow:
		return TargetCube
	case TypeSampler2DArray, TypeSampler2DArrayShadow:
		return Target2DArray
	}
	return 0
}

// Stage selects a pipeline stage for compilation.
type Stage int

const (
	VertexStage Stage = iota
	FragmentStage
)

func (s Stage) String() string {
	if s == VertexStage {
		return "vertex"
	}
	return "fragment"
}

// ActiveUniform is one reflected uniform as reported by the context after a
// successful link.
type ActiveUniform struct {
	Name     string
	Type     GLType
	Size     int32 // declared array length, 1 for non-arrays
	Location int32 // upload slot, immutable for the program's lifetime
}

// ActiveAttribute is one reflected vertex attribute.
type ActiveAttribute struct {
	Name     string
	Type     GLType
	Location int32
}

// Texture is a GPU texture-like resource that can be bound to a unit.
type Texture interface {
	TextureID() uint32
	Target() TextureTarget
}
