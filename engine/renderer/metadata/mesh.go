package metadata

import (
	"encoding/binary"
	"fmt"
	m "math"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkframe/engine/math"
)

// VertexAttribute describes one shader input inside an interleaved vertex.
type VertexAttribute struct {
	Location uint32
	Offset   uint32
	Format   vk.Format
}

// VertexLayout is the attribute layout of a single interleaved vertex binding.
type VertexLayout struct {
	Stride     uint32
	Attributes []VertexAttribute
	Topology   vk.PrimitiveTopology
}

/** @brief A single vertex holding a position and a colour. */
type PosColVertex struct {
	Position [3]float32
	Color    [3]float32
}

/** @brief A single vertex holding only a position. */
type PosVertex struct {
	Position [3]float32
}

// PosColLayout matches PosColVertex: two vec3 attributes, 24 byte stride.
var PosColLayout = VertexLayout{
	Stride: 24,
	Attributes: []VertexAttribute{
		{Location: 0, Offset: 0, Format: vk.FormatR32g32b32Sfloat},
		{Location: 1, Offset: 12, Format: vk.FormatR32g32b32Sfloat},
	},
	Topology: vk.PrimitiveTopologyTriangleList,
}

// PosLayout matches PosVertex.
var PosLayout = VertexLayout{
	Stride: 12,
	Attributes: []VertexAttribute{
		{Location: 0, Offset: 0, Format: vk.FormatR32g32b32Sfloat},
	},
	Topology: vk.PrimitiveTopologyTriangleList,
}

// Mesh is indexed geometry ready to be uploaded: vertices are already
// serialized according to Layout.
type Mesh struct {
	Name        string
	Layout      VertexLayout
	Vertices    []byte
	VertexCount uint32
	Indices     []uint32
}

func (ms *Mesh) IndexCount() uint32 {
	return uint32(len(ms.Indices))
}

// Validate checks that the vertex bytes match the layout and that every
// index points at an existing vertex.
func (ms *Mesh) Validate() error {
	if ms.Layout.Stride == 0 {
		return fmt.Errorf("mesh %q has a zero stride", ms.Name)
	}
	if uint32(len(ms.Vertices)) != ms.VertexCount*ms.Layout.Stride {
		return fmt.Errorf("mesh %q: %d vertex bytes for %d vertices of stride %d", ms.Name, len(ms.Vertices), ms.VertexCount, ms.Layout.Stride)
	}
	if len(ms.Indices) == 0 {
		return fmt.Errorf("mesh %q has no indices", ms.Name)
	}
	for i, idx := range ms.Indices {
		if idx >= ms.VertexCount {
			return fmt.Errorf("mesh %q: index %d at position %d is out of range", ms.Name, idx, i)
		}
	}
	return nil
}

// Pack lays vertices and indices out in one blob: vertices first, then the
// 32-bit indices starting at the next 4 byte boundary.
func (ms *Mesh) Pack() (data []byte, indexOffset uint64) {
	indexOffset = math.AlignUp(uint64(len(ms.Vertices)), 4)
	data = make([]byte, indexOffset+uint64(len(ms.Indices))*4)
	copy(data, ms.Vertices)
	for i, idx := range ms.Indices {
		binary.LittleEndian.PutUint32(data[indexOffset+uint64(i)*4:], idx)
	}
	return data, indexOffset
}

func NewPosColMesh(name string, vertices []PosColVertex, indices []uint32) *Mesh {
	buf := make([]byte, 0, len(vertices)*int(PosColLayout.Stride))
	for _, v := range vertices {
		buf = appendFloats(buf, v.Position[:]...)
		buf = appendFloats(buf, v.Color[:]...)
	}
	return &Mesh{
		Name:        name,
		Layout:      PosColLayout,
		Vertices:    buf,
		VertexCount: uint32(len(vertices)),
		Indices:     indices,
	}
}

func NewPosMesh(name string, vertices []PosVertex, indices []uint32) *Mesh {
	buf := make([]byte, 0, len(vertices)*int(PosLayout.Stride))
	for _, v := range vertices {
		buf = appendFloats(buf, v.Position[:]...)
	}
	return &Mesh{
		Name:        name,
		Layout:      PosLayout,
		Vertices:    buf,
		VertexCount: uint32(len(vertices)),
		Indices:     indices,
	}
}

func appendFloats(buf []byte, fs ...float32) []byte {
	for _, f := range fs {
		buf = binary.LittleEndian.AppendUint32(buf, m.Float32bits(f))
	}
	return buf
}
