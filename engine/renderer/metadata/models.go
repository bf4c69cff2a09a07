package metadata

import "fmt"

var quadIndices = []uint32{
	0, 1, 2,
	0, 3, 1,
}

// QuadPosCol is a full screen quad with a colour per corner.
func QuadPosCol() *Mesh {
	return NewPosColMesh("quad", []PosColVertex{
		{Position: [3]float32{-1, -1, 0}, Color: [3]float32{1, 0, 0}},
		{Position: [3]float32{1, 1, 0}, Color: [3]float32{1, 1, 1}},
		{Position: [3]float32{-1, 1, 0}, Color: [3]float32{0, 0, 1}},
		{Position: [3]float32{1, -1, 0}, Color: [3]float32{0, 1, 0}},
	}, append([]uint32(nil), quadIndices...))
}

// QuadPos is the same quad without colours.
func QuadPos() *Mesh {
	return NewPosMesh("quad_pos", []PosVertex{
		{Position: [3]float32{-1, -1, 0}},
		{Position: [3]float32{1, 1, 0}},
		{Position: [3]float32{-1, 1, 0}},
		{Position: [3]float32{1, -1, 0}},
	}, append([]uint32(nil), quadIndices...))
}

func Triangle() *Mesh {
	return NewPosColMesh("triangle", []PosColVertex{
		{Position: [3]float32{0, -0.5, 0}, Color: [3]float32{1, 0, 0}},
		{Position: [3]float32{0.5, 0.5, 0}, Color: [3]float32{0, 1, 0}},
		{Position: [3]float32{-0.5, 0.5, 0}, Color: [3]float32{0, 0, 1}},
	}, []uint32{0, 1, 2})
}

// MeshNames lists the names accepted by MeshByName.
var MeshNames = []string{"quad", "quad_pos", "triangle"}

func MeshByName(name string) (*Mesh, error) {
	switch name {
	case "quad":
		return QuadPosCol(), nil
	case "quad_pos":
		return QuadPos(), nil
	case "triangle":
		return Triangle(), nil
	default:
		return nil, fmt.Errorf("unknown mesh %q", name)
	}
}
