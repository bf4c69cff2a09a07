package metadata

import (
	"encoding/binary"
	m "math"

	"github.com/spaghettifunk/vkframe/engine/math"
)

// TransMatsSize is the std140 size of TransMats: three mat4 at 16 byte alignment.
const TransMatsSize = 3 * 64

/** @brief Per-frame transform matrices consumed by the vertex shader. */
type TransMats struct {
	Model math.Mat4
	View  math.Mat4
	Proj  math.Mat4
}

// Bytes serializes the matrices in the std140 layout expected by the shader.
func (t TransMats) Bytes() []byte {
	buf := make([]byte, 0, TransMatsSize)
	for _, mt := range []math.Mat4{t.Model, t.View, t.Proj} {
		for _, f := range mt.Data {
			buf = binary.LittleEndian.AppendUint32(buf, m.Float32bits(f))
		}
	}
	return buf
}
