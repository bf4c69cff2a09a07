package loaders

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var spirvHeader = []byte{0x03, 0x02, 0x23, 0x07}

func TestValidateSPIRV(t *testing.T) {
	tests := []struct {
		name  string
		code  []byte
		valid bool
	}{
		{"magic only", spirvHeader, true},
		{"magic and words", append(append([]byte(nil), spirvHeader...), 1, 0, 0, 0), true},
		{"empty", nil, false},
		{"partial word", append(append([]byte(nil), spirvHeader...), 1, 2), false},
		{"wrong magic", []byte{0x07, 0x23, 0x02, 0x03}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSPIRV(tt.code)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, core.ErrInvalidShader)
			}
		})
	}
}

func TestShaderLoaderLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "PosColor.vert.spv")
	code := append(append([]byte(nil), spirvHeader...), 0, 0, 1, 0)
	require.NoError(t, os.WriteFile(path, code, 0o644))

	loader := &ShaderLoader{}
	res, err := loader.Load(path)
	require.NoError(t, err)
	assert.Equal(t, metadata.ResourceTypeShader, res.Type)
	assert.Equal(t, "PosColor.vert", res.Name)
	assert.Equal(t, path, res.FullPath)
	assert.Equal(t, uint64(8), res.DataSize)
	assert.Equal(t, code, res.Data)

	require.NoError(t, loader.Unload(res))
	assert.Nil(t, res.Data)
}

func TestShaderLoaderRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.spv")
	require.NoError(t, os.WriteFile(path, []byte("#version 450\n"), 0o644))

	_, err := (&ShaderLoader{}).Load(path)
	assert.ErrorIs(t, err, core.ErrInvalidShader)

	_, err = (&ShaderLoader{}).Load(filepath.Join(dir, "missing.spv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBinaryLoaderLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob.bin")
	require.NoError(t, os.WriteFile(path, []byte{9, 8, 7}, 0o644))

	res, err := (&BinaryLoader{}).Load(path)
	require.NoError(t, err)
	assert.Equal(t, metadata.ResourceTypeBinary, res.Type)
	assert.Equal(t, []byte{9, 8, 7}, res.Data)
}
