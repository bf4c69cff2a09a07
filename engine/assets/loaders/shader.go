package loaders

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
)

type ShaderLoader struct{}

// ValidateSPIRV checks the blob is whole 32-bit words starting with the
// SPIR-V magic number.
func ValidateSPIRV(code []byte) error {
	if len(code) < 4 || len(code)%4 != 0 {
		return fmt.Errorf("%w: %d bytes is not a whole number of words", core.ErrInvalidShader, len(code))
	}
	if magic := binary.LittleEndian.Uint32(code); magic != metadata.SPIRVMagic {
		return fmt.Errorf("%w: bad magic %#08x", core.ErrInvalidShader, magic)
	}
	return nil
}

func (sl *ShaderLoader) Load(path string) (*metadata.Resource, error) {
	// Read SPIR-V binary file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := ValidateSPIRV(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &metadata.Resource{
		Type:     metadata.ResourceTypeShader,
		Name:     strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		FullPath: path,
		DataSize: uint64(len(data)),
		Data:     data,
	}, nil
}

func (sl *ShaderLoader) Unload(res *metadata.Resource) error {
	res.Data = nil
	res.DataSize = 0
	return nil
}
