//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	shaderDir = "shaders"
	binary    = "bin/vkframe"
)

type Build mg.Namespace

// Compiles every GLSL stage under shaders/ to SPIR-V with glslc.
func (Build) Shaders() error {
	return buildShaders()
}

// Compiles the shaders and then builds the binary.
func (Build) Engine() error {
	mg.Deps(Build.Shaders)
	return sh.RunV("go", "build", "-o", binary, ".")
}

// Runs the test suite.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Removes compiled shaders and the binary.
func Clean() error {
	blobs, err := filepath.Glob(filepath.Join(shaderDir, "*.spv"))
	if err != nil {
		return err
	}
	for _, path := range append(blobs, binary) {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func buildShaders() error {
	var sources []string
	for _, ext := range []string{"*.vert", "*.frag"} {
		matches, err := filepath.Glob(filepath.Join(shaderDir, ext))
		if err != nil {
			return err
		}
		sources = append(sources, matches...)
	}
	if len(sources) == 0 {
		return fmt.Errorf("no shader sources in %s", shaderDir)
	}
	for _, src := range sources {
		if err := sh.RunV("glslc", src, "-o", src+".spv"); err != nil {
			return err
		}
	}
	return nil
}
