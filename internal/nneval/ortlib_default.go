//go:build !darwin

package nneval

import (
	"fmt"
	"path/filepath"
)

func resolveORTSharedLibraryPath(libPath string) (string, error) {
	if libPath == "" {
		return "", fmt.Errorf("empty onnxruntime shared library path")
	}
	abs, err := filepath.Abs(libPath)
	if err != nil {
		return "", err
	}
	return abs, nil
}

func configureORTSearchPath(libDir string) {}
