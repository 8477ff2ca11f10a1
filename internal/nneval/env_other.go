//go:build !windows

package nneval

import "os"

func setNativeEnv(key, value string) {
	_ = os.Setenv(key, value)
}
