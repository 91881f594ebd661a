//go:build !linux && !darwin && !windows

package main

// makeRaw reports no terminal support so shortcuts stay off
func makeRaw(fd int) (restore func(), ok bool) {
	return nil, false
}
