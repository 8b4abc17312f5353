package cache

import (
	"fmt"
	"os"
	"syscall"
)

type flockGuard struct{ f *os.File }

func acquire(path string) (*flockGuard, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("lock busy: %w", err)
	}
	return &flockGuard{f: f}, nil
}

func (g *flockGuard) release() {
	if g == nil || g.f == nil {
		return
	}
	_ = syscall.Flock(int(g.f.Fd()), syscall.LOCK_UN)
	_ = g.f.Close()
}
