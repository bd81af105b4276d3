//go:build windows

package emulator

import "os"

func terminate(p *os.Process) error {
	return p.Kill()
}
