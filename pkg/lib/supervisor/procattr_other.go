//go:build !linux

package supervisor

import "syscall"

// sysProcAttr puts the server in its own process group. Pdeathsig is not
// available on non-Linux platforms.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setpgid: true,
	}
}
