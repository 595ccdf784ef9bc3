package supervisor

import "syscall"

// sysProcAttr puts the server in its own process group so Stop can signal it
// together with anything it forks. Pdeathsig makes the kernel send SIGTERM to
// the server if this process dies without running Stop.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGTERM,
	}
}
