//go:build unix

package bootstrap

import "syscall"

// execProcess swaps the current process image for the given binary.
// It does not return on success.
func execProcess(binary string, argv, env []string) error {
	return syscall.Exec(binary, argv, env)
}
