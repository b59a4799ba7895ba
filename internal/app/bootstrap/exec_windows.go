//go:build !unix

package bootstrap

import (
	"errors"
	"os"
	"os/exec"
	"os/signal"
)

// execProcess approximates process replacement on platforms without exec:
// the role runs as a direct child, termination signals are forwarded
// transparently, and the parent exits with the child's exit code.
func execProcess(binary string, argv, env []string) error {
	cmd := exec.Command(binary, argv[1:]...)
	cmd.Env = env
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		for s := range sigCh {
			_ = cmd.Process.Signal(s)
		}
	}()

	err := cmd.Wait()
	signal.Stop(sigCh)

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.ExitCode())
	}
	if err != nil {
		return err
	}
	os.Exit(0)
	return nil
}
