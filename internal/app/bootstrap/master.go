package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"
)

// workerListenerFD is the file descriptor under which workers inherit the
// shared listener (fd 3 is the first ExtraFiles slot).
const workerListenerFD = 3

// maxConsecutiveBootFailures aborts the master when workers keep dying right
// after start, instead of restart-looping a broken build forever.
const maxConsecutiveBootFailures = 3

// Master is the production process model: it binds the listen port exactly
// once, pre-forks the configured number of workers that inherit the listener,
// and supervises them. A crashed worker is replaced without touching its
// siblings; termination signals fan out to all workers.
type Master struct {
	cfg    Config
	logger *slog.Logger
}

func NewMaster(cfg Config, logger *slog.Logger) *Master {
	return &Master{cfg: cfg, logger: logger}
}

type workerExit struct {
	idx    int
	err    error
	uptime time.Duration
}

func (m *Master) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", m.cfg.HTTPPort))
	if err != nil {
		return fmt.Errorf("bind port %d: %w", m.cfg.HTTPPort, err)
	}
	defer ln.Close()

	tcpLn, ok := ln.(*net.TCPListener)
	if !ok {
		return fmt.Errorf("unexpected listener type %T", ln)
	}
	lnFile, err := tcpLn.File()
	if err != nil {
		return fmt.Errorf("dup listener fd: %w", err)
	}
	defer lnFile.Close()

	binary, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	procs := make([]*exec.Cmd, m.cfg.WorkerCount)
	exits := make(chan workerExit, m.cfg.WorkerCount)

	spawn := func(idx int) error {
		cmd := exec.Command(binary)
		cmd.Env = withRole(os.Environ(), RoleWorker)
		cmd.ExtraFiles = []*os.File{lnFile}
		cmd.Stdout = os.Stdout
		// Worker error output merges into stdout so the container emits a
		// single structured stream.
		cmd.Stderr = os.Stdout
		if err := cmd.Start(); err != nil {
			return fmt.Errorf("start worker %d: %w", idx, err)
		}
		procs[idx] = cmd
		started := time.Now()
		go func() {
			exits <- workerExit{idx: idx, err: cmd.Wait(), uptime: time.Since(started)}
		}()
		m.logger.Info("worker started",
			"module", "bootstrap.master",
			"worker", idx,
			"pid", cmd.Process.Pid,
		)
		return nil
	}

	for i := range procs {
		if err := spawn(i); err != nil {
			m.signalWorkers(procs, syscall.SIGTERM)
			return err
		}
	}
	m.logger.Info("master started",
		"module", "bootstrap.master",
		"port", m.cfg.HTTPPort,
		"workers", m.cfg.WorkerCount,
	)

	alive := m.cfg.WorkerCount
	bootFailures := 0
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("shutdown signal received, stopping workers",
				"module", "bootstrap.master",
			)
			m.signalWorkers(procs, syscall.SIGTERM)
			deadline := time.After(15 * time.Second)
			for alive > 0 {
				select {
				case <-exits:
					alive--
				case <-deadline:
					m.signalWorkers(procs, syscall.SIGKILL)
					return nil
				}
			}
			return nil

		case e := <-exits:
			alive--
			if e.err != nil {
				m.logger.Error("worker exited",
					"module", "bootstrap.master",
					"worker", e.idx,
					"uptime_ms", e.uptime.Milliseconds(),
					"error", e.err,
				)
			} else {
				m.logger.Warn("worker exited cleanly, replacing",
					"module", "bootstrap.master",
					"worker", e.idx,
				)
			}

			if e.uptime < time.Second && e.err != nil {
				bootFailures++
				if bootFailures >= maxConsecutiveBootFailures {
					m.signalWorkers(procs, syscall.SIGTERM)
					return fmt.Errorf("workers failing at boot: %w", e.err)
				}
			} else {
				bootFailures = 0
			}

			if err := spawn(e.idx); err != nil {
				m.signalWorkers(procs, syscall.SIGTERM)
				return err
			}
			alive++
		}
	}
}

func (m *Master) signalWorkers(procs []*exec.Cmd, sig os.Signal) {
	for _, cmd := range procs {
		if cmd == nil || cmd.Process == nil {
			continue
		}
		_ = cmd.Process.Signal(sig)
	}
}

// inheritedListener rebuilds the listener a worker received from the master.
func inheritedListener() (net.Listener, error) {
	f := os.NewFile(uintptr(workerListenerFD), "listener")
	if f == nil {
		return nil, fmt.Errorf("listener fd %d not inherited", workerListenerFD)
	}
	defer f.Close()
	ln, err := net.FileListener(f)
	if err != nil {
		return nil, fmt.Errorf("rebuild inherited listener: %w", err)
	}
	return ln, nil
}
