package bootstrap

import (
	"fmt"
	"os"
	"strings"
)

// Mode is the server process model the bootstrap launches.
type Mode string

const (
	// ModeDev is the single-process development server: directly bound,
	// verbose human-readable logging, no worker pool.
	ModeDev Mode = "dev"
	// ModeProduction is the pre-forked multi-worker server: one master
	// binds the port, workers share the listener, access logs are JSON.
	ModeProduction Mode = "production"
)

// Roles carried between the selector and the process it execs. The role
// travels in the environment so the replacement process can dispatch
// without re-deciding.
const (
	RoleEnv     = "APP_ROLE"
	RoleDev     = "dev"
	RoleMaster  = "master"
	RoleWorker  = "worker"
	RoleMigrate = "migrate"
)

// LaunchPlan is the immutable outcome of the bootstrap decision: exactly one
// mode, parameterized from configuration.
type LaunchPlan struct {
	Mode     Mode
	Port     int
	Workers  int
	LogLevel string
}

// Select chooses the server process model. The branch is binary: the
// development markers select the dev server, every other environment value
// (staging, production, unknown, empty) selects the pre-forked production
// server. The port never influences the decision.
func Select(cfg Config) LaunchPlan {
	plan := LaunchPlan{
		Mode:     ModeProduction,
		Port:     cfg.HTTPPort,
		Workers:  cfg.WorkerCount,
		LogLevel: cfg.LogLevel,
	}
	switch strings.ToLower(strings.TrimSpace(cfg.AppEnv)) {
	case "dev", "development":
		plan.Mode = ModeDev
	}
	return plan
}

// Role returns the process role that executes the plan.
func (p LaunchPlan) Role() string {
	if p.Mode == ModeDev {
		return RoleDev
	}
	return RoleMaster
}

// Exec replaces the current process with the selected server role. On unix
// this is a true exec: the server keeps the bootstrap's PID and receives
// container signals directly, so no supervisor shell sits between the
// orchestrator and the serving process. Exec only returns on failure.
func Exec(plan LaunchPlan) error {
	binary, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	env := withRole(os.Environ(), plan.Role())
	if err := execProcess(binary, os.Args, env); err != nil {
		return fmt.Errorf("exec %s: %w", plan.Role(), err)
	}
	return nil
}

// withRole builds an environment with exactly one role entry. Raw exec does
// not deduplicate variables and Getenv reads the first occurrence, so an
// inherited APP_ROLE= entry (even an empty one from a container env block)
// would shadow the appended role and send the exec'd process back into the
// selector.
func withRole(env []string, role string) []string {
	out := make([]string, 0, len(env)+1)
	for _, kv := range env {
		if strings.HasPrefix(kv, RoleEnv+"=") {
			continue
		}
		out = append(out, kv)
	}
	return append(out, RoleEnv+"="+role)
}
