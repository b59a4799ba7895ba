package bootstrap

import (
	"strings"
	"testing"
)

func TestSelectDevMarkerChoosesDevServer(t *testing.T) {
	for _, env := range []string{"dev", "development", "DEV", " dev "} {
		plan := Select(Config{AppEnv: env, HTTPPort: 8000, WorkerCount: 4, LogLevel: "info"})
		if plan.Mode != ModeDev {
			t.Fatalf("AppEnv=%q: expected dev mode, got %s", env, plan.Mode)
		}
		if plan.Role() != RoleDev {
			t.Fatalf("AppEnv=%q: expected role %s, got %s", env, RoleDev, plan.Role())
		}
		if plan.Port != 8000 {
			t.Fatalf("AppEnv=%q: expected port 8000, got %d", env, plan.Port)
		}
	}
}

func TestSelectNonDevValuesChoosePreforkedServer(t *testing.T) {
	for _, env := range []string{"prod", "production", "staging", "", "qa", "garbage-value"} {
		plan := Select(Config{AppEnv: env, HTTPPort: 8000, WorkerCount: 4, LogLevel: "warning"})
		if plan.Mode != ModeProduction {
			t.Fatalf("AppEnv=%q: expected production mode, got %s", env, plan.Mode)
		}
		if plan.Role() != RoleMaster {
			t.Fatalf("AppEnv=%q: expected role %s, got %s", env, RoleMaster, plan.Role())
		}
	}
}

func TestSelectPassesWorkerCountAndLogLevelThrough(t *testing.T) {
	plan := Select(Config{AppEnv: "prod", HTTPPort: 8000, WorkerCount: 4, LogLevel: "warning"})
	if plan.Workers != 4 {
		t.Fatalf("expected 4 workers, got %d", plan.Workers)
	}
	if plan.LogLevel != "warning" {
		t.Fatalf("expected warning log level, got %q", plan.LogLevel)
	}
	if plan.Port != 8000 {
		t.Fatalf("expected port 8000, got %d", plan.Port)
	}
}

func TestSelectPortNeverInfluencesMode(t *testing.T) {
	for _, port := range []int{80, 8000, 8080, 65535} {
		dev := Select(Config{AppEnv: "dev", HTTPPort: port})
		if dev.Mode != ModeDev || dev.Port != port {
			t.Fatalf("port %d: dev plan changed: %+v", port, dev)
		}
		prod := Select(Config{AppEnv: "staging", HTTPPort: port, WorkerCount: 2})
		if prod.Mode != ModeProduction || prod.Port != port {
			t.Fatalf("port %d: production plan changed: %+v", port, prod)
		}
	}
}

func TestWithRoleKeepsExactlyOneRoleEntry(t *testing.T) {
	// An inherited APP_ROLE= entry must not survive: raw exec does not
	// deduplicate and Getenv reads the first occurrence.
	env := withRole([]string{"PATH=/usr/bin", RoleEnv + "=", RoleEnv + "=master", "HOME=/root"}, RoleWorker)

	roleEntries := 0
	for _, kv := range env {
		if strings.HasPrefix(kv, RoleEnv+"=") {
			roleEntries++
			if kv != RoleEnv+"="+RoleWorker {
				t.Fatalf("unexpected role entry %q", kv)
			}
		}
	}
	if roleEntries != 1 {
		t.Fatalf("expected exactly one role entry, got %d in %v", roleEntries, env)
	}
	if env[len(env)-1] != RoleEnv+"="+RoleWorker {
		t.Fatalf("role entry must be appended last, got %v", env)
	}
	for _, keep := range []string{"PATH=/usr/bin", "HOME=/root"} {
		found := false
		for _, kv := range env {
			if kv == keep {
				found = true
			}
		}
		if !found {
			t.Fatalf("entry %q dropped from environment %v", keep, env)
		}
	}
}

func TestSelectStagingTakesProductionPathWithItsParameters(t *testing.T) {
	plan := Select(Config{AppEnv: "staging", HTTPPort: 8000, WorkerCount: 2, LogLevel: "info"})
	if plan.Mode != ModeProduction {
		t.Fatalf("staging must use the production model, got %s", plan.Mode)
	}
	if plan.Workers != 2 {
		t.Fatalf("expected 2 workers, got %d", plan.Workers)
	}
}
