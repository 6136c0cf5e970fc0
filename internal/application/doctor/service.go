package doctor

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/doeshing/ergo/internal/domain"
	"github.com/doeshing/ergo/internal/ports"
)

// HistoryBackend reports where history is written.
type HistoryBackend interface {
	Path() string
	Degraded() bool
}

// Service runs environment diagnostics.
type Service struct {
	ConfigProvider ports.ConfigProvider
	Locator        ports.CommandLocator
	Resolver       ports.TierResolver
	History        HistoryBackend
	MockMode       bool
}

// Run executes checks and returns a report.
func (s *Service) Run(ctx context.Context) (domain.HealthReport, error) {
	var checks []domain.HealthCheck

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Config file", fmt.Sprintf("load failed: %v", err)))
		return domain.HealthReport{Checks: checks}, err
	}
	if s.ConfigProvider.Exists() {
		checks = append(checks, ok("Config file", s.ConfigProvider.Path()))
	} else {
		checks = append(checks, warn("Config file", fmt.Sprintf("%s not found, using defaults", s.ConfigProvider.Path())))
	}

	checks = append(checks, s.apiCheck(cfg))
	checks = append(checks, s.sandboxCheck(cfg))
	checks = append(checks, s.tierCheck())

	if s.History != nil {
		if s.History.Degraded() {
			checks = append(checks, warn("History", "sqlite unavailable, writing "+s.History.Path()))
		} else {
			checks = append(checks, ok("History", s.History.Path()))
		}
	}

	return domain.HealthReport{Checks: checks}, nil
}

func (s *Service) apiCheck(cfg domain.Config) domain.HealthCheck {
	if s.MockMode {
		return warn("API key", "mock generator enabled, the generation service is not used")
	}
	if cfg.HasAPIKey() {
		return ok("API key", "configured for "+cfg.GetModel())
	}
	return fail("API key", "missing; run 'ergo --set-api-key <key>' or export "+domain.EnvAPIKey)
}

func (s *Service) sandboxCheck(cfg domain.Config) domain.HealthCheck {
	binary := cfg.GetSandboxBinary()
	path, err := s.Locator.LookPath(binary)
	if err != nil {
		return fail("Sandbox runtime", fmt.Sprintf("%s not found on PATH; install it from https://deno.land", binary))
	}
	return ok("Sandbox runtime", path)
}

func (s *Service) tierCheck() domain.HealthCheck {
	tiers, err := s.Resolver.Tiers()
	if err != nil {
		return fail("Cache tiers", err.Error())
	}
	if len(tiers) == 0 {
		return fail("Cache tiers", domain.ErrNoHomeDirectory.Error())
	}
	var present []string
	for _, tier := range tiers {
		if info, err := os.Stat(tier); err == nil && info.IsDir() {
			present = append(present, tier)
		}
	}
	details := fmt.Sprintf("%d tier(s), write tier %s", len(tiers), tiers[0])
	if len(present) > 0 {
		details += "; existing: " + strings.Join(present, ", ")
	}
	return ok("Cache tiers", details)
}

func ok(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthOK, Details: details}
}

func warn(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthWarn, Details: details}
}

func fail(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthError, Details: details}
}
