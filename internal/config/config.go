package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ayaat/courtroom-backend/internal/trial"
	"github.com/caarlos0/env/v11"
)

// Config is built from environment variables (optionally via a .env file
// loaded in main). The coordinator passcode replaces the hardcoded magic
// username this service's predecessor used.
type Config struct {
	Addr                string `env:"TRIAL_ADDR" envDefault:":8080"`
	CoordinatorPasscode string `env:"TRIAL_COORDINATOR_PASSCODE" envDefault:"courtmaster"`
	Roles               string `env:"TRIAL_ROLES" envDefault:"Guilty Jury:4,Not Guilty Jury:4,Neutral Jury:4"`
	Phases              string `env:"TRIAL_PHASES" envDefault:"Case Overview,Discussion,First Vote,Evidence Review,Final Vote"`
	SessionSeconds      int    `env:"TRIAL_SESSION_SECONDS" envDefault:"7200"`
	UploadDir           string `env:"TRIAL_UPLOAD_DIR" envDefault:"uploads"`
	PublicDir           string `env:"TRIAL_PUBLIC_DIR" envDefault:"public"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if _, err := cfg.RoleCounts(); err != nil {
		return nil, err
	}
	if _, err := cfg.PhaseList(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RoleCounts parses TRIAL_ROLES, e.g. "Guilty Jury:4,Not Guilty Jury:4".
func (c *Config) RoleCounts() ([]trial.RoleCount, error) {
	var counts []trial.RoleCount
	for _, entry := range strings.Split(c.Roles, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		label, countStr, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("role entry %q: want Label:count", entry)
		}
		count, err := strconv.Atoi(strings.TrimSpace(countStr))
		if err != nil || count < 1 {
			return nil, fmt.Errorf("role entry %q: bad count", entry)
		}
		counts = append(counts, trial.RoleCount{Role: trial.Role(strings.TrimSpace(label)), Count: count})
	}
	if len(counts) == 0 {
		return nil, fmt.Errorf("TRIAL_ROLES is empty")
	}
	return counts, nil
}

// PhaseList parses TRIAL_PHASES. Entries are phase names, optionally with a
// ":seconds" suffix for time-boxed phases, e.g. "Discussion:600".
func (c *Config) PhaseList() ([]trial.Phase, error) {
	var phases []trial.Phase
	for _, entry := range strings.Split(c.Phases, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, secStr, ok := strings.Cut(entry, ":")
		phase := trial.Phase{Name: strings.TrimSpace(name)}
		if ok {
			sec, err := strconv.Atoi(strings.TrimSpace(secStr))
			if err != nil || sec < 0 {
				return nil, fmt.Errorf("phase entry %q: bad duration", entry)
			}
			phase.DurationSec = sec
		}
		phases = append(phases, phase)
	}
	if len(phases) == 0 {
		return nil, fmt.Errorf("TRIAL_PHASES is empty")
	}
	return phases, nil
}

// StateFactory returns a constructor for fresh, fully-isolated trial states.
func (c *Config) StateFactory() (func() trial.State, error) {
	roles, err := c.RoleCounts()
	if err != nil {
		return nil, err
	}
	phases, err := c.PhaseList()
	if err != nil {
		return nil, err
	}
	rules := trial.Rules{
		Passcode:       c.CoordinatorPasscode,
		SessionSeconds: c.SessionSeconds,
	}
	return func() trial.State {
		return trial.NewState(roles, phases, rules)
	}, nil
}
