// Package feed replays scripted visit scenarios into the engine.
//
// Scenarios are TOML files of ordered steps. Each step may set the active
// title, record a visit, and attach neighbors, then pauses before the next
// step. Visit and neighbor lines use shell quoting so titles keep their
// spaces.
package feed

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/teranos/wander/errors"
	"github.com/teranos/wander/trail"
)

// Step is one compiled scenario beat. All lines were parsed and validated
// at load time, so playing a step cannot hit a syntax error.
type Step struct {
	// Active sets the active title before growth, when non-empty.
	Active string

	// Visits are the visit records this step appends.
	Visits []trail.Visit

	// Similar carries this step's neighbor attachments, keyed by ref.
	Similar trail.SimilarityMap

	// Delay is the pause after this step. Nil falls back to the scenario
	// default, then the feed config default. An explicit zero disables
	// the pause.
	Delay *time.Duration
}

// Scenario is a loaded, validated scenario ready to play.
type Scenario struct {
	Name        string
	Description string

	// DefaultDelay is the scenario-wide pause between steps without one
	// of their own. Nil defers to the feed config.
	DefaultDelay *time.Duration

	Steps []Step
}

// scenarioFile mirrors the TOML layout before compilation.
type scenarioFile struct {
	Name        string     `toml:"name"`
	Description string     `toml:"description"`
	DelayMS     *int       `toml:"delay_ms"`
	Steps       []stepFile `toml:"step"`
}

type stepFile struct {
	Active      string   `toml:"active"`
	Visit       string   `toml:"visit"`
	NeighborsOf string   `toml:"neighbors_of"`
	Neighbors   []string `toml:"neighbors"`
	DelayMS     *int     `toml:"delay_ms"`
}

// Parse decodes and compiles scenario TOML. Every visit and neighbor line
// is parsed and validated here so playback never sees malformed input.
func Parse(data []byte) (*Scenario, error) {
	var sf scenarioFile
	if err := toml.Unmarshal(data, &sf); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "scenario decode: %s", err)
	}
	if len(sf.Steps) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidRequest, "scenario has no steps")
	}

	sc := &Scenario{
		Name:         sf.Name,
		Description:  sf.Description,
		DefaultDelay: msToDuration(sf.DelayMS),
		Steps:        make([]Step, 0, len(sf.Steps)),
	}

	for i, raw := range sf.Steps {
		step, err := compileStep(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "step %d", i+1)
		}
		sc.Steps = append(sc.Steps, step)
	}
	return sc, nil
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrNotFound, "scenario %s", path)
		}
		return nil, errors.Wrapf(err, "reading scenario %s", path)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "scenario %s", path)
	}
	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return sc, nil
}

// FindScenario resolves a play argument to a file path. Anything that looks
// like a path is used as-is; a bare name is looked up in the scenario
// directory with a .toml suffix.
func FindScenario(name, dir string) (string, error) {
	var path string
	if strings.ContainsRune(name, os.PathSeparator) || strings.HasSuffix(name, ".toml") {
		path = name
	} else {
		path = filepath.Join(dir, name+".toml")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", errors.Wrapf(errors.ErrNotFound, "scenario %q (looked at %s)", name, path)
		}
		return "", errors.Wrapf(err, "scenario %q", name)
	}
	return path, nil
}

func compileStep(raw stepFile) (Step, error) {
	step := Step{
		Active: raw.Active,
		Delay:  msToDuration(raw.DelayMS),
	}

	if raw.Visit != "" {
		visit, err := ParseVisitLine(raw.Visit)
		if err != nil {
			return Step{}, err
		}
		step.Visits = []trail.Visit{visit}
		if err := trail.ValidateVisits(step.Visits); err != nil {
			return Step{}, err
		}
	}

	if len(raw.Neighbors) > 0 {
		if raw.NeighborsOf == "" {
			return Step{}, errors.Wrap(errors.ErrInvalidRequest, "neighbors without neighbors_of")
		}
		neighbors := make([]trail.Neighbor, 0, len(raw.Neighbors))
		for _, line := range raw.Neighbors {
			n, err := ParseNeighborLine(line)
			if err != nil {
				return Step{}, err
			}
			neighbors = append(neighbors, n)
		}
		step.Similar = trail.SimilarityMap{raw.NeighborsOf: neighbors}
		if err := trail.ValidateSimilarityMap(step.Similar); err != nil {
			return Step{}, err
		}
	} else if raw.NeighborsOf != "" {
		return Step{}, errors.Wrap(errors.ErrInvalidRequest, "neighbors_of without neighbors")
	}

	if step.Active == "" && len(step.Visits) == 0 && len(step.Similar) == 0 {
		return Step{}, errors.Wrap(errors.ErrInvalidRequest, "step plays nothing")
	}
	return step, nil
}

func msToDuration(ms *int) *time.Duration {
	if ms == nil {
		return nil
	}
	d := time.Duration(*ms) * time.Millisecond
	return &d
}
