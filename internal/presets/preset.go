package presets

import (
	"errors"
	"regexp"
	"sort"
	"time"

	"github.com/2beens/intervaltimer/internal/timer"
)

var (
	ErrPresetNotFound = errors.New("preset not found")
	ErrPresetExists   = errors.New("preset already exists")
	ErrBuiltInPreset  = errors.New("built-in presets cannot be changed")
	ErrInvalidName    = errors.New("invalid preset name")
)

var validName = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// Preset is a named, reusable timer configuration.
type Preset struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Config      timer.Config `json:"config"`
	BuiltIn     bool         `json:"builtIn"`
	CreatedAt   time.Time    `json:"createdAt"`
}

func ValidName(name string) bool {
	return validName.MatchString(name)
}

var builtIns = map[string]Preset{
	"tabata": {
		Name:        "tabata",
		Description: "20s work, 10s rest, 8 rounds",
		Config:      timer.Config{WorkSeconds: 20, RestSeconds: 10, Rounds: 8, Sets: 1},
	},
	"emom": {
		Name:        "emom",
		Description: "every minute on the minute, 10 minutes",
		Config:      timer.Config{WorkSeconds: 50, RestSeconds: 10, Rounds: 10, Sets: 1},
	},
	"hiit": {
		Name:        "hiit",
		Description: "40s work, 20s rest, 8 rounds, 3 sets",
		Config:      timer.Config{WorkSeconds: 40, RestSeconds: 20, Rounds: 8, Sets: 3},
	},
	"sprint": {
		Name:        "sprint",
		Description: "30s sprints with 30s recovery, 6 rounds, 2 sets",
		Config:      timer.Config{WorkSeconds: 30, RestSeconds: 30, Rounds: 6, Sets: 2},
	},
}

// BuiltIn returns the built-in preset with the given name.
func BuiltIn(name string) (Preset, bool) {
	p, ok := builtIns[name]
	if ok {
		p.BuiltIn = true
	}
	return p, ok
}

// BuiltIns returns all built-in presets ordered by name.
func BuiltIns() []Preset {
	list := make([]Preset, 0, len(builtIns))
	for name := range builtIns {
		p, _ := BuiltIn(name)
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	return list
}
