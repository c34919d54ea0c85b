package state

import "github.com/jwebster45206/scene-engine/pkg/scenario"

// ProgressFlags tracks which trials have been cleared. The zero value has every flag false.
type ProgressFlags struct {
	TrialA bool `json:"trialA_cleared"`
	TrialB bool `json:"trialB_cleared"`
	TrialC bool `json:"trialC_cleared"`
}

// Set assigns a flag by name. Unknown names are ignored so scenario data may
// reference flags this engine does not define yet.
func (f *ProgressFlags) Set(name string, value bool) {
	if p := f.field(name); p != nil {
		*p = value
	}
}

// Get returns a flag by name; unknown names read as false.
func (f *ProgressFlags) Get(name string) bool {
	if p := f.field(name); p != nil {
		return *p
	}
	return false
}

// AllCleared reports whether all three trials are cleared.
func (f *ProgressFlags) AllCleared() bool {
	return f.TrialA && f.TrialB && f.TrialC
}

// Reset clears every flag.
func (f *ProgressFlags) Reset() {
	*f = ProgressFlags{}
}

func (f *ProgressFlags) field(name string) *bool {
	switch name {
	case scenario.FlagTrialA:
		return &f.TrialA
	case scenario.FlagTrialB:
		return &f.TrialB
	case scenario.FlagTrialC:
		return &f.TrialC
	default:
		return nil
	}
}
