package scenario

// ActionKind is the closed set of side effects a scene can apply when entered.
// Scene data stores the action as a free-form string; ParseAction maps it onto
// this set, and anything not listed is ActionUnrecognized.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionMarkTrialA
	ActionMarkTrialB
	ActionMarkTrialC
	ActionUnrecognized
)

const (
	ActionIDMarkTrialA = "mark_trialA"
	ActionIDMarkTrialB = "mark_trialB"
	ActionIDMarkTrialC = "mark_trialC"
)

// Flag names set by the trial actions.
const (
	FlagTrialA = "trialA_cleared"
	FlagTrialB = "trialB_cleared"
	FlagTrialC = "trialC_cleared"
)

// TrialFlags lists the trial flags in trial order (A, B, C).
var TrialFlags = [3]string{FlagTrialA, FlagTrialB, FlagTrialC}

func ParseAction(id string) ActionKind {
	switch id {
	case "":
		return ActionNone
	case ActionIDMarkTrialA:
		return ActionMarkTrialA
	case ActionIDMarkTrialB:
		return ActionMarkTrialB
	case ActionIDMarkTrialC:
		return ActionMarkTrialC
	default:
		return ActionUnrecognized
	}
}

// Flag returns the progress flag an action sets. ok is false for ActionNone
// and ActionUnrecognized, which have no effect.
func (k ActionKind) Flag() (name string, ok bool) {
	switch k {
	case ActionMarkTrialA:
		return FlagTrialA, true
	case ActionMarkTrialB:
		return FlagTrialB, true
	case ActionMarkTrialC:
		return FlagTrialC, true
	default:
		return "", false
	}
}

func (k ActionKind) String() string {
	switch k {
	case ActionNone:
		return "none"
	case ActionMarkTrialA:
		return ActionIDMarkTrialA
	case ActionMarkTrialB:
		return ActionIDMarkTrialB
	case ActionMarkTrialC:
		return ActionIDMarkTrialC
	default:
		return "unrecognized"
	}
}
