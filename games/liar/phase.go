package liar

// Phase is the current step of a round.
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhaseRoleCheck  Phase = "role_check"
	PhaseVoting     Phase = "voting"
	PhaseResolved   Phase = "resolved"
)

func (p Phase) String() string {
	return string(p)
}

// transitions lists every phase a round may move to from a given phase.
// Resolved is terminal; a new round starts from a fresh deal.
var transitions = map[Phase][]Phase{
	PhaseNotStarted: {PhaseRoleCheck},
	PhaseRoleCheck:  {PhaseVoting},
	PhaseVoting:     {PhaseResolved},
}

// CanTransitionTo reports whether moving from p to target is allowed.
func (p Phase) CanTransitionTo(target Phase) bool {
	for _, phase := range transitions[p] {
		if phase == target {
			return true
		}
	}
	return false
}

type action string

const (
	actionReveal  action = "reveal"
	actionAdvance action = "advance"
	actionResolve action = "resolve"
)

// requiredPhase is the only phase in which each action is accepted.
var requiredPhase = map[action]Phase{
	actionReveal:  PhaseRoleCheck,
	actionAdvance: PhaseRoleCheck,
	actionResolve: PhaseVoting,
}
