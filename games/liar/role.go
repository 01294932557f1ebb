/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package liar

// Role is the secret part a player is dealt for a round.
type Role string

const (
	RoleCitizen Role = "citizen"
	RoleLiar    Role = "liar"
	RoleTroll   Role = "troll"
)

func (r Role) String() string {
	return string(r)
}

// SeesQuestion reports whether a player holding r is shown the round's question.
func (r Role) SeesQuestion() bool {
	return r != RoleLiar
}

// Outcome is the result of the final vote.
type Outcome string

const (
	OutcomeNone        Outcome = ""
	OutcomeCitizensWin Outcome = "citizens_win"
	OutcomeTrollWins   Outcome = "troll_wins"
	OutcomeLiarWins    Outcome = "liar_wins"
)

func (o Outcome) String() string {
	return string(o)
}

// outcomeFor maps the accused player's role to the round result.
var outcomeFor = map[Role]Outcome{
	RoleLiar:    OutcomeCitizensWin,
	RoleTroll:   OutcomeTrollWins,
	RoleCitizen: OutcomeLiarWins,
}

// rolesFor builds the unshuffled role vector for n seats.
func rolesFor(n int) []Role {
	roles := make([]Role, 0, n)
	roles = append(roles, RoleLiar)
	if n > 3 {
		roles = append(roles, RoleTroll)
	}
	for len(roles) < n {
		roles = append(roles, RoleCitizen)
	}
	return roles
}
