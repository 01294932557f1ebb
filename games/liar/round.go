/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package liar implements the round engine for the liar game: dealing secret
// roles, walking each seat through a private reveal, and resolving the final vote.
package liar

import (
	"fmt"
)

const (
	MinPlayers = 3
	MaxPlayers = 10
)

// RevealView is what the current player is allowed to see after pressing reveal.
// Question is empty for the liar.
type RevealView struct {
	Player      int    `json:"player"`
	Role        Role   `json:"role"`
	Question    string `json:"question,omitempty"`
	NumberRange string `json:"range"`
}

// Result describes a resolved round. Only available once the vote is in.
type Result struct {
	Outcome     Outcome `json:"outcome"`
	Accused     int     `json:"accused"`
	AccusedRole Role    `json:"accused_role"`
	Roles       []Role  `json:"roles"`
	Topic       Topic   `json:"topic"`
}

// Round holds the state of a single dealt round. The role vector is never handed
// out while players are still checking their roles or voting.
type Round struct {
	topic    Topic
	roles    []Role
	current  int
	revealed map[int]bool
	phase    Phase
	outcome  Outcome
	accused  int
}

// NewRound starts a round from an already shuffled role vector.
func NewRound(topic Topic, roles []Role) (*Round, error) {
	if err := checkPlayerCount(len(roles)); err != nil {
		return nil, err
	}
	if err := checkRoles(roles); err != nil {
		return nil, err
	}

	r := &Round{
		topic:    topic,
		roles:    append([]Role(nil), roles...),
		current:  1,
		revealed: make(map[int]bool),
		phase:    PhaseNotStarted,
	}
	if err := r.setPhase(PhaseRoleCheck); err != nil {
		return nil, err
	}

	return r, nil
}

func checkPlayerCount(n int) error {
	if n < MinPlayers || n > MaxPlayers {
		return fmt.Errorf("%d players: %w", n, ErrInvalidPlayerCount)
	}
	return nil
}

func checkRoles(roles []Role) error {
	counts := make(map[Role]int, 3)
	for _, role := range roles {
		counts[role]++
	}

	wantTroll := 0
	if len(roles) > 3 {
		wantTroll = 1
	}

	if counts[RoleLiar] != 1 || counts[RoleTroll] != wantTroll ||
		counts[RoleCitizen] != len(roles)-1-wantTroll {
		return fmt.Errorf("invalid role vector %v for %d players", roles, len(roles))
	}
	return nil
}

func (r *Round) check(a action) error {
	if want := requiredPhase[a]; r.phase != want {
		return fmt.Errorf("%s during %s: %w", a, r.phase, ErrInvalidPhase)
	}
	return nil
}

func (r *Round) setPhase(next Phase) error {
	if !r.phase.CanTransitionTo(next) {
		return fmt.Errorf("%s -> %s: %w", r.phase, next, ErrInvalidPhase)
	}
	r.phase = next
	return nil
}

func (r *Round) Phase() Phase {
	return r.phase
}

func (r *Round) PlayerCount() int {
	return len(r.roles)
}

// CurrentPlayer returns the 1-indexed seat whose turn it is to check their role.
func (r *Round) CurrentPlayer() int {
	return r.current
}

// Revealed reports whether the current player has already pressed reveal.
func (r *Round) Revealed() bool {
	return r.phase == PhaseRoleCheck && r.revealed[r.current]
}

func (r *Round) view(player int) RevealView {
	role := r.roles[player-1]

	v := RevealView{
		Player:      player,
		Role:        role,
		NumberRange: r.topic.NumberRange,
	}
	if role.SeesQuestion() {
		v.Question = r.topic.Question
	}
	return v
}

// Reveal marks the current player as having seen their role and returns their
// view. Calling it again for the same player returns the same view.
func (r *Round) Reveal() (RevealView, error) {
	if err := r.check(actionReveal); err != nil {
		return RevealView{}, err
	}

	r.revealed[r.current] = true

	return r.view(r.current), nil
}

// Current returns the current player's view if they have revealed it.
func (r *Round) Current() (RevealView, bool) {
	if !r.Revealed() {
		return RevealView{}, false
	}
	return r.view(r.current), true
}

// Advance hands the device to the next player, or opens the vote after the last one.
func (r *Round) Advance() error {
	if err := r.check(actionAdvance); err != nil {
		return err
	}
	if !r.revealed[r.current] {
		return fmt.Errorf("player %d: %w", r.current, ErrAdvanceBeforeReveal)
	}

	if r.current == len(r.roles) {
		return r.setPhase(PhaseVoting)
	}

	r.current++
	delete(r.revealed, r.current)

	return nil
}

// Resolve settles the round against the accused seat.
func (r *Round) Resolve(accused int) (Outcome, error) {
	if err := r.check(actionResolve); err != nil {
		return OutcomeNone, err
	}
	if accused < 1 || accused > len(r.roles) {
		return OutcomeNone, fmt.Errorf("accused player %d of %d: %w", accused, len(r.roles), ErrOutOfRange)
	}

	outcome := outcomeFor[r.roles[accused-1]]
	if err := r.setPhase(PhaseResolved); err != nil {
		return OutcomeNone, err
	}
	r.outcome = outcome
	r.accused = accused

	return outcome, nil
}

// Outcome returns the result of the vote, if there has been one.
func (r *Round) Outcome() (Outcome, bool) {
	return r.outcome, r.phase == PhaseResolved
}

// Result exposes the full role vector and topic, but only after resolution.
func (r *Round) Result() (Result, error) {
	if r.phase != PhaseResolved {
		return Result{}, fmt.Errorf("result during %s: %w", r.phase, ErrInvalidPhase)
	}

	return Result{
		Outcome:     r.outcome,
		Accused:     r.accused,
		AccusedRole: r.roles[r.accused-1],
		Roles:       append([]Role(nil), r.roles...),
		Topic:       r.topic,
	}, nil
}
