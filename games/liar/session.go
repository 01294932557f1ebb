/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package liar

import (
	"fmt"
)

// Snapshot is everything the table screen may show right now. It carries at most
// one player's role: the current player's, once they have revealed it. The full
// role list appears only in Result, after the vote.
type Snapshot struct {
	Phase         Phase       `json:"phase"`
	PlayerCount   int         `json:"player_count,omitempty"`
	CurrentPlayer int         `json:"current_player,omitempty"`
	Revealed      bool        `json:"revealed"`
	Reveal        *RevealView `json:"reveal,omitempty"`
	Result        *Result     `json:"result,omitempty"`
}

// Session owns at most one round for one facilitator. A nil round means no roles
// have been dealt yet.
type Session struct {
	dealer *Dealer
	round  *Round
}

func NewSession(dealer *Dealer) *Session {
	if dealer == nil {
		dealer = NewDealer()
	}
	return &Session{dealer: dealer}
}

func (s *Session) Phase() Phase {
	if s.round == nil {
		return PhaseNotStarted
	}
	return s.round.Phase()
}

// Assign deals a new round on a random topic, replacing any previous round.
// On error the previous round is left untouched.
func (s *Session) Assign(playerCount int, topics []Topic) error {
	round, err := s.dealer.Deal(playerCount, topics)
	if err != nil {
		return err
	}
	s.round = round
	return nil
}

// AssignTopic deals a new round on an explicitly chosen topic.
func (s *Session) AssignTopic(playerCount int, topic Topic) error {
	round, err := s.dealer.DealTopic(playerCount, topic)
	if err != nil {
		return err
	}
	s.round = round
	return nil
}

func (s *Session) active(op string) (*Round, error) {
	if s.round == nil {
		return nil, fmt.Errorf("%s during %s: %w", op, PhaseNotStarted, ErrInvalidPhase)
	}
	return s.round, nil
}

func (s *Session) Reveal() (RevealView, error) {
	r, err := s.active(string(actionReveal))
	if err != nil {
		return RevealView{}, err
	}
	return r.Reveal()
}

func (s *Session) IsRevealed() bool {
	return s.round != nil && s.round.Revealed()
}

// Current returns the current player's view if they have already revealed it.
func (s *Session) Current() (RevealView, bool) {
	if s.round == nil {
		return RevealView{}, false
	}
	return s.round.Current()
}

func (s *Session) Advance() error {
	r, err := s.active(string(actionAdvance))
	if err != nil {
		return err
	}
	return r.Advance()
}

// Vote resolves the round against the accused seat.
func (s *Session) Vote(accused int) (Outcome, error) {
	r, err := s.active(string(actionResolve))
	if err != nil {
		return OutcomeNone, err
	}
	return r.Resolve(accused)
}

func (s *Session) Outcome() (Outcome, bool) {
	if s.round == nil {
		return OutcomeNone, false
	}
	return s.round.Outcome()
}

func (s *Session) Result() (Result, error) {
	r, err := s.active("result")
	if err != nil {
		return Result{}, err
	}
	return r.Result()
}

// Restart discards the current round unconditionally.
func (s *Session) Restart() {
	s.round = nil
}

func (s *Session) Snapshot() Snapshot {
	if s.round == nil {
		return Snapshot{Phase: PhaseNotStarted}
	}

	snap := Snapshot{
		Phase:       s.round.Phase(),
		PlayerCount: s.round.PlayerCount(),
	}

	switch snap.Phase {
	case PhaseRoleCheck:
		snap.CurrentPlayer = s.round.CurrentPlayer()
		if v, ok := s.round.Current(); ok {
			snap.Revealed = true
			snap.Reveal = &v
		}
	case PhaseResolved:
		if res, err := s.round.Result(); err == nil {
			snap.Result = &res
		}
	}

	return snap
}
