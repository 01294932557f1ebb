/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package liar

import (
	"errors"
)

var (
	ErrInvalidPlayerCount  = errors.New("player count must be between 3 and 10")
	ErrInsufficientTopics  = errors.New("no topics available")
	ErrInvalidPhase        = errors.New("action not allowed in current phase")
	ErrAdvanceBeforeReveal = errors.New("current player has not revealed their role")
	ErrOutOfRange          = errors.New("player number out of range")
	ErrEmptyField          = errors.New("question and number range are both required")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrInvalidPlayerCount, "InvalidPlayerCount"},
	{ErrInsufficientTopics, "InsufficientTopics"},
	{ErrInvalidPhase, "InvalidPhase"},
	{ErrAdvanceBeforeReveal, "AdvanceBeforeReveal"},
	{ErrOutOfRange, "OutOfRange"},
	{ErrEmptyField, "EmptyField"},
}

// Kind names the rejection behind err, or "Internal" for anything else.
func Kind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "Internal"
}
