package liar

import (
	"fmt"
	"strings"
)

// Topic is a question together with the number range every player answers within.
type Topic struct {
	Question    string `json:"question"`
	NumberRange string `json:"range"`
}

// NewTopic trims both fields and rejects the topic if either ends up empty.
func NewTopic(question, numberRange string) (Topic, error) {
	question = strings.TrimSpace(question)
	numberRange = strings.TrimSpace(numberRange)

	switch {
	case question == "":
		return Topic{}, fmt.Errorf("question: %w", ErrEmptyField)
	case numberRange == "":
		return Topic{}, fmt.Errorf("number range: %w", ErrEmptyField)
	}

	return Topic{Question: question, NumberRange: numberRange}, nil
}
