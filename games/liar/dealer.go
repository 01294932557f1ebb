package liar

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Dealer picks topics and shuffles role vectors.
type Dealer struct {
	intn func(n int) (int, error)
}

func NewDealer() *Dealer {
	return &Dealer{intn: cryptoIntn}
}

// cryptoIntn returns a uniform int in [0, n).
func cryptoIntn(n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("tried to get random int in [0, %d)", n)
	}

	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}

	return int(v.Int64()), nil
}

// Deal starts a round on a topic chosen uniformly at random.
func (d *Dealer) Deal(playerCount int, topics []Topic) (*Round, error) {
	if len(topics) == 0 {
		return nil, ErrInsufficientTopics
	}
	if err := checkPlayerCount(playerCount); err != nil {
		return nil, err
	}

	i, err := d.intn(len(topics))
	if err != nil {
		return nil, fmt.Errorf("pick topic: %w", err)
	}

	return d.DealTopic(playerCount, topics[i])
}

// DealTopic starts a round on a topic the facilitator picked explicitly.
func (d *Dealer) DealTopic(playerCount int, topic Topic) (*Round, error) {
	if err := checkPlayerCount(playerCount); err != nil {
		return nil, err
	}

	roles := rolesFor(playerCount)

	// Fisher-Yates
	for i := len(roles) - 1; i > 0; i-- {
		j, err := d.intn(i + 1)
		if err != nil {
			return nil, fmt.Errorf("shuffle roles: %w", err)
		}
		roles[i], roles[j] = roles[j], roles[i]
	}

	return NewRound(topic, roles)
}

// AssignRoles deals a round using crypto/rand.
func AssignRoles(playerCount int, topics []Topic) (*Round, error) {
	return NewDealer().Deal(playerCount, topics)
}

// AssignRolesForTopic deals a round on a fixed topic using crypto/rand.
func AssignRolesForTopic(playerCount int, topic Topic) (*Round, error) {
	return NewDealer().DealTopic(playerCount, topic)
}
