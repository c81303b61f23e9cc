package models

import (
	"time"

	"github.com/google/uuid"
)

type PollOption struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Votes int    `json:"votes"`
}

// Poll is an embedded voting entity on a post. One vote per user; voting
// again on a different option moves the vote.
type Poll struct {
	Question string               `json:"question"`
	Options  []PollOption         `json:"options"`
	Voters   map[uuid.UUID]string `json:"-"` // userID -> option ID
	ClosesAt time.Time            `json:"closesAt"`
}

// Vote records a vote for the given option, moving any previous vote by
// the same user. Returns false if the poll is closed or the option is
// unknown.
func (p *Poll) Vote(userID uuid.UUID, optionID string) bool {
	if !p.ClosesAt.IsZero() && time.Now().After(p.ClosesAt) {
		return false
	}

	target := -1
	for i := range p.Options {
		if p.Options[i].ID == optionID {
			target = i
			break
		}
	}
	if target < 0 {
		return false
	}

	if p.Voters == nil {
		p.Voters = make(map[uuid.UUID]string)
	}

	if prev, voted := p.Voters[userID]; voted {
		if prev == optionID {
			return true
		}
		for i := range p.Options {
			if p.Options[i].ID == prev && p.Options[i].Votes > 0 {
				p.Options[i].Votes--
			}
		}
	}

	p.Options[target].Votes++
	p.Voters[userID] = optionID
	return true
}
