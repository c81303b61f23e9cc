package models

import (
	"time"

	"github.com/google/uuid"
)

// PinLevel is the single authoritative pin representation. The legacy
// isPinned/isGlobalPin boolean pair only survives at the document layer,
// where it is folded into this variant on load.
type PinLevel string

const (
	PinNone        PinLevel = ""
	PinGlobal      PinLevel = "global"
	PinCategory    PinLevel = "category"
	PinSubcategory PinLevel = "subcategory"
)

// Reaction is one emoji tally on a post. Emoji is unique within a post;
// an entry whose count drops to zero is removed rather than kept around.
type Reaction struct {
	Emoji    string             `json:"emoji"`
	Count    int                `json:"count"`
	Reactors map[uuid.UUID]bool `json:"-"` // users currently holding this reaction
}

// HasReacted reports whether the given user currently holds this reaction.
func (r *Reaction) HasReacted(userID uuid.UUID) bool {
	return r.Reactors[userID]
}

// EditRecord captures the state of a post immediately before an edit.
// The history is append-only and never truncated.
type EditRecord struct {
	Title    string    `json:"title"`
	Content  string    `json:"content"`
	EditedAt time.Time `json:"editedAt"`
	EditedBy uuid.UUID `json:"editedBy"`
}

type Post struct {
	ID             uuid.UUID          `json:"id"`
	Title          string             `json:"title"`
	Content        string             `json:"content"`
	AuthorID       uuid.UUID          `json:"authorId"`
	AuthorUsername string             `json:"authorUsername"`
	CategoryID     string             `json:"categoryId"`
	SubcategoryID  string             `json:"subcategoryId,omitempty"` // empty for category-level posts
	CreatedAt      time.Time          `json:"createdAt"`
	Pawvotes       int                `json:"pawvotes"`
	Pawvoters      map[uuid.UUID]bool `json:"-"` // users currently holding a pawvote
	CommentCount   int                `json:"commentCount"`
	PinLevel       PinLevel           `json:"pinLevel,omitempty"`
	Reactions      []Reaction         `json:"reactions"`
	SavedBy        map[uuid.UUID]bool `json:"-"`
	IsEdited       bool               `json:"isEdited"`
	EditHistory    []EditRecord       `json:"editHistory,omitempty"`
	Poll           *Poll              `json:"poll,omitempty"`
}

// HasPawvoted reports whether the given user currently holds a pawvote on
// this post.
func (p *Post) HasPawvoted(userID uuid.UUID) bool {
	return p.Pawvoters[userID]
}

// IsSavedBy reports whether the given user has saved this post.
func (p *Post) IsSavedBy(userID uuid.UUID) bool {
	return p.SavedBy[userID]
}

// Clone returns a deep copy of the post. The owning actor hands clones to
// background persistence so later mutations never touch shared maps.
func (p *Post) Clone() *Post {
	clone := *p

	if p.Pawvoters != nil {
		clone.Pawvoters = make(map[uuid.UUID]bool, len(p.Pawvoters))
		for id, v := range p.Pawvoters {
			clone.Pawvoters[id] = v
		}
	}
	if p.SavedBy != nil {
		clone.SavedBy = make(map[uuid.UUID]bool, len(p.SavedBy))
		for id, v := range p.SavedBy {
			clone.SavedBy[id] = v
		}
	}
	if p.Reactions != nil {
		clone.Reactions = make([]Reaction, len(p.Reactions))
		for i, r := range p.Reactions {
			cr := r
			if r.Reactors != nil {
				cr.Reactors = make(map[uuid.UUID]bool, len(r.Reactors))
				for id, v := range r.Reactors {
					cr.Reactors[id] = v
				}
			}
			clone.Reactions[i] = cr
		}
	}
	if p.EditHistory != nil {
		clone.EditHistory = append([]EditRecord(nil), p.EditHistory...)
	}
	if p.Poll != nil {
		cp := *p.Poll
		cp.Options = append([]PollOption(nil), p.Poll.Options...)
		if p.Poll.Voters != nil {
			cp.Voters = make(map[uuid.UUID]string, len(p.Poll.Voters))
			for id, opt := range p.Poll.Voters {
				cp.Voters[id] = opt
			}
		}
		clone.Poll = &cp
	}
	return &clone
}
