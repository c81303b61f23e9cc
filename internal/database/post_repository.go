// internal/database/post_repository.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"paw-grove/internal/models"
)

// PostDocument is the MongoDB schema for a post. Unlike the in-memory
// model it still carries the legacy isPinned/isGlobalPin booleans, so
// documents written before the pin-level migration load correctly.
type PostDocument struct {
	ID             string                `bson:"_id"`
	Title          string                `bson:"title"`
	Content        string                `bson:"content"`
	AuthorID       string                `bson:"authorid"`
	AuthorUsername string                `bson:"authorusername"`
	CategoryID     string                `bson:"categoryid"`
	SubcategoryID  string                `bson:"subcategoryid,omitempty"`
	CreatedAt      time.Time             `bson:"createdat"`
	Pawvotes       int                   `bson:"pawvotes"`
	Pawvoters      []string              `bson:"pawvoters,omitempty"`
	CommentCount   int                   `bson:"commentcount"`
	PinLevel       string                `bson:"pinlevel,omitempty"`
	IsPinned       bool                  `bson:"ispinned,omitempty"`     // legacy
	IsGlobalPin    bool                  `bson:"isglobalpin,omitempty"`  // legacy
	Reactions      []ReactionDocument    `bson:"reactions,omitempty"`
	SavedBy        []string              `bson:"savedby,omitempty"`
	IsEdited       bool                  `bson:"isedited"`
	EditHistory    []EditRecordDocument  `bson:"edithistory,omitempty"`
	Poll           *PollDocument         `bson:"poll,omitempty"`
}

type ReactionDocument struct {
	Emoji    string   `bson:"emoji"`
	Count    int      `bson:"count"`
	Reactors []string `bson:"reactors,omitempty"`
}

type EditRecordDocument struct {
	Title    string    `bson:"title"`
	Content  string    `bson:"content"`
	EditedAt time.Time `bson:"editedat"`
	EditedBy string    `bson:"editedby"`
}

type PollDocument struct {
	Question string              `bson:"question"`
	Options  []models.PollOption `bson:"options"`
	Voters   map[string]string   `bson:"voters,omitempty"`
	ClosesAt time.Time           `bson:"closesat,omitempty"`
}

// PostToDocument converts a Post model to its MongoDB document. New
// writes populate the legacy booleans from the variant so older readers
// keep working during the migration window.
func PostToDocument(post *models.Post) *PostDocument {
	doc := &PostDocument{
		ID:             post.ID.String(),
		Title:          post.Title,
		Content:        post.Content,
		AuthorID:       post.AuthorID.String(),
		AuthorUsername: post.AuthorUsername,
		CategoryID:     post.CategoryID,
		SubcategoryID:  post.SubcategoryID,
		CreatedAt:      post.CreatedAt,
		Pawvotes:       post.Pawvotes,
		Pawvoters:      idSetToStrings(post.Pawvoters),
		CommentCount:   post.CommentCount,
		PinLevel:       string(post.PinLevel),
		IsPinned:       post.PinLevel != models.PinNone,
		IsGlobalPin:    post.PinLevel == models.PinGlobal,
		SavedBy:        idSetToStrings(post.SavedBy),
		IsEdited:       post.IsEdited,
	}
	for _, r := range post.Reactions {
		doc.Reactions = append(doc.Reactions, ReactionDocument{
			Emoji:    r.Emoji,
			Count:    r.Count,
			Reactors: idSetToStrings(r.Reactors),
		})
	}
	for _, e := range post.EditHistory {
		doc.EditHistory = append(doc.EditHistory, EditRecordDocument{
			Title:    e.Title,
			Content:  e.Content,
			EditedAt: e.EditedAt,
			EditedBy: e.EditedBy.String(),
		})
	}
	if post.Poll != nil {
		voters := make(map[string]string, len(post.Poll.Voters))
		for id, opt := range post.Poll.Voters {
			voters[id.String()] = opt
		}
		doc.Poll = &PollDocument{
			Question: post.Poll.Question,
			Options:  post.Poll.Options,
			Voters:   voters,
			ClosesAt: post.Poll.ClosesAt,
		}
	}
	return doc
}

// DocumentToPost converts a stored document back to the model. Either
// legacy global signal is authoritative: pinlevel=="global" OR the
// isglobalpin boolean marks the post globally pinned. A legacy-pinned
// document without a level maps to a category pin.
func DocumentToPost(doc *PostDocument) (*models.Post, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid post ID: %v", err)
	}
	authorID, err := uuid.Parse(doc.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("invalid author ID: %v", err)
	}

	post := &models.Post{
		ID:             id,
		Title:          doc.Title,
		Content:        doc.Content,
		AuthorID:       authorID,
		AuthorUsername: doc.AuthorUsername,
		CategoryID:     doc.CategoryID,
		SubcategoryID:  doc.SubcategoryID,
		CreatedAt:      doc.CreatedAt,
		Pawvotes:       doc.Pawvotes,
		Pawvoters:      stringsToIDSet(doc.Pawvoters),
		CommentCount:   doc.CommentCount,
		PinLevel:       resolvePinLevel(doc),
		SavedBy:        stringsToIDSet(doc.SavedBy),
		IsEdited:       doc.IsEdited,
	}
	for _, r := range doc.Reactions {
		post.Reactions = append(post.Reactions, models.Reaction{
			Emoji:    r.Emoji,
			Count:    r.Count,
			Reactors: stringsToIDSet(r.Reactors),
		})
	}
	for _, e := range doc.EditHistory {
		editor, _ := uuid.Parse(e.EditedBy)
		post.EditHistory = append(post.EditHistory, models.EditRecord{
			Title:    e.Title,
			Content:  e.Content,
			EditedAt: e.EditedAt,
			EditedBy: editor,
		})
	}
	if doc.Poll != nil {
		voters := make(map[uuid.UUID]string, len(doc.Poll.Voters))
		for idStr, opt := range doc.Poll.Voters {
			if voterID, err := uuid.Parse(idStr); err == nil {
				voters[voterID] = opt
			}
		}
		post.Poll = &models.Poll{
			Question: doc.Poll.Question,
			Options:  doc.Poll.Options,
			Voters:   voters,
			ClosesAt: doc.Poll.ClosesAt,
		}
	}
	return post, nil
}

func resolvePinLevel(doc *PostDocument) models.PinLevel {
	if doc.PinLevel == string(models.PinGlobal) || doc.IsGlobalPin {
		return models.PinGlobal
	}
	switch models.PinLevel(doc.PinLevel) {
	case models.PinCategory, models.PinSubcategory:
		return models.PinLevel(doc.PinLevel)
	}
	if doc.IsPinned {
		// Legacy pinned without a level: treat as a category pin.
		return models.PinCategory
	}
	return models.PinNone
}

func idSetToStrings(set map[uuid.UUID]bool) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id.String())
	}
	return out
}

func stringsToIDSet(ids []string) map[uuid.UUID]bool {
	set := make(map[uuid.UUID]bool, len(ids))
	for _, s := range ids {
		if id, err := uuid.Parse(s); err == nil {
			set[id] = true
		}
	}
	return set
}

// SavePost writes the post, inserting or replacing by ID.
func (m *MongoDB) SavePost(ctx context.Context, post *models.Post) error {
	doc := PostToDocument(post)
	opts := options.Replace().SetUpsert(true)
	_, err := m.Posts.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts)
	return err
}

// DeletePost removes the document for the given post ID.
func (m *MongoDB) DeletePost(ctx context.Context, id uuid.UUID) error {
	_, err := m.Posts.DeleteOne(ctx, bson.M{"_id": id.String()})
	return err
}

// GetAllPosts loads every stored post in creation order, used to warm
// the in-memory store on startup.
func (m *MongoDB) GetAllPosts(ctx context.Context) ([]*models.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdat", Value: 1}})
	cursor, err := m.Posts.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var posts []*models.Post
	for cursor.Next(ctx) {
		var doc PostDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		post, err := DocumentToPost(&doc)
		if err != nil {
			// Skip unparseable legacy rows rather than failing the load.
			continue
		}
		posts = append(posts, post)
	}
	return posts, cursor.Err()
}

// DeletePostsByAuthor removes every post by the author, mirroring the
// in-memory block-author cascade.
func (m *MongoDB) DeletePostsByAuthor(ctx context.Context, authorID uuid.UUID) (int64, error) {
	res, err := m.Posts.DeleteMany(ctx, bson.M{"authorid": authorID.String()})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
