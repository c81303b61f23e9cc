// internal/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"paw-grove/internal/models"
	"paw-grove/internal/utils"
)

// DBAdapter is the common interface over the persistence backends. The
// actors only ever talk to this; the concrete backend is picked from
// config at startup.
type DBAdapter interface {
	Close(ctx context.Context) error

	// User methods
	SaveUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// Post methods
	SavePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, id uuid.UUID) error
	DeletePostsByAuthor(ctx context.Context, authorID uuid.UUID) (int64, error)
	GetAllPosts(ctx context.Context) ([]*models.Post, error)
}

var (
	_ DBAdapter = (*MongoDB)(nil)
	_ DBAdapter = (*PostgresDB)(nil)
)

// PostgresDB is the relational backend. Structured subdocuments
// (reactions, edit history, polls) are stored as JSONB; membership
// sets (pawvoters, saved-by) as UUID arrays.
type PostgresDB struct {
	DB *sqlx.DB
}

// NewPostgresDB opens a connection pool and verifies it with a ping.
func NewPostgresDB(connectionString string) (*PostgresDB, error) {
	db, err := sqlx.Connect("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %v", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %v", err)
	}

	log.Println("Successfully connected to PostgreSQL")

	return &PostgresDB{DB: db}, nil
}

func (p *PostgresDB) Close(ctx context.Context) error {
	log.Println("Closing PostgreSQL connection...")
	return p.DB.Close()
}

// InitializeTables creates the schema if it does not exist yet.
func (p *PostgresDB) InitializeTables(ctx context.Context) error {
	_, err := p.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			username VARCHAR(50) UNIQUE NOT NULL,
			email VARCHAR(100) UNIQUE NOT NULL,
			password_hash VARCHAR(100) NOT NULL,
			role VARCHAR(20) DEFAULT 'member' NOT NULL,
			is_verified BOOLEAN DEFAULT FALSE NOT NULL,
			karma INTEGER DEFAULT 0,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			last_active TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			is_connected BOOLEAN DEFAULT FALSE NOT NULL,
			following UUID[] DEFAULT '{}'
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create users table: %v", err)
	}

	_, err = p.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS posts (
			id UUID PRIMARY KEY,
			title VARCHAR(300) NOT NULL,
			content TEXT,
			author_id UUID NOT NULL,
			author_username VARCHAR(50),
			category_id VARCHAR(50) NOT NULL,
			subcategory_id VARCHAR(50),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			pawvotes INTEGER DEFAULT 0,
			pawvoters UUID[] DEFAULT '{}',
			comment_count INTEGER DEFAULT 0,
			pin_level VARCHAR(20) DEFAULT '' NOT NULL,
			saved_by UUID[] DEFAULT '{}',
			is_edited BOOLEAN DEFAULT FALSE NOT NULL,
			reactions JSONB,
			edit_history JSONB,
			poll JSONB
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create posts table: %v", err)
	}

	_, err = p.DB.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_posts_category ON posts (category_id);
	`)
	if err != nil {
		return fmt.Errorf("failed to create posts index: %v", err)
	}

	return nil
}

// SaveUser inserts or updates the account row.
func (p *PostgresDB) SaveUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, role, is_verified, karma, created_at, last_active, is_connected, following)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			email = EXCLUDED.email,
			password_hash = EXCLUDED.password_hash,
			role = EXCLUDED.role,
			is_verified = EXCLUDED.is_verified,
			karma = EXCLUDED.karma,
			last_active = EXCLUDED.last_active,
			is_connected = EXCLUDED.is_connected,
			following = EXCLUDED.following
	`
	_, err := p.DB.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.HashedPassword,
		string(user.Role),
		user.IsVerified,
		user.Karma,
		user.CreatedAt,
		user.LastActive,
		user.IsConnected,
		uuidArray(user.Following),
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return utils.NewAppError(utils.ErrDuplicate, fmt.Sprintf("user already exists: %v", pqErr.Constraint), err)
		}
		return utils.NewAppError(utils.ErrDatabase, "failed to save user", err)
	}
	return nil
}

// GetUser fetches a user by ID; returns nil, nil when absent, matching
// the Mongo backend.
func (p *PostgresDB) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return p.getUserWhere(ctx, "id = $1", id)
}

// GetUserByEmail fetches a user by email; returns nil, nil when absent.
func (p *PostgresDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return p.getUserWhere(ctx, "email = $1", email)
}

func (p *PostgresDB) getUserWhere(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	query := `SELECT id, username, email, password_hash, role, is_verified, karma, created_at, last_active, is_connected, following FROM users WHERE ` + where
	row := p.DB.QueryRowxContext(ctx, query, arg)

	var (
		user      models.User
		role      string
		following pq.StringArray
	)
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.HashedPassword,
		&role, &user.IsVerified, &user.Karma, &user.CreatedAt, &user.LastActive,
		&user.IsConnected, &following)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query user", err)
	}
	user.Role = models.Role(role)
	for _, s := range following {
		if followed, parseErr := uuid.Parse(s); parseErr == nil {
			user.Following = append(user.Following, followed)
		}
	}
	return &user, nil
}

// SavePost upserts the full post row. Reactions, edit history and the
// poll are stored as JSONB using the same document shapes as the Mongo
// backend, so reactor and voter identity survives the round trip.
func (p *PostgresDB) SavePost(ctx context.Context, post *models.Post) error {
	doc := PostToDocument(post)

	reactions, err := json.Marshal(doc.Reactions)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to encode reactions", err)
	}
	history, err := json.Marshal(doc.EditHistory)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to encode edit history", err)
	}
	var poll []byte
	if doc.Poll != nil {
		if poll, err = json.Marshal(doc.Poll); err != nil {
			return utils.NewAppError(utils.ErrDatabase, "failed to encode poll", err)
		}
	}

	query := `
		INSERT INTO posts (id, title, content, author_id, author_username, category_id, subcategory_id,
			created_at, pawvotes, pawvoters, comment_count, pin_level, saved_by, is_edited, reactions, edit_history, poll)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			category_id = EXCLUDED.category_id,
			subcategory_id = EXCLUDED.subcategory_id,
			pawvotes = EXCLUDED.pawvotes,
			pawvoters = EXCLUDED.pawvoters,
			comment_count = EXCLUDED.comment_count,
			pin_level = EXCLUDED.pin_level,
			saved_by = EXCLUDED.saved_by,
			is_edited = EXCLUDED.is_edited,
			reactions = EXCLUDED.reactions,
			edit_history = EXCLUDED.edit_history,
			poll = EXCLUDED.poll
	`
	_, err = p.DB.ExecContext(ctx, query,
		post.ID,
		post.Title,
		post.Content,
		post.AuthorID,
		post.AuthorUsername,
		post.CategoryID,
		nullString(post.SubcategoryID),
		post.CreatedAt,
		post.Pawvotes,
		idSetArray(post.Pawvoters),
		post.CommentCount,
		string(post.PinLevel),
		idSetArray(post.SavedBy),
		post.IsEdited,
		reactions,
		history,
		nullBytes(poll),
	)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to save post", err)
	}
	return nil
}

// DeletePost removes the row for the given post ID.
func (p *PostgresDB) DeletePost(ctx context.Context, id uuid.UUID) error {
	_, err := p.DB.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to delete post", err)
	}
	return nil
}

// DeletePostsByAuthor removes every post by the author, mirroring the
// in-memory block-author cascade.
func (p *PostgresDB) DeletePostsByAuthor(ctx context.Context, authorID uuid.UUID) (int64, error) {
	res, err := p.DB.ExecContext(ctx, `DELETE FROM posts WHERE author_id = $1`, authorID)
	if err != nil {
		return 0, utils.NewAppError(utils.ErrDatabase, "failed to delete posts by author", err)
	}
	return res.RowsAffected()
}

// GetAllPosts loads every stored post in insertion order, used to warm
// the in-memory store on startup.
func (p *PostgresDB) GetAllPosts(ctx context.Context) ([]*models.Post, error) {
	query := `SELECT id, title, content, author_id, author_username, category_id, subcategory_id,
		created_at, pawvotes, pawvoters, comment_count, pin_level, saved_by, is_edited, reactions, edit_history, poll
		FROM posts ORDER BY created_at ASC`
	rows, err := p.DB.QueryxContext(ctx, query)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query posts", err)
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			// Skip unparseable legacy rows rather than failing the load.
			log.Printf("Skipping unparseable post row: %v", err)
			continue
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func scanPost(rows *sqlx.Rows) (*models.Post, error) {
	var (
		post        models.Post
		subcategory sql.NullString
		pawvoters   pq.StringArray
		savedBy     pq.StringArray
		pin         string
		reactions   []byte
		history     []byte
		poll        []byte
	)
	err := rows.Scan(&post.ID, &post.Title, &post.Content, &post.AuthorID,
		&post.AuthorUsername, &post.CategoryID, &subcategory, &post.CreatedAt,
		&post.Pawvotes, &pawvoters, &post.CommentCount, &pin, &savedBy,
		&post.IsEdited, &reactions, &history, &poll)
	if err != nil {
		return nil, err
	}

	post.SubcategoryID = subcategory.String
	post.PinLevel = models.PinLevel(pin)
	post.Pawvoters = stringArrayToIDSet(pawvoters)
	post.SavedBy = stringArrayToIDSet(savedBy)

	if len(reactions) > 0 {
		var docs []ReactionDocument
		if err := json.Unmarshal(reactions, &docs); err != nil {
			return nil, fmt.Errorf("invalid reactions: %v", err)
		}
		for _, r := range docs {
			post.Reactions = append(post.Reactions, models.Reaction{
				Emoji:    r.Emoji,
				Count:    r.Count,
				Reactors: stringsToIDSet(r.Reactors),
			})
		}
	}
	if len(history) > 0 {
		var docs []EditRecordDocument
		if err := json.Unmarshal(history, &docs); err != nil {
			return nil, fmt.Errorf("invalid edit history: %v", err)
		}
		for _, e := range docs {
			editor, _ := uuid.Parse(e.EditedBy)
			post.EditHistory = append(post.EditHistory, models.EditRecord{
				Title:    e.Title,
				Content:  e.Content,
				EditedAt: e.EditedAt,
				EditedBy: editor,
			})
		}
	}
	if len(poll) > 0 {
		var doc PollDocument
		if err := json.Unmarshal(poll, &doc); err != nil {
			return nil, fmt.Errorf("invalid poll: %v", err)
		}
		voters := make(map[uuid.UUID]string, len(doc.Voters))
		for idStr, opt := range doc.Voters {
			if voterID, err := uuid.Parse(idStr); err == nil {
				voters[voterID] = opt
			}
		}
		post.Poll = &models.Poll{
			Question: doc.Question,
			Options:  doc.Options,
			Voters:   voters,
			ClosesAt: doc.ClosesAt,
		}
	}
	return &post, nil
}

func uuidArray(ids []uuid.UUID) pq.StringArray {
	out := make(pq.StringArray, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

func idSetArray(set map[uuid.UUID]bool) pq.StringArray {
	out := make(pq.StringArray, 0, len(set))
	for id := range set {
		out = append(out, id.String())
	}
	return out
}

func stringArrayToIDSet(arr pq.StringArray) map[uuid.UUID]bool {
	set := make(map[uuid.UUID]bool, len(arr))
	for _, s := range arr {
		if id, err := uuid.Parse(s); err == nil {
			set[id] = true
		}
	}
	return set
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullBytes(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}
