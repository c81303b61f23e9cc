package actors

import (
	stdctx "context"
	"log"
	"strings"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"paw-grove/internal/api"
	"paw-grove/internal/database"
	"paw-grove/internal/middleware"
	"paw-grove/internal/models"
	"paw-grove/internal/utils"
)

// Message types for user operations
type (
	RegisterUserMsg struct {
		Username string
		Email    string
		Password string
		Role     models.Role
	}

	LoginMsg struct {
		Email    string
		Password string
	}

	GetUserProfileMsg struct {
		UserID uuid.UUID
	}

	UpdateProfileMsg struct {
		UserID      uuid.UUID
		NewUsername string
		NewEmail    string
	}

	FollowUserMsg struct {
		FollowerID uuid.UUID
		TargetID   uuid.UUID
	}

	UnfollowUserMsg struct {
		FollowerID uuid.UUID
		TargetID   uuid.UUID
	}

	// GetFollowingMsg returns the follower's following set, the shape the
	// feed context wants.
	GetFollowingMsg struct {
		UserID uuid.UUID
	}

	SetRoleMsg struct {
		UserID uuid.UUID
		Role   models.Role
	}

	SetVerifiedMsg struct {
		UserID   uuid.UUID
		Verified bool
	}

	// BanUserMsg marks the account banned; their posts are removed by the
	// post actor's BlockAuthorMsg, which moderation sends alongside this.
	BanUserMsg struct {
		UserID uuid.UUID
	}

	UnbanUserMsg struct {
		UserID uuid.UUID
	}

	ConnectUserMsg struct {
		UserID uuid.UUID
	}

	DisconnectUserMsg struct {
		UserID uuid.UUID
	}
)

// UserActor owns every account within a session: registration, login,
// profiles, roles, bans, and the following graph. Accounts are written
// through to the store and lazily reloaded from it on a cache miss, so
// logins survive a restart.
type UserActor struct {
	usersByID map[uuid.UUID]*models.User
	emailToID map[string]uuid.UUID
	following map[uuid.UUID]map[uuid.UUID]bool
	banned    map[uuid.UUID]bool
	metrics   *utils.MetricsCollector
	store     database.DBAdapter
}

// NewUserActor creates a new UserActor. store may be nil for a purely
// in-memory engine (tests, simulator).
func NewUserActor(metrics *utils.MetricsCollector, store database.DBAdapter) actor.Actor {
	return &UserActor{
		usersByID: make(map[uuid.UUID]*models.User),
		emailToID: make(map[string]uuid.UUID),
		following: make(map[uuid.UUID]map[uuid.UUID]bool),
		banned:    make(map[uuid.UUID]bool),
		metrics:   metrics,
		store:     store,
	}
}

func (a *UserActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("UserActor started")

	case *RegisterUserMsg:
		a.handleRegister(context, msg)
	case *LoginMsg:
		a.handleLogin(context, msg)
	case *GetUserProfileMsg:
		a.handleGetProfile(context, msg)
	case *UpdateProfileMsg:
		a.handleUpdateProfile(context, msg)
	case *FollowUserMsg:
		a.handleFollow(context, msg)
	case *UnfollowUserMsg:
		a.handleUnfollow(context, msg)
	case *GetFollowingMsg:
		a.handleGetFollowing(context, msg)
	case *SetRoleMsg:
		a.handleSetRole(context, msg)
	case *SetVerifiedMsg:
		a.handleSetVerified(context, msg)
	case *BanUserMsg:
		a.banned[msg.UserID] = true
		context.Respond(true)
	case *UnbanUserMsg:
		delete(a.banned, msg.UserID)
		context.Respond(true)
	case *ConnectUserMsg:
		a.setConnected(msg.UserID, true)
		context.Respond(true)
	case *DisconnectUserMsg:
		a.setConnected(msg.UserID, false)
		context.Respond(true)
	case *GetCountsMsg:
		context.Respond(len(a.usersByID))

	default:
		log.Printf("UserActor: Unknown message type: %T", msg)
	}
}

func (a *UserActor) handleRegister(context actor.Context, msg *RegisterUserMsg) {
	startTime := time.Now()

	email := strings.ToLower(strings.TrimSpace(msg.Email))
	if msg.Username == "" || email == "" || msg.Password == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "username, email and password are required", nil))
		return
	}
	if a.userByEmail(email) != nil {
		context.Respond(utils.NewAppError(utils.ErrUserAlreadyExists, "Email already registered", nil))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(msg.Password), bcrypt.DefaultCost)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "Failed to hash password", err))
		return
	}

	role := msg.Role
	if role == "" {
		role = models.RoleMember
	}
	user := &models.User{
		ID:             uuid.New(),
		Username:       msg.Username,
		Email:          email,
		HashedPassword: string(hashed),
		Role:           role,
		CreatedAt:      time.Now(),
		LastActive:     time.Now(),
	}

	a.usersByID[user.ID] = user
	a.emailToID[email] = user.ID
	a.persistUser(user)

	a.metrics.AddOperationLatency("register_user", time.Since(startTime))
	context.Respond(user)
}

func (a *UserActor) handleLogin(context actor.Context, msg *LoginMsg) {
	email := strings.ToLower(strings.TrimSpace(msg.Email))
	user := a.userByEmail(email)
	if user == nil {
		context.Respond(&api.LoginResponse{Success: false, Error: "Invalid credentials"})
		return
	}

	if a.banned[user.ID] {
		context.Respond(&api.LoginResponse{Success: false, Error: "Account is banned"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(msg.Password)); err != nil {
		context.Respond(&api.LoginResponse{Success: false, Error: "Invalid credentials"})
		return
	}

	token, err := middleware.GenerateToken(user.ID)
	if err != nil {
		context.Respond(&api.LoginResponse{Success: false, Error: "Failed to generate token"})
		return
	}

	user.LastActive = time.Now()
	context.Respond(&api.LoginResponse{
		Success: true,
		Token:   token,
		UserID:  user.ID.String(),
	})
}

func (a *UserActor) handleGetProfile(context actor.Context, msg *GetUserProfileMsg) {
	user := a.userByID(msg.UserID)
	if user == nil {
		context.Respond(utils.NewUserNotFoundError(msg.UserID.String()))
		return
	}

	// Materialize the following set onto the profile.
	user.Following = user.Following[:0]
	for target := range a.following[msg.UserID] {
		user.Following = append(user.Following, target)
	}
	context.Respond(user)
}

func (a *UserActor) handleUpdateProfile(context actor.Context, msg *UpdateProfileMsg) {
	user := a.userByID(msg.UserID)
	if user == nil {
		context.Respond(utils.NewUserNotFoundError(msg.UserID.String()))
		return
	}
	if msg.NewUsername != "" {
		user.Username = msg.NewUsername
	}
	if msg.NewEmail != "" {
		email := strings.ToLower(strings.TrimSpace(msg.NewEmail))
		if other, taken := a.emailToID[email]; taken && other != msg.UserID {
			context.Respond(utils.NewAppError(utils.ErrDuplicate, "Email already registered", nil))
			return
		}
		delete(a.emailToID, user.Email)
		user.Email = email
		a.emailToID[email] = user.ID
	}
	a.persistUser(user)
	context.Respond(user)
}

func (a *UserActor) handleFollow(context actor.Context, msg *FollowUserMsg) {
	if msg.FollowerID == msg.TargetID {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "cannot follow yourself", nil))
		return
	}
	if _, exists := a.usersByID[msg.TargetID]; !exists {
		context.Respond(utils.NewUserNotFoundError(msg.TargetID.String()))
		return
	}
	if a.following[msg.FollowerID] == nil {
		a.following[msg.FollowerID] = make(map[uuid.UUID]bool)
	}
	a.following[msg.FollowerID][msg.TargetID] = true
	context.Respond(true)
}

func (a *UserActor) handleUnfollow(context actor.Context, msg *UnfollowUserMsg) {
	delete(a.following[msg.FollowerID], msg.TargetID)
	context.Respond(true)
}

func (a *UserActor) handleGetFollowing(context actor.Context, msg *GetFollowingMsg) {
	set := make(map[uuid.UUID]bool, len(a.following[msg.UserID]))
	for target := range a.following[msg.UserID] {
		set[target] = true
	}
	context.Respond(set)
}

func (a *UserActor) handleSetRole(context actor.Context, msg *SetRoleMsg) {
	user := a.userByID(msg.UserID)
	if user == nil {
		context.Respond(utils.NewUserNotFoundError(msg.UserID.String()))
		return
	}
	user.Role = msg.Role
	a.persistUser(user)
	context.Respond(user)
}

func (a *UserActor) handleSetVerified(context actor.Context, msg *SetVerifiedMsg) {
	user := a.userByID(msg.UserID)
	if user == nil {
		context.Respond(utils.NewUserNotFoundError(msg.UserID.String()))
		return
	}
	user.IsVerified = msg.Verified
	a.persistUser(user)
	context.Respond(user)
}

func (a *UserActor) setConnected(userID uuid.UUID, connected bool) {
	if user, exists := a.usersByID[userID]; exists {
		user.IsConnected = connected
		user.LastActive = time.Now()
	}
}

// userByID resolves an account from memory first, then the store. Store
// hits are cached back into the session maps.
func (a *UserActor) userByID(userID uuid.UUID) *models.User {
	if user, exists := a.usersByID[userID]; exists {
		return user
	}
	if a.store == nil {
		return nil
	}
	ctx, cancel := stdctx.WithTimeout(stdctx.Background(), 5*time.Second)
	defer cancel()
	user, err := a.store.GetUser(ctx, userID)
	if err != nil {
		log.Printf("UserActor: failed to load user %s: %v", userID, err)
		return nil
	}
	if user == nil {
		return nil
	}
	a.cacheUser(user)
	return user
}

func (a *UserActor) userByEmail(email string) *models.User {
	if userID, exists := a.emailToID[email]; exists {
		return a.usersByID[userID]
	}
	if a.store == nil {
		return nil
	}
	ctx, cancel := stdctx.WithTimeout(stdctx.Background(), 5*time.Second)
	defer cancel()
	user, err := a.store.GetUserByEmail(ctx, email)
	if err != nil {
		log.Printf("UserActor: failed to load user by email: %v", err)
		return nil
	}
	if user == nil {
		return nil
	}
	a.cacheUser(user)
	return user
}

func (a *UserActor) cacheUser(user *models.User) {
	a.usersByID[user.ID] = user
	a.emailToID[user.Email] = user.ID
}

// persistUser writes the account through to the store in the background.
// The copy is taken on the actor goroutine so later profile mutations
// never race the write.
func (a *UserActor) persistUser(user *models.User) {
	if a.store == nil {
		return
	}
	snapshot := *user
	snapshot.Following = append([]uuid.UUID(nil), user.Following...)
	go func() {
		ctx, cancel := stdctx.WithTimeout(stdctx.Background(), 5*time.Second)
		defer cancel()
		if err := a.store.SaveUser(ctx, &snapshot); err != nil {
			log.Printf("UserActor: failed to persist user %s: %v", snapshot.ID, err)
		}
	}()
}
