package actors

import (
	"testing"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paw-grove/internal/api"
	"paw-grove/internal/models"
	"paw-grove/internal/utils"
)

func spawnUserActor(t *testing.T) (*actor.ActorSystem, *actor.PID) {
	t.Helper()
	system := actor.NewActorSystem()
	pid := system.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewUserActor(utils.NewMetricsCollector(), nil)
	}))
	return system, pid
}

func registerTestUser(t *testing.T, system *actor.ActorSystem, pid *actor.PID, username, email string) *models.User {
	t.Helper()
	future := system.Root.RequestFuture(pid, &RegisterUserMsg{
		Username: username,
		Email:    email,
		Password: "testpass123",
	}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)
	user, ok := result.(*models.User)
	require.True(t, ok, "expected *models.User, got %T", result)
	return user
}

func TestUserActorRegisterAndLogin(t *testing.T) {
	system, pid := spawnUserActor(t)

	user := registerTestUser(t, system, pid, "gwen", "gwen@test.com")
	assert.Equal(t, "gwen", user.Username)
	assert.Equal(t, models.RoleMember, user.Role)
	assert.False(t, user.IsVerified)

	// Duplicate email, case-insensitive
	future := system.Root.RequestFuture(pid, &RegisterUserMsg{
		Username: "gwen2",
		Email:    "GWEN@test.com",
		Password: "otherpass",
	}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)
	appErr, ok := result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrUserAlreadyExists, appErr.Code)

	// Successful login returns a token
	future = system.Root.RequestFuture(pid, &LoginMsg{Email: "gwen@test.com", Password: "testpass123"}, 5*time.Second)
	result, err = future.Result()
	require.NoError(t, err)
	login := result.(*api.LoginResponse)
	assert.True(t, login.Success)
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, user.ID.String(), login.UserID)

	// Wrong password
	future = system.Root.RequestFuture(pid, &LoginMsg{Email: "gwen@test.com", Password: "wrong"}, 5*time.Second)
	result, err = future.Result()
	require.NoError(t, err)
	login = result.(*api.LoginResponse)
	assert.False(t, login.Success)
	assert.Empty(t, login.Token)
}

func TestUserActorFollowGraph(t *testing.T) {
	system, pid := spawnUserActor(t)

	follower := registerTestUser(t, system, pid, "follower", "follower@test.com")
	target := registerTestUser(t, system, pid, "target", "target@test.com")

	// Self-follow is rejected
	future := system.Root.RequestFuture(pid, &FollowUserMsg{FollowerID: follower.ID, TargetID: follower.ID}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)
	_, ok := result.(*utils.AppError)
	assert.True(t, ok)

	future = system.Root.RequestFuture(pid, &FollowUserMsg{FollowerID: follower.ID, TargetID: target.ID}, 5*time.Second)
	result, err = future.Result()
	require.NoError(t, err)
	assert.Equal(t, true, result)

	future = system.Root.RequestFuture(pid, &GetFollowingMsg{UserID: follower.ID}, 5*time.Second)
	result, err = future.Result()
	require.NoError(t, err)
	following := result.(map[uuid.UUID]bool)
	assert.True(t, following[target.ID])

	future = system.Root.RequestFuture(pid, &UnfollowUserMsg{FollowerID: follower.ID, TargetID: target.ID}, 5*time.Second)
	_, err = future.Result()
	require.NoError(t, err)

	future = system.Root.RequestFuture(pid, &GetFollowingMsg{UserID: follower.ID}, 5*time.Second)
	result, err = future.Result()
	require.NoError(t, err)
	assert.Empty(t, result.(map[uuid.UUID]bool))
}

func TestUserActorBanBlocksLogin(t *testing.T) {
	system, pid := spawnUserActor(t)
	user := registerTestUser(t, system, pid, "troublemaker", "trouble@test.com")

	future := system.Root.RequestFuture(pid, &BanUserMsg{UserID: user.ID}, 5*time.Second)
	_, err := future.Result()
	require.NoError(t, err)

	future = system.Root.RequestFuture(pid, &LoginMsg{Email: "trouble@test.com", Password: "testpass123"}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)
	login := result.(*api.LoginResponse)
	assert.False(t, login.Success)
	assert.Equal(t, "Account is banned", login.Error)

	future = system.Root.RequestFuture(pid, &UnbanUserMsg{UserID: user.ID}, 5*time.Second)
	_, err = future.Result()
	require.NoError(t, err)

	future = system.Root.RequestFuture(pid, &LoginMsg{Email: "trouble@test.com", Password: "testpass123"}, 5*time.Second)
	result, err = future.Result()
	require.NoError(t, err)
	assert.True(t, result.(*api.LoginResponse).Success)
}

func TestUserActorRolesAndVerification(t *testing.T) {
	system, pid := spawnUserActor(t)
	user := registerTestUser(t, system, pid, "shelter", "shelter@test.com")

	future := system.Root.RequestFuture(pid, &SetRoleMsg{UserID: user.ID, Role: models.RoleModerator}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)
	assert.Equal(t, models.RoleModerator, result.(*models.User).Role)

	future = system.Root.RequestFuture(pid, &SetVerifiedMsg{UserID: user.ID, Verified: true}, 5*time.Second)
	result, err = future.Result()
	require.NoError(t, err)
	assert.True(t, result.(*models.User).IsVerified)

	future = system.Root.RequestFuture(pid, &GetUserProfileMsg{UserID: user.ID}, 5*time.Second)
	result, err = future.Result()
	require.NoError(t, err)
	profile := result.(*models.User)
	assert.True(t, profile.IsVerified)
	assert.Equal(t, models.RoleModerator, profile.Role)
}

func TestUserActorStoreFallback(t *testing.T) {
	store := newStubStore()
	system := actor.NewActorSystem()
	spawn := func() *actor.PID {
		return system.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
			return NewUserActor(utils.NewMetricsCollector(), store)
		}))
	}

	first := spawn()
	user := registerTestUser(t, system, first, "maple", "maple@test.com")

	require.Eventually(t, func() bool {
		return store.userCount() > 0
	}, 5*time.Second, 10*time.Millisecond)

	// A fresh actor sharing the store finds the account on a cache miss,
	// so logins survive a restart.
	second := spawn()
	future := system.Root.RequestFuture(second, &LoginMsg{Email: "maple@test.com", Password: "testpass123"}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)
	login := result.(*api.LoginResponse)
	assert.True(t, login.Success)
	assert.NotEmpty(t, login.Token)

	future = system.Root.RequestFuture(second, &GetUserProfileMsg{UserID: user.ID}, 5*time.Second)
	result, err = future.Result()
	require.NoError(t, err)
	profile := result.(*models.User)
	assert.Equal(t, "maple", profile.Username)

	// Duplicate registration is caught through the store too.
	future = system.Root.RequestFuture(second, &RegisterUserMsg{
		Username: "maple2",
		Email:    "maple@test.com",
		Password: "otherpass",
	}, 5*time.Second)
	result, err = future.Result()
	require.NoError(t, err)
	appErr, ok := result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrUserAlreadyExists, appErr.Code)
}
