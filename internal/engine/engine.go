package engine

import (
	"github.com/asynkron/protoactor-go/actor"

	"paw-grove/internal/database"
	"paw-grove/internal/engine/actors"
	"paw-grove/internal/models"
	"paw-grove/internal/utils"
	"paw-grove/internal/websocket"
)

// Engine coordinates communication between actors. It owns the PIDs and
// hands them to the HTTP layer; actors talk to each other directly where
// an operation spans two of them (comment counts, moderation cascades).
type Engine struct {
	postActor       *actor.PID
	commentActor    *actor.PID
	userActor       *actor.PID
	moderationActor *actor.PID
	adoptionActor   *actor.PID
	supportActor    *actor.PID
}

// NewEngine spawns the actor set. store and hub may be nil for a purely
// in-memory engine without notifications (tests, simulator).
func NewEngine(system *actor.ActorSystem, metrics *utils.MetricsCollector, taxonomy *models.Taxonomy, store database.DBAdapter, hub *websocket.Hub) *Engine {
	context := system.Root

	postProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewPostActor(metrics, taxonomy, store)
	})
	postPID := context.Spawn(postProps)

	commentProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewCommentActor(postPID)
	})
	commentPID := context.Spawn(commentProps)

	userProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewUserActor(metrics, store)
	})
	userPID := context.Spawn(userProps)

	moderationProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewModerationActor(postPID, userPID, hub, metrics)
	})
	moderationPID := context.Spawn(moderationProps)

	adoptionProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewAdoptionActor(metrics)
	})
	adoptionPID := context.Spawn(adoptionProps)

	supportProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewSupportActor(hub, metrics)
	})
	supportPID := context.Spawn(supportProps)

	return &Engine{
		postActor:       postPID,
		commentActor:    commentPID,
		userActor:       userPID,
		moderationActor: moderationPID,
		adoptionActor:   adoptionPID,
		supportActor:    supportPID,
	}
}

// GetPostActor returns the PID of the post actor
func (e *Engine) GetPostActor() *actor.PID {
	return e.postActor
}

// GetCommentActor returns the PID of the comment actor
func (e *Engine) GetCommentActor() *actor.PID {
	return e.commentActor
}

// GetUserActor returns the PID of the user actor
func (e *Engine) GetUserActor() *actor.PID {
	return e.userActor
}

// GetModerationActor returns the PID of the moderation actor
func (e *Engine) GetModerationActor() *actor.PID {
	return e.moderationActor
}

// GetAdoptionActor returns the PID of the adoption actor
func (e *Engine) GetAdoptionActor() *actor.PID {
	return e.adoptionActor
}

// GetSupportActor returns the PID of the support actor
func (e *Engine) GetSupportActor() *actor.PID {
	return e.supportActor
}
