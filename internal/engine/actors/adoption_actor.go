package actors

import (
	"log"
	"sort"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"

	"paw-grove/internal/models"
	"paw-grove/internal/utils"
)

// Message types for adoption operations
type (
	CreateListingMsg struct {
		PetName     string
		Species     string
		Breed       string
		AgeMonths   int
		Description string
		ShelterID   uuid.UUID
		ShelterName string
	}

	GetListingMsg struct {
		ListingID uuid.UUID
	}

	// BrowseListingsMsg filters by species and/or status; empty fields
	// match everything.
	BrowseListingsMsg struct {
		Species string
		Status  models.AdoptionStatus
	}

	ExpressInterestMsg struct {
		ListingID uuid.UUID
		UserID    uuid.UUID
	}

	SetListingStatusMsg struct {
		ListingID uuid.UUID
		ShelterID uuid.UUID
		Status    models.AdoptionStatus
	}
)

// AdoptionActor holds the adoption board: shelter listings, browsing, and
// interest registrations.
type AdoptionActor struct {
	listings map[uuid.UUID]*models.AdoptionListing
	metrics  *utils.MetricsCollector
}

func NewAdoptionActor(metrics *utils.MetricsCollector) actor.Actor {
	return &AdoptionActor{
		listings: make(map[uuid.UUID]*models.AdoptionListing),
		metrics:  metrics,
	}
}

func (a *AdoptionActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("AdoptionActor started")

	case *CreateListingMsg:
		a.handleCreateListing(context, msg)
	case *GetListingMsg:
		a.handleGetListing(context, msg)
	case *BrowseListingsMsg:
		a.handleBrowseListings(context, msg)
	case *ExpressInterestMsg:
		a.handleExpressInterest(context, msg)
	case *SetListingStatusMsg:
		a.handleSetListingStatus(context, msg)
	case *GetCountsMsg:
		context.Respond(len(a.listings))

	default:
		log.Printf("AdoptionActor: Unknown message type: %T", msg)
	}
}

func (a *AdoptionActor) handleCreateListing(context actor.Context, msg *CreateListingMsg) {
	startTime := time.Now()

	if msg.PetName == "" || msg.Species == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "pet name and species are required", nil))
		return
	}

	listing := &models.AdoptionListing{
		ID:          uuid.New(),
		PetName:     msg.PetName,
		Species:     msg.Species,
		Breed:       msg.Breed,
		AgeMonths:   msg.AgeMonths,
		Description: msg.Description,
		ShelterID:   msg.ShelterID,
		ShelterName: msg.ShelterName,
		Status:      models.AdoptionAvailable,
		CreatedAt:   time.Now(),
	}
	a.listings[listing.ID] = listing

	a.metrics.AddOperationLatency("create_listing", time.Since(startTime))
	context.Respond(listing)
}

func (a *AdoptionActor) handleGetListing(context actor.Context, msg *GetListingMsg) {
	if listing, exists := a.listings[msg.ListingID]; exists {
		context.Respond(listing)
	} else {
		context.Respond(utils.NewAppError(utils.ErrListingNotFound, "listing not found", nil))
	}
}

func (a *AdoptionActor) handleBrowseListings(context actor.Context, msg *BrowseListingsMsg) {
	matches := make([]*models.AdoptionListing, 0)
	for _, listing := range a.listings {
		if msg.Species != "" && listing.Species != msg.Species {
			continue
		}
		if msg.Status != "" && listing.Status != msg.Status {
			continue
		}
		matches = append(matches, listing)
	}
	// Newest listings first.
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	context.Respond(matches)
}

func (a *AdoptionActor) handleExpressInterest(context actor.Context, msg *ExpressInterestMsg) {
	listing, exists := a.listings[msg.ListingID]
	if !exists {
		context.Respond(utils.NewAppError(utils.ErrListingNotFound, "listing not found", nil))
		return
	}
	if listing.Status == models.AdoptionAdopted {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "pet has already been adopted", nil))
		return
	}
	for _, id := range listing.Interested {
		if id == msg.UserID {
			context.Respond(listing)
			return
		}
	}
	listing.Interested = append(listing.Interested, msg.UserID)
	context.Respond(listing)
}

func (a *AdoptionActor) handleSetListingStatus(context actor.Context, msg *SetListingStatusMsg) {
	listing, exists := a.listings[msg.ListingID]
	if !exists {
		context.Respond(utils.NewAppError(utils.ErrListingNotFound, "listing not found", nil))
		return
	}
	if listing.ShelterID != msg.ShelterID {
		context.Respond(utils.NewAppError(utils.ErrForbidden, "only the listing shelter can change its status", nil))
		return
	}
	switch msg.Status {
	case models.AdoptionAvailable, models.AdoptionPending, models.AdoptionAdopted:
		listing.Status = msg.Status
	default:
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "invalid listing status", nil))
		return
	}
	context.Respond(listing)
}
