package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"paw-grove/internal/engine/actors"
	"paw-grove/internal/models"
	"paw-grove/internal/utils"
)

// CreateListingRequest represents a new adoption listing
type CreateListingRequest struct {
	PetName     string `json:"petName"`
	Species     string `json:"species"`
	Breed       string `json:"breed,omitempty"`
	AgeMonths   int    `json:"ageMonths"`
	Description string `json:"description"`
}

// ListingStatusRequest moves a listing through its lifecycle
type ListingStatusRequest struct {
	ListingID string `json:"listingId"`
	Status    string `json:"status"` // available, pending, adopted
}

// ListingIDRequest is the shared body for single-listing operations
type ListingIDRequest struct {
	ListingID string `json:"listingId"`
}

// HandleListing creates a listing (POST, verified accounts only) or
// fetches one by ID (GET).
func (s *Server) HandleListing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			userID, ok := authedUserID(w, r)
			if !ok {
				return
			}
			viewer := s.viewerProfile(w, userID)
			if viewer == nil {
				return
			}
			if !viewer.IsVerified {
				appErr := utils.NewAppError(utils.ErrForbidden, "listings require a verified shelter or breeder account", nil)
				http.Error(w, appErr.Error(), utils.AppErrorToHTTPStatus(appErr.Code))
				return
			}

			var req CreateListingRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}
			if req.PetName == "" || req.Species == "" {
				http.Error(w, "Pet name and species are required", http.StatusBadRequest)
				return
			}

			future := s.Context.RequestFuture(s.Engine.GetAdoptionActor(), &actors.CreateListingMsg{
				PetName:     req.PetName,
				Species:     req.Species,
				Breed:       req.Breed,
				AgeMonths:   req.AgeMonths,
				Description: req.Description,
				ShelterID:   userID,
				ShelterName: viewer.Username,
			}, s.RequestTimeout)
			result, err := future.Result()
			if err != nil {
				http.Error(w, "Failed to create listing", http.StatusInternalServerError)
				return
			}
			respondActorResult(w, result, utils.ErrListingNotFound)

		case http.MethodGet:
			listingID, err := uuid.Parse(r.URL.Query().Get("id"))
			if err != nil {
				http.Error(w, "Invalid listing ID format", http.StatusBadRequest)
				return
			}
			future := s.Context.RequestFuture(s.Engine.GetAdoptionActor(), &actors.GetListingMsg{ListingID: listingID}, s.RequestTimeout)
			result, err := future.Result()
			if err != nil {
				http.Error(w, "Failed to get listing", http.StatusInternalServerError)
				return
			}
			respondActorResult(w, result, utils.ErrListingNotFound)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandleBrowseListings lists the adoption board, optionally filtered by
// species and status. Public.
func (s *Server) HandleBrowseListings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		status := models.AdoptionStatus(r.URL.Query().Get("status"))
		switch status {
		case "", models.AdoptionAvailable, models.AdoptionPending, models.AdoptionAdopted:
		default:
			http.Error(w, "Unknown listing status", http.StatusBadRequest)
			return
		}

		future := s.Context.RequestFuture(s.Engine.GetAdoptionActor(), &actors.BrowseListingsMsg{
			Species: r.URL.Query().Get("species"),
			Status:  status,
		}, s.RequestTimeout)
		result, err := future.Result()
		if err != nil {
			http.Error(w, "Failed to browse listings", http.StatusInternalServerError)
			return
		}
		respondJSON(w, result)
	}
}

// HandleListingInterest registers the viewer's interest in a listing.
func (s *Server) HandleListingInterest() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		userID, ok := authedUserID(w, r)
		if !ok {
			return
		}

		var req ListingIDRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		listingID, err := uuid.Parse(req.ListingID)
		if err != nil {
			http.Error(w, "Invalid listing ID format", http.StatusBadRequest)
			return
		}

		future := s.Context.RequestFuture(s.Engine.GetAdoptionActor(), &actors.ExpressInterestMsg{
			ListingID: listingID,
			UserID:    userID,
		}, s.RequestTimeout)
		result, err := future.Result()
		if err != nil {
			http.Error(w, "Failed to express interest", http.StatusInternalServerError)
			return
		}
		respondActorResult(w, result, utils.ErrListingNotFound)
	}
}

// HandleListingStatus moves a listing through its lifecycle. Only the
// shelter that created it may do this; the actor enforces ownership.
func (s *Server) HandleListingStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		userID, ok := authedUserID(w, r)
		if !ok {
			return
		}

		var req ListingStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		listingID, err := uuid.Parse(req.ListingID)
		if err != nil {
			http.Error(w, "Invalid listing ID format", http.StatusBadRequest)
			return
		}
		status := models.AdoptionStatus(req.Status)
		switch status {
		case models.AdoptionAvailable, models.AdoptionPending, models.AdoptionAdopted:
		default:
			http.Error(w, "Unknown listing status", http.StatusBadRequest)
			return
		}

		future := s.Context.RequestFuture(s.Engine.GetAdoptionActor(), &actors.SetListingStatusMsg{
			ListingID: listingID,
			ShelterID: userID,
			Status:    status,
		}, s.RequestTimeout)
		result, err := future.Result()
		if err != nil {
			http.Error(w, "Failed to update listing", http.StatusInternalServerError)
			return
		}
		respondActorResult(w, result, utils.ErrListingNotFound)
	}
}
