package models

import (
	"time"

	"github.com/google/uuid"
)

type AdoptionStatus string

const (
	AdoptionAvailable AdoptionStatus = "available"
	AdoptionPending   AdoptionStatus = "pending"
	AdoptionAdopted   AdoptionStatus = "adopted"
)

// AdoptionListing is a pet offered for adoption by a shelter account.
type AdoptionListing struct {
	ID          uuid.UUID      `json:"id"`
	PetName     string         `json:"petName"`
	Species     string         `json:"species"` // matches a category ID (dogs, cats, ...)
	Breed       string         `json:"breed"`
	AgeMonths   int            `json:"ageMonths"`
	Description string         `json:"description"`
	ShelterID   uuid.UUID      `json:"shelterId"`
	ShelterName string         `json:"shelterName"`
	Status      AdoptionStatus `json:"status"`
	Interested  []uuid.UUID    `json:"interested"`
	CreatedAt   time.Time      `json:"createdAt"`
}
