package store

import (
	"fmt"

	"github.com/wanderplan/wanderplan-go/pkg/models"
)

// Validation shared by both adapters so local and remote reject the
// same inputs.

func ValidateTrip(trip *models.Trip) error {
	if trip == nil {
		return fmt.Errorf("%w: trip is nil", ErrValidation)
	}
	if trip.Title == "" {
		return fmt.Errorf("%w: trip title is required", ErrValidation)
	}
	switch trip.Privacy {
	case "", models.PrivacyPublic, models.PrivacyFriends, models.PrivacyPrivate:
	default:
		return fmt.Errorf("%w: unknown privacy %q", ErrValidation, trip.Privacy)
	}
	switch trip.Status {
	case "", models.TripPlanning, models.TripActive, models.TripCompleted:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrValidation, trip.Status)
	}
	if trip.StartDate != nil && trip.EndDate != nil && trip.EndDate.Before(*trip.StartDate) {
		return fmt.Errorf("%w: trip ends before it starts", ErrValidation)
	}
	return nil
}

func ValidatePlace(place *models.Place) error {
	if place == nil {
		return fmt.Errorf("%w: place is nil", ErrValidation)
	}
	if place.Name == "" {
		return fmt.Errorf("%w: place name is required", ErrValidation)
	}
	return nil
}

func ValidateCollection(col *models.Collection) error {
	if col == nil {
		return fmt.Errorf("%w: collection is nil", ErrValidation)
	}
	if col.Name == "" {
		return fmt.Errorf("%w: collection name is required", ErrValidation)
	}
	return nil
}

func ValidateWaypoint(wp models.Waypoint) error {
	if wp.Arrival != nil && wp.Departure != nil && wp.Departure.Before(*wp.Arrival) {
		return fmt.Errorf("%w: waypoint departs before it arrives", ErrValidation)
	}
	return nil
}
