package memory

import (
	"time"

	"helpinghand/internal/core"
)

// NewSeeded returns a store preloaded with a small demo dataset so the
// memory backend is usable out of the box.
func NewSeeded() *Store {
	s := New()

	s.AddCategory(core.Category{ID: "cat-health", Name: "Health"})
	s.AddCategory(core.Category{ID: "cat-education", Name: "Education"})
	s.AddCategory(core.Category{ID: "cat-disaster", Name: "Disaster Relief"})

	s.AddUser(core.User{ID: "user-demo", Name: "Demo Organizer", Email: "organizer@example.com", Role: "user"})

	now := time.Now().UTC()
	s.AddCampaign(core.Campaign{
		ID:          "camp-demo",
		Title:       "Winter Shelter Fund",
		Description: "Emergency shelter supplies for the cold season",
		Goal:        core.Money{Cents: 500000},
		CategoryID:  "cat-disaster",
		OrganizerID: "user-demo",
		Featured:    true,
		StartDate:   now,
		EndDate:     now.AddDate(0, 3, 0),
	})
	return s
}
