package models

import (
	"strings"
	"time"
)

// Recipe categories understood by the collection service.
const (
	CategoryBreakfast = "Breakfast"
	CategoryLunch     = "Lunch"
	CategoryDinner    = "Dinner"
	CategoryDessert   = "Dessert"
	CategorySnack     = "Snack"
	CategoryOther     = "Other"
)

// Categories returns the fixed category set in display order.
func Categories() []string {
	return []string{
		CategoryBreakfast,
		CategoryLunch,
		CategoryDinner,
		CategoryDessert,
		CategorySnack,
		CategoryOther,
	}
}

// ValidCategory reports whether the provided value is a known category.
func ValidCategory(category string) bool {
	switch category {
	case CategoryBreakfast, CategoryLunch, CategoryDinner,
		CategoryDessert, CategorySnack, CategoryOther:
		return true
	}
	return false
}

// Recipe is one record in the shared collection. Likes and LikedByUser are
// volatile server-side fields; everything else changes only through
// owner-initiated mutations.
type Recipe struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Ingredients []string  `json:"ingredients,omitempty"`
	Image       string    `json:"image,omitempty"`
	Author      string    `json:"author"`
	AuthorID    string    `json:"authorId,omitempty"`
	Likes       int       `json:"likes"`
	LikedByUser bool      `json:"likedByUser"`
	CreatedAt   time.Time `json:"createdAt"`
}

// RecipeDraft carries user-entered recipe fields for create and update
// commands. On update, zero-valued fields keep the existing record's values,
// mirroring the service's partial-update behaviour.
type RecipeDraft struct {
	Title       string
	Description string
	Category    string
	Ingredients []string
	ImageName   string
}

// LikeStatus is the service's authoritative answer to a like toggle.
type LikeStatus struct {
	Likes       int  `json:"likes"`
	LikedByUser bool `json:"likedByUser"`
}

// User represents an account on the collection service.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Session is the client-side identity: who the user is plus the opaque
// bearer credential attached to authorised requests.
type Session struct {
	Username string `json:"username"`
	Token    string `json:"token"`
}

// Active reports whether the session carries a usable credential.
func (s Session) Active() bool {
	return strings.TrimSpace(s.Token) != ""
}
