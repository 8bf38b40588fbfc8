package view

import (
	"sort"
	"strings"

	"github.com/recipenav/recipenav/internal/models"
)

// DefaultPageSize matches the collection browser's card grid.
const DefaultPageSize = 6

// Sort selects the ordering applied before pagination.
type Sort string

const (
	SortNewest    Sort = "newest"
	SortOldest    Sort = "oldest"
	SortMostLiked Sort = "likes"
)

// State is the presentation layer's current query: free-text search,
// category filter, sort key and requested page.
type State struct {
	Search   string
	Category string
	Sort     Sort
	Page     int
	PageSize int
}

// Page is one screenful of records plus pagination metadata.
type Page struct {
	Records    []models.Recipe
	Number     int
	TotalPages int
	Total      int
}

// Project derives the visible page from a snapshot. It is pure: same
// snapshot and state, same output, and the input is never mutated.
func Project(snapshot []models.Recipe, state State) Page {
	pageSize := state.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	search := strings.ToLower(strings.TrimSpace(state.Search))

	filtered := make([]models.Recipe, 0, len(snapshot))
	for _, r := range snapshot {
		if r.ID == "" {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(r.Title), search) &&
			!strings.Contains(strings.ToLower(r.Description), search) {
			continue
		}
		if state.Category != "" && r.Category != state.Category {
			continue
		}
		filtered = append(filtered, r)
	}

	switch state.Sort {
	case SortOldest:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].CreatedAt.Before(filtered[j].CreatedAt)
		})
	case SortMostLiked:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].Likes > filtered[j].Likes
		})
	default:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
		})
	}

	totalPages := (len(filtered) + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}

	page := state.Page
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(filtered) {
		start = len(filtered)
	}
	if end > len(filtered) {
		end = len(filtered)
	}

	return Page{
		Records:    filtered[start:end],
		Number:     page,
		TotalPages: totalPages,
		Total:      len(filtered),
	}
}
