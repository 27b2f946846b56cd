package chat

import (
	"slices"
	"sync"
)

// FavoritesStore keeps the favorite authors of each user.
type FavoritesStore interface {
	// Add appends name to the user's favorites and reports whether it was new.
	Add(user int64, name string) bool
	// List returns the user's favorites in the order they were added.
	List(user int64) []string
}

// MemoryFavorites is a FavoritesStore held in process memory.
// Nothing is evicted and everything is lost on restart.
type MemoryFavorites struct {
	mu        sync.Mutex
	favorites map[int64][]string
}

// NewMemoryFavorites creates an empty in-memory store.
func NewMemoryFavorites() *MemoryFavorites {
	return &MemoryFavorites{
		favorites: map[int64][]string{},
	}
}

func (m *MemoryFavorites) Add(user int64, name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if slices.Contains(m.favorites[user], name) {
		return false
	}
	m.favorites[user] = append(m.favorites[user], name)
	return true
}

func (m *MemoryFavorites) List(user int64) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Clone(m.favorites[user])
}
