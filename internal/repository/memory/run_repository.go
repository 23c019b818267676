package memory

import (
	"time"

	"engram-be/pkg/engrammer"

	"github.com/patrickmn/go-cache"
)

// RunRepository tracks which Engrammer threads have a live background run.
// Entries expire so a crashed run never pins a thread as running forever.
type RunRepository struct {
	store *cache.Cache
}

var _ engrammer.RunTracker = &RunRepository{}

func NewRunRepository() *RunRepository {
	return &RunRepository{
		store: cache.New(10*time.Minute, 15*time.Minute),
	}
}

func (r *RunRepository) MarkRunning(threadID string) {
	r.store.Set(threadID, time.Now(), cache.DefaultExpiration)
}

func (r *RunRepository) ClearRunning(threadID string) {
	r.store.Delete(threadID)
}

func (r *RunRepository) IsRunning(threadID string) bool {
	_, found := r.store.Get(threadID)
	return found
}

// ActiveCount reports how many runs are currently live.
func (r *RunRepository) ActiveCount() int {
	return r.store.ItemCount()
}
