package memory

import (
	"time"

	"ppg-monitor-be/internal/measurement"

	"github.com/patrickmn/go-cache"
)

// ResultRepository keeps completed results for a limited time so clients
// can fetch them by session id after the sensor moved on.
type ResultRepository struct {
	cache *cache.Cache
}

func NewResultRepository(ttl time.Duration) *ResultRepository {
	return &ResultRepository{
		cache: cache.New(ttl, ttl/2),
	}
}

func (r *ResultRepository) Save(result measurement.Result) {
	r.cache.Set(result.SessionID, result, cache.DefaultExpiration)
}

func (r *ResultRepository) Get(sessionID string) (measurement.Result, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(measurement.Result), true
	}
	return measurement.Result{}, false
}

func (r *ResultRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}

func (r *ResultRepository) Count() int {
	return r.cache.ItemCount()
}
