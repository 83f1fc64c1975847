package service

import (
	"alcyxob/gym-platform/internal/domain"
	"encoding/json"
	"time"

	"github.com/coocood/freecache"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanCatalog maps subscription tiers to their limits.
type PlanCatalog struct {
	Free    domain.PlanLimits
	Premium domain.PlanLimits
}

// For returns the limits of plan. Unknown plans get the free tier.
func (c PlanCatalog) For(plan domain.Plan) domain.PlanLimits {
	if plan == domain.PlanPremium {
		return c.Premium
	}
	return c.Free
}

// LimitsCache keeps resolved PlanLimits per trainer id.
type LimitsCache struct {
	cache *freecache.Cache
	ttl   int // seconds, 0 = no expiry
}

// NewLimitsCache allocates a cache of sizeBytes (freecache enforces a 512 KiB minimum).
func NewLimitsCache(sizeBytes int, ttl time.Duration) *LimitsCache {
	return &LimitsCache{
		cache: freecache.NewCache(sizeBytes),
		ttl:   ttlSeconds(ttl),
	}
}

// ttlSeconds rounds up to whole seconds; freecache reads 0 as "never expire".
func ttlSeconds(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	return int((ttl + time.Second - 1) / time.Second)
}

func (c *LimitsCache) Get(trainerID primitive.ObjectID) (domain.PlanLimits, bool) {
	var limits domain.PlanLimits
	raw, err := c.cache.Get(trainerID[:])
	if err != nil {
		return limits, false
	}
	if err := json.Unmarshal(raw, &limits); err != nil {
		logrus.WithError(err).WithField("trainer", trainerID.Hex()).Warn("corrupt limits cache entry")
		c.Invalidate(trainerID)
		return limits, false
	}
	return limits, true
}

func (c *LimitsCache) Set(trainerID primitive.ObjectID, limits domain.PlanLimits) {
	raw, err := json.Marshal(limits)
	if err != nil {
		return
	}
	if err := c.cache.Set(trainerID[:], raw, c.ttl); err != nil {
		logrus.WithError(err).Debug("limits cache set failed")
	}
}

func (c *LimitsCache) Invalidate(trainerID primitive.ObjectID) {
	c.cache.Del(trainerID[:])
}
