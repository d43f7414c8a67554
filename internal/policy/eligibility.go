package policy

import (
	"time"

	"github.com/playtestbot/roster/internal/domain"
)

// DefaultResetHourUTC approximates local midnight for the reference timezone.
// No DST correction is applied.
const DefaultResetHourUTC = 5

// Category is the bucket a playtester is resolved into.
type Category string

const (
	CategoryAdded     Category = "added"
	CategoryRemoved   Category = "removed"
	CategoryWhitelist Category = "whitelist"
	CategoryBlacklist Category = "blacklist"
	CategoryPool      Category = "pool"
)

// Categories partitions a population. Every input record lands in exactly one list.
type Categories struct {
	Added     []domain.Playtester `json:"added"`
	Removed   []domain.Playtester `json:"removed"`
	Whitelist []domain.Playtester `json:"whitelist"`
	Blacklist []domain.Playtester `json:"blacklist"`
	Pool      []domain.Playtester `json:"pool"`
}

// Len returns the total number of records across all categories.
func (c Categories) Len() int {
	return len(c.Added) + len(c.Removed) + len(c.Whitelist) + len(c.Blacklist) + len(c.Pool)
}

func (c *Categories) add(cat Category, p domain.Playtester) {
	switch cat {
	case CategoryAdded:
		c.Added = append(c.Added, p)
	case CategoryRemoved:
		c.Removed = append(c.Removed, p)
	case CategoryWhitelist:
		c.Whitelist = append(c.Whitelist, p)
	case CategoryBlacklist:
		c.Blacklist = append(c.Blacklist, p)
	default:
		c.Pool = append(c.Pool, p)
	}
}

// eligibilityRule matches a playtester given its effective temp state.
type eligibilityRule struct {
	category Category
	matches  func(p *domain.Playtester, temp domain.TempState) bool
}

// Same-day temp decisions outrank sticky perm decisions. First match wins;
// anything unmatched falls through to the pool.
var eligibilityRules = []eligibilityRule{
	{CategoryAdded, func(_ *domain.Playtester, temp domain.TempState) bool { return temp == domain.TempAdded }},
	{CategoryRemoved, func(_ *domain.Playtester, temp domain.TempState) bool { return temp == domain.TempRemoved }},
	{CategoryWhitelist, func(p *domain.Playtester, _ domain.TempState) bool { return p.PermState == domain.PermWhitelisted }},
	{CategoryBlacklist, func(p *domain.Playtester, _ domain.TempState) bool { return p.PermState == domain.PermBlacklisted }},
}

// EligibilityResolver sorts a population into categories relative to the daily reset.
type EligibilityResolver struct {
	resetOffset time.Duration
}

// NewEligibilityResolver creates a resolver whose reset boundary falls resetHour
// hours after UTC midnight. Values outside [0, 24) fall back to DefaultResetHourUTC.
func NewEligibilityResolver(resetHour int) *EligibilityResolver {
	if resetHour < 0 || resetHour >= 24 {
		resetHour = DefaultResetHourUTC
	}
	return &EligibilityResolver{resetOffset: time.Duration(resetHour) * time.Hour}
}

// ResetBoundary returns the most recent reset instant at or before now.
func (r *EligibilityResolver) ResetBoundary(now time.Time) time.Time {
	now = now.UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	boundary := midnight.Add(r.resetOffset)
	if boundary.After(now) {
		boundary = boundary.AddDate(0, 0, -1)
	}
	return boundary
}

// Classify returns the category of a single playtester at the given boundary.
func (r *EligibilityResolver) Classify(p *domain.Playtester, boundary time.Time) Category {
	temp := p.EffectiveTempState(boundary)
	for _, rule := range eligibilityRules {
		if rule.matches(p, temp) {
			return rule.category
		}
	}
	return CategoryPool
}

// Resolve partitions users. Input order is preserved within each category.
func (r *EligibilityResolver) Resolve(users []domain.Playtester, now time.Time) Categories {
	boundary := r.ResetBoundary(now)
	var cats Categories
	for i := range users {
		cats.add(r.Classify(&users[i], boundary), users[i])
	}
	return cats
}
