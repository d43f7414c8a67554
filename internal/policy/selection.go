package policy

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"sort"

	"github.com/playtestbot/roster/internal/domain"
)

// Roster is the outcome of a draw plus everything needed to display it.
type Roster struct {
	// Members lists forced-in users first (by id), then lottery picks in draw order.
	Members   []domain.Playtester `json:"members"`
	Entries   map[string]int      `json:"entries"`
	Added     []domain.Playtester `json:"added"`
	Removed   []domain.Playtester `json:"removed"`
	Whitelist []domain.Playtester `json:"whitelist"`
	Blacklist []domain.Playtester `json:"blacklist"`
	Pool      []domain.Playtester `json:"pool"`
	Requested int                 `json:"requested"`
	Shortfall int                 `json:"shortfall"`
}

// MemberIDs returns the roster ids in order.
func (r Roster) MemberIDs() []string {
	ids := make([]string, len(r.Members))
	for i, m := range r.Members {
		ids[i] = m.ID
	}
	return ids
}

// WeightedSelector turns participation counts into lottery entries and draws rosters.
type WeightedSelector struct{}

// NewWeightedSelector creates a WeightedSelector.
func NewWeightedSelector() *WeightedSelector {
	return &WeightedSelector{}
}

// NewRand returns a deterministic source for Draw.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// NewSeed returns a random seed from crypto/rand for production draws.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// Entries computes (MaxCount+1) - count for every pool member, so each member
// holds at least one entry and the least recent participants hold the most.
func (s *WeightedSelector) Entries(pool []domain.Playtester, part Participation) map[string]int {
	entries := make(map[string]int, len(pool))
	for _, p := range pool {
		n := part.MaxCount + 1 - part.Count(p.ID)
		if n < 1 {
			n = 1
		}
		entries[p.ID] = n
	}
	return entries
}

type candidate struct {
	member  domain.Playtester
	entries int
}

// Draw builds a roster of requested size: every added user plus a weighted sample
// without replacement from the pool for the remaining seats. Users in any other
// category are never drawn. When the pool runs out the roster is
// capped and the missing seats are reported as Shortfall.
//
// For a fixed rng seed and identical inputs the result is identical.
func (s *WeightedSelector) Draw(rng *rand.Rand, cats Categories, part Participation, requested int) Roster {
	entries := s.Entries(cats.Pool, part)

	added := sortedByID(cats.Added)
	pool := sortedByID(cats.Pool)

	candidates := make([]candidate, len(pool))
	for i, p := range pool {
		candidates[i] = candidate{member: p, entries: entries[p.ID]}
	}

	members := make([]domain.Playtester, 0, max(requested, len(added)))
	members = append(members, added...)

	seats := max(0, requested-len(added))
	for ; seats > 0 && len(candidates) > 0; seats-- {
		idx := pickWeighted(rng, candidates)
		members = append(members, candidates[idx].member)
		candidates = append(candidates[:idx], candidates[idx+1:]...)
	}

	return Roster{
		Members:   members,
		Entries:   entries,
		Added:     added,
		Removed:   sortedByID(cats.Removed),
		Whitelist: sortedByID(cats.Whitelist),
		Blacklist: sortedByID(cats.Blacklist),
		Pool:      pool,
		Requested: requested,
		Shortfall: max(0, requested-len(members)),
	}
}

// pickWeighted returns an index with probability proportional to its entries.
func pickWeighted(rng *rand.Rand, candidates []candidate) int {
	total := 0
	for _, c := range candidates {
		total += c.entries
	}
	r := rng.Intn(total)
	for i, c := range candidates {
		if r < c.entries {
			return i
		}
		r -= c.entries
	}
	return len(candidates) - 1
}

func sortedByID(in []domain.Playtester) []domain.Playtester {
	out := make([]domain.Playtester, len(in))
	copy(out, in)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
