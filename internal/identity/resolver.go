// Package identity canonicalizes raw (production, outlet, critic) triples
// into stable review identities, and detects near-duplicate identities
// without ever merging them automatically.
package identity

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/showscore/marquee/internal/domain"
)

// DefaultDuplicateThreshold is the edit distance at or below which two
// distinct critic slugs are flagged as candidate duplicates (catching
// typos like "Teachout" vs "Techout"). Merging always requires an explicit
// manual decision.
const DefaultDuplicateThreshold = 2

var (
	// foldCaser is a package-level Unicode case folder for performance.
	foldCaser = cases.Fold()

	// deaccenter strips combining diacritical marks so "Zoë" and "Zoe"
	// produce the same slug.
	deaccenter = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Resolver maps raw outlet and critic name variants onto canonical
// identities. Resolution is deterministic: identical raw input always
// yields the identical canonical key, which makes re-runs idempotent.
//
// The resolver is immutable after construction and safe for concurrent
// use.
type Resolver struct {
	// byAlias maps case-folded outlet names and aliases to outlets.
	byAlias map[string]domain.Outlet
	// byID maps outlet ids to outlets.
	byID map[string]domain.Outlet
	// threshold is the near-duplicate edit distance cutoff.
	threshold int
}

// NewResolver builds a resolver over the outlet reference set. It fails
// fast when two outlets claim the same name or alias, since an ambiguous
// alias would make resolution nondeterministic.
func NewResolver(outlets []domain.Outlet, threshold int) (*Resolver, error) {
	if threshold <= 0 {
		threshold = DefaultDuplicateThreshold
	}

	r := &Resolver{
		byAlias:   make(map[string]domain.Outlet),
		byID:      make(map[string]domain.Outlet, len(outlets)),
		threshold: threshold,
	}

	for _, outlet := range outlets {
		if _, exists := r.byID[outlet.ID]; exists {
			return nil, fmt.Errorf("duplicate outlet id %q", outlet.ID)
		}
		r.byID[outlet.ID] = outlet

		names := append([]string{outlet.Name}, outlet.Aliases...)
		for _, name := range names {
			folded := foldCaser.String(strings.TrimSpace(name))
			if claimed, exists := r.byAlias[folded]; exists && claimed.ID != outlet.ID {
				return nil, fmt.Errorf("outlet name %q claimed by both %q and %q", name, claimed.ID, outlet.ID)
			}
			r.byAlias[folded] = outlet
		}
	}

	return r, nil
}

// ResolveOutlet matches an outlet name variant case-insensitively against
// canonical names and aliases. Unresolved names return an
// UnknownOutletError so the caller can park the review instead of
// inventing an outlet.
func (r *Resolver) ResolveOutlet(name, productionID string) (domain.Outlet, error) {
	outlet, ok := r.byAlias[foldCaser.String(strings.TrimSpace(name))]
	if !ok {
		return domain.Outlet{}, &domain.UnknownOutletError{Name: name, ProductionID: productionID}
	}
	return outlet, nil
}

// Outlet returns the outlet with the given id.
func (r *Resolver) Outlet(id string) (domain.Outlet, bool) {
	outlet, ok := r.byID[id]
	return outlet, ok
}

// Outlets returns the full outlet reference set, keyed by id.
func (r *Resolver) Outlets() map[string]domain.Outlet { return r.byID }

// Resolve canonicalizes one raw evidence record into its review key and
// resolved outlet. Resolve is a pure function of its input and the outlet
// reference set: resolve(resolve(x)) == resolve(x).
func (r *Resolver) Resolve(ev domain.RawEvidence) (domain.ReviewKey, domain.Outlet, error) {
	outlet, err := r.ResolveOutlet(ev.OutletName, ev.ProductionID)
	if err != nil {
		return domain.ReviewKey{}, domain.Outlet{}, err
	}

	key := domain.ReviewKey{
		ProductionID: ev.ProductionID,
		OutletID:     outlet.ID,
		CriticSlug:   CriticSlug(ev.CriticName),
	}
	return key, outlet, nil
}

// DetectDuplicates scans a production's canonical shard for identities the
// incoming key resembles. Two detectable cases:
//
//   - near_name: a different critic slug at the same outlet within the
//     edit-distance threshold, usually a typo in one feed.
//   - cross_outlet: the same critic slug under a different outlet id for
//     the same production, a possible shared masthead. Outlets can
//     legitimately co-publish different writers, so this is surfaced for
//     manual confirmation.
//
// Findings are flags, not merges: the incoming review proceeds under its
// own key either way.
func (r *Resolver) DetectDuplicates(shard *domain.ReviewShard, key domain.ReviewKey) []domain.CandidateDuplicate {
	if shard == nil {
		return nil
	}

	var findings []domain.CandidateDuplicate
	for _, existing := range shard.Reviews {
		if existing.Key == key {
			continue
		}

		if existing.Key.OutletID == key.OutletID {
			distance := levenshtein.ComputeDistance(existing.Key.CriticSlug, key.CriticSlug)
			if distance <= r.threshold {
				findings = append(findings, domain.CandidateDuplicate{
					Kind:        domain.DuplicateNearName,
					Key:         key,
					ExistingKey: existing.Key,
					Distance:    distance,
				})
			}
			continue
		}

		if existing.Key.CriticSlug == key.CriticSlug {
			findings = append(findings, domain.CandidateDuplicate{
				Kind:        domain.DuplicateCrossOutlet,
				Key:         key,
				ExistingKey: existing.Key,
			})
		}
	}
	return findings
}

// CriticSlug derives the canonical critic identifier from a display name:
// case-folded, diacritics stripped, punctuation removed, words joined with
// hyphens. The slug is deterministic for a given input.
func CriticSlug(name string) string {
	folded := foldCaser.String(strings.TrimSpace(name))
	if deaccented, _, err := transform.String(deaccenter, folded); err == nil {
		folded = deaccented
	}

	var b strings.Builder
	b.Grow(len(folded))
	lastHyphen := true // suppress a leading hyphen
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteRune('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
