package domain

// Tier classifies an outlet's editorial influence. Tier 1 outlets carry the
// most weight in composite scoring; tier 3 the least.
type Tier int

// Outlet influence tiers.
const (
	Tier1 Tier = 1
	Tier2 Tier = 2
	Tier3 Tier = 3
)

// Tier weights applied to normalized scores during aggregation.
// The mapping is fixed reference data; tier edits are rare manual changes
// and never rewrite weights already copied onto canonical reviews.
const (
	tier1Weight = 1.0
	tier2Weight = 0.85
	tier3Weight = 0.70
)

// Weight returns the aggregation multiplier for this tier.
// Unknown tiers fall back to the tier-3 weight rather than zeroing a
// review out of the composite.
func (t Tier) Weight() float64 {
	switch t {
	case Tier1:
		return tier1Weight
	case Tier2:
		return tier2Weight
	default:
		return tier3Weight
	}
}

// Valid reports whether the tier is one of the three defined tiers.
func (t Tier) Valid() bool { return t >= Tier1 && t <= Tier3 }

// RatingFormat declares how an outlet expresses its ratings, which selects
// the normalization rule applied to raw rating strings.
type RatingFormat string

// Supported rating formats.
const (
	// FormatStars is a star count against a known maximum scale (e.g. 4/5).
	FormatStars RatingFormat = "stars"

	// FormatLetter is a letter grade from A+ down to F.
	FormatLetter RatingFormat = "letter"

	// FormatPercent is a 0-100 percentage, passed through with clamping.
	FormatPercent RatingFormat = "percent"

	// FormatSentiment is a free-text sentiment label (e.g. "Rave", "Pan")
	// used by outlets that publish no numeric or letter rating.
	FormatSentiment RatingFormat = "sentiment"

	// FormatNone marks reviews with no explicit rating at all. These are
	// scored by the ensemble sentiment scorer instead of the normalizer.
	FormatNone RatingFormat = "none"
)

// Outlet is a publication producing critic reviews. Outlets are immutable
// reference data loaded at pipeline start.
type Outlet struct {
	// ID is the stable identifier for this outlet.
	ID string `json:"id" yaml:"id" validate:"required"`

	// Name is the canonical display name.
	Name string `json:"name" yaml:"name" validate:"required"`

	// Tier is the influence tier (1 strongest, 3 weakest).
	Tier Tier `json:"tier" yaml:"tier" validate:"required,min=1,max=3"`

	// Format is the rating format this outlet is expected to publish.
	Format RatingFormat `json:"format" yaml:"format" validate:"required,oneof=stars letter percent sentiment none"`

	// MaxScale is the maximum star count for star-rated outlets (e.g. 5).
	// Ignored for other formats.
	MaxScale float64 `json:"max_scale,omitempty" yaml:"max_scale,omitempty"`

	// Aliases lists alternate names used by aggregators for this outlet.
	// Matching is case-insensitive.
	Aliases []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
}

// Weight returns the aggregation multiplier for this outlet's tier.
func (o Outlet) Weight() float64 { return o.Tier.Weight() }
