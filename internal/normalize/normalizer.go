// Package normalize maps arbitrary raw rating representations — star
// counts, letter grades, percentages, and free-text sentiment labels —
// onto the canonical 0-100 score scale.
//
// Normalization never guesses: a rating string that does not match its
// declared format fails with a typed error wrapping
// domain.ErrUnrecognizedFormat, and the caller decides whether to fall
// back to sentiment-only scoring or reject the input.
package normalize

import (
	"math"
	"strconv"
	"strings"

	"github.com/showscore/marquee/internal/domain"
)

// letterGrades maps letter grades onto the 0-100 scale, A+ = 100 down
// through F = 30. The table is strictly monotonic in grade rank. Grades
// below F are not expected and fail normalization.
var letterGrades = map[string]int{
	"A+": 100,
	"A":  95,
	"A-": 91,
	"B+": 87,
	"B":  83,
	"B-": 79,
	"C+": 74,
	"C":  70,
	"C-": 66,
	"D+": 61,
	"D":  56,
	"D-": 51,
	"F":  30,
}

// sentimentLabel holds the fixed anchor score and bucket for one
// free-text sentiment label.
type sentimentLabel struct {
	score  int
	bucket domain.SentimentBucket
}

// sentimentLabels maps canonicalized sentiment labels onto anchor scores.
// Used for outlets that publish no numeric or letter rating.
var sentimentLabels = map[string]sentimentLabel{
	"rave":           {90, domain.BucketRave},
	"positive":       {82, domain.BucketPositive},
	"mixed-positive": {72, domain.BucketMixedPositive},
	"mixed":          {65, domain.BucketMixed},
	"neutral":        {65, domain.BucketMixed},
	"mixed-negative": {58, domain.BucketMixedNegative},
	"negative":       {48, domain.BucketNegative},
	"pan":            {30, domain.BucketPan},
}

// Designation bonuses are additive points applied after base
// normalization, clamped to 100. Bonuses never lower a score.
var designationBonuses = map[string]int{
	"critics_pick": 3,
	"recommended":  2,
}

// Rating is the outcome of normalizing one raw rating: the 0-100 score,
// the polarity it implies, and the sentiment bucket when the source rating
// was a sentiment label.
type Rating struct {
	Score    int
	Polarity domain.Polarity
	Bucket   domain.SentimentBucket
}

// Normalize converts a raw rating string to a canonical Rating under the
// declared format. maxScale is required for star ratings and ignored
// otherwise. The returned score is always within [0,100].
func Normalize(raw string, format domain.RatingFormat, maxScale float64) (Rating, error) {
	var (
		score  int
		bucket domain.SentimentBucket
		err    error
	)

	switch format {
	case domain.FormatStars:
		score, err = normalizeStars(raw, maxScale)
	case domain.FormatLetter:
		score, err = normalizeLetter(raw)
	case domain.FormatPercent:
		score, err = normalizePercent(raw)
	case domain.FormatSentiment:
		score, bucket, err = normalizeSentiment(raw)
	default:
		err = &domain.FormatError{Format: format, Raw: raw, Reason: "format has no normalization rule"}
	}
	if err != nil {
		return Rating{}, err
	}

	return Rating{
		Score:    score,
		Polarity: domain.PolarityForScore(score),
		Bucket:   bucket,
	}, nil
}

// ApplyDesignation adds the bonus points for a designation (e.g. a
// critic's pick) to a base score and clamps the result to 100. Unknown
// designations add nothing. Bonuses never lower a score.
func ApplyDesignation(score int, designation string) int {
	bonus := designationBonuses[canonicalLabel(designation)]
	boosted := score + bonus
	if boosted > 100 {
		return 100
	}
	return boosted
}

// normalizeStars computes round(stars/maxScale*100). It accepts a bare
// count ("3.5") or a count with its scale ("3.5/5"); an explicit scale
// must agree with the outlet's declared scale.
func normalizeStars(raw string, maxScale float64) (int, error) {
	if maxScale <= 0 {
		return 0, &domain.FormatError{Format: domain.FormatStars, Raw: raw, Reason: "outlet has no max scale"}
	}

	value := strings.TrimSpace(raw)
	if numerator, denominator, found := strings.Cut(value, "/"); found {
		scale, err := strconv.ParseFloat(strings.TrimSpace(denominator), 64)
		if err != nil || scale != maxScale {
			return 0, &domain.FormatError{Format: domain.FormatStars, Raw: raw, Reason: "scale does not match outlet"}
		}
		value = strings.TrimSpace(numerator)
	}

	stars, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, &domain.FormatError{Format: domain.FormatStars, Raw: raw, Reason: "star count is not numeric"}
	}
	if stars < 0 || stars > maxScale {
		return 0, &domain.FormatError{Format: domain.FormatStars, Raw: raw, Reason: "star count outside scale"}
	}

	return int(math.Round(stars / maxScale * 100)), nil
}

// normalizeLetter looks a letter grade up in the fixed table.
func normalizeLetter(raw string) (int, error) {
	grade := strings.ToUpper(strings.TrimSpace(raw))
	score, ok := letterGrades[grade]
	if !ok {
		return 0, &domain.FormatError{Format: domain.FormatLetter, Raw: raw, Reason: "not a recognized letter grade"}
	}
	return score, nil
}

// normalizePercent passes a percentage through, clamped to [0,100].
func normalizePercent(raw string) (int, error) {
	value := strings.TrimSuffix(strings.TrimSpace(raw), "%")
	pct, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, &domain.FormatError{Format: domain.FormatPercent, Raw: raw, Reason: "not a numeric percentage"}
	}

	clamped := math.Round(pct)
	if clamped < 0 {
		clamped = 0
	}
	if clamped > 100 {
		clamped = 100
	}
	return int(clamped), nil
}

// normalizeSentiment maps a free-text sentiment label onto its fixed
// anchor score and bucket.
func normalizeSentiment(raw string) (int, domain.SentimentBucket, error) {
	label, ok := sentimentLabels[canonicalLabel(raw)]
	if !ok {
		return 0, "", &domain.FormatError{Format: domain.FormatSentiment, Raw: raw, Reason: "not a recognized sentiment label"}
	}
	return label.score, label.bucket, nil
}

// canonicalLabel lowercases a label and collapses the separator variants
// aggregators use ("Mixed Positive", "mixed_positive", "Mixed-Positive").
func canonicalLabel(raw string) string {
	label := strings.ToLower(strings.TrimSpace(raw))
	label = strings.ReplaceAll(label, " ", "-")
	label = strings.ReplaceAll(label, "_", "-")
	// "Mixed/Neutral" appears as a single label in some feeds.
	if before, _, found := strings.Cut(label, "/"); found {
		label = before
	}
	return label
}
