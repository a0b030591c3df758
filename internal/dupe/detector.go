// Package dupe decides whether a parsed transaction candidate duplicates a
// transaction already in the ledger.
package dupe

import (
	"context"
	"fmt"
	"strings"

	"duit/internal/core"
)

// DefaultThreshold is the minimum combined score for a match.
const DefaultThreshold = 0.85

// CandidateFinder is the slice of the transaction repository the detector
// needs: the fuzzy candidate search.
type CandidateFinder interface {
	FindPotentialDuplicates(ctx context.Context, date core.Date, amount core.Money, sourceApp, description string) ([]core.Transaction, error)
}

// Detector scores candidate matches returned by the repository search and
// picks the best one at or above the threshold.
//
// The repository query already restricts candidates to a one-day date
// window, a one-cent amount delta, the same source app and a description
// substring match. The detector refines that with a weighted score:
//
//	0.60 * description similarity (bigram Dice coefficient)
//	0.25 * date proximity (1.0 same day, 0.5 adjacent day)
//	0.15 * exact amount match
type Detector struct {
	finder    CandidateFinder
	threshold float64
}

func NewDetector(finder CandidateFinder, threshold float64) *Detector {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Detector{finder: finder, threshold: threshold}
}

// Check returns the best-matching original for the candidate, or nil when
// nothing scores at or above the threshold.
func (d *Detector) Check(ctx context.Context, candidate core.ParsedTransaction, sourceApp string) (*core.Transaction, error) {
	matches, err := d.finder.FindPotentialDuplicates(ctx,
		candidate.Date, candidate.Amount, sourceApp, candidate.Description)
	if err != nil {
		return nil, fmt.Errorf("find duplicate candidates: %w", err)
	}

	var (
		best      *core.Transaction
		bestScore float64
	)
	for i := range matches {
		score := d.score(candidate, matches[i])
		if score >= d.threshold && score > bestScore {
			best = &matches[i]
			bestScore = score
		}
	}
	return best, nil
}

func (d *Detector) score(candidate core.ParsedTransaction, stored core.Transaction) float64 {
	desc := diceCoefficient(normalize(candidate.Description), normalize(stored.Description))

	dateScore := 0.5
	if candidate.Date.String() == stored.Date.String() {
		dateScore = 1.0
	}

	amountScore := 0.0
	if candidate.Amount.Cents == stored.Amount.Cents {
		amountScore = 1.0
	}

	return 0.60*desc + 0.25*dateScore + 0.15*amountScore
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// diceCoefficient computes bigram set similarity in [0, 1]. Identical
// strings score 1; strings shorter than two runes only match exactly.
func diceCoefficient(a, b string) float64 {
	if a == b {
		return 1.0
	}
	ar, br := []rune(a), []rune(b)
	if len(ar) < 2 || len(br) < 2 {
		return 0.0
	}

	bigrams := make(map[string]int)
	for i := 0; i < len(ar)-1; i++ {
		bigrams[string(ar[i:i+2])]++
	}

	overlap := 0
	for i := 0; i < len(br)-1; i++ {
		bg := string(br[i : i+2])
		if bigrams[bg] > 0 {
			bigrams[bg]--
			overlap++
		}
	}
	return 2.0 * float64(overlap) / float64(len(ar)-1+len(br)-1)
}
