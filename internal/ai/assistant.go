package ai

import (
	"context"

	"github.com/spigell/jobguide/internal/condition"
	"github.com/spigell/jobguide/internal/listing"
)

type FitAssessment struct {
	Fit     bool
	Score   float64
	Reason  string
	Message string
	Raw     string
}

// ToListing converts the assessment into the form attached to ranked listings.
func (a *FitAssessment) ToListing() *listing.AIAssessment {
	if a == nil {
		return nil
	}
	return &listing.AIAssessment{
		Fit:     a.Fit,
		Score:   a.Score,
		Reason:  a.Reason,
		Message: a.Message,
		Raw:     a.Raw,
	}
}

// Matcher judges whether a listing fits what the user asked for.
type Matcher interface {
	Evaluate(ctx context.Context, cond condition.SearchCondition, l listing.Listing) (*FitAssessment, error)
}
