package filtering

import (
	"context"

	"github.com/spigell/jobguide/internal/condition"
	"github.com/spigell/jobguide/internal/listing"
)

type dedupFilter struct {
	disabled bool
	reason   string
}

// NewDedup creates a filter that collapses listings sharing title, company and location.
func NewDedup() Filter {
	return &dedupFilter{}
}

func (f *dedupFilter) Name() string { return "dedup" }

func (f *dedupFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *dedupFilter) IsEnabled() bool { return !f.disabled }

func (f *dedupFilter) Validate() error { return nil }

func (f *dedupFilter) Apply(_ context.Context, _ condition.SearchCondition, l *listing.Listings) (*listing.Listings, Step, error) {
	initial := l.Len()
	dropped := l.Dedup()
	return l, Step{Initial: initial, Dropped: len(dropped), Left: l.Len()}, nil
}

func (f *dedupFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}
