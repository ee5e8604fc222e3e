// Package source provides the listings a search is ranked against.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/jobguide/internal/condition"
	"github.com/spigell/jobguide/internal/listing"
)

const (
	KindFile = "file"
	KindNop  = "nop"
)

// Source returns candidate listings for a query. Results are neither scored
// nor ordered by relevance.
type Source interface {
	Search(ctx context.Context, q condition.Query, limit int) ([]listing.Listing, error)
	FindByID(ctx context.Context, id string) (*listing.Listing, error)
}

var ErrNotFound = errors.New("listing not found")

type document struct {
	Jobs        []listing.Listing `mapstructure:"jobs"`
	LastUpdated string            `mapstructure:"last_updated"`
	TotalCount  int               `mapstructure:"total_count"`
}

// FileSource serves listings from a jobs.json document. The file is re-read
// on every call so an external crawler can replace it at any time.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) load() ([]listing.Listing, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}

	var doc document
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &doc,
	})
	if err != nil {
		return nil, fmt.Errorf("create decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}

	return doc.Jobs, nil
}

// Search returns up to limit candidate listings. Listings matching both the
// query keyword and location come first, then those matching either, then the
// rest, each group in file order. Nothing is dropped here; relevance is decided
// by ranking. A non-positive limit returns every listing.
func (s *FileSource) Search(ctx context.Context, q condition.Query, limit int) ([]listing.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	all, err := s.load()
	if err != nil {
		return nil, err
	}

	keyword := strings.ToLower(strings.TrimSpace(q.Keyword))
	var locations []string
	if loc := strings.TrimSpace(q.Location); loc != "" {
		locations = condition.LocationSynonyms(loc)
	}

	hits := make([]int, len(all))
	for i, item := range all {
		if keyword != "" && matchesKeyword(item, keyword) {
			hits[i]++
		}
		if len(locations) > 0 && matchesLocation(item, locations) {
			hits[i]++
		}
	}

	order := make([]int, len(all))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return hits[order[a]] > hits[order[b]]
	})

	if limit > 0 && len(order) > limit {
		order = order[:limit]
	}
	result := make([]listing.Listing, 0, len(order))
	for _, i := range order {
		result = append(result, all[i])
	}
	return result, nil
}

func (s *FileSource) FindByID(ctx context.Context, id string) (*listing.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	all, err := s.load()
	if err != nil {
		return nil, err
	}

	found := listing.New(all).FindByID(id)
	if found == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return found, nil
}

func matchesKeyword(item listing.Listing, keyword string) bool {
	for _, field := range []string{item.Title, item.Description, item.Company} {
		if strings.Contains(strings.ToLower(field), keyword) {
			return true
		}
	}
	return false
}

func matchesLocation(item listing.Listing, synonyms []string) bool {
	location := strings.ToLower(item.Location)
	for _, s := range synonyms {
		if strings.Contains(location, strings.ToLower(s)) {
			return true
		}
	}
	return false
}

// Nop never returns listings.
type Nop struct{}

func (Nop) Search(context.Context, condition.Query, int) ([]listing.Listing, error) {
	return nil, nil
}

func (Nop) FindByID(_ context.Context, id string) (*listing.Listing, error) {
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// New builds the source named by kind.
func New(kind, path string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindFile:
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("jobs file path is required for the file source")
		}
		return NewFileSource(path), nil
	case KindNop:
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unsupported listing source %q", kind)
	}
}
