package listing

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"
)

const (
	IDField      = "ID"
	CompanyField = "Company"
	URLField     = "URL"
)

// Listing is a single job posting as returned by a listing source. It is
// never modified after decoding.
type Listing struct {
	ID          string `json:"id" mapstructure:"id"`
	Title       string `json:"title" mapstructure:"title"`
	Company     string `json:"company" mapstructure:"company"`
	SalaryText  string `json:"salary" mapstructure:"salary"`
	Location    string `json:"location" mapstructure:"location"`
	Description string `json:"description" mapstructure:"description"`
	Platform    string `json:"platform" mapstructure:"platform"`
	URL         string `json:"url" mapstructure:"url"`
}

// AIAssessment carries the verdict of the optional AI fit check.
type AIAssessment struct {
	Fit     bool    `json:"fit"`
	Score   float64 `json:"score"`
	Reason  string  `json:"reason,omitempty"`
	Message string  `json:"message,omitempty"`
	Raw     string  `json:"-"`
	Error   string  `json:"error,omitempty"`
}

// Scored is a listing together with its relevance score. Values are created
// per search and not mutated afterwards.
type Scored struct {
	Listing
	Score float64       `json:"relevance_score"`
	AI    *AIAssessment `json:"ai,omitempty"`
}

type Listings struct {
	Items []*Listing
}

// New copies items into a list.
func New(items []Listing) *Listings {
	l := &Listings{Items: make([]*Listing, 0, len(items))}
	for i := range items {
		item := items[i]
		l.Items = append(l.Items, &item)
	}
	return l
}

func (l *Listings) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Items)
}

// Values returns a copy of the listings.
func (l *Listings) Values() []Listing {
	values := make([]Listing, 0, l.Len())
	if l == nil {
		return values
	}
	for _, item := range l.Items {
		values = append(values, *item)
	}
	return values
}

func (l *Listings) FindByID(id string) *Listing {
	for _, item := range l.Items {
		if item.ID == id {
			return item
		}
	}
	return nil
}

func (li *Listing) GetStringField(name string) string {
	switch name {
	case IDField:
		return li.ID
	case CompanyField:
		return li.Company
	case URLField:
		return li.URL
	default:
		return ""
	}
}

// Exclude removes every listing whose field matches one of targets and
// returns the removed ids. Order of the remaining listings is preserved.
// Company names are compared case-insensitively.
func (l *Listings) Exclude(name string, targets []string) []string {
	if len(targets) == 0 {
		return nil
	}

	set := make(map[string]struct{}, len(targets))
	for _, target := range targets {
		set[normalizeField(name, target)] = struct{}{}
	}

	var excluded []string
	kept := l.Items[:0]
	for _, item := range l.Items {
		if _, ok := set[normalizeField(name, item.GetStringField(name))]; ok {
			excluded = append(excluded, item.ID)
			continue
		}
		kept = append(kept, item)
	}
	l.Items = kept

	return excluded
}

func normalizeField(name, value string) string {
	value = strings.TrimSpace(value)
	if name == CompanyField {
		return strings.ToLower(value)
	}
	return value
}

// Dedup drops listings that share a fingerprint with an earlier one and
// returns the ids of the dropped entries.
func (l *Listings) Dedup() []string {
	seen := make(map[string]struct{}, l.Len())
	var dropped []string
	kept := l.Items[:0]
	for _, item := range l.Items {
		key := Fingerprint(item)
		if _, ok := seen[key]; ok {
			dropped = append(dropped, item.ID)
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, item)
	}
	l.Items = kept
	return dropped
}

// Fingerprint identifies a posting by its normalised title, company and
// location so the same job from different platforms collapses into one.
func Fingerprint(li *Listing) string {
	key := strings.ToLower(strings.TrimSpace(li.Title)) + "|" +
		strings.ToLower(strings.TrimSpace(li.Company)) + "|" +
		strings.ToLower(strings.TrimSpace(li.Location))
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}

const (
	ExcludeActorUser = "user"
	ExcludeActorAI   = "ai"
)

type ExcludedListings struct {
	Items []*ExcludedListing
}

type ExcludedListing struct {
	ID         string
	URL        string
	Company    string
	Actor      string
	Reason     string `json:",omitempty"`
	ExcludedAt time.Time
}

func (l *Listings) ToExcluded(actor, reason string) *ExcludedListings {
	excluded := &ExcludedListings{}
	for _, item := range l.Items {
		excluded.Items = append(excluded.Items, &ExcludedListing{
			ID:         item.ID,
			URL:        item.URL,
			Company:    item.Company,
			Actor:      actor,
			Reason:     reason,
			ExcludedAt: time.Now().UTC(),
		})
	}
	return excluded
}

// ExcludedFromFile reads an exclude file. A missing or empty file yields an
// empty list.
func ExcludedFromFile(path string) (*ExcludedListings, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &ExcludedListings{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &ExcludedListings{}, nil
	}

	var excluded ExcludedListings
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &excluded, nil
}

func (e *ExcludedListings) Append(s *ExcludedListings) {
	e.Items = append(e.Items, s.Items...)
}

func (e *ExcludedListings) IDs() []string {
	ids := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

func (e *ExcludedListings) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}
