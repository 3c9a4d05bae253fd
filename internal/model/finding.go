package model

import (
	"strings"
	"time"
)

// Category identifies one class of sensitive value.
type Category string

// Supported categories. The string values are the keys of the persisted
// data document and must not change.
const (
	// CategoryEmail holds email-like tokens.
	CategoryEmail Category = "emails"
	// CategoryPhone holds phone-like tokens.
	CategoryPhone Category = "phones"
	// CategoryCreditCard holds credit-card-like tokens.
	CategoryCreditCard Category = "credit_cards"
)

// Categories returns all categories in their canonical order.
func Categories() []Category {
	return []Category{CategoryEmail, CategoryPhone, CategoryCreditCard}
}

// String returns the category key.
func (c Category) String() string {
	return string(c)
}

// Label returns a human-readable name for reports, e.g. "credit cards".
func (c Category) Label() string {
	return strings.ReplaceAll(string(c), "_", " ")
}

// Data is the structured extraction result of a single page.
// Every category is a set; a zero Data is valid and empty.
type Data struct {
	Emails      StringSet `json:"emails"`
	Phones      StringSet `json:"phones"`
	CreditCards StringSet `json:"credit_cards"`
}

// NewData creates an empty Data with all sets allocated.
func NewData() Data {
	return Data{
		Emails:      NewStringSet(),
		Phones:      NewStringSet(),
		CreditCards: NewStringSet(),
	}
}

// Set returns the set stored under the given category.
// The returned set may be nil for a zero Data; reading from it is safe.
func (d Data) Set(c Category) StringSet {
	switch c {
	case CategoryEmail:
		return d.Emails
	case CategoryPhone:
		return d.Phones
	case CategoryCreditCard:
		return d.CreditCards
	default:
		return nil
	}
}

// IsEmpty reports whether every category is empty.
func (d Data) IsEmpty() bool {
	return d.Emails.Len() == 0 && d.Phones.Len() == 0 && d.CreditCards.Len() == 0
}

// Total returns the number of values across all categories.
func (d Data) Total() int {
	return d.Emails.Len() + d.Phones.Len() + d.CreditCards.Len()
}

// Finding is a persisted record of sensitive data discovered at a URL.
//
// URL is the natural key: at most one Finding is stored per URL. A Finding
// is written once and never updated in place.
type Finding struct {
	// Query is the base topic that produced this discovery. Not unique.
	Query string `json:"query"`

	// URL is the source page URL.
	URL string `json:"url"`

	// Data holds the extracted values per category.
	Data Data `json:"data"`

	// Timestamp is the capture time in UTC.
	Timestamp time.Time `json:"timestamp"`
}

// NewFinding creates a Finding captured at the given time.
// The timestamp is converted to UTC.
func NewFinding(query, url string, data Data, capturedAt time.Time) *Finding {
	return &Finding{
		Query:     query,
		URL:       url,
		Data:      data,
		Timestamp: capturedAt.UTC(),
	}
}

// Lookup holds the identifiers a reader asks about.
// Empty fields do not participate in the match.
type Lookup struct {
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	CreditCard string `json:"credit_card,omitempty"`
}

// Normalize returns a copy with surrounding whitespace removed from every field.
func (l Lookup) Normalize() Lookup {
	return Lookup{
		Email:      strings.TrimSpace(l.Email),
		Phone:      strings.TrimSpace(l.Phone),
		CreditCard: strings.TrimSpace(l.CreditCard),
	}
}

// IsEmpty reports whether no identifier is set.
func (l Lookup) IsEmpty() bool {
	return l.Email == "" && l.Phone == "" && l.CreditCard == ""
}

// Criteria returns the non-empty identifiers keyed by the category they match.
func (l Lookup) Criteria() map[Category]string {
	criteria := make(map[Category]string, 3)
	if l.Email != "" {
		criteria[CategoryEmail] = l.Email
	}
	if l.Phone != "" {
		criteria[CategoryPhone] = l.Phone
	}
	if l.CreditCard != "" {
		criteria[CategoryCreditCard] = l.CreditCard
	}
	return criteria
}

// Matches reports whether the finding contains any of the lookup's identifiers.
func (l Lookup) Matches(f *Finding) bool {
	for category, value := range l.Criteria() {
		if f.Data.Set(category).Contains(value) {
			return true
		}
	}
	return false
}
