package extract

import (
	"regexp"

	"github.com/nao1215/leakwatch/internal/model"
)

// Patterns used by the default matchers.
// \b and \d are ASCII-only, so a digit run directly after a non-ASCII
// letter still starts a match.
const (
	// EmailPattern matches a local part, an "@", a label and a dotted tail.
	EmailPattern = `[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9.-]+`

	// PhonePattern matches 10 digits starting with 6-9, optionally prefixed
	// with +91 and an optional space or dash.
	PhonePattern = `\b(?:\+91[-\s]?)?[6-9]\d{9}\b`

	// CreditCardPattern matches 13 to 16 digits with optional space or dash
	// separators between them.
	CreditCardPattern = `\b(?:\d[ -]*?){13,16}\b`
)

// Matcher finds all values of one category in a text.
type Matcher interface {
	// Category returns the category the matches belong to.
	Category() model.Category

	// Match returns every match in text, in order of appearance.
	// Duplicates are allowed; the Extractor collapses them.
	Match(text string) []string
}

// RegexpMatcher is a Matcher backed by a compiled regular expression.
type RegexpMatcher struct {
	category model.Category
	re       *regexp.Regexp
}

// NewRegexpMatcher compiles pattern into a matcher for the given category.
func NewRegexpMatcher(category model.Category, pattern string) (*RegexpMatcher, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &RegexpMatcher{category: category, re: re}, nil
}

// MustRegexpMatcher is like NewRegexpMatcher but panics on an invalid pattern.
// It is intended for package-level patterns known to be valid.
func MustRegexpMatcher(category model.Category, pattern string) *RegexpMatcher {
	m, err := NewRegexpMatcher(category, pattern)
	if err != nil {
		panic(err)
	}
	return m
}

// Category implements Matcher.
func (m *RegexpMatcher) Category() model.Category {
	return m.category
}

// Match implements Matcher.
func (m *RegexpMatcher) Match(text string) []string {
	return m.re.FindAllString(text, -1)
}

var (
	emailMatcher      = MustRegexpMatcher(model.CategoryEmail, EmailPattern)
	phoneMatcher      = MustRegexpMatcher(model.CategoryPhone, PhonePattern)
	creditCardMatcher = MustRegexpMatcher(model.CategoryCreditCard, CreditCardPattern)
)

// DefaultMatchers returns the email, phone and credit card matchers.
func DefaultMatchers() []Matcher {
	return []Matcher{emailMatcher, phoneMatcher, creditCardMatcher}
}

// Extractor runs a set of matchers over a text.
type Extractor struct {
	matchers []Matcher
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMatchers replaces the default matchers.
func WithMatchers(matchers ...Matcher) Option {
	return func(e *Extractor) {
		e.matchers = matchers
	}
}

// WithAdditionalMatchers appends matchers to the current set.
// Matches from several matchers of the same category are merged.
func WithAdditionalMatchers(matchers ...Matcher) Option {
	return func(e *Extractor) {
		e.matchers = append(e.matchers, matchers...)
	}
}

// New creates an Extractor with the default matchers.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		matchers: DefaultMatchers(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the sensitive values found in text, grouped by category.
// Every set in the result is allocated, so an empty or non-matching text
// yields three empty sets. Matchers whose category is unknown are ignored.
func (e *Extractor) Extract(text string) model.Data {
	data := model.NewData()
	if text == "" {
		return data
	}
	for _, m := range e.matchers {
		set := data.Set(m.Category())
		if set == nil {
			continue
		}
		for _, v := range m.Match(text) {
			set.Add(v)
		}
	}
	return data
}
