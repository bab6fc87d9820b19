// Package query builds GitHub search query strings from structured filters.
package query

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultLimit = 10
	MinLimit     = 1
	MaxLimit     = 30

	// trendingMinStars is the star floor a new repository must exceed to count as trending.
	trendingMinStars = 10
)

// Timeframes accepted by the trending query.
const (
	TimeframeDay   = "day"
	TimeframeWeek  = "week"
	TimeframeMonth = "month"
)

// TrendingFilter selects recently created, already popular repositories.
type TrendingFilter struct {
	Timeframe string
	Language  string
}

// SearchFilter is a free-text repository search with optional refinements.
type SearchFilter struct {
	Query    string
	Language string
	MinStars int
}

// LookbackDays maps a timeframe to its window in days. Unknown or empty timeframes mean a week.
func LookbackDays(timeframe string) int {
	switch timeframe {
	case TimeframeDay:
		return 1
	case TimeframeMonth:
		return 30
	default:
		return 7
	}
}

// Cutoff returns now minus the lookback window, formatted as a UTC date.
func Cutoff(timeframe string, now time.Time) string {
	return now.UTC().AddDate(0, 0, -LookbackDays(timeframe)).Format(time.DateOnly)
}

// Trending builds the query for repositories created after the cutoff with more than ten stars.
// Only the language token is percent-encoded; the separators stay literal '+'.
func Trending(f TrendingFilter, now time.Time) string {
	q := fmt.Sprintf("created:>%s+stars:>%d", Cutoff(f.Timeframe, now), trendingMinStars)
	if f.Language != "" {
		q += "+language:" + EncodeComponent(f.Language)
	}
	return q
}

// Compose joins the search refinements onto the free text without encoding.
func (f SearchFilter) Compose() string {
	q := f.Query
	if f.Language != "" {
		q += "+language:" + f.Language
	}
	if f.MinStars > 0 {
		q += fmt.Sprintf("+stars:>=%d", f.MinStars)
	}
	return q
}

// Search builds the query for a free-text search. Unlike Trending, the whole
// composed string is percent-encoded, separators included.
func Search(f SearchFilter) string {
	return EncodeComponent(f.Compose())
}

// ClampLimit returns def when n is unset (zero) and otherwise bounds n to [MinLimit, MaxLimit].
func ClampLimit(n, def int) int {
	if n == 0 {
		n = def
	}
	if n < MinLimit {
		return MinLimit
	}
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}

// componentUnescaper restores the characters encodeURIComponent leaves as is
// and turns QueryEscape's '+' for a space into %20, since '+' already
// separates search qualifiers.
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeComponent percent-encodes s for use inside a query parameter value,
// leaving letters, digits and -_.!~*'() unescaped.
func EncodeComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}
