package intel

import (
	"strings"

	"github.com/go-playground/validator/v10"

	custom_errors "repo-intel/internal/errors"
	"repo-intel/internal/query"
)

// RepoTag is the validation tag for "owner/name" strings.
const RepoTag = "repo"

// OverviewInput takes no parameters.
type OverviewInput struct{}

// TrendingInput selects newly created, fast-rising repositories.
type TrendingInput struct {
	Timeframe string `json:"timeframe,omitempty" validate:"omitempty,oneof=day week month" jsonschema:"enum=day,enum=week,enum=month,default=week"`
	Language  string `json:"language,omitempty" validate:"omitempty,max=50" jsonschema:"maxLength=50"`
	Limit     int    `json:"limit,omitempty" jsonschema:"minimum=1,maximum=30,default=10"`
}

func (in *TrendingInput) ApplyDefaults() {
	if in.Timeframe == "" {
		in.Timeframe = query.TimeframeWeek
	}
	in.Limit = query.ClampLimit(in.Limit, query.DefaultLimit)
}

// RepoInput names a single repository.
type RepoInput struct {
	Repo string `json:"repo" validate:"required,repo" jsonschema:"description=owner/name"`
}

// ReleasesInput names a repository and how many releases to return.
type ReleasesInput struct {
	Repo  string `json:"repo" validate:"required,repo" jsonschema:"description=owner/name"`
	Limit int    `json:"limit,omitempty" jsonschema:"minimum=1,maximum=30,default=10"`
}

func (in *ReleasesInput) ApplyDefaults() {
	in.Limit = query.ClampLimit(in.Limit, query.DefaultLimit)
}

// SearchInput is a free-text repository search.
type SearchInput struct {
	Query    string `json:"query" validate:"required,max=256" jsonschema:"minLength=1,maxLength=256"`
	Language string `json:"language,omitempty" validate:"omitempty,max=50" jsonschema:"maxLength=50"`
	MinStars int    `json:"minStars,omitempty" validate:"min=0" jsonschema:"minimum=0"`
	Sort     string `json:"sort,omitempty" validate:"omitempty,oneof=stars forks updated help-wanted-issues" jsonschema:"enum=stars,enum=forks,enum=updated,enum=help-wanted-issues,default=stars"`
	Limit    int    `json:"limit,omitempty" jsonschema:"minimum=1,maximum=30,default=10"`
}

func (in *SearchInput) ApplyDefaults() {
	if in.Sort == "" {
		in.Sort = "stars"
	}
	in.Limit = query.ClampLimit(in.Limit, query.DefaultLimit)
}

// CompareInput lists two to five repositories to compare side by side.
type CompareInput struct {
	Repos []string `json:"repos" validate:"required,min=2,max=5,dive,repo" jsonschema:"minItems=2,maxItems=5"`
}

// RepoRef is a parsed "owner/name" reference.
type RepoRef struct {
	Owner string
	Name  string
}

func (r RepoRef) String() string { return r.Owner + "/" + r.Name }

// ParseRepo splits an "owner/name" string.
func ParseRepo(s string) (RepoRef, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 || !validSegment(parts[0]) || !validSegment(parts[1]) {
		return RepoRef{}, &custom_errors.ErrInvalidRepoFormat{Repo: s}
	}
	return RepoRef{Owner: parts[0], Name: parts[1]}, nil
}

// validSegment accepts GitHub owner and repository names: letters, digits,
// '-', '_' and '.', excluding the dot segments that would resolve to a
// different upstream path.
func validSegment(seg string) bool {
	if seg == "" || seg == "." || seg == ".." {
		return false
	}
	for _, r := range seg {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}

// ValidateRepo is the validator.Func behind RepoTag.
func ValidateRepo(fl validator.FieldLevel) bool {
	_, err := ParseRepo(fl.Field().String())
	return err == nil
}
