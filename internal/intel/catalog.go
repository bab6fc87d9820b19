package intel

import (
	"context"

	"repo-intel/internal/agent"
)

const (
	ServiceName        = "repo-intel"
	ServiceDescription = "GitHub repository intelligence: trending projects, repository stats, releases, search and side-by-side comparison."
	ServiceVersion     = "1.0.0"
)

// Operation keys.
const (
	OpOverview  = "overview"
	OpTrending  = "trending"
	OpRepoStats = "repo-stats"
	OpReleases  = "releases"
	OpSearch    = "search"
	OpCompare   = "compare"
)

// CatalogEntry describes one endpoint in the overview.
type CatalogEntry struct {
	Key         string `json:"key"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Currency    string `json:"currency"`
}

// Prices are in USDC minor units (1e-6).
var catalog = []CatalogEntry{
	{Key: OpOverview, Description: "Free sample of popular recent repositories and the endpoint price list.", Price: 0},
	{Key: OpTrending, Description: "Repositories created in the last day, week or month ranked by stars, optionally by language.", Price: 1000},
	{Key: OpRepoStats, Description: "Full statistics for one repository, including top contributors and language breakdown.", Price: 2000},
	{Key: OpReleases, Description: "Latest releases of a repository with assets and download counts.", Price: 1000},
	{Key: OpSearch, Description: "Repository search with language and minimum-star filters.", Price: 1000},
	{Key: OpCompare, Description: "Side-by-side comparison of 2 to 5 repositories with derived leaders and average stars.", Price: 3000},
}

// Catalog returns the endpoint list with prices.
func Catalog() []CatalogEntry {
	out := make([]CatalogEntry, len(catalog))
	for i, e := range catalog {
		e.Currency = agent.Currency
		out[i] = e
	}
	return out
}

func entry(key string) CatalogEntry {
	for _, e := range catalog {
		if e.Key == key {
			return e
		}
	}
	panic("intel: no catalog entry for " + key)
}

// Operations binds every catalog entry to its handler.
func (s *Service) Operations() []agent.Operation {
	return []agent.Operation{
		define(OpOverview, s.Overview),
		define(OpTrending, s.Trending),
		define(OpRepoStats, s.RepoStats),
		define(OpReleases, s.Releases),
		define(OpSearch, s.Search),
		define(OpCompare, s.Compare),
	}
}

func define[T, O any](key string, fn func(context.Context, T) (*O, error)) agent.Operation {
	e := entry(key)
	return agent.Define(e.Key, e.Description, e.Price, func(ctx context.Context, in T) (any, error) {
		out, err := fn(ctx, in)
		if err != nil {
			return nil, err
		}
		return out, nil
	})
}

// RegisterValidations installs the custom input tags on v.
func RegisterValidations(v *agent.Validator) error {
	return v.RegisterValidation(RepoTag, "{0} must be in 'owner/name' format", ValidateRepo)
}
