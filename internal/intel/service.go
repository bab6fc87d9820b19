// Package intel implements the repository intelligence operations on top of the GitHub API.
package intel

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	gh "github.com/google/go-github/v62/github"

	"repo-intel/internal/fanout"
	"repo-intel/internal/model"
	"repo-intel/internal/normalize"
	"repo-intel/internal/query"
)

const (
	// overviewQuery is the fixed teaser search: established repositories created since the reference date.
	overviewQuery   = "created:>2024-01-01+stars:>100"
	overviewFetch   = 5
	overviewSamples = 3
	overviewDescLen = 120
)

// Upstream is the subset of the GitHub client the operations rely on.
type Upstream interface {
	SearchRepositories(ctx context.Context, encodedQuery, sort string, perPage int) (*gh.RepositoriesSearchResult, error)
	GetRepository(ctx context.Context, owner, name string) (*gh.Repository, error)
	ListContributors(ctx context.Context, owner, name string, perPage int) ([]*gh.Contributor, error)
	ListLanguages(ctx context.Context, owner, name string) (map[string]int, error)
	ListReleases(ctx context.Context, owner, name string, perPage int) ([]*gh.RepositoryRelease, error)
}

// Service runs the operations. It holds no per-request state.
type Service struct {
	upstream Upstream
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a Service backed by the given upstream client.
func NewService(upstream Upstream, logger *slog.Logger) *Service {
	return &Service{
		upstream: upstream,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Service) fetchedAt() string {
	return s.now().UTC().Format(time.RFC3339)
}

// OverviewOutput is the free teaser.
type OverviewOutput struct {
	Name        string                   `json:"name"`
	Description string                   `json:"description"`
	Sample      []model.RepositorySample `json:"sample"`
	Endpoints   []CatalogEntry           `json:"endpoints"`
	FetchedAt   string                   `json:"fetchedAt"`
}

// Overview returns a small sample of popular repositories and the priced endpoint catalog.
func (s *Service) Overview(ctx context.Context, _ OverviewInput) (*OverviewOutput, error) {
	result, err := s.upstream.SearchRepositories(ctx, overviewQuery, "stars", overviewFetch)
	if err != nil {
		return nil, err
	}

	repos := result.Repositories
	if len(repos) > overviewSamples {
		repos = repos[:overviewSamples]
	}
	sample := make([]model.RepositorySample, 0, len(repos))
	for _, r := range repos {
		sample = append(sample, normalize.Sample(r, overviewDescLen))
	}

	return &OverviewOutput{
		Name:        ServiceName,
		Description: ServiceDescription,
		Sample:      sample,
		Endpoints:   Catalog(),
		FetchedAt:   s.fetchedAt(),
	}, nil
}

// TrendingOutput lists recently created repositories ranked by stars.
type TrendingOutput struct {
	Timeframe    string             `json:"timeframe"`
	Language     *string            `json:"language"`
	Count        int                `json:"count"`
	TotalCount   int                `json:"totalCount"`
	Repositories []model.Repository `json:"repositories"`
	FetchedAt    string             `json:"fetchedAt"`
}

// Trending finds repositories created within the timeframe that already drew attention.
func (s *Service) Trending(ctx context.Context, in TrendingInput) (*TrendingOutput, error) {
	timeframe := in.Timeframe
	if timeframe == "" {
		timeframe = query.TimeframeWeek
	}
	q := query.Trending(query.TrendingFilter{Timeframe: timeframe, Language: in.Language}, s.now())
	limit := query.ClampLimit(in.Limit, query.DefaultLimit)

	result, err := s.upstream.SearchRepositories(ctx, q, "stars", limit)
	if err != nil {
		return nil, err
	}

	repos := normalize.Repositories(result.Repositories)
	return &TrendingOutput{
		Timeframe:    timeframe,
		Language:     optional(in.Language),
		Count:        len(repos),
		TotalCount:   result.GetTotal(),
		Repositories: repos,
		FetchedAt:    s.fetchedAt(),
	}, nil
}

// RepoStatsOutput is the canonical record plus repository-level extras.
type RepoStatsOutput struct {
	model.RepositoryStats
	FetchedAt string `json:"fetchedAt"`
}

// RepoStats fetches the repository, its contributors and its language breakdown concurrently.
// Only the repository itself is required; the other two fall back to empty values.
func (s *Service) RepoStats(ctx context.Context, in RepoInput) (*RepoStatsOutput, error) {
	ref, err := ParseRepo(in.Repo)
	if err != nil {
		return nil, err
	}

	var (
		repo         *gh.Repository
		contributors []*gh.Contributor
		languages    map[string]int
	)
	err = fanout.All(ctx,
		func(ctx context.Context) error {
			r, err := s.upstream.GetRepository(ctx, ref.Owner, ref.Name)
			repo = r
			return err
		},
		func(ctx context.Context) error {
			c, err := s.upstream.ListContributors(ctx, ref.Owner, ref.Name, normalize.TopContributors)
			if err != nil {
				s.optionalFailed("contributors", ref, err)
				c = nil
			}
			contributors = c
			return nil
		},
		func(ctx context.Context) error {
			languages = s.languages(ctx, ref)
			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	return &RepoStatsOutput{
		RepositoryStats: model.RepositoryStats{
			Repository:      normalize.Repository(repo),
			Size:            repo.GetSize(),
			HasWiki:         repo.GetHasWiki(),
			HasPages:        repo.GetHasPages(),
			Subscribers:     repo.GetSubscribersCount(),
			NetworkCount:    repo.GetNetworkCount(),
			TopContributors: normalize.Contributors(contributors, normalize.TopContributors),
			Languages:       languages,
		},
		FetchedAt: s.fetchedAt(),
	}, nil
}

// ReleasesOutput lists a repository's newest releases.
type ReleasesOutput struct {
	Repo      string          `json:"repo"`
	Count     int             `json:"count"`
	Releases  []model.Release `json:"releases"`
	FetchedAt string          `json:"fetchedAt"`
}

// Releases returns up to Limit releases; the cap is applied by the upstream page size.
func (s *Service) Releases(ctx context.Context, in ReleasesInput) (*ReleasesOutput, error) {
	ref, err := ParseRepo(in.Repo)
	if err != nil {
		return nil, err
	}

	releases, err := s.upstream.ListReleases(ctx, ref.Owner, ref.Name, query.ClampLimit(in.Limit, query.DefaultLimit))
	if err != nil {
		return nil, err
	}

	out := normalize.Releases(releases)
	return &ReleasesOutput{
		Repo:      ref.String(),
		Count:     len(out),
		Releases:  out,
		FetchedAt: s.fetchedAt(),
	}, nil
}

// SearchFilters echoes the filter set a search ran with.
type SearchFilters struct {
	Query    string  `json:"query"`
	Language *string `json:"language"`
	MinStars *int    `json:"minStars"`
	Sort     string  `json:"sort"`
	Limit    int     `json:"limit"`
}

// SearchOutput holds search results and the filters that produced them.
type SearchOutput struct {
	Filters      SearchFilters      `json:"filters"`
	Count        int                `json:"count"`
	TotalCount   int                `json:"totalCount"`
	Repositories []model.Repository `json:"repositories"`
	FetchedAt    string             `json:"fetchedAt"`
}

// Search runs a free-text repository search with optional language and star filters.
func (s *Service) Search(ctx context.Context, in SearchInput) (*SearchOutput, error) {
	q := query.Search(query.SearchFilter{Query: in.Query, Language: in.Language, MinStars: in.MinStars})
	limit := query.ClampLimit(in.Limit, query.DefaultLimit)
	sort := in.Sort
	if sort == "" {
		sort = "stars"
	}

	result, err := s.upstream.SearchRepositories(ctx, q, sort, limit)
	if err != nil {
		return nil, err
	}

	var minStars *int
	if in.MinStars > 0 {
		minStars = &in.MinStars
	}

	repos := normalize.Repositories(result.Repositories)
	return &SearchOutput{
		Filters: SearchFilters{
			Query:    in.Query,
			Language: optional(in.Language),
			MinStars: minStars,
			Sort:     sort,
			Limit:    limit,
		},
		Count:        len(repos),
		TotalCount:   result.GetTotal(),
		Repositories: repos,
		FetchedAt:    s.fetchedAt(),
	}, nil
}

// CompareOutput holds per-repository outcomes in request order plus derived metrics.
type CompareOutput struct {
	Repositories []model.ComparisonEntry `json:"repositories"`
	Summary      model.ComparisonSummary `json:"summary"`
	FetchedAt    string                  `json:"fetchedAt"`
}

type compared struct {
	repo      model.Repository
	pushed    time.Time
	languages map[string]int
}

// Compare fetches every repository independently. A failed repository becomes
// an error entry and never fails the whole comparison.
func (s *Service) Compare(ctx context.Context, in CompareInput) (*CompareOutput, error) {
	results := fanout.Settle(ctx, in.Repos, s.compareOne)

	entries := make([]model.ComparisonEntry, len(results))
	var ok []compared
	for i, res := range results {
		if !res.OK() {
			entries[i] = model.ComparisonEntry{
				Status:    model.StatusError,
				Requested: in.Repos[i],
				Error:     res.Err.Error(),
			}
			continue
		}
		repo := res.Value.repo
		entries[i] = model.ComparisonEntry{
			Status:     model.StatusSuccess,
			Repository: &repo,
			Languages:  res.Value.languages,
		}
		ok = append(ok, res.Value)
	}

	return &CompareOutput{
		Repositories: entries,
		Summary:      summarize(ok),
		FetchedAt:    s.fetchedAt(),
	}, nil
}

func (s *Service) compareOne(ctx context.Context, name string) (compared, error) {
	ref, err := ParseRepo(name)
	if err != nil {
		return compared{}, err
	}

	var (
		repo      *gh.Repository
		languages map[string]int
	)
	err = fanout.All(ctx,
		func(ctx context.Context) error {
			r, err := s.upstream.GetRepository(ctx, ref.Owner, ref.Name)
			repo = r
			return err
		},
		func(ctx context.Context) error {
			languages = s.languages(ctx, ref)
			return nil
		},
	)
	if err != nil {
		return compared{}, err
	}

	return compared{
		repo:      normalize.Repository(repo),
		pushed:    repo.GetPushedAt().Time,
		languages: languages,
	}, nil
}

// summarize folds the successful entries. Comparisons are strict, so on a tie
// the earlier entry is kept. With no entries every metric is null.
func summarize(entries []compared) model.ComparisonSummary {
	if len(entries) == 0 {
		return model.ComparisonSummary{}
	}

	stars, forks, pushed := entries[0], entries[0], entries[0]
	total := 0
	for i, e := range entries {
		total += e.repo.Stars
		if i == 0 {
			continue
		}
		if e.repo.Stars > stars.repo.Stars {
			stars = e
		}
		if e.repo.Forks > forks.repo.Forks {
			forks = e
		}
		if e.pushed.After(pushed.pushed) {
			pushed = e
		}
	}

	avg := int(math.Floor(float64(total)/float64(len(entries)) + 0.5))
	return model.ComparisonSummary{
		MostStars:          &stars.repo.FullName,
		MostForks:          &forks.repo.FullName,
		MostRecentlyPushed: &pushed.repo.FullName,
		AvgStars:           &avg,
	}
}

// languages fetches the language breakdown, falling back to an empty map.
func (s *Service) languages(ctx context.Context, ref RepoRef) map[string]int {
	langs, err := s.upstream.ListLanguages(ctx, ref.Owner, ref.Name)
	if err != nil {
		s.optionalFailed("languages", ref, err)
		return map[string]int{}
	}
	if langs == nil {
		return map[string]int{}
	}
	return langs
}

func (s *Service) optionalFailed(call string, ref RepoRef, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	s.logger.Warn("Optional GitHub call failed, using empty value", "call", call, "owner", ref.Owner, "repo", ref.Name, "error", err)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
