package intel

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	gh "github.com/google/go-github/v62/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	custom_errors "repo-intel/internal/errors"
	"repo-intel/internal/model"
)

var fixedNow = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

// fakeUpstream serves canned records keyed by "owner/name" and records search calls.
type fakeUpstream struct {
	mu           sync.Mutex
	repos        map[string]*gh.Repository
	repoErrs     map[string]error
	contributors []*gh.Contributor
	contribErr   error
	languages    map[string]map[string]int
	langErr      error
	releases     []*gh.RepositoryRelease
	search       *gh.RepositoriesSearchResult
	searchErr    error

	searchQueries []string
	searchSorts   []string
	perPages      []int
}

func (f *fakeUpstream) SearchRepositories(ctx context.Context, q, sort string, perPage int) (*gh.RepositoriesSearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchQueries = append(f.searchQueries, q)
	f.searchSorts = append(f.searchSorts, sort)
	f.perPages = append(f.perPages, perPage)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.search, nil
}

func (f *fakeUpstream) GetRepository(ctx context.Context, owner, name string) (*gh.Repository, error) {
	key := owner + "/" + name
	if err := f.repoErrs[key]; err != nil {
		return nil, err
	}
	r, ok := f.repos[key]
	if !ok {
		return nil, custom_errors.NewUpstreamError(404, `{"message":"Not Found"}`)
	}
	return r, nil
}

func (f *fakeUpstream) ListContributors(ctx context.Context, owner, name string, perPage int) ([]*gh.Contributor, error) {
	if f.contribErr != nil {
		return nil, f.contribErr
	}
	return f.contributors, nil
}

func (f *fakeUpstream) ListLanguages(ctx context.Context, owner, name string) (map[string]int, error) {
	if f.langErr != nil {
		return nil, f.langErr
	}
	return f.languages[owner+"/"+name], nil
}

func (f *fakeUpstream) ListReleases(ctx context.Context, owner, name string, perPage int) ([]*gh.RepositoryRelease, error) {
	f.mu.Lock()
	f.perPages = append(f.perPages, perPage)
	f.mu.Unlock()
	return f.releases, nil
}

func newTestService(up Upstream) *Service {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := NewService(up, logger)
	s.now = func() time.Time { return fixedNow }
	return s
}

func repo(fullName string, stars, forks int, pushed time.Time) *gh.Repository {
	r := &gh.Repository{
		FullName:        gh.String(fullName),
		StargazersCount: gh.Int(stars),
		ForksCount:      gh.Int(forks),
	}
	if !pushed.IsZero() {
		r.PushedAt = &gh.Timestamp{Time: pushed}
	}
	return r
}

func TestOverview(t *testing.T) {
	t.Run("returns three samples when more exist", func(t *testing.T) {
		up := &fakeUpstream{search: &gh.RepositoriesSearchResult{
			Total: gh.Int(5000),
			Repositories: []*gh.Repository{
				repo("a/1", 900, 0, time.Time{}), repo("a/2", 800, 0, time.Time{}),
				repo("a/3", 700, 0, time.Time{}), repo("a/4", 600, 0, time.Time{}),
			},
		}}
		s := newTestService(up)

		out, err := s.Overview(context.Background(), OverviewInput{})

		require.NoError(t, err)
		require.Len(t, out.Sample, 3)
		assert.Equal(t, "a/1", out.Sample[0].FullName)
		assert.Equal(t, "created:>2024-01-01+stars:>100", up.searchQueries[0])
		assert.Equal(t, "stars", up.searchSorts[0])
		assert.Len(t, out.Endpoints, 6)
		assert.Equal(t, int64(0), out.Endpoints[0].Price)
		assert.Equal(t, "2026-10-17T12:00:00Z", out.FetchedAt)
	})

	t.Run("returns fewer samples when fewer exist", func(t *testing.T) {
		up := &fakeUpstream{search: &gh.RepositoriesSearchResult{
			Repositories: []*gh.Repository{repo("a/1", 900, 0, time.Time{})},
		}}

		out, err := newTestService(up).Overview(context.Background(), OverviewInput{})

		require.NoError(t, err)
		assert.Len(t, out.Sample, 1)
	})

	t.Run("propagates upstream failure", func(t *testing.T) {
		up := &fakeUpstream{searchErr: custom_errors.NewUpstreamError(503, "down")}

		_, err := newTestService(up).Overview(context.Background(), OverviewInput{})

		var upErr *custom_errors.UpstreamError
		assert.ErrorAs(t, err, &upErr)
	})
}

func TestTrending(t *testing.T) {
	up := &fakeUpstream{search: &gh.RepositoriesSearchResult{
		Total:        gh.Int(42),
		Repositories: []*gh.Repository{repo("new/hot", 300, 10, time.Time{})},
	}}
	s := newTestService(up)

	out, err := s.Trending(context.Background(), TrendingInput{Timeframe: "day", Language: "go", Limit: 50})

	require.NoError(t, err)
	assert.Equal(t, "created:>2026-10-16+stars:>10+language:go", up.searchQueries[0])
	assert.Equal(t, 30, up.perPages[0])
	assert.Equal(t, 1, out.Count)
	assert.Equal(t, 42, out.TotalCount)
	assert.Equal(t, "day", out.Timeframe)
	require.NotNil(t, out.Language)
	assert.Equal(t, "new/hot", out.Repositories[0].FullName)
}

func TestTrending_DefaultsToWeek(t *testing.T) {
	up := &fakeUpstream{search: &gh.RepositoriesSearchResult{}}

	out, err := newTestService(up).Trending(context.Background(), TrendingInput{})

	require.NoError(t, err)
	assert.Equal(t, "created:>2026-10-10+stars:>10", up.searchQueries[0])
	assert.Equal(t, 10, up.perPages[0])
	assert.Equal(t, "week", out.Timeframe)
	assert.Nil(t, out.Language)
	assert.NotNil(t, out.Repositories)
}

func TestRepoStats(t *testing.T) {
	newBase := func() *fakeUpstream {
		return &fakeUpstream{
			repos: map[string]*gh.Repository{
				"golang/go": {
					FullName:         gh.String("golang/go"),
					StargazersCount:  gh.Int(100),
					Size:             gh.Int(350000),
					HasWiki:          gh.Bool(true),
					SubscribersCount: gh.Int(3000),
					NetworkCount:     gh.Int(17000),
				},
			},
			contributors: []*gh.Contributor{
				{Login: gh.String("a"), Contributions: gh.Int(9)},
				{Login: gh.String("b"), Contributions: gh.Int(8)},
				{Login: gh.String("c"), Contributions: gh.Int(7)},
				{Login: gh.String("d"), Contributions: gh.Int(6)},
				{Login: gh.String("e"), Contributions: gh.Int(5)},
				{Login: gh.String("f"), Contributions: gh.Int(4)},
			},
			languages: map[string]map[string]int{"golang/go": {"Go": 1000, "Assembly": 50}},
		}
	}

	t.Run("merges all three calls", func(t *testing.T) {
		out, err := newTestService(newBase()).RepoStats(context.Background(), RepoInput{Repo: "golang/go"})

		require.NoError(t, err)
		assert.Equal(t, "golang/go", out.FullName)
		assert.Equal(t, 350000, out.Size)
		assert.True(t, out.HasWiki)
		assert.Equal(t, 3000, out.Subscribers)
		assert.Equal(t, 17000, out.NetworkCount)
		require.Len(t, out.TopContributors, 5)
		assert.Equal(t, "a", out.TopContributors[0].Login)
		assert.Equal(t, map[string]int{"Go": 1000, "Assembly": 50}, out.Languages)
	})

	t.Run("optional calls fall back to empty values", func(t *testing.T) {
		up := newBase()
		up.contribErr = custom_errors.NewUpstreamError(403, "forbidden")
		up.langErr = errors.New("connection reset")

		out, err := newTestService(up).RepoStats(context.Background(), RepoInput{Repo: "golang/go"})

		require.NoError(t, err)
		assert.NotNil(t, out.TopContributors)
		assert.Empty(t, out.TopContributors)
		assert.NotNil(t, out.Languages)
		assert.Empty(t, out.Languages)

		raw, err := json.Marshal(out)
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"topContributors":[]`)
		assert.Contains(t, string(raw), `"languages":{}`)
	})

	t.Run("repository failure propagates", func(t *testing.T) {
		_, err := newTestService(newBase()).RepoStats(context.Background(), RepoInput{Repo: "nope/missing"})

		var upErr *custom_errors.UpstreamError
		require.ErrorAs(t, err, &upErr)
		assert.Equal(t, 404, upErr.Status)
	})

	t.Run("malformed repo name", func(t *testing.T) {
		_, err := newTestService(newBase()).RepoStats(context.Background(), RepoInput{Repo: "no-slash"})

		var formatErr *custom_errors.ErrInvalidRepoFormat
		assert.ErrorAs(t, err, &formatErr)
	})
}

func TestReleases(t *testing.T) {
	up := &fakeUpstream{releases: []*gh.RepositoryRelease{
		{TagName: gh.String("v2"), Author: &gh.User{Login: gh.String("rel")}},
		{TagName: gh.String("v1")},
	}}

	out, err := newTestService(up).Releases(context.Background(), ReleasesInput{Repo: "a/b", Limit: 2})

	require.NoError(t, err)
	assert.Equal(t, []int{2}, up.perPages)
	assert.Equal(t, "a/b", out.Repo)
	assert.Equal(t, 2, out.Count)
	assert.Equal(t, "v2", out.Releases[0].Tag)
}

func TestSearch(t *testing.T) {
	up := &fakeUpstream{search: &gh.RepositoriesSearchResult{
		Total:        gh.Int(1),
		Repositories: []*gh.Repository{repo("foo/bar", 60, 1, time.Time{})},
	}}

	out, err := newTestService(up).Search(context.Background(), SearchInput{Query: "foo", Language: "go", MinStars: 50})

	require.NoError(t, err)
	assert.Equal(t, "foo%2Blanguage%3Ago%2Bstars%3A%3E%3D50", up.searchQueries[0])
	assert.Equal(t, "stars", up.searchSorts[0])
	assert.Equal(t, "foo", out.Filters.Query)
	require.NotNil(t, out.Filters.MinStars)
	assert.Equal(t, 50, *out.Filters.MinStars)
	require.NotNil(t, out.Filters.Language)
	assert.Equal(t, "go", *out.Filters.Language)
	assert.Equal(t, 10, out.Filters.Limit)
	assert.Equal(t, 1, out.Count)
}

func TestCompare_PartialFailure(t *testing.T) {
	up := &fakeUpstream{
		repos: map[string]*gh.Repository{
			"b/b": repo("b/b", 70, 5, fixedNow),
		},
		repoErrs: map[string]error{
			"a/a": custom_errors.NewUpstreamError(404, "Not Found"),
		},
	}

	out, err := newTestService(up).Compare(context.Background(), CompareInput{Repos: []string{"a/a", "b/b"}})

	require.NoError(t, err)
	require.Len(t, out.Repositories, 2)

	assert.Equal(t, model.StatusError, out.Repositories[0].Status)
	assert.Equal(t, "a/a", out.Repositories[0].Requested)
	assert.Contains(t, out.Repositories[0].Error, "404")
	assert.Nil(t, out.Repositories[0].Repository)

	assert.Equal(t, model.StatusSuccess, out.Repositories[1].Status)
	require.NotNil(t, out.Repositories[1].Repository)
	assert.Equal(t, "b/b", out.Repositories[1].FullName)
	assert.NotNil(t, out.Repositories[1].Languages)

	require.NotNil(t, out.Summary.MostStars)
	assert.Equal(t, "b/b", *out.Summary.MostStars)
	assert.Equal(t, "b/b", *out.Summary.MostForks)
	assert.Equal(t, "b/b", *out.Summary.MostRecentlyPushed)
	assert.Equal(t, 70, *out.Summary.AvgStars)
}

func TestCompare_LanguagesFallbackInJSON(t *testing.T) {
	up := &fakeUpstream{
		repos: map[string]*gh.Repository{
			"a/a": repo("a/a", 10, 1, fixedNow),
		},
		langErr: custom_errors.NewUpstreamError(500, "boom"),
	}

	out, err := newTestService(up).Compare(context.Background(), CompareInput{Repos: []string{"a/a", "b/b"}})
	require.NoError(t, err)

	raw, err := json.Marshal(out)
	require.NoError(t, err)
	var decoded struct {
		Repositories []map[string]any `json:"repositories"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded.Repositories, 2)

	success := decoded.Repositories[0]
	assert.Equal(t, "success", success["status"])
	assert.Equal(t, "a/a", success["fullName"])
	langs, has := success["languages"]
	require.True(t, has)
	assert.Equal(t, map[string]any{}, langs)
	assert.NotContains(t, success, "error")
	assert.NotContains(t, success, "repo")

	failure := decoded.Repositories[1]
	assert.Equal(t, "error", failure["status"])
	assert.Equal(t, "b/b", failure["repo"])
	assert.Contains(t, failure["error"], "404")
	assert.NotContains(t, failure, "languages")
	assert.NotContains(t, failure, "fullName")
}

func TestCompare_AverageStars(t *testing.T) {
	up := &fakeUpstream{repos: map[string]*gh.Repository{
		"x/10": repo("x/10", 10, 0, time.Time{}),
		"x/30": repo("x/30", 30, 0, time.Time{}),
		"x/50": repo("x/50", 50, 0, time.Time{}),
	}}

	out, err := newTestService(up).Compare(context.Background(), CompareInput{Repos: []string{"x/10", "x/30", "x/50"}})

	require.NoError(t, err)
	assert.Equal(t, 30, *out.Summary.AvgStars)
	assert.Equal(t, "x/50", *out.Summary.MostStars)
}

func TestCompare_AverageRoundsHalfUp(t *testing.T) {
	up := &fakeUpstream{repos: map[string]*gh.Repository{
		"x/1": repo("x/1", 1, 0, time.Time{}),
		"x/2": repo("x/2", 2, 0, time.Time{}),
	}}

	out, err := newTestService(up).Compare(context.Background(), CompareInput{Repos: []string{"x/1", "x/2"}})

	require.NoError(t, err)
	assert.Equal(t, 2, *out.Summary.AvgStars)
}

func TestCompare_TiesKeepFirstListed(t *testing.T) {
	pushed := fixedNow.Add(-time.Hour)
	up := &fakeUpstream{repos: map[string]*gh.Repository{
		"first/one":  repo("first/one", 100, 7, pushed),
		"second/two": repo("second/two", 100, 7, pushed),
	}}

	out, err := newTestService(up).Compare(context.Background(), CompareInput{Repos: []string{"first/one", "second/two"}})

	require.NoError(t, err)
	assert.Equal(t, "first/one", *out.Summary.MostStars)
	assert.Equal(t, "first/one", *out.Summary.MostForks)
	assert.Equal(t, "first/one", *out.Summary.MostRecentlyPushed)
}

func TestCompare_MostRecentlyPushed(t *testing.T) {
	up := &fakeUpstream{repos: map[string]*gh.Repository{
		"old/repo":   repo("old/repo", 500, 50, fixedNow.Add(-48*time.Hour)),
		"fresh/repo": repo("fresh/repo", 5, 1, fixedNow),
		"never/push": repo("never/push", 1, 0, time.Time{}),
	}}

	out, err := newTestService(up).Compare(context.Background(), CompareInput{Repos: []string{"never/push", "old/repo", "fresh/repo"}})

	require.NoError(t, err)
	assert.Equal(t, "fresh/repo", *out.Summary.MostRecentlyPushed)
	assert.Equal(t, "old/repo", *out.Summary.MostStars)
}

func TestCompare_AllFailed(t *testing.T) {
	up := &fakeUpstream{}

	out, err := newTestService(up).Compare(context.Background(), CompareInput{Repos: []string{"a/a", "b/b"}})

	require.NoError(t, err)
	assert.Equal(t, model.StatusError, out.Repositories[0].Status)
	assert.Equal(t, model.StatusError, out.Repositories[1].Status)
	assert.Nil(t, out.Summary.MostStars)
	assert.Nil(t, out.Summary.AvgStars)

	raw, err := json.Marshal(out.Summary)
	require.NoError(t, err)
	assert.JSONEq(t, `{"mostStars":null,"mostForks":null,"mostRecentlyPushed":null,"avgStars":null}`, string(raw))
}

func TestOperations_MatchCatalog(t *testing.T) {
	ops := newTestService(&fakeUpstream{}).Operations()
	cat := Catalog()

	require.Len(t, ops, len(cat))
	for i, op := range ops {
		assert.Equal(t, cat[i].Key, op.Key)
		assert.Equal(t, cat[i].Price, op.Price)
	}
	assert.True(t, ops[0].Free())
}
