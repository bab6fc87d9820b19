// Package normalize maps GitHub API records onto the canonical output shapes.
// Every function here is total: nil records and absent fields produce
// null or empty values, never a panic.
package normalize

import (
	"time"
	"unicode/utf8"

	"github.com/google/go-github/v62/github"

	"repo-intel/internal/model"
)

const (
	// ReleaseBodyLimit bounds release notes carried in a release summary.
	ReleaseBodyLimit = 500
	// TopContributors is how many contributors repo-stats reports.
	TopContributors = 5
)

// Repository converts a GitHub repository into the canonical record.
func Repository(r *github.Repository) model.Repository {
	if r == nil {
		return model.Repository{Topics: []string{}}
	}

	topics := r.Topics
	if topics == nil {
		topics = []string{}
	}

	return model.Repository{
		FullName:      r.GetFullName(),
		Name:          r.GetName(),
		Owner:         nonEmpty(r.GetOwner().GetLogin()),
		Description:   nonEmpty(r.GetDescription()),
		Stars:         r.GetStargazersCount(),
		Forks:         r.GetForksCount(),
		Watchers:      r.GetWatchersCount(),
		OpenIssues:    r.GetOpenIssuesCount(),
		Language:      nonEmpty(r.GetLanguage()),
		Topics:        topics,
		License:       nonEmpty(r.GetLicense().GetSPDXID()),
		CreatedAt:     timestamp(r.CreatedAt),
		UpdatedAt:     timestamp(r.UpdatedAt),
		PushedAt:      timestamp(r.PushedAt),
		DefaultBranch: r.GetDefaultBranch(),
		Homepage:      nonEmpty(r.GetHomepage()),
		URL:           r.GetHTMLURL(),
		Archived:      r.GetArchived(),
		Fork:          r.GetFork(),
	}
}

// Repositories converts a list, skipping nothing; nil entries become zero records.
func Repositories(rs []*github.Repository) []model.Repository {
	out := make([]model.Repository, 0, len(rs))
	for _, r := range rs {
		out = append(out, Repository(r))
	}
	return out
}

// Sample trims a repository to the overview teaser shape.
func Sample(r *github.Repository, descLimit int) model.RepositorySample {
	var desc *string
	if d := nonEmpty(r.GetDescription()); d != nil {
		t := Truncate(*d, descLimit)
		desc = &t
	}
	return model.RepositorySample{
		FullName:    r.GetFullName(),
		Description: desc,
		Stars:       r.GetStargazersCount(),
		Language:    nonEmpty(r.GetLanguage()),
		URL:         r.GetHTMLURL(),
	}
}

// Release converts a GitHub release into a release summary.
func Release(r *github.RepositoryRelease) model.Release {
	if r == nil {
		return model.Release{Assets: []model.Asset{}}
	}

	var body *string
	if b := nonEmpty(r.GetBody()); b != nil {
		t := Truncate(*b, ReleaseBodyLimit)
		body = &t
	}

	assets := make([]model.Asset, 0, len(r.Assets))
	for _, a := range r.Assets {
		assets = append(assets, model.Asset{
			Name:          a.GetName(),
			DownloadCount: a.GetDownloadCount(),
			Size:          a.GetSize(),
		})
	}

	return model.Release{
		Tag:         r.GetTagName(),
		Name:        nonEmpty(r.GetName()),
		Draft:       r.GetDraft(),
		Prerelease:  r.GetPrerelease(),
		PublishedAt: timestamp(r.PublishedAt),
		Author:      nonEmpty(r.GetAuthor().GetLogin()),
		Body:        body,
		URL:         r.GetHTMLURL(),
		Assets:      assets,
	}
}

// Releases converts a list of releases, preserving order.
func Releases(rs []*github.RepositoryRelease) []model.Release {
	out := make([]model.Release, 0, len(rs))
	for _, r := range rs {
		out = append(out, Release(r))
	}
	return out
}

// Contributors keeps the first n contributors in upstream order.
func Contributors(cs []*github.Contributor, n int) []model.Contributor {
	if len(cs) > n {
		cs = cs[:n]
	}
	out := make([]model.Contributor, 0, len(cs))
	for _, c := range cs {
		out = append(out, model.Contributor{
			Login:         c.GetLogin(),
			Contributions: c.GetContributions(),
			ProfileURL:    c.GetHTMLURL(),
		})
	}
	return out
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	if n < 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func timestamp(ts *github.Timestamp) *string {
	if ts == nil || ts.Time.IsZero() {
		return nil
	}
	s := ts.Time.UTC().Format(time.RFC3339)
	return &s
}
