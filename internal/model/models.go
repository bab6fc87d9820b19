// internal/model/models.go
package model

import "encoding/json"

// Repository is the canonical shape every operation returns for a GitHub repository.
// Optional fields are pointers without omitempty so absent values encode as null.
type Repository struct {
	FullName      string   `json:"fullName"`
	Name          string   `json:"name"`
	Owner         *string  `json:"owner"`
	Description   *string  `json:"description"`
	Stars         int      `json:"stars"`
	Forks         int      `json:"forks"`
	Watchers      int      `json:"watchers"`
	OpenIssues    int      `json:"openIssues"`
	Language      *string  `json:"language"`
	Topics        []string `json:"topics"`
	License       *string  `json:"license"`
	CreatedAt     *string  `json:"createdAt"`
	UpdatedAt     *string  `json:"updatedAt"`
	PushedAt      *string  `json:"pushedAt"`
	DefaultBranch string   `json:"defaultBranch"`
	Homepage      *string  `json:"homepage"`
	URL           string   `json:"url"`
	Archived      bool     `json:"archived"`
	Fork          bool     `json:"fork"`
}

// RepositorySample is the trimmed record shown in the free overview.
type RepositorySample struct {
	FullName    string  `json:"fullName"`
	Description *string `json:"description"`
	Stars       int     `json:"stars"`
	Language    *string `json:"language"`
	URL         string  `json:"url"`
}

// Release summarizes a single GitHub release.
type Release struct {
	Tag         string  `json:"tag"`
	Name        *string `json:"name"`
	Draft       bool    `json:"draft"`
	Prerelease  bool    `json:"prerelease"`
	PublishedAt *string `json:"publishedAt"`
	Author      *string `json:"author"`
	Body        *string `json:"body"`
	URL         string  `json:"url"`
	Assets      []Asset `json:"assets"`
}

// Asset summarizes a downloadable release asset.
type Asset struct {
	Name          string `json:"name"`
	DownloadCount int    `json:"downloadCount"`
	Size          int    `json:"size"`
}

// Contributor is one entry of a repository's contributor ranking.
type Contributor struct {
	Login         string `json:"login"`
	Contributions int    `json:"contributions"`
	ProfileURL    string `json:"profileUrl"`
}

// RepositoryStats extends the canonical record with the repo-stats extras.
type RepositoryStats struct {
	Repository
	Size            int            `json:"size"`
	HasWiki         bool           `json:"hasWiki"`
	HasPages        bool           `json:"hasPages"`
	Subscribers     int            `json:"subscribers"`
	NetworkCount    int            `json:"networkCount"`
	TopContributors []Contributor  `json:"topContributors"`
	Languages       map[string]int `json:"languages"`
}

// Comparison entry statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ComparisonEntry is the per-repository outcome of a compare operation.
// Exactly one of Repository or Error is populated, according to Status.
type ComparisonEntry struct {
	Status string
	*Repository
	Languages map[string]int
	Requested string
	Error     string
}

type comparisonSuccess struct {
	Status string `json:"status"`
	*Repository
	Languages map[string]int `json:"languages"`
}

type comparisonFailure struct {
	Status string `json:"status"`
	Repo   string `json:"repo"`
	Error  string `json:"error"`
}

// MarshalJSON encodes a success as the repository record plus its languages,
// which is always present, and a failure as the requested name and the error.
func (e ComparisonEntry) MarshalJSON() ([]byte, error) {
	if e.Status != StatusSuccess || e.Repository == nil {
		return json.Marshal(comparisonFailure{Status: StatusError, Repo: e.Requested, Error: e.Error})
	}
	languages := e.Languages
	if languages == nil {
		languages = map[string]int{}
	}
	return json.Marshal(comparisonSuccess{Status: e.Status, Repository: e.Repository, Languages: languages})
}

// ComparisonSummary holds metrics derived from the successful comparison entries.
// All fields are null when no entry succeeded.
type ComparisonSummary struct {
	MostStars          *string `json:"mostStars"`
	MostForks          *string `json:"mostForks"`
	MostRecentlyPushed *string `json:"mostRecentlyPushed"`
	AvgStars           *int    `json:"avgStars"`
}
