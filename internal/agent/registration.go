package agent

import (
	"strings"

	"github.com/invopop/jsonschema"
)

// DefaultHost is used for public URLs when no hostname override is configured.
const DefaultHost = "repo-intel.up.railway.app"

// Identity is the static description of the service.
type Identity struct {
	Name        string
	Description string
	Version     string
}

// Service is one sub-service advertised in the registration document.
type Service struct {
	Name     string `json:"name"`
	Endpoint string `json:"endpoint"`
	Version  string `json:"version,omitempty"`
}

// Capabilities is the fixed capability flag set.
type Capabilities struct {
	Streaming              bool `json:"streaming"`
	PushNotifications      bool `json:"pushNotifications"`
	StateTransitionHistory bool `json:"stateTransitionHistory"`
	Payments               bool `json:"payments"`
}

// Entrypoint is the discovery view of an Operation.
type Entrypoint struct {
	Key         string             `json:"key"`
	Description string             `json:"description"`
	Price       int64              `json:"price"`
	Currency    string             `json:"currency"`
	Input       *jsonschema.Schema `json:"input"`
	Invoke      string             `json:"invoke,omitempty"`
}

// Registration is the machine-readable discovery document.
type Registration struct {
	Type         string       `json:"type"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Version      string       `json:"version"`
	URL          string       `json:"url"`
	Image        string       `json:"image"`
	Services     []Service    `json:"services"`
	Capabilities Capabilities `json:"capabilities"`
	Entrypoints  []Entrypoint `json:"entrypoints"`
}

// BaseURL derives the public base URL from an optional hostname override.
// A value that already carries a scheme is used as is.
func BaseURL(hostname string) string {
	host := strings.TrimSpace(hostname)
	if host == "" {
		host = DefaultHost
	}
	host = strings.TrimRight(host, "/")
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host
	}
	return "https://" + host
}

// Entrypoints lists every operation; when baseURL is set each carries its invoke URL.
func (r *Registry) Entrypoints(baseURL string) []Entrypoint {
	out := make([]Entrypoint, 0, len(r.ops))
	for _, op := range r.ops {
		ep := Entrypoint{
			Key:         op.Key,
			Description: op.Description,
			Price:       op.Price,
			Currency:    Currency,
			Input:       op.Schema,
		}
		if baseURL != "" {
			ep.Invoke = baseURL + "/entrypoints/" + op.Key + "/invoke"
		}
		out = append(out, ep)
	}
	return out
}

// BuildRegistration assembles the discovery document for the given base URL.
func BuildRegistration(id Identity, baseURL string, reg *Registry) Registration {
	return Registration{
		Type:        "agent-registration",
		Name:        id.Name,
		Description: id.Description,
		Version:     id.Version,
		URL:         baseURL,
		Image:       baseURL + "/icon.png",
		Services: []Service{
			{Name: "web", Endpoint: baseURL},
			{Name: "entrypoints", Endpoint: baseURL + "/entrypoints", Version: id.Version},
			{Name: "agent-card", Endpoint: baseURL + "/.well-known/agent.json"},
		},
		Capabilities: Capabilities{
			Streaming:              false,
			PushNotifications:      false,
			StateTransitionHistory: false,
			Payments:               true,
		},
		Entrypoints: reg.Entrypoints(baseURL),
	}
}
