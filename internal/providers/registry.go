package providers

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ProviderSpec is the metadata record for one model backend variant.
type ProviderSpec struct {
	Name           string // config value of llm.provider
	DisplayName    string // shown in `hugin status`
	DefaultAPIBase string // used when llm.base_url is empty
	NeedsAPIKey    bool

	// StructuredTools is true when the backend accepts a tool list and
	// returns tool calls as data; false means the catalog is injected into
	// the prompt and calls are parsed from text.
	StructuredTools bool
	// SynthesizesIDs is true when the backend returns calls without ids.
	SynthesizesIDs bool
}

// Label returns the display name, defaulting to the title-cased Name.
func (s ProviderSpec) Label() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return cases.Title(language.Und).String(s.Name)
}

// PROVIDERS lists every supported backend variant.
var PROVIDERS = []ProviderSpec{
	{
		Name:            "anthropic",
		DefaultAPIBase:  "https://api.anthropic.com/v1",
		NeedsAPIKey:     true,
		StructuredTools: true,
	},
	{
		Name:            "openai",
		DisplayName:     "OpenAI",
		DefaultAPIBase:  "https://api.openai.com/v1",
		NeedsAPIKey:     true,
		StructuredTools: true,
	},
	{
		Name:            "ollama",
		DefaultAPIBase:  "http://localhost:11434",
		StructuredTools: true,
		SynthesizesIDs:  true,
	},
	{
		Name:           "vllm",
		DisplayName:    "vLLM",
		DefaultAPIBase: "http://localhost:8000/v1",
	},
	{
		Name:           "openvino",
		DisplayName:    "OpenVINO",
		DefaultAPIBase: "http://localhost:8000/v3",
	},
}

// FindByName returns the spec for name (case-insensitive), or nil.
func FindByName(name string) *ProviderSpec {
	name = strings.ToLower(strings.TrimSpace(name))
	for i := range PROVIDERS {
		if PROVIDERS[i].Name == name {
			return &PROVIDERS[i]
		}
	}
	return nil
}

// Names returns every supported provider name.
func Names() []string {
	out := make([]string, len(PROVIDERS))
	for i, s := range PROVIDERS {
		out[i] = s.Name
	}
	return out
}
