package model

// ToolDefinition describes one external image transformation endpoint.
type ToolDefinition struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Endpoint       string  `json:"endpoint"`
	StatusEndpoint string  `json:"statusEndpoint,omitempty"` // polled for deferred results
	Cost           float64 `json:"cost"`
}

// AnalysisDefinition describes one vision analysis endpoint.
type AnalysisDefinition struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Endpoint string `json:"endpoint"`
}

// Registry maps tool/analysis identifiers to their endpoint metadata. It is
// passed into the engine explicitly so tests can inject fakes.
type Registry struct {
	Tools    map[string]ToolDefinition
	Analyses map[string]AnalysisDefinition
}

// Tool returns the tool definition for id, if registered.
func (r *Registry) Tool(id string) (ToolDefinition, bool) {
	t, ok := r.Tools[id]
	return t, ok
}

// Analysis returns the analysis definition for id, if registered.
func (r *Registry) Analysis(id string) (AnalysisDefinition, bool) {
	a, ok := r.Analyses[id]
	return a, ok
}

// DefaultRegistry wires the production tool and analysis endpoints rooted at
// baseURL.
func DefaultRegistry(baseURL string) *Registry {
	return &Registry{
		Tools: map[string]ToolDefinition{
			"remove-background": {
				ID:             "remove-background",
				Name:           "Remove Background",
				Endpoint:       baseURL + "/api/v1/tools/remove-background",
				StatusEndpoint: baseURL + "/api/v1/tools/status",
				Cost:           1,
			},
			"grid-split": {
				ID:             "grid-split",
				Name:           "Grid Split",
				Endpoint:       baseURL + "/api/v1/tools/grid-split",
				StatusEndpoint: baseURL + "/api/v1/tools/status",
				Cost:           1,
			},
			"style-guide-grid": {
				ID:             "style-guide-grid",
				Name:           "Style Guide Grid",
				Endpoint:       baseURL + "/api/v1/tools/style-guide-grid",
				StatusEndpoint: baseURL + "/api/v1/tools/status",
				Cost:           2,
			},
		},
		Analyses: map[string]AnalysisDefinition{
			"style": {
				ID:       "style",
				Name:     "Style Analysis",
				Endpoint: baseURL + "/api/v1/analysis/style",
			},
			"character": {
				ID:       "character",
				Name:     "Character Analysis",
				Endpoint: baseURL + "/api/v1/analysis/character",
			},
			"scene": {
				ID:       "scene",
				Name:     "Scene Analysis",
				Endpoint: baseURL + "/api/v1/analysis/scene",
			},
		},
	}
}
