package model

import "time"

// StageType determines which executor a recipe stage is routed to.
type StageType string

const (
	StageGeneration StageType = "generation"
	StageTool       StageType = "tool"
	StageAnalysis   StageType = "analysis"
)

// RecipeFieldType is the input widget hint parsed from a stage template.
type RecipeFieldType string

const (
	FieldName   RecipeFieldType = "name"
	FieldText   RecipeFieldType = "text"
	FieldSelect RecipeFieldType = "select"
)

// RecipeField is a single user-fillable placeholder extracted from a stage
// template, e.g. <<CHARACTER_NAME:name!>>.
type RecipeField struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Label       string          `json:"label"`
	Type        RecipeFieldType `json:"type"`
	Required    bool            `json:"required"`
	Options     []string        `json:"options,omitempty"`
	Placeholder string          `json:"placeholder,omitempty"`
}

// ReferenceImage is a raw per-stage image reference. URL may be an https URL,
// a data: URL, a root-relative asset path, or a transient blob reference.
type ReferenceImage struct {
	URL string `json:"url"`
}

// RecipeStage is a single step of a recipe. Order must match the stage's
// index in Recipe.Stages; it is used for diagnostics only.
type RecipeStage struct {
	ID              string           `json:"id"`
	Order           int              `json:"order"`
	Type            StageType        `json:"type"`
	ToolID          string           `json:"toolId,omitempty"`     // required iff Type == tool
	AnalysisID      string           `json:"analysisId,omitempty"` // required iff Type == analysis
	Template        string           `json:"template"`
	Fields          []RecipeField    `json:"fields,omitempty"`
	ReferenceImages []ReferenceImage `json:"referenceImages,omitempty"`
}

// Recipe is a named, ordered list of stages. Stage order is execution order.
type Recipe struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Stages       []RecipeStage `json:"stages"`
	IsSystemOnly bool          `json:"isSystemOnly,omitempty"`
}

// FieldValues maps field IDs (or names) to user-supplied values. Immutable
// for the duration of one pipeline run.
type FieldValues map[string]string

// AnalysisVariables accumulates named values produced by analysis stages,
// e.g. ANALYZED_STYLE_NAME. Visible to every subsequent stage's prompt.
type AnalysisVariables map[string]string

// ModelSettings carries per-request image model options.
type ModelSettings struct {
	AspectRatio  string `json:"aspectRatio"`
	OutputFormat string `json:"outputFormat"`
}

// GenerationRequest is the payload submitted to the generation endpoint.
type GenerationRequest struct {
	Model           string            `json:"model"`
	Prompt          string            `json:"prompt"`
	ReferenceImages []string          `json:"referenceImages,omitempty"`
	ModelSettings   ModelSettings     `json:"modelSettings"`
	RecipeID        string            `json:"recipeId,omitempty"`
	RecipeName      string            `json:"recipeName,omitempty"`
	FolderID        string            `json:"folderId,omitempty"`
	ExtraMetadata   map[string]string `json:"extraMetadata,omitempty"`
}

// Gallery item statuses, updated out-of-band by the generation webhook.
const (
	GalleryPending    = "pending"
	GalleryGenerating = "generating"
	GalleryCompleted  = "completed"
	GalleryFailed     = "failed"
	GalleryCanceled   = "canceled"
)

// GalleryMetadata is the free-form metadata column of a gallery item.
type GalleryMetadata struct {
	Error        string            `json:"error,omitempty"`
	PredictionID string            `json:"predictionId,omitempty"`
	Extra        map[string]string `json:"extra,omitempty"`
}

// GalleryItem is one asynchronous generation job record.
type GalleryItem struct {
	ID           string          `json:"id"`
	Status       string          `json:"status"`
	PublicURL    string          `json:"public_url,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Metadata     GalleryMetadata `json:"metadata"`
	RecipeID     string          `json:"recipe_id,omitempty"`
	RecipeName   string          `json:"recipe_name,omitempty"`
	FolderID     string          `json:"folder_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ExecutionResult is the terminal result of one recipe run.
type ExecutionResult struct {
	Success        bool     `json:"success"`
	ImageURLs      []string `json:"imageUrls"`
	FinalImageURL  string   `json:"finalImageUrl,omitempty"`
	FinalImageURLs []string `json:"finalImageUrls,omitempty"`
	Error          string   `json:"error,omitempty"`
}

// RunRecord is one persisted whole-pipeline run.
type RunRecord struct {
	ID           string           `json:"id"`
	RecipeID     string           `json:"recipe_id"`
	RecipeName   string           `json:"recipe_name"`
	Status       string           `json:"status"` // pending, running, completed, failed
	Result       *ExecutionResult `json:"result,omitempty"`
	ErrorMessage string           `json:"error_message,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}
