package recipe

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"go-recipe-pipeline/internal/model"
)

// GalleryStore is the async job record the completion waiter watches. Rows
// are updated out-of-band by the generation webhook.
type GalleryStore interface {
	GetItem(ctx context.Context, id string) (*model.GalleryItem, error)
	// Subscribe delivers a snapshot of the item after every update until the
	// returned cancel func is called.
	Subscribe(id string) (<-chan model.GalleryItem, func())
}

// Generator submits an image generation request and returns the gallery id
// of the job created for it.
type Generator interface {
	Submit(ctx context.Context, req model.GenerationRequest) (string, error)
}

// Uploader persists binary assets to durable storage and can tell durable
// URLs apart from transient provider URLs.
type Uploader interface {
	Upload(ctx context.Context, filename string, data []byte, contentType string) (string, error)
	IsDurableURL(url string) bool
}

const (
	defaultModel       = "nano-banana-pro"
	defaultAspectRatio = "21:9"

	defaultWaitTimeout = 120 * time.Second
	waitPollInterval   = 2 * time.Second

	toolPollInterval = 1 * time.Second
	toolPollCeiling  = 60 * time.Second
)

// Engine executes recipes. Construct with NewEngine; all collaborators are
// injected so tests can run against fakes.
type Engine struct {
	Store     GalleryStore
	Generator Generator
	Uploader  Uploader
	Registry  *model.Registry
	Client    *http.Client
	BaseURL   string // application origin, for root-relative asset fetches

	WaitTimeout time.Duration
}

// NewEngine wires an engine with default timeouts.
func NewEngine(store GalleryStore, gen Generator, up Uploader, reg *model.Registry, baseURL string) *Engine {
	return &Engine{
		Store:       store,
		Generator:   gen,
		Uploader:    up,
		Registry:    reg,
		Client:      &http.Client{Timeout: 60 * time.Second},
		BaseURL:     baseURL,
		WaitTimeout: defaultWaitTimeout,
	}
}

// ExecuteOptions is the input to one recipe run.
type ExecuteOptions struct {
	Recipe               model.Recipe      `json:"recipe"`
	FieldValues          model.FieldValues `json:"fieldValues"`
	StageReferenceImages [][]string        `json:"stageReferenceImages"` // raw refs indexed by stage order
	Model                string            `json:"model,omitempty"`
	AspectRatio          string            `json:"aspectRatio,omitempty"`
	FolderID             string            `json:"folderId,omitempty"`
	ExtraMetadata        map[string]string `json:"extraMetadata,omitempty"`

	// OnProgress is invoked before and during each stage with the 0-based
	// stage index, the total stage count, and a status message.
	OnProgress func(stage, totalStages int, status string) `json:"-"`
}

// ExecuteRecipe runs every stage of a recipe in order, threading each
// stage's output image(s) into the next stage's input set. The returned
// result is terminal: Success with the accumulated URLs, or an error string.
func (e *Engine) ExecuteRecipe(ctx context.Context, opts ExecuteOptions) model.ExecutionResult {
	if opts.Model == "" {
		opts.Model = defaultModel
	}
	if opts.AspectRatio == "" {
		opts.AspectRatio = defaultAspectRatio
	}

	result, err := e.run(ctx, opts)
	if err != nil {
		log.Printf("❌ Recipe %q failed: %v", opts.Recipe.Name, err)
		return model.ExecutionResult{Success: false, ImageURLs: []string{}, Error: err.Error()}
	}
	return result
}

func (e *Engine) run(ctx context.Context, opts ExecuteOptions) (model.ExecutionResult, error) {
	// Render all stage prompts up front from the field values.
	promptResult := BuildRecipePrompts(opts.Recipe.Stages, opts.FieldValues)
	prompts := promptResult.Prompts
	totalStages := len(prompts)

	if totalStages == 0 {
		return model.ExecutionResult{}, ErrEmptyRecipe
	}

	log.Printf("🚀 Starting %d-stage recipe: %s", totalStages, opts.Recipe.Name)

	imageURLs := []string{}
	var previousImageURL string
	var previousImageURLs []string
	analysisVars := model.AnalysisVariables{}

	for i := 0; i < totalStages; i++ {
		stage := opts.Recipe.Stages[i]
		stagePrompt := prompts[i]
		isLastStage := i == totalStages-1

		if opts.OnProgress != nil {
			opts.OnProgress(i, totalStages, fmt.Sprintf("Processing stage %d...", i+1))
		}

		// Re-render against accumulated analysis variables, so any stage
		// after an analysis stage can reference its output.
		if len(analysisVars) > 0 {
			stagePrompt = SubstituteAnalysisVariables(stagePrompt, analysisVars)
		}

		var rawRefs []string
		if i < len(opts.StageReferenceImages) {
			rawRefs = opts.StageReferenceImages[i]
		}
		stageRefs := e.ResolveReferences(ctx, rawRefs)

		// Input set: previous stage's output(s) first, then this stage's refs.
		var inputImages []string
		if i > 0 {
			if len(previousImageURLs) > 0 {
				inputImages = append(inputImages, previousImageURLs...)
			} else if previousImageURL != "" {
				inputImages = append(inputImages, previousImageURL)
			}
		}
		inputImages = append(inputImages, stageRefs...)

		log.Printf("▶️ Stage %d/%d (%s): %d input image(s), prompt: %.50s",
			i+1, totalStages, stage.Type, len(inputImages), stagePrompt)

		switch stage.Type {
		case model.StageAnalysis:
			if len(inputImages) == 0 {
				return model.ExecutionResult{}, &StageExecutionError{Stage: i + 1, StageType: stage.Type,
					Err: &MissingInputError{Stage: i + 1, StageType: stage.Type}}
			}
			vars, err := e.executeAnalysis(ctx, stage, inputImages)
			if err != nil {
				return model.ExecutionResult{}, &StageExecutionError{Stage: i + 1, StageType: stage.Type, Err: err}
			}
			// Union merge; keys from earlier stages are kept.
			for k, v := range vars {
				analysisVars[k] = v
			}
			// Analysis contributes no image output; previous output carries over.

		case model.StageTool:
			if len(inputImages) == 0 {
				return model.ExecutionResult{}, &StageExecutionError{Stage: i + 1, StageType: stage.Type,
					Err: &MissingInputError{Stage: i + 1, StageType: stage.Type}}
			}
			urls, err := e.executeTool(ctx, stage, inputImages[0])
			if err != nil {
				return model.ExecutionResult{}, &StageExecutionError{Stage: i + 1, StageType: stage.Type, Err: err}
			}
			imageURLs = append(imageURLs, urls...)
			if len(urls) > 1 {
				previousImageURLs = urls
				previousImageURL = ""
			} else {
				previousImageURL = urls[0]
				previousImageURLs = nil
			}

		case model.StageGeneration:
			aspectRatio := "1:1" // intermediate stages are not end-user output
			if isLastStage {
				aspectRatio = opts.AspectRatio
			}

			req := model.GenerationRequest{
				Model:           opts.Model,
				Prompt:          stagePrompt,
				ReferenceImages: inputImages,
				ModelSettings:   model.ModelSettings{AspectRatio: aspectRatio, OutputFormat: "png"},
				RecipeID:        opts.Recipe.ID,
				RecipeName:      opts.Recipe.Name,
				FolderID:        opts.FolderID,
				ExtraMetadata:   opts.ExtraMetadata,
			}

			galleryID, err := e.Generator.Submit(ctx, req)
			if err != nil {
				return model.ExecutionResult{}, &StageExecutionError{Stage: i + 1, StageType: stage.Type, Err: err}
			}
			if galleryID == "" {
				return model.ExecutionResult{}, &StageExecutionError{Stage: i + 1, StageType: stage.Type,
					Err: &SubmissionError{Detail: "No gallery ID returned"}}
			}

			if opts.OnProgress != nil {
				opts.OnProgress(i, totalStages, fmt.Sprintf("Waiting for stage %d to complete...", i+1))
			}

			imageURL, err := e.WaitForCompletion(ctx, galleryID, e.WaitTimeout)
			if err != nil {
				return model.ExecutionResult{}, &StageExecutionError{Stage: i + 1, StageType: stage.Type, Err: err}
			}

			imageURLs = append(imageURLs, imageURL)
			previousImageURL = imageURL
			previousImageURLs = nil
			log.Printf("✅ Stage %d completed: %s", i+1, imageURL)

		default:
			return model.ExecutionResult{}, &StageExecutionError{Stage: i + 1, StageType: stage.Type,
				Err: fmt.Errorf("unknown stage type %q", stage.Type)}
		}
	}

	if opts.OnProgress != nil {
		opts.OnProgress(totalStages, totalStages, "Recipe completed!")
	}

	result := model.ExecutionResult{Success: true, ImageURLs: imageURLs}
	if len(previousImageURLs) > 0 {
		result.FinalImageURL = previousImageURLs[0]
		result.FinalImageURLs = previousImageURLs
	} else {
		result.FinalImageURL = previousImageURL
	}

	log.Printf("🏁 Recipe %q completed with %d image(s)", opts.Recipe.Name, len(imageURLs))
	return result, nil
}
