package recipe

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"go-recipe-pipeline/internal/model"
)

// fieldRegex matches field placeholders: <<FIELD_NAME:typespec>> where the
// typespec may end with ! to mark the field required.
var fieldRegex = regexp.MustCompile(`<<([A-Z_0-9]+):([^>]+)>>`)

var selectOptionsRegex = regexp.MustCompile(`select\(([^)]+)\)`)

// GenerateStageID returns a unique id for a newly created stage.
func GenerateStageID() string {
	return uuid.New().String()
}

// ParseStageTemplate extracts the fillable fields from a single stage
// template.
func ParseStageTemplate(template string, stageIndex int) []model.RecipeField {
	var fields []model.RecipeField
	fieldIndex := 0

	for _, match := range fieldRegex.FindAllStringSubmatch(template, -1) {
		name, typeSpec := match[1], match[2]

		required := strings.HasSuffix(typeSpec, "!")
		cleanSpec := strings.TrimSuffix(typeSpec, "!")

		fieldType := model.FieldText
		var options []string

		switch {
		case cleanSpec == "name":
			fieldType = model.FieldName
		case cleanSpec == "text":
			fieldType = model.FieldText
		case strings.HasPrefix(cleanSpec, "select("):
			fieldType = model.FieldSelect
			if m := selectOptionsRegex.FindStringSubmatch(cleanSpec); m != nil {
				for _, opt := range strings.Split(m[1], ",") {
					options = append(options, strings.TrimSpace(opt))
				}
			}
		}

		label := fieldLabel(name)
		placeholder := label
		if required {
			placeholder = label + "!"
		}

		fields = append(fields, model.RecipeField{
			ID:          fmt.Sprintf("stage%d_field%d_%s", stageIndex, fieldIndex, strings.ToLower(name)),
			Name:        name,
			Label:       label,
			Type:        fieldType,
			Required:    required,
			Options:     options,
			Placeholder: placeholder,
		})
		fieldIndex++
	}

	return fields
}

// fieldLabel converts FIELD_NAME to "Field Name".
func fieldLabel(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = w[:1] + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// ParseRecipeTemplate splits a pipe-separated template into stages, one per
// "|" segment, in order.
func ParseRecipeTemplate(fullTemplate string) []model.RecipeStage {
	parts := strings.Split(fullTemplate, "|")
	stages := make([]model.RecipeStage, 0, len(parts))

	for i, part := range parts {
		template := strings.TrimSpace(part)
		stages = append(stages, model.RecipeStage{
			ID:       fmt.Sprintf("stage_%d", i),
			Order:    i,
			Type:     model.StageGeneration,
			Template: template,
			Fields:   ParseStageTemplate(template, i),
		})
	}

	return stages
}

// AllFields returns every field across all stages, deduplicated by name.
// First occurrence wins its definition; the field is required if any
// occurrence is required.
func AllFields(stages []model.RecipeStage) []model.RecipeField {
	var ordered []model.RecipeField
	seen := make(map[string]int)

	for _, stage := range stages {
		for _, field := range stage.Fields {
			if idx, ok := seen[field.Name]; ok {
				if field.Required && !ordered[idx].Required {
					ordered[idx].Required = true
				}
				continue
			}
			seen[field.Name] = len(ordered)
			ordered = append(ordered, field)
		}
	}

	return ordered
}

// lookupFieldValue finds the value for a field: by field ID first, then by
// any value key containing the lowercased field name.
func lookupFieldValue(field model.RecipeField, values model.FieldValues) string {
	if v := values[field.ID]; v != "" {
		return v
	}
	lower := strings.ToLower(field.Name)
	for id, v := range values {
		if v != "" && strings.Contains(strings.ToLower(id), lower) {
			return v
		}
	}
	return ""
}

// BuildStagePrompt renders one stage template against the field values.
// Empty values render as empty strings; orphaned punctuation left behind is
// cleaned up afterwards.
func BuildStagePrompt(template string, fields []model.RecipeField, values model.FieldValues, allUniqueFields []model.RecipeField) string {
	fieldsToUse := fields
	if allUniqueFields != nil {
		fieldsToUse = allUniqueFields
	}

	valueByName := make(map[string]string, len(fieldsToUse))
	for _, field := range fieldsToUse {
		valueByName[field.Name] = lookupFieldValue(field, values)
	}

	result := fieldRegex.ReplaceAllStringFunc(template, func(match string) string {
		m := fieldRegex.FindStringSubmatch(match)
		return valueByName[m[1]]
	})

	return cleanPrompt(result)
}

var (
	doubleCommaRegex   = regexp.MustCompile(`,\s*,`)
	commaDotRegex      = regexp.MustCompile(`[,\s]+\.`)
	dotCommaRegex      = regexp.MustCompile(`\.\s*,`)
	trailingCommaRegex = regexp.MustCompile(`,\s*$`)
	leadingCommaRegex  = regexp.MustCompile(`^\s*,\s*`)
	multiSpaceRegex    = regexp.MustCompile(`\s+`)
	spaceCommaRegex    = regexp.MustCompile(`\s+,`)
	spaceDotRegex      = regexp.MustCompile(`\s+\.`)
)

// cleanPrompt removes punctuation artifacts left by omitted optional fields.
func cleanPrompt(s string) string {
	s = doubleCommaRegex.ReplaceAllString(s, ",")
	s = commaDotRegex.ReplaceAllString(s, ".")
	s = dotCommaRegex.ReplaceAllString(s, ".")
	s = trailingCommaRegex.ReplaceAllString(s, "")
	s = leadingCommaRegex.ReplaceAllString(s, "")
	s = multiSpaceRegex.ReplaceAllString(s, " ")
	s = spaceCommaRegex.ReplaceAllString(s, ",")
	s = spaceDotRegex.ReplaceAllString(s, ".")
	return strings.TrimSpace(s)
}

// PromptResult is the output of BuildRecipePrompts.
type PromptResult struct {
	Prompts              []string   `json:"prompts"`
	ReferenceImages      []string   `json:"referenceImages"`      // all refs, flattened and deduplicated
	StageReferenceImages [][]string `json:"stageReferenceImages"` // per-stage refs indexed by stage order
}

// BuildRecipePrompts renders every stage's prompt up front using the
// deduplicated field set, so the same field name shares one value across
// stages, and collects per-stage reference images for pipe chaining.
func BuildRecipePrompts(stages []model.RecipeStage, values model.FieldValues) PromptResult {
	uniqueFields := AllFields(stages)

	prompts := make([]string, 0, len(stages))
	for _, stage := range stages {
		prompts = append(prompts, BuildStagePrompt(stage.Template, stage.Fields, values, uniqueFields))
	}

	var flattened []string
	seen := make(map[string]bool)
	stageRefs := make([][]string, 0, len(stages))

	for _, stage := range stages {
		refs := make([]string, 0, len(stage.ReferenceImages))
		for _, ref := range stage.ReferenceImages {
			if ref.URL == "" {
				continue
			}
			refs = append(refs, ref.URL)
			if !seen[ref.URL] {
				seen[ref.URL] = true
				flattened = append(flattened, ref.URL)
			}
		}
		stageRefs = append(stageRefs, refs)
	}

	return PromptResult{
		Prompts:              prompts,
		ReferenceImages:      flattened,
		StageReferenceImages: stageRefs,
	}
}

// CalculateRecipeCost sums the credit cost of all tool stages. Generation
// cost is determined by the selected model, not the recipe.
func CalculateRecipeCost(stages []model.RecipeStage, registry *model.Registry) float64 {
	var total float64
	for _, stage := range stages {
		if stage.Type == model.StageTool && stage.ToolID != "" {
			if tool, ok := registry.Tool(stage.ToolID); ok {
				total += tool.Cost
			}
		}
	}
	return total
}
