package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-recipe-pipeline/internal/model"
)

func TestParseStageTemplate(t *testing.T) {
	template := "A portrait of <<CHARACTER_NAME:name!>> in <<ART_STYLE:select(oil painting,watercolor,pixel art)>> style, <<EXTRA_DETAILS:text>>"

	fields := ParseStageTemplate(template, 0)
	require.Len(t, fields, 3)

	assert.Equal(t, "stage0_field0_character_name", fields[0].ID)
	assert.Equal(t, "CHARACTER_NAME", fields[0].Name)
	assert.Equal(t, "Character Name", fields[0].Label)
	assert.Equal(t, model.FieldName, fields[0].Type)
	assert.True(t, fields[0].Required)
	assert.Equal(t, "Character Name!", fields[0].Placeholder)

	assert.Equal(t, "stage0_field1_art_style", fields[1].ID)
	assert.Equal(t, model.FieldSelect, fields[1].Type)
	assert.False(t, fields[1].Required)
	assert.Equal(t, []string{"oil painting", "watercolor", "pixel art"}, fields[1].Options)

	assert.Equal(t, model.FieldText, fields[2].Type)
	assert.False(t, fields[2].Required)
	assert.Equal(t, "Extra Details", fields[2].Placeholder)
}

func TestParseStageTemplateNoFields(t *testing.T) {
	assert.Empty(t, ParseStageTemplate("a fixed prompt with no placeholders", 0))
}

func TestParseRecipeTemplate(t *testing.T) {
	stages := ParseRecipeTemplate("first stage <<NAME:name!>> | second stage | third stage <<NAME:name>>")
	require.Len(t, stages, 3)

	assert.Equal(t, "stage_0", stages[0].ID)
	assert.Equal(t, 0, stages[0].Order)
	assert.Equal(t, model.StageGeneration, stages[0].Type)
	assert.Equal(t, "first stage <<NAME:name!>>", stages[0].Template)
	assert.Equal(t, "second stage", stages[1].Template)
	assert.Len(t, stages[2].Fields, 1)
}

func TestAllFieldsDeduplicatesByName(t *testing.T) {
	stages := ParseRecipeTemplate("hero <<NAME:name>> wearing <<OUTFIT:text>> | closeup of <<NAME:name!>>")

	fields := AllFields(stages)
	require.Len(t, fields, 2)

	// First occurrence wins the definition; required if any occurrence is.
	assert.Equal(t, "NAME", fields[0].Name)
	assert.Equal(t, "stage0_field0_name", fields[0].ID)
	assert.True(t, fields[0].Required)
	assert.Equal(t, "OUTFIT", fields[1].Name)
	assert.False(t, fields[1].Required)
}

func TestBuildStagePromptFillsValues(t *testing.T) {
	stages := ParseRecipeTemplate("A photo of <<NAME:name!>>, <<MOOD:text>>, golden hour")
	values := model.FieldValues{
		"stage0_field0_name": "Ada",
		"stage0_field1_mood": "smiling",
	}

	prompt := BuildStagePrompt(stages[0].Template, stages[0].Fields, values, nil)
	assert.Equal(t, "A photo of Ada, smiling, golden hour", prompt)
}

func TestBuildStagePromptCleansOmittedFields(t *testing.T) {
	stages := ParseRecipeTemplate("A photo of <<NAME:name!>>, <<MOOD:text>>, golden hour")
	values := model.FieldValues{"stage0_field0_name": "Ada"}

	prompt := BuildStagePrompt(stages[0].Template, stages[0].Fields, values, nil)
	assert.Equal(t, "A photo of Ada, golden hour", prompt)
}

func TestBuildStagePromptCleanupCases(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"a, , b", "a, b"},
		{"a , .", "a."},
		{"end. , next", "end. next"},
		{"trailing, ", "trailing"},
		{", leading", "leading"},
		{"too    many spaces", "too many spaces"},
		{"space , comma", "space, comma"},
		{"space . dot", "space. dot"},
		{"  padded  ", "padded"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, cleanPrompt(tc.in), "input: %q", tc.in)
	}
}

func TestBuildStagePromptMatchesValueByFieldName(t *testing.T) {
	stages := ParseRecipeTemplate("portrait of <<CHARACTER_NAME:name!>>")

	// Value keyed by something containing the lowercased field name still
	// resolves when the exact field ID is absent.
	values := model.FieldValues{"my_character_name_input": "Grace"}
	prompt := BuildStagePrompt(stages[0].Template, stages[0].Fields, values, nil)
	assert.Equal(t, "portrait of Grace", prompt)
}

func TestBuildRecipePromptsSharesValuesAcrossStages(t *testing.T) {
	stages := ParseRecipeTemplate("full body of <<NAME:name!>> | closeup of <<NAME:name!>>, detailed")
	values := model.FieldValues{"stage0_field0_name": "Ada"}

	result := BuildRecipePrompts(stages, values)
	require.Len(t, result.Prompts, 2)
	assert.Equal(t, "full body of Ada", result.Prompts[0])
	assert.Equal(t, "closeup of Ada, detailed", result.Prompts[1])
}

func TestBuildRecipePromptsCollectsReferences(t *testing.T) {
	stages := ParseRecipeTemplate("one | two")
	stages[0].ReferenceImages = []model.ReferenceImage{{URL: "https://x/a.png"}, {URL: ""}}
	stages[1].ReferenceImages = []model.ReferenceImage{{URL: "https://x/a.png"}, {URL: "https://x/b.png"}}

	result := BuildRecipePrompts(stages, nil)

	assert.Equal(t, []string{"https://x/a.png", "https://x/b.png"}, result.ReferenceImages)
	require.Len(t, result.StageReferenceImages, 2)
	assert.Equal(t, []string{"https://x/a.png"}, result.StageReferenceImages[0])
	assert.Equal(t, []string{"https://x/a.png", "https://x/b.png"}, result.StageReferenceImages[1])
}

func TestCalculateRecipeCost(t *testing.T) {
	registry := model.DefaultRegistry("http://localhost:8080")

	stages := []model.RecipeStage{
		{Type: model.StageGeneration},
		{Type: model.StageTool, ToolID: "grid-split"},
		{Type: model.StageTool, ToolID: "style-guide-grid"},
		{Type: model.StageTool, ToolID: "no-such-tool"},
	}

	assert.Equal(t, 3.0, CalculateRecipeCost(stages, registry))
}

func TestGenerateStageID(t *testing.T) {
	a, b := GenerateStageID(), GenerateStageID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
