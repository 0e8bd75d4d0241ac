package recipe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-recipe-pipeline/internal/model"
)

func analysisEngine(t *testing.T, id, endpoint string) *Engine {
	t.Helper()
	e, _, _, _ := newTestEngine(t)
	e.Registry = &model.Registry{Analyses: map[string]model.AnalysisDefinition{
		id: {ID: id, Name: "Test Analysis", Endpoint: endpoint},
	}}
	return e
}

func analysisStage(id string) model.RecipeStage {
	return model.RecipeStage{ID: "stage_0", Order: 0, Type: model.StageAnalysis, AnalysisID: id}
}

func TestExecuteAnalysisCharacter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"description": "a weathered sailor with a red coat"})
	}))
	defer srv.Close()

	e := analysisEngine(t, "character", srv.URL)
	vars, err := e.executeAnalysis(context.Background(), analysisStage("character"), []string{"data:image/png;base64,aGk="})
	require.NoError(t, err)
	assert.Equal(t, model.AnalysisVariables{"ANALYZED_CHARACTER_DESCRIPTION": "a weathered sailor with a red coat"}, vars)
}

func TestExecuteAnalysisSceneElementsArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"elements": []string{"rain", "neon signs", "fog"}})
	}))
	defer srv.Close()

	e := analysisEngine(t, "scene", srv.URL)
	vars, err := e.executeAnalysis(context.Background(), analysisStage("scene"), []string{"data:image/png;base64,aGk="})
	require.NoError(t, err)
	assert.Equal(t, "rain, neon signs, fog", vars["ANALYZED_SCENE_ELEMENTS"])
}

func TestExecuteAnalysisOnlyFirstImage(t *testing.T) {
	var received string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		received = body["image"]
		json.NewEncoder(w).Encode(map[string]string{"description": "x"})
	}))
	defer srv.Close()

	e := analysisEngine(t, "character", srv.URL)
	inputs := []string{"data:image/png;base64,Zmlyc3Q=", "data:image/png;base64,c2Vjb25k"}
	_, err := e.executeAnalysis(context.Background(), analysisStage("character"), inputs)
	require.NoError(t, err)
	assert.Equal(t, inputs[0], received)
}

func TestExecuteAnalysisUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "vision model overloaded"})
	}))
	defer srv.Close()

	e := analysisEngine(t, "style", srv.URL)
	_, err := e.executeAnalysis(context.Background(), analysisStage("style"), []string{"data:image/png;base64,aGk="})
	require.Error(t, err)
	assert.Equal(t, "Test Analysis failed: vision model overloaded", err.Error())
}

func TestExecuteAnalysisMissingID(t *testing.T) {
	e, _, _, _ := newTestEngine(t)

	stage := model.RecipeStage{ID: "stage_0", Order: 0, Type: model.StageAnalysis}
	_, err := e.executeAnalysis(context.Background(), stage, []string{"data:image/png;base64,aGk="})
	require.Error(t, err)
	assert.Equal(t, "analysis stage has no analysis ID", err.Error())
}

func TestMapAnalysisVariables(t *testing.T) {
	style := mapAnalysisVariables("style", analysisResponse{Name: "Noir", Description: "dark", StylePrompt: "ink"})
	assert.Equal(t, model.AnalysisVariables{
		"ANALYZED_STYLE_NAME":        "Noir",
		"ANALYZED_STYLE_DESCRIPTION": "dark",
		"ANALYZED_STYLE_PROMPT":      "ink",
	}, style)

	// A registered analysis with no variable mapping yields no variables,
	// not an error.
	unknown := mapAnalysisVariables("something-new", analysisResponse{Description: "ignored"})
	assert.Empty(t, unknown)
}

func TestElementsString(t *testing.T) {
	assert.Equal(t, "", elementsString(nil))
	assert.Equal(t, "just text", elementsString(json.RawMessage(`"just text"`)))
	assert.Equal(t, "a, b", elementsString(json.RawMessage(`["a","b"]`)))
}

func TestEmbedImagePassesThroughDataURL(t *testing.T) {
	e, _, _, _ := newTestEngine(t)

	out, err := e.embedImage(context.Background(), "data:image/jpeg;base64,aGk=")
	require.NoError(t, err)
	assert.Equal(t, "data:image/jpeg;base64,aGk=", out)
}

func TestEmbedImageFetchesRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg-bytes"))
	}))
	defer srv.Close()

	e, _, _, _ := newTestEngine(t)
	out, err := e.embedImage(context.Background(), srv.URL+"/img.jpg")
	require.NoError(t, err)
	assert.Equal(t, "data:image/jpeg;base64,anBlZy1ieXRlcw==", out)
}
