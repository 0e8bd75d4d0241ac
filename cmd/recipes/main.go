package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"go-recipe-pipeline/internal/model"
)

// One-shot client for a running recipes-api server: submits a recipe run
// and polls until it finishes.
func main() {
	server := flag.String("server", "http://localhost:8080", "recipes-api base URL")
	recipePath := flag.String("recipe", "", "path to a recipe JSON file")
	valuesPath := flag.String("values", "", "path to a field values JSON file")
	modelID := flag.String("model", "", "image model id")
	aspectRatio := flag.String("aspect", "", "target aspect ratio for the final stage")
	flag.Parse()

	if *recipePath == "" {
		fmt.Fprintln(os.Stderr, "usage: recipes -recipe recipe.json [-values values.json]")
		os.Exit(1)
	}

	var rcp model.Recipe
	if err := readJSON(*recipePath, &rcp); err != nil {
		fmt.Fprintf(os.Stderr, "failed to read recipe: %v\n", err)
		os.Exit(1)
	}

	values := model.FieldValues{}
	if *valuesPath != "" {
		if err := readJSON(*valuesPath, &values); err != nil {
			fmt.Fprintf(os.Stderr, "failed to read values: %v\n", err)
			os.Exit(1)
		}
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"recipe":      rcp,
		"fieldValues": values,
		"model":       *modelID,
		"aspectRatio": *aspectRatio,
	})

	resp, err := http.Post(*server+"/api/v1/recipes/execute", "application/json", bytes.NewReader(payload))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start run: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	var started struct {
		RunID string `json:"runId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&started); err != nil || started.RunID == "" {
		fmt.Fprintln(os.Stderr, "server did not return a run id")
		os.Exit(1)
	}

	fmt.Printf("🚀 Run %s started\n", started.RunID)

	for {
		time.Sleep(2 * time.Second)

		run, err := fetchRun(*server, started.RunID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to poll run: %v\n", err)
			continue
		}

		if run.Status != "completed" && run.Status != "failed" {
			fmt.Printf("⏳ %s...\n", run.Status)
			continue
		}

		out, _ := json.MarshalIndent(run, "", "  ")
		fmt.Println(string(out))
		if run.Status == "failed" {
			os.Exit(1)
		}
		return
	}
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func fetchRun(server, runID string) (*model.RunRecord, error) {
	resp, err := http.Get(server + "/api/v1/runs/" + runID)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var run model.RunRecord
	if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
		return nil, err
	}
	return &run, nil
}
