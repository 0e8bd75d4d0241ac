package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"go-recipe-pipeline/internal/model"
)

// Store is the sqlite-backed gallery and run record store. Gallery rows are
// the async generation job records updated out-of-band by the webhook; every
// update is pushed to that row's subscribers.
type Store struct {
	db       *sql.DB
	notifier *notifier
}

// InitDB opens the database and creates tables if needed.
func InitDB(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	galleryTable := `
	CREATE TABLE IF NOT EXISTS gallery (
		id TEXT PRIMARY KEY,
		status TEXT,
		public_url TEXT,
		error_message TEXT,
		metadata TEXT,
		recipe_id TEXT,
		recipe_name TEXT,
		folder_id TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);
	`
	runsTable := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		recipe_id TEXT,
		recipe_name TEXT,
		status TEXT,
		result TEXT,
		error_message TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);
	`

	if _, err := db.Exec(galleryTable); err != nil {
		return nil, err
	}
	if _, err := db.Exec(runsTable); err != nil {
		return nil, err
	}

	return &Store{db: db, notifier: newNotifier()}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateItem inserts a new gallery job record.
func (s *Store) CreateItem(ctx context.Context, item model.GalleryItem) error {
	metadataJSON, err := json.Marshal(item.Metadata)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO gallery (id, status, public_url, error_message, metadata, recipe_id, recipe_name, folder_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Status, item.PublicURL, item.ErrorMessage, string(metadataJSON),
		item.RecipeID, item.RecipeName, item.FolderID, now, now)
	return err
}

// GetItem fetches one gallery job record.
func (s *Store) GetItem(ctx context.Context, id string) (*model.GalleryItem, error) {
	var item model.GalleryItem
	var metadataJSON string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, status, public_url, error_message, metadata, recipe_id, recipe_name, folder_id, created_at, updated_at
		 FROM gallery WHERE id = ?`, id).
		Scan(&item.ID, &item.Status, &item.PublicURL, &item.ErrorMessage, &metadataJSON,
			&item.RecipeID, &item.RecipeName, &item.FolderID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &item.Metadata); err != nil {
			return nil, fmt.Errorf("bad metadata for gallery item %s: %w", id, err)
		}
	}

	return &item, nil
}

// UpdateItemStatus updates a gallery row's status and pushes the new
// snapshot to subscribers.
func (s *Store) UpdateItemStatus(ctx context.Context, id, status string) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`UPDATE gallery SET status = ?, updated_at = ? WHERE id = ?`, status, now, id)
	if err != nil {
		return err
	}
	return s.publish(ctx, id)
}

// UpdateItemResult marks a gallery row completed with its durable URL.
func (s *Store) UpdateItemResult(ctx context.Context, id, publicURL string) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`UPDATE gallery SET status = ?, public_url = ?, updated_at = ? WHERE id = ?`,
		model.GalleryCompleted, publicURL, now, id)
	if err != nil {
		return err
	}
	return s.publish(ctx, id)
}

// UpdateItemURL records a (possibly transient) URL without changing status.
func (s *Store) UpdateItemURL(ctx context.Context, id, publicURL string) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`UPDATE gallery SET public_url = ?, updated_at = ? WHERE id = ?`, publicURL, now, id)
	if err != nil {
		return err
	}
	return s.publish(ctx, id)
}

// UpdateItemError marks a gallery row failed.
func (s *Store) UpdateItemError(ctx context.Context, id, errorMessage string) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`UPDATE gallery SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		model.GalleryFailed, errorMessage, now, id)
	if err != nil {
		return err
	}
	return s.publish(ctx, id)
}

// UpdateItemMetadata replaces a gallery row's metadata.
func (s *Store) UpdateItemMetadata(ctx context.Context, id string, metadata model.GalleryMetadata) error {
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`UPDATE gallery SET metadata = ?, updated_at = ? WHERE id = ?`, string(metadataJSON), now, id)
	if err != nil {
		return err
	}
	return s.publish(ctx, id)
}

// publish pushes the current row snapshot to that row's subscribers.
func (s *Store) publish(ctx context.Context, id string) error {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return err
	}
	s.notifier.publish(*item)
	return nil
}

// Subscribe registers for change notifications on one gallery row. The
// returned cancel func must be called exactly once when done.
func (s *Store) Subscribe(id string) (<-chan model.GalleryItem, func()) {
	return s.notifier.subscribe(id)
}

// SaveRun inserts a new pipeline run record.
func (s *Store) SaveRun(ctx context.Context, run model.RunRecord) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, recipe_id, recipe_name, status, result, error_message, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.RecipeID, run.RecipeName, run.Status, "", run.ErrorMessage, now, now)
	return err
}

// UpdateRunStatus updates a run's status.
func (s *Store) UpdateRunStatus(ctx context.Context, id, status string) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`, status, now, id)
	return err
}

// FinishRun records the terminal result of a run.
func (s *Store) FinishRun(ctx context.Context, id string, result model.ExecutionResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return err
	}

	status := "completed"
	if !result.Success {
		status = "failed"
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, result = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		status, string(resultJSON), result.Error, now, id)
	return err
}

// GetRun fetches one run record.
func (s *Store) GetRun(ctx context.Context, id string) (*model.RunRecord, error) {
	var run model.RunRecord
	var resultJSON string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, recipe_id, recipe_name, status, result, error_message, created_at, updated_at
		 FROM runs WHERE id = ?`, id).
		Scan(&run.ID, &run.RecipeID, &run.RecipeName, &run.Status, &resultJSON,
			&run.ErrorMessage, &run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if resultJSON != "" {
		var result model.ExecutionResult
		if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
			return nil, fmt.Errorf("bad result for run %s: %w", id, err)
		}
		run.Result = &result
	}

	return &run, nil
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]model.RunRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, recipe_id, recipe_name, status, error_message, created_at, updated_at
		 FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []model.RunRecord
	for rows.Next() {
		var run model.RunRecord
		if err := rows.Scan(&run.ID, &run.RecipeID, &run.RecipeName, &run.Status,
			&run.ErrorMessage, &run.CreatedAt, &run.UpdatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
