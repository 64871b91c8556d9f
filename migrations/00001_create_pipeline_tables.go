package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreatePipelineTables, downCreatePipelineTables)
}

func upCreatePipelineTables(ctx context.Context, tx *sql.Tx) error {
	createVideoTable := `
	CREATE TABLE IF NOT EXISTS videos (
		id UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		is_premium BOOLEAN NOT NULL DEFAULT FALSE,
		status VARCHAR(20) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		uploaded_at TIMESTAMP WITH TIME ZONE
	);
	CREATE INDEX IF NOT EXISTS idx_videos_status ON videos (status);
	CREATE INDEX IF NOT EXISTS idx_videos_created_at ON videos (created_at);
	`
	if _, err := tx.ExecContext(ctx, createVideoTable); err != nil {
		return fmt.Errorf("could not create videos table: %w", err)
	}

	createVideoTempTable := `
	CREATE TABLE IF NOT EXISTS videos_temp (
		id UUID PRIMARY KEY REFERENCES videos (id) ON DELETE CASCADE,
		filename VARCHAR(255) NOT NULL
	);
	`
	if _, err := tx.ExecContext(ctx, createVideoTempTable); err != nil {
		return fmt.Errorf("could not create videos_temp table: %w", err)
	}

	createChunkTable := `
	CREATE TABLE IF NOT EXISTS video_chunks (
		id UUID PRIMARY KEY,
		video_id UUID NOT NULL REFERENCES videos (id) ON DELETE CASCADE,
		chunk_size BIGINT NOT NULL,
		start_position BIGINT NOT NULL,
		end_position BIGINT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_video_chunks_video_id ON video_chunks (video_id);
	`
	if _, err := tx.ExecContext(ctx, createChunkTable); err != nil {
		return fmt.Errorf("could not create video_chunks table: %w", err)
	}

	createSessionTable := `
	CREATE TABLE IF NOT EXISTS sessions (
		id UUID PRIMARY KEY,
		user_id VARCHAR(255) NOT NULL,
		accessed_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_accessed_at ON sessions (accessed_at);
	`
	if _, err := tx.ExecContext(ctx, createSessionTable); err != nil {
		return fmt.Errorf("could not create sessions table: %w", err)
	}

	return nil
}

func downCreatePipelineTables(ctx context.Context, tx *sql.Tx) error {
	// reverse dependency order
	dropTables := []string{"sessions", "video_chunks", "videos_temp", "videos"}
	for _, table := range dropTables {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s;", table)); err != nil {
			return fmt.Errorf("could not drop table %s: %w", table, err)
		}
	}
	return nil
}
