package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const snapshotContentType = "application/json"

// SnapshotPublisher writes immutable JSON snapshots of released draws and
// standings. Each upload gets a fresh key; a "latest" object is overwritten
// alongside it so displays can poll one stable URL.
type SnapshotPublisher struct {
	uploader FileUploader
}

func NewSnapshotPublisher(uploader FileUploader) *SnapshotPublisher {
	return &SnapshotPublisher{uploader: uploader}
}

func (p *SnapshotPublisher) PublishDraw(ctx context.Context, tournamentID, roundNumber int, draw interface{}) (*UploadResult, error) {
	prefix := fmt.Sprintf("tournaments/%d/rounds/%d/draw", tournamentID, roundNumber)
	return p.publish(ctx, prefix, draw)
}

func (p *SnapshotPublisher) PublishStandings(ctx context.Context, tournamentID int, standings interface{}) (*UploadResult, error) {
	prefix := fmt.Sprintf("tournaments/%d/standings", tournamentID)
	return p.publish(ctx, prefix, standings)
}

// WithdrawDraw removes the latest draw object of an unpublished round.
// Versioned snapshots stay in the bucket.
func (p *SnapshotPublisher) WithdrawDraw(ctx context.Context, tournamentID, roundNumber int) error {
	return p.uploader.Delete(ctx, latestKey(fmt.Sprintf("tournaments/%d/rounds/%d/draw", tournamentID, roundNumber)))
}

func (p *SnapshotPublisher) publish(ctx context.Context, prefix string, v interface{}) (*UploadResult, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot %s: %w", prefix, err)
	}

	key := versionedKey(prefix)
	res, err := p.uploader.Upload(ctx, key, snapshotContentType, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if _, err := p.uploader.Upload(ctx, latestKey(prefix), snapshotContentType, bytes.NewReader(body)); err != nil {
		return res, fmt.Errorf("snapshot %s uploaded but latest pointer failed: %w", key, err)
	}
	return res, nil
}

func versionedKey(prefix string) string {
	return fmt.Sprintf("%s-%s.json", strings.TrimSuffix(prefix, "/"), uuid.NewString())
}

func latestKey(prefix string) string {
	return strings.TrimSuffix(prefix, "/") + "-latest.json"
}
