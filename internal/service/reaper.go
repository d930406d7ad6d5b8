package service

import (
	"context"
	"path/filepath"
	"time"

	"github.com/Camillus83/ImageUploadAPI/internal/logger"
)

// Reaper is an optional background cleaner. Expiry is evaluated lazily at
// resolve time, so the reaper is not required for correctness; it reclaims
// storage promptly by dropping expired link records and deleting blobs no
// record references anymore.
type Reaper struct {
	storage         ReaperStorage
	blobs           BlobStorage
	safetyThreshold time.Duration
	lastStats       ReapStats
	now             func() time.Time
}

// ReapStats tracks metrics from the last reaper run.
type ReapStats struct {
	RunAt           time.Time
	ExpiredDeleted  int64
	BlobsScanned    int
	OrphanedBlobs   int
	BlobsDeleted    int
	DurationMs      int64
	Errors          []string
}

// ReaperStorage defines the metadata operations needed for reaping.
type ReaperStorage interface {
	DeleteExpiredBefore(now time.Time) (int64, error)
	AllFilePaths() ([]string, error)
}

// NewReaper creates a reaper. safetyThreshold is the minimum age a blob must
// have before it may be deleted, which protects blobs written by uploads that
// have not committed their metadata yet.
func NewReaper(storage ReaperStorage, blobs BlobStorage, safetyThreshold time.Duration) *Reaper {
	return &Reaper{
		storage:         storage,
		blobs:           blobs,
		safetyThreshold: safetyThreshold,
		now:             time.Now,
	}
}

// StartBackground runs the reaper periodically until ctx is cancelled.
func (r *Reaper) StartBackground(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	logger.Log.Info("started reaper", "interval", interval, "safety_threshold", r.safetyThreshold)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := r.Run(); err != nil {
					logger.Log.Error("reaper run failed", "error", err)
				} else {
					stats := r.LastStats()
					logger.Log.Info("reaper run completed",
						"expired_deleted", stats.ExpiredDeleted,
						"blobs_scanned", stats.BlobsScanned,
						"orphans", stats.OrphanedBlobs,
						"blobs_deleted", stats.BlobsDeleted,
						"duration_ms", stats.DurationMs,
						"errors", len(stats.Errors),
					)
				}
			case <-ctx.Done():
				logger.Log.Info("reaper shutting down")
				return
			}
		}
	}()
}

// Run executes a single reap cycle. Callable directly for tests and
// maintenance.
func (r *Reaper) Run() error {
	start := r.now()
	stats := ReapStats{RunAt: start, Errors: []string{}}

	deleted, err := r.storage.DeleteExpiredBefore(start)
	if err != nil {
		return err
	}
	stats.ExpiredDeleted = deleted

	dbPaths, err := r.storage.AllFilePaths()
	if err != nil {
		return err
	}
	dbPathSet := make(map[string]bool, len(dbPaths))
	for _, p := range dbPaths {
		dbPathSet[filepath.ToSlash(p)] = true
	}

	blobPaths, err := r.blobs.WalkFiles()
	if err != nil {
		return err
	}
	stats.BlobsScanned = len(blobPaths)

	for _, p := range blobPaths {
		if dbPathSet[filepath.ToSlash(p)] {
			continue
		}

		modTime, err := r.blobs.ModTime(p)
		if err != nil {
			stats.Errors = append(stats.Errors, "stat error: "+p+": "+err.Error())
			continue
		}
		if start.Sub(modTime) < r.safetyThreshold {
			// Blob is too young, might belong to an in-flight upload.
			continue
		}

		stats.OrphanedBlobs++
		if err := r.blobs.Delete(p); err != nil {
			stats.Errors = append(stats.Errors, "delete error: "+p+": "+err.Error())
		} else {
			stats.BlobsDeleted++
		}
	}

	stats.DurationMs = r.now().Sub(start).Milliseconds()
	r.lastStats = stats
	return nil
}

// LastStats returns statistics from the last reap cycle.
func (r *Reaper) LastStats() ReapStats {
	return r.lastStats
}
