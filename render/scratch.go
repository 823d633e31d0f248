package render

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"
)

// Sweeper garbage-collects the scratch area: render artifacts older than
// MaxAge are deleted on every sweep, regardless of whether the owning job
// succeeded, and emptied subdirectories are pruned.
type Sweeper struct {
	Dir      string
	MaxAge   time.Duration
	Interval time.Duration
}

// Run sweeps periodically until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, freed, err := s.SweepOnce()
			if err != nil {
				log.Printf("scratch sweep error: %v", err)
				continue
			}
			if deleted > 0 {
				log.Printf("scratch sweep: deleted %d files, freed %.2f MB", deleted, float64(freed)/1024/1024)
			}
		}
	}
}

// SweepOnce deletes everything under Dir older than MaxAge and returns the
// number of files removed and the bytes freed. The root directory itself is
// never removed.
func (s *Sweeper) SweepOnce() (deleted int, freed int64, err error) {
	cutoff := time.Now().Add(-s.MaxAge)
	return sweepDir(s.Dir, cutoff, false)
}

func sweepDir(dir string, cutoff time.Time, pruneSelf bool) (deleted int, freed int64, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, 0, nil
		}
		return 0, 0, err
	}

	for _, entry := range entries {
		full := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			d, f, serr := sweepDir(full, cutoff, true)
			deleted += d
			freed += f
			if serr != nil {
				log.Printf("scratch sweep: %s: %v", full, serr)
			}
			continue
		}

		info, ierr := entry.Info()
		if ierr != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if rerr := os.Remove(full); rerr != nil {
				log.Printf("scratch sweep: failed to delete %s: %v", full, rerr)
				continue
			}
			deleted++
			freed += info.Size()
		}
	}

	if pruneSelf {
		// Remove fails when entries remain; that is the check.
		if remaining, rerr := os.ReadDir(dir); rerr == nil && len(remaining) == 0 {
			_ = os.Remove(dir)
		}
	}

	return deleted, freed, nil
}
