package service

import (
	"context"
	"sync"
	"time"

	"github.com/UnknownOlympus/locus/internal/models"
)

// backfillBatch is the number of pending profiles fetched per tick.
const backfillBatch = 100

// Run starts the backfill loop, which periodically locates profiles that were
// stored while the geocoding provider was unavailable. It returns when ctx is cancelled.
func (ds *DirectoryService) Run(ctx context.Context) {
	ticker := time.NewTicker(ds.pollInterval)
	defer ticker.Stop()

	ds.log.InfoContext(ctx, "Backfill worker started...")

	for {
		select {
		case <-ctx.Done():
			ds.log.InfoContext(ctx, "Backfill worker stopped.")
			return
		case <-ticker.C:
			ds.log.DebugContext(ctx, "Polling for pending profiles...")
			ds.processPending(ctx)
		}
	}
}

// processPending fetches pending profiles, fans them out to the worker pool
// and waits for the batch to finish.
func (ds *DirectoryService) processPending(ctx context.Context) {
	profiles, err := ds.repo.FetchProfilesForGeocoding(ctx, backfillBatch)
	if err != nil {
		ds.log.ErrorContext(ctx, "Failed to fetch pending profiles", "error", err)
		return
	}
	if len(profiles) == 0 {
		ds.log.DebugContext(ctx, "No pending profiles.")
		return
	}

	ds.log.InfoContext(ctx, "Found pending profiles. Starting worker pool.",
		"jobs", len(profiles),
		"num_workers", ds.numWorkers,
	)

	jobs := make(chan models.Profile, len(profiles))
	var wgr sync.WaitGroup

	for i := 1; i <= max(ds.numWorkers, 1); i++ {
		wgr.Add(1)
		go ds.worker(ctx, i, &wgr, jobs)
	}

	for _, profile := range profiles {
		jobs <- profile
	}
	close(jobs)

	wgr.Wait()
	ds.log.InfoContext(ctx, "Backfill batch finished")
}

// worker locates profiles from the jobs channel. A failure increments the
// profile's attempt count; a success stores the offset coordinates.
func (ds *DirectoryService) worker(ctx context.Context, idx int, wg *sync.WaitGroup, jobs <-chan models.Profile) {
	defer wg.Done()
	for profile := range jobs {
		ds.metrics.ActiveWorkers.Inc()
		ds.locate(ctx, idx, profile)
		ds.metrics.ActiveWorkers.Dec()
	}
}

func (ds *DirectoryService) locate(ctx context.Context, idx int, profile models.Profile) {
	ds.log.DebugContext(ctx, "Processing profile", "worker", idx, "profile", profile.ID)

	coords, err := ds.geocoder.GeocodeWithOffset(ctx, profile.CityOrZip, profile.ID)
	if err != nil {
		ds.log.WarnContext(ctx, "Failed to geocode", "worker", idx, "profile", profile.ID, "error", err)
		ds.metrics.BackfillProcessed.WithLabelValues("failure").Inc()

		if err = ds.repo.IncrementFailureCount(ctx, profile.ID, err.Error()); err != nil {
			ds.log.ErrorContext(ctx, "Could not update failure count for profile",
				"worker", idx,
				"profile", profile.ID,
				"error", err,
			)
		}
		return
	}

	ds.metrics.BackfillProcessed.WithLabelValues("success").Inc()

	if err = ds.repo.UpdateProfileCoordinates(ctx, profile.ID, coords); err != nil {
		ds.log.ErrorContext(ctx, "Failed to update coordinates for profile",
			"worker", idx,
			"profile", profile.ID,
			"error", err,
		)
		return
	}

	ds.log.DebugContext(ctx, "Worker successfully located the profile", "worker", idx, "profile", profile.ID)
}
