// Package importer synchronizes the venue and event XML feeds into the
// document store. Runs upsert by external id, so repeating a run with the same
// input leaves the store unchanged apart from lastUpdated timestamps.
package importer

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"culturalevents/models"
)

const (
	untitled         = "Untitled"
	noDescription    = "No description"
	dateTBA          = "TBA"
	defaultPresenter = "Cultural Services Department"

	backgroundTimeout = 2 * time.Minute
)

// Purger drops cached catalog responses after a run changed the store.
type Purger interface {
	PurgeCatalog(ctx context.Context)
}

type Syncer struct {
	venues models.VenueRepository
	events models.EventRepository
	runs   models.ImportRunRepository // optional
	purger Purger                     // optional
	source Source
	logger *zap.Logger
	now    func() time.Time

	group singleflight.Group
}

type Option func(*Syncer)

func WithRunRepository(r models.ImportRunRepository) Option {
	return func(s *Syncer) { s.runs = r }
}

func WithPurger(p Purger) Option {
	return func(s *Syncer) { s.purger = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Syncer) { s.now = now }
}

func New(venues models.VenueRepository, events models.EventRepository, src Source, logger *zap.Logger, opts ...Option) *Syncer {
	s := &Syncer{
		venues: venues,
		events: events,
		source: src,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run performs one synchronization pass and reports what it did. A failure
// part way through leaves earlier upserts in place.
func (s *Syncer) Run(ctx context.Context) (models.ImportRun, error) {
	run := models.ImportRun{StartedAt: s.now()}

	venueIDs, err := s.syncVenues(ctx, &run)
	if err != nil {
		return s.finish(run, err)
	}
	if err := s.syncEvents(ctx, venueIDs, &run); err != nil {
		return s.finish(run, err)
	}
	return s.finish(run, nil)
}

func (s *Syncer) finish(run models.ImportRun, err error) (models.ImportRun, error) {
	run.FinishedAt = s.now()
	if err != nil {
		run.Error = err.Error()
	}
	return run, err
}

func (s *Syncer) syncVenues(ctx context.Context, run *models.ImportRun) (map[string]primitive.ObjectID, error) {
	rc, err := s.source.Venues(ctx)
	if err != nil {
		return nil, fmt.Errorf("open venues: %w", err)
	}
	defer rc.Close()

	entries, err := parseVenues(rc)
	if err != nil {
		return nil, err
	}

	ids := make(map[string]primitive.ObjectID, len(knownVenues))
	for _, v := range entries {
		loc, ok := knownVenues[v.ID]
		if !ok {
			run.VenuesSkipped++
			continue
		}
		name := firstNonEmpty(v.NameE, v.NameC)
		doc, err := s.venues.Upsert(ctx, models.VenueUpsert{
			VenueID:   v.ID,
			Name:      name,
			NameC:     v.NameC,
			Latitude:  loc.Lat,
			Longitude: loc.Lng,
			Region:    loc.Region,
			Address:   name + ", Hong Kong",
			UpdatedAt: s.now(),
		})
		if err != nil {
			return nil, fmt.Errorf("upsert venue %s: %w", v.ID, err)
		}
		ids[v.ID] = doc.ID
		run.VenuesUpserted++
	}
	return ids, nil
}

func (s *Syncer) syncEvents(ctx context.Context, venueIDs map[string]primitive.ObjectID, run *models.ImportRun) error {
	rc, err := s.source.Events(ctx)
	if err != nil {
		return fmt.Errorf("open events: %w", err)
	}
	defer rc.Close()

	entries, err := parseEvents(rc)
	if err != nil {
		return err
	}

	for _, e := range entries {
		venueID, ok := venueIDs[e.VenueID]
		if !ok {
			run.EventsSkipped++
			continue
		}
		doc, err := s.events.Upsert(ctx, models.EventUpsert{
			EventID:     e.ID,
			Title:       firstNonEmpty(e.TitleE, e.TitleC, untitled),
			TitleC:      e.TitleC,
			Venue:       venueID,
			Description: firstNonEmpty(e.DescE, noDescription),
			DateTime:    firstNonEmpty(e.PreDateE, dateTBA),
			Presenter:   defaultPresenter,
			UpdatedAt:   s.now(),
		})
		if err != nil {
			return fmt.Errorf("upsert event %s: %w", e.ID, err)
		}
		if err := s.venues.AddEvent(ctx, venueID, doc.ID); err != nil {
			return fmt.Errorf("link event %s to venue %s: %w", e.ID, e.VenueID, err)
		}
		run.EventsUpserted++
	}
	return nil
}

// Sync runs a synchronization and swallows its error after logging it.
// Concurrent callers share a single in-flight run.
func (s *Syncer) Sync(ctx context.Context) {
	_, _, _ = s.group.Do("sync", func() (any, error) {
		s.logger.Info("starting data synchronization")
		run, err := s.Run(ctx)
		if err != nil {
			s.logger.Error("data synchronization failed", zap.Error(err),
				zap.Int("venuesUpserted", run.VenuesUpserted),
				zap.Int("eventsUpserted", run.EventsUpserted))
		} else {
			s.logger.Info("data synchronization completed",
				zap.Int("venuesUpserted", run.VenuesUpserted),
				zap.Int("venuesSkipped", run.VenuesSkipped),
				zap.Int("eventsUpserted", run.EventsUpserted),
				zap.Int("eventsSkipped", run.EventsSkipped))
		}

		// detached so a cancelled caller still gets its run recorded
		bg := context.WithoutCancel(ctx)
		if s.purger != nil {
			s.purger.PurgeCatalog(bg)
		}
		if s.runs != nil {
			if err := s.runs.Record(bg, &run); err != nil {
				s.logger.Warn("could not record import run", zap.Error(err))
			}
		}
		return nil, nil
	})
}

// SyncAsync starts Sync in the background, detached from any request.
func (s *Syncer) SyncAsync() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
		defer cancel()
		s.Sync(ctx)
	}()
}
