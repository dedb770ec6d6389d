package indexing

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ternarybob/studeo/internal/models"
)

// janitor periodically fails materials stuck in "indexing". A crashed or
// deadlocked background run leaves the status behind; the sweep converts
// that into a visible "failed" so clients stop polling forever.
type janitor struct {
	cron *cron.Cron
}

// Start launches the stuck-indexing sweep on the configured cron schedule
func (s *Service) Start() error {
	if s.janitor != nil {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(s.schedule, s.sweepStuck); err != nil {
		return fmt.Errorf("invalid janitor schedule %q: %w", s.schedule, err)
	}
	c.Start()

	s.janitor = &janitor{cron: c}
	s.logger.Info().
		Str("schedule", s.schedule).
		Dur("stuck_after", s.stuckAfter).
		Msg("Indexing janitor started")

	return nil
}

// Stop halts the janitor. In-flight sweeps finish; no new ones are scheduled.
func (s *Service) Stop() {
	if s.janitor == nil {
		return
	}
	s.janitor.cron.Stop()
	s.janitor = nil
	s.logger.Debug().Msg("Indexing janitor stopped")
}

func (s *Service) sweepStuck() {
	cutoff := time.Now().Add(-s.stuckAfter)

	stuck, err := s.materialStorage.GetStuckIndexing(cutoff)
	if err != nil {
		s.logger.Error().Err(err).Msg("Stuck-indexing sweep failed")
		return
	}

	for _, material := range stuck {
		if err := s.materialStorage.SetRagStatus(material.ID, models.RagStatusFailed); err != nil {
			s.logger.Error().
				Err(err).
				Str("material_id", material.ID).
				Msg("Failed to fail stuck material")
			continue
		}
		s.logger.Warn().
			Str("material_id", material.ID).
			Str("rag_updated_at", material.RagUpdatedAt.Format(time.RFC3339)).
			Msg("Material stuck in indexing marked failed")
	}
}
