package service

import (
	"context"

	"gorm.io/gorm"

	"github.com/bwmarrin/snowflake"
	distributiondomain "github.com/smallbiznis/leadflow/internal/distribution/domain"
	nichedomain "github.com/smallbiznis/leadflow/internal/niche/domain"
)

// rotationStart is the claimed slot for one distribution run: the niche
// snapshot, the active levels ordered by position, and the position the
// traversal starts from.
type rotationStart struct {
	niche  *nichedomain.Niche
	levels []nichedomain.CompetitionLevel
	start  int
}

// getAndAdvanceStart claims the niche's current rotation position and
// advances the cursor in its own transaction. The row lock serializes
// concurrent runs for the same niche, so two leads distributed at once get
// distinct starting levels. The cursor wraps on read: a stored position above
// the highest active level position (levels changed since the last run)
// restarts at 1, and the persisted successor always stays within
// [1, max position].
func (s *Service) getAndAdvanceStart(ctx context.Context, nicheID snowflake.ID) (*rotationStart, error) {
	var claimed rotationStart

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		niche, err := s.nicheRepo.FindByIDForUpdate(ctx, tx, nicheID)
		if err != nil {
			return err
		}

		levels, err := s.nicheRepo.ListActiveLevels(ctx, tx, nicheID)
		if err != nil {
			return err
		}
		if len(levels) == 0 {
			return distributiondomain.ErrNoActiveLevels
		}

		maxPosition := levels[len(levels)-1].Position
		start := niche.RotationPosition
		if start < 1 || start > maxPosition {
			start = 1
		}

		next := start + 1
		if next > maxPosition {
			next = 1
		}
		if err := s.nicheRepo.UpdateRotationPosition(ctx, tx, nicheID, next); err != nil {
			return err
		}

		claimed = rotationStart{niche: niche, levels: levels, start: start}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &claimed, nil
}
