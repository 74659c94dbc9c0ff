package gallery

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/kozaktomas/snapx/internal/facematch"
	"github.com/kozaktomas/snapx/internal/snaperrors"
)

// FindMatches returns the images of a collection that contain the face
// described by descriptor. Any guest may call it. An unknown collection
// yields no matches rather than an error.
func (s *Service) FindMatches(ctx context.Context, collectionID string, descriptor []float64) ([]facematch.Match, error) {
	query := facematch.FromFloat64(descriptor)
	if err := query.Validate(s.cfg.Dimension); err != nil {
		s.countQuery("invalid")
		return nil, err
	}
	if !validID(collectionID) {
		s.countQuery("empty")
		return []facematch.Match{}, nil
	}

	matches, err := s.matcher.FindMatches(ctx, collectionID, query)
	if err != nil {
		if errors.Is(err, snaperrors.ErrInvalidInput) {
			s.countQuery("invalid")
		} else {
			s.countQuery("error")
			s.log.Error("match query failed", zap.String("collection_id", collectionID), zap.Error(err))
		}
		return nil, err
	}

	if len(matches) == 0 {
		s.countQuery("empty")
	} else {
		s.countQuery("matched")
	}
	if s.metrics != nil {
		s.metrics.MatchResults.Observe(float64(len(matches)))
	}
	s.log.Debug("match query",
		zap.String("collection_id", collectionID),
		zap.Int("matches", len(matches)))
	return matches, nil
}

func (s *Service) countQuery(outcome string) {
	if s.metrics != nil {
		s.metrics.MatchQueries.WithLabelValues(outcome).Inc()
	}
}
