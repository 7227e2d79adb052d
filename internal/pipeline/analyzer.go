// Package pipeline drives the biometric analysis of newly created pet
// records: index the photo, cache the face ID, search the opposite collection
// and notify on a match.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/reunipet/reunipet/internal/biometric"
	"github.com/reunipet/reunipet/internal/model"
	"github.com/reunipet/reunipet/internal/store"
)

// MatchNotifier is the slice of the dispatcher the pipeline needs.
type MatchNotifier interface {
	NotifyMatch(ctx context.Context, matchedRecordID string, newRecord *model.PetRecord) error
}

// Analyzer runs the index -> cache -> search -> notify sequence for one record.
type Analyzer struct {
	store     store.Store
	index     biometric.Index
	notifier  MatchNotifier
	lostColl  string
	foundColl string
	threshold float32
}

func NewAnalyzer(st store.Store, idx biometric.Index, notifier MatchNotifier, lostColl, foundColl string, threshold float32) *Analyzer {
	if threshold <= 0 {
		threshold = biometric.DefaultSimilarityThreshold
	}
	return &Analyzer{
		store:     st,
		index:     idx,
		notifier:  notifier,
		lostColl:  lostColl,
		foundColl: foundColl,
		threshold: threshold,
	}
}

// Analyze indexes the record's photo into the collection for its status, caches
// the resulting face ID on the record, then searches the opposite collection
// for a match and notifies the matched record's owner.
//
// An undetected face ends the analysis quietly: the record stays un-indexed
// and is excluded from future searches. Failures after the face ID is cached
// are not rolled back; the index entry persists and a later analysis of
// another record may still find this one.
func (a *Analyzer) Analyze(ctx context.Context, rec *model.PetRecord, image []byte) error {
	source, target := a.lostColl, a.foundColl
	if rec.Status == model.StatusFound {
		source, target = a.foundColl, a.lostColl
	}

	faceID, err := a.index.IndexFace(ctx, source, rec.ID, image)
	if err != nil {
		if errors.Is(err, biometric.ErrNoFaceDetected) {
			log.Info().Str("recordId", rec.ID).Msg("no face detected; record left un-indexed")
			return nil
		}
		return fmt.Errorf("index %s into %s: %w", rec.ID, source, err)
	}

	if err := a.store.Pets().SetFaceID(ctx, rec.ID, faceID); err != nil {
		return fmt.Errorf("cache face id for %s: %w", rec.ID, err)
	}
	log.Info().Str("recordId", rec.ID).Str("faceId", faceID).Msg("record indexed")

	match, err := a.index.SearchByImage(ctx, target, image, a.threshold)
	if err != nil {
		return fmt.Errorf("search %s for %s: %w", target, rec.ID, err)
	}
	if match == nil || match.Similarity < float64(a.threshold) {
		return nil
	}

	log.Info().
		Str("recordId", rec.ID).
		Str("matchedRecordId", match.RecordID).
		Float64("similarity", match.Similarity).
		Msg("match found")

	if err := a.notifier.NotifyMatch(ctx, match.RecordID, rec); err != nil {
		return fmt.Errorf("notify match of %s: %w", rec.ID, err)
	}
	return nil
}
