// Package ingest turns an uploaded receipt image into a persisted expense
// record: analyze, store the image, create the record.
package ingest

import (
	"context"
	"fmt"

	"jangbu/internal/core"
	"jangbu/internal/ledger"
	"jangbu/internal/log"
)

// Analyzer extracts structured data from a receipt image. apiKey may be
// empty; the analyzer falls back to its configured key.
type Analyzer interface {
	Analyze(ctx context.Context, image []byte, mimeType, apiKey string) (core.AnalyzedReceipt, error)
}

// ImageSaver persists the raw image and returns its public URL.
type ImageSaver interface {
	Save(ctx context.Context, data []byte, mimeType string) (string, error)
}

// SettingsReader supplies the user-entered API key, when one is stored.
type SettingsReader interface {
	Get(ctx context.Context) (core.Settings, error)
}

type Service struct {
	analyzer Analyzer
	images   ImageSaver
	book     *ledger.ExpenseBook
	settings SettingsReader
	logger   *log.Logger
}

func New(analyzer Analyzer, images ImageSaver, book *ledger.ExpenseBook, settings SettingsReader, logger *log.Logger) *Service {
	return &Service{
		analyzer: analyzer,
		images:   images,
		book:     book,
		settings: settings,
		logger:   logger.WithComponent(log.ComponentIngest),
	}
}

// IngestReceipt runs the full pipeline. Analysis failures abort with the
// analyzer's typed error so the handler can explain what went wrong. A date
// outside the configured period rejects the upload before the image is
// stored. Image storage itself is best-effort: a failed upload is logged and
// the record is created without an image.
func (s *Service) IngestReceipt(ctx context.Context, image []byte, mimeType string) (core.Expense, error) {
	apiKey := ""
	if s.settings != nil {
		if stored, err := s.settings.Get(ctx); err == nil {
			apiKey = stored.APIKey
		}
	}

	analyzed, err := s.analyzer.Analyze(ctx, image, mimeType, apiKey)
	if err != nil {
		return core.Expense{}, fmt.Errorf("analyze receipt: %w", err)
	}

	if err := s.book.CheckDate(ctx, analyzed.Date); err != nil {
		return core.Expense{}, err
	}

	imageURL := ""
	if s.images != nil {
		imageURL, err = s.images.Save(ctx, image, mimeType)
		if err != nil {
			s.logger.WarnContext(ctx, "image upload failed, creating record without image",
				log.FieldError, err)
			imageURL = ""
		}
	}

	// Extracted records always land in 기타 with no reason; the user
	// reclassifies afterwards.
	e := core.Expense{
		Date:      analyzed.Date,
		Time:      analyzed.Time,
		StoreName: analyzed.StoreName,
		Address:   analyzed.Address,
		Amount:    analyzed.Amount,
		Category:  core.CategoryOther,
		ImageURL:  imageURL,
	}

	created, err := s.book.Create(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create extracted record: %w", err)
	}

	s.logger.InfoContext(ctx, "receipt ingested",
		log.FieldRecordID, created.ID,
		log.FieldStoreName, created.StoreName,
		log.FieldAmount, created.Amount,
		log.FieldImageURL, created.ImageURL)
	return created, nil
}
