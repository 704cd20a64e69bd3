// registration/service/document_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hackbits/registration-service/registration/storage"
	"github.com/hackbits/registration-service/registration/store"
	"github.com/hackbits/registration-service/shared/logger"
)

// DocumentService handles proof-artifact uploads. The aggregate only ever
// holds blob URLs and handles; bytes go to the blob store.
type DocumentService struct {
	teams TeamStore
	blobs storage.BlobStore
	log   *logger.Logger
}

// NewDocumentService creates a new DocumentService instance.
func NewDocumentService(teams TeamStore, blobs storage.BlobStore, log *logger.Logger) *DocumentService {
	return &DocumentService{teams: teams, blobs: blobs, log: log}
}

// Upload is one artifact to store.
type Upload struct {
	Data        []byte
	ContentType string
}

// DocumentURLs is the client-facing view of stored artifacts.
type DocumentURLs struct {
	PaymentScreenshotURL string `json:"paymentScreenshotUrl"`
	IDCardURL            string `json:"idCardUrl"`
}

// UploadDocuments stores both proof artifacts, releasing any previously
// stored ones first so re-uploads leave no orphaned blobs. Requires a
// payment proof to already be recorded.
func (ds *DocumentService) UploadDocuments(ctx context.Context, teamID string, screenshot, idCard Upload) (*DocumentURLs, error) {
	team, err := ds.teams.GetByID(ctx, teamID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, err
	}
	if !team.HasPaymentProof() {
		return nil, ErrPaymentNotStarted
	}

	// Release old artifacts before storing new ones. A delete failure is
	// logged, not fatal: a leaked blob beats a blocked re-upload.
	for _, key := range []string{team.PaymentScreenshotKey, team.IDCardKey} {
		if key == "" {
			continue
		}
		if err := ds.blobs.Delete(ctx, key); err != nil {
			ds.log.Warnw("failed to release old document blob",
				"team_id", team.ID, "key", key, "error", err)
		}
	}

	screenshotObj, err := ds.blobs.Put(ctx,
		fmt.Sprintf("teams/%s/payment-%s", team.ID, uuid.NewString()),
		screenshot.ContentType, screenshot.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to store payment screenshot: %w", err)
	}

	idCardObj, err := ds.blobs.Put(ctx,
		fmt.Sprintf("teams/%s/idcard-%s", team.ID, uuid.NewString()),
		idCard.ContentType, idCard.Data)
	if err != nil {
		// Do not leave a half-stored pair behind.
		if delErr := ds.blobs.Delete(ctx, screenshotObj.Key); delErr != nil {
			ds.log.Warnw("failed to roll back payment screenshot blob",
				"team_id", team.ID, "key", screenshotObj.Key, "error", delErr)
		}
		return nil, fmt.Errorf("failed to store id card: %w", err)
	}

	refs := store.DocumentRefs{
		PaymentScreenshotURL: screenshotObj.URL,
		PaymentScreenshotKey: screenshotObj.Key,
		IDCardURL:            idCardObj.URL,
		IDCardKey:            idCardObj.Key,
	}
	err = ds.teams.SetDocuments(ctx, team.ID, refs, time.Now())
	if errors.Is(err, store.ErrPreconditionFailed) {
		// Proof disappeared between our read and the write.
		return nil, ErrPaymentNotStarted
	}
	if err != nil {
		return nil, err
	}

	ds.log.Infow("documents uploaded", "team_id", team.ID)
	return &DocumentURLs{
		PaymentScreenshotURL: refs.PaymentScreenshotURL,
		IDCardURL:            refs.IDCardURL,
	}, nil
}
