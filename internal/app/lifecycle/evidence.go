// internal/app/lifecycle/evidence.go
package lifecycle

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"kpihub/internal/app/policy/indicatorpolicy"
	"kpihub/internal/domain/models"
)

// DefaultEvidenceDescription fills in when the caller supplies fewer
// descriptions than files.
const DefaultEvidenceDescription = "No description provided"

// evidenceFolder is the blob storage folder for evidence uploads.
const evidenceFolder = "evidence"

// FileUpload is one raw uploaded file handed to SubmitEvidence.
type FileUpload struct {
	Name        string
	ContentType string
	Data        []byte
}

// SubmitEvidence ingests the uploaded files as evidence and moves the
// indicator to submitted. When the indicator was rejected, every previously
// active evidence entry is archived first; the rejection count is not
// touched here.
//
// Ingestion is all-or-nothing: if any upload fails, no evidence is
// committed and blobs already stored for the batch are released
// best-effort. Uploads run concurrently; the aggregate append happens once
// after all of them resolve.
func (s *Service) SubmitEvidence(ctx context.Context, id primitive.ObjectID, files []FileUpload, descriptions []string, actor Actor) (*models.Indicator, error) {
	if len(files) == 0 {
		return nil, Validationf("at least one evidence file is required")
	}

	// Authorization needs the record; check before paying for uploads.
	current, err := s.indicators.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !indicatorpolicy.CanSubmitEvidence(current, actor.ID) {
		return nil, Authorizationf("only an assignee can submit evidence for indicator %s", id.Hex())
	}

	attempt := 0
	if current.Status == models.StatusRejected {
		attempt = current.RejectionCount
	}

	stored, err := s.storeAll(ctx, files)
	if err != nil {
		return nil, err
	}

	now := s.now()
	entries := make([]models.Evidence, len(files))
	for i, f := range files {
		desc := DefaultEvidenceDescription
		if i < len(descriptions) && strings.TrimSpace(descriptions[i]) != "" {
			desc = strings.TrimSpace(descriptions[i])
		}
		entries[i] = models.Evidence{
			ID:             primitive.NewObjectID(),
			FileName:       f.Name,
			FileSize:       int64(len(f.Data)),
			ContentType:    f.ContentType,
			Description:    desc,
			PublicID:       stored[i].PublicID,
			ResourceKind:   stored[i].ResourceKind,
			AccessTier:     stored[i].AccessTier,
			Format:         stored[i].Format,
			SecureURL:      stored[i].SecureURL,
			Status:         models.EvidenceActive,
			IsResubmission: attempt > 0,
			Attempt:        attempt,
			UploadedByID:   actor.ID,
			UploadedAt:     now,
		}
	}

	ind, err := s.mutate(ctx, id, func(ind *models.Indicator) error {
		if !indicatorpolicy.CanSubmitEvidence(ind, actor.ID) {
			return Authorizationf("only an assignee can submit evidence for indicator %s", id.Hex())
		}
		if ind.Status == models.StatusRejected {
			archiveActive(ind, s.now())
		}
		ind.Evidence = append(ind.Evidence, entries...)
		ind.Status = models.StatusSubmitted
		return nil
	})
	if err != nil {
		// The aggregate append failed; the batch's blobs would otherwise leak.
		s.releaseAll(ctx, stored)
		return nil, err
	}

	s.record(ctx, AuditEvent{
		EventType:   EventEvidenceSubmitted,
		ActorID:     actor.ID,
		IndicatorID: ind.ID,
		Details: map[string]string{
			"files":        strconv.Itoa(len(files)),
			"resubmission": strconv.FormatBool(attempt > 0),
		},
	})

	if s.notify != nil {
		meta := map[string]string{"indicator_id": ind.ID.Hex()}
		if err := s.notify.EmitToRole(ctx, indicatorpolicy.RoleAdmin.String(),
			"Evidence submitted",
			"New evidence was submitted for \""+ind.IndicatorTitle+"\".",
			models.NotifyAssignment, meta); err != nil {
			s.log.Warn("admin broadcast failed", zap.String("indicator_id", ind.ID.Hex()), zap.Error(err))
		}
	}

	return ind, nil
}

// storeAll uploads every file concurrently. On any failure it releases the
// blobs that did make it and reports the first error.
func (s *Service) storeAll(ctx context.Context, files []FileUpload) ([]StoredObject, error) {
	stored := make([]StoredObject, len(files))
	errs := make([]error, len(files))

	var wg sync.WaitGroup
	for i := range files {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f := files[i]
			// Blob storage uniquifies the object path; only clean the name here.
			name := sanitizeFileName(f.Name)
			obj, err := s.blobs.Store(ctx, f.Data, evidenceFolder, name, f.ContentType)
			if err != nil {
				errs[i] = err
				return
			}
			stored[i] = obj
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			s.log.Error("evidence upload failed",
				zap.String("file", files[i].Name),
				zap.Error(err))
			s.releaseAll(ctx, stored)
			return nil, Validationf("upload of %q failed", files[i].Name)
		}
	}
	return stored, nil
}

// releaseAll best-effort deletes a batch of stored blobs.
func (s *Service) releaseAll(ctx context.Context, stored []StoredObject) {
	for _, obj := range stored {
		if obj.PublicID == "" {
			continue
		}
		if err := s.blobs.Release(ctx, obj.PublicID, obj.ResourceKind); err != nil {
			s.log.Warn("blob release failed", zap.String("public_id", obj.PublicID), zap.Error(err))
		}
	}
}

// archiveActive stamps every active evidence entry archived. Already
// archived or rejected entries are left alone.
func archiveActive(ind *models.Indicator, at time.Time) {
	for i := range ind.Evidence {
		if ind.Evidence[i].Status != models.EvidenceActive {
			continue
		}
		ind.Evidence[i].Status = models.EvidenceArchived
		t := at
		ind.Evidence[i].ArchivedAt = &t
	}
}

// RemoveEvidence deletes one evidence entry. Only the original uploader may
// remove it, and never from a sealed record. When the last active evidence
// leaves a submitted indicator, the status falls back to pending.
func (s *Service) RemoveEvidence(ctx context.Context, id, evidenceID primitive.ObjectID, actor Actor) (*models.Indicator, error) {
	var removed models.Evidence

	ind, err := s.mutate(ctx, id, func(ind *models.Indicator) error {
		ev := ind.FindEvidence(evidenceID)
		if ev == nil {
			return NotFoundf("evidence %s not found on indicator %s", evidenceID.Hex(), id.Hex())
		}
		if !indicatorpolicy.CanRemoveEvidence(ind, ev, actor.ID) {
			if ind.IsSealed() {
				return Authorizationf("indicator %s is sealed", id.Hex())
			}
			return Authorizationf("evidence %s belongs to another uploader", evidenceID.Hex())
		}
		removed = *ev

		kept := ind.Evidence[:0]
		for _, e := range ind.Evidence {
			if e.ID != evidenceID {
				kept = append(kept, e)
			}
		}
		ind.Evidence = kept

		// An empty evidence set cannot remain submitted.
		if ind.Status == models.StatusSubmitted && len(ind.ActiveEvidence()) == 0 {
			ind.Status = models.StatusPending
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if removed.PublicID != "" {
		if err := s.blobs.Release(ctx, removed.PublicID, removed.ResourceKind); err != nil {
			s.log.Warn("blob release failed",
				zap.String("public_id", removed.PublicID),
				zap.Error(err))
		}
	}

	s.record(ctx, AuditEvent{
		EventType:   EventEvidenceRemoved,
		ActorID:     actor.ID,
		IndicatorID: ind.ID,
		Details:     map[string]string{"evidence_id": evidenceID.Hex(), "file": removed.FileName},
	})

	return ind, nil
}

func sanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "file"
	}
	var b strings.Builder
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '-', c == '_', c == '.':
			b.WriteByte(c)
		default:
			b.WriteByte('_')
		}
	}
	out := b.String()
	if len(out) > 100 {
		out = out[:100]
	}
	return out
}

