package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"wedmarket/internal/domain"
	applog "wedmarket/internal/log"
	"wedmarket/internal/retry"
	"wedmarket/internal/storage"
)

// SubmissionInput is a public product request.
type SubmissionInput struct {
	ProductInput
	Category string
}

// ModerationService moves submissions to a terminal state: approval turns
// one into a catalog product, rejection discards it. Either way the
// submission row is deleted last.
type ModerationService struct {
	Submissions SubmissionStore
	Catalog     *CatalogService
	Store       storage.ObjectStore
	// Folder holds submission images until moderation.
	Folder string

	Transfer  retry.Policy
	RowDelete retry.Policy
	Now       func() time.Time

	locks keyedMutex
}

func NewModerationService(subs SubmissionStore, catalog *CatalogService, store storage.ObjectStore, folder string) *ModerationService {
	return &ModerationService{
		Submissions: subs,
		Catalog:     catalog,
		Store:       store,
		Folder:      strings.Trim(folder, "/"),
		Transfer:    retry.Transfer,
		RowDelete:   retry.RowDelete,
		Now:         time.Now,
	}
}

// Submit stores the images in the submission folder and queues the request
// as pending.
func (s *ModerationService) Submit(ctx context.Context, in SubmissionInput, files []Upload) (domain.Submission, error) {
	if strings.TrimSpace(in.Title) == "" && strings.TrimSpace(in.Description) == "" {
		return domain.Submission{}, fmt.Errorf("title or description required: %w", domain.ErrInvalidInput)
	}
	ts := s.Now().UnixMilli()
	refs := uploadAll(ctx, s.Store, s.Transfer, files, func(i int, f Upload) string {
		return fmt.Sprintf("%s/product_request_%d_%d_%s", s.Folder, ts, i, safeName(f.Name))
	})
	if len(files) > 0 && len(refs) == 0 {
		return domain.Submission{}, fmt.Errorf("submit: %d files: %w", len(files), domain.ErrUploadFailed)
	}

	// normalise as a colors-bearing partition; pruning waits for approval,
	// when the real partition is known
	var prod domain.Product
	in.apply(&prod, domain.CategoryFlowerBouquets.Partition())
	sub := domain.Submission{
		Title:       prod.Title,
		Description: prod.Description,
		Price:       prod.Price,
		Category:    strings.TrimSpace(in.Category),
		Subcategory: prod.Subcategory,
		Governorate: prod.Governorate,
		Cities:      prod.Cities,
		WhatsApp:    prod.WhatsApp,
		Facebook:    prod.Facebook,
		Instagram:   prod.Instagram,
		Colors:      prod.Colors,
		ImageURLs:   refs,
	}
	if err := s.Submissions.Insert(ctx, &sub); err != nil {
		removeObjects(ctx, s.Store, s.Transfer, "moderation.submit.cleanup.fail", refPaths(refs))
		applog.Error(nil, "moderation.submit.fail", err, nil)
		return domain.Submission{}, fmt.Errorf("submit: %w: %w", domain.ErrCreateFailed, err)
	}
	applog.Info(nil, "moderation.submit", map[string]any{"id": sub.ID, "category": sub.Category, "images": len(refs)})
	return sub, nil
}

func (s *ModerationService) List(ctx context.Context, status domain.SubmissionStatus) ([]domain.Submission, error) {
	return s.Submissions.List(ctx, status)
}

func (s *ModerationService) Get(ctx context.Context, id string) (domain.Submission, error) {
	return s.Submissions.Get(ctx, id)
}

func (s *ModerationService) Statistics(ctx context.Context) (domain.SubmissionStats, error) {
	return s.Submissions.Stats(ctx)
}

// Approve promotes a submission. Steps run strictly in order: relocate
// images, insert the product, delete the submission. A failed insert leaves
// the submission as it was. If the submission row cannot be confirmed gone
// the created product is returned with ErrProductCreatedRequestNotDeleted.
func (s *ModerationService) Approve(ctx context.Context, id string) (domain.Product, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	sub, err := s.Submissions.Get(ctx, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("approve %s: %w", id, err)
	}
	p := s.Catalog.ResolveTable(sub.Category)

	moved := s.relocate(ctx, sub.ImageURLs, p)

	prod := productFromSubmission(sub, p)
	prod.ImageURLs = moved.urls
	if err := s.Catalog.Products.Insert(ctx, p, &prod); err != nil {
		// the submission still points at its own files; drop the copies
		removeObjects(ctx, s.Store, s.Transfer, "moderation.approve.cleanup.fail", moved.copies)
		applog.Error(nil, "moderation.approve.create.fail", err, map[string]any{"id": id, "partition": string(p)})
		return domain.Product{}, fmt.Errorf("approve %s: %w: %w", id, domain.ErrCreateFailed, err)
	}
	removeObjects(ctx, s.Store, s.Transfer, "storage.cleanup.fail", moved.sources)

	if err := s.finalize(ctx, id); err != nil {
		applog.Error(nil, "moderation.approve.finalize.fail", err, map[string]any{"id": id, "product_id": prod.ID})
		return prod, fmt.Errorf("approve %s: %w: %w", id, domain.ErrProductCreatedRequestNotDeleted, err)
	}
	applog.Audit(nil, "moderation.approve", map[string]any{
		"id": id, "product_id": prod.ID, "partition": string(p),
		"images": len(prod.ImageURLs), "relocated": len(moved.copies),
	})
	return prod, nil
}

// Reject deletes the submission's images (best-effort) and then its row.
func (s *ModerationService) Reject(ctx context.Context, id, reason string) error {
	unlock := s.locks.lock(id)
	defer unlock()

	sub, err := s.Submissions.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("reject %s: %w", id, err)
	}

	var paths []string
	for _, img := range sub.ImageURLs {
		paths = append(paths, s.sourcePath(img))
	}
	failed := removeObjects(ctx, s.Store, s.Transfer, "storage.cleanup.fail", paths)

	if err := s.finalize(ctx, id); err != nil {
		applog.Error(nil, "moderation.reject.finalize.fail", err, map[string]any{"id": id})
		return fmt.Errorf("reject %s: %w", id, err)
	}
	applog.Audit(nil, "moderation.reject", map[string]any{
		"id": id, "reason": reason, "images": len(paths), "images_failed": len(failed),
	})
	return nil
}

// finalize deletes the submission row and confirms it is gone.
func (s *ModerationService) finalize(ctx context.Context, id string) error {
	return retry.DeleteVerified(ctx, s.RowDelete,
		func(ctx context.Context) error { return s.Submissions.Delete(ctx, id) },
		func(ctx context.Context) (bool, error) { return s.Submissions.Exists(ctx, id) },
	)
}

func productFromSubmission(sub domain.Submission, p domain.Partition) domain.Product {
	title := strings.TrimSpace(sub.Title)
	if title == "" {
		title = sub.Description
	}
	prod := domain.Product{
		Title:       title,
		Description: sub.Description,
		Price:       max(sub.Price, 0),
		Category:    p.Category(),
		Subcategory: sub.Subcategory,
		Governorate: sub.Governorate,
		Cities:      sub.Cities,
		WhatsApp:    sub.WhatsApp,
		Facebook:    sub.Facebook,
		Instagram:   sub.Instagram,
	}
	if p.HasColors() {
		prod.Colors = sub.Colors
	}
	return prod
}

// keyedMutex serialises moderation of one submission within this process, so
// a double click sees NotFound on the second call instead of racing.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = map[string]*keyedEntry{}
	}
	e := k.locks[key]
	if e == nil {
		e = &keyedEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
