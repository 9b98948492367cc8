package services

import (
	"context"
	"errors"
	"fmt"
	"path"

	"wedmarket/internal/domain"
	applog "wedmarket/internal/log"
	"wedmarket/internal/retry"
	"wedmarket/internal/storage"
)

var errCopyNotVisible = errors.New("copied object not listed")

type relocation struct {
	urls    domain.StringList // one per image, in order
	sources []string          // submission files whose copy succeeded
	copies  []string          // new permanent paths
}

type blob struct {
	data        []byte
	contentType string
}

func (s *ModerationService) sourcePath(img domain.ImageRef) string {
	if img.Path != "" {
		return img.Path
	}
	return storage.PathFromURL(s.Store, img.URL)
}

// relocate copies each image into the partition folder. An image that cannot
// be moved keeps its submission URL so the product still has a picture.
// Sources are not removed here: that waits until the product row exists.
func (s *ModerationService) relocate(ctx context.Context, images domain.ImageRefs, p domain.Partition) relocation {
	var out relocation
	ts := s.Now().UnixMilli()
	for i, img := range images {
		src := s.sourcePath(img)
		if src == "" {
			applog.Warn(nil, "moderation.relocate.skip", nil, map[string]any{"url": img.URL})
			out.urls = append(out.urls, img.URL)
			continue
		}
		name := img.OriginalName
		if name == "" {
			name = path.Base(src)
		}
		dst := fmt.Sprintf("%s/product_%s_%d_%d_%s", p, p.Category(), ts, i, safeName(name))

		if err := s.move(ctx, src, dst); err != nil {
			applog.Warn(nil, "moderation.relocate.fail", err, map[string]any{"src": src, "dst": dst})
			out.urls = append(out.urls, img.URL)
			continue
		}
		out.urls = append(out.urls, s.Store.PublicURL(dst))
		out.sources = append(out.sources, src)
		out.copies = append(out.copies, dst)
	}
	return out
}

// move tries a server-side copy and falls back to download and re-upload.
func (s *ModerationService) move(ctx context.Context, src, dst string) error {
	err := s.Store.Copy(ctx, src, dst)
	if err == nil {
		// a listing error says nothing about the copy; trust it
		ok, lerr := storage.Exists(ctx, s.Store, dst)
		if lerr != nil || ok {
			return nil
		}
		err = errCopyNotVisible
	}
	if !errors.Is(err, storage.ErrCopyUnsupported) {
		applog.Info(nil, "moderation.relocate.copy.fallback", map[string]any{"src": src, "err": err.Error()})
	}

	b, err := retry.Value(ctx, s.Transfer, func(ctx context.Context) (blob, error) {
		data, ct, err := s.Store.Download(ctx, src)
		return blob{data: data, contentType: ct}, err
	})
	if err != nil {
		return fmt.Errorf("download %s: %w", src, err)
	}
	err = retry.Do(ctx, s.Transfer, func(ctx context.Context) error {
		return s.Store.Upload(ctx, dst, b.data, b.contentType)
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", dst, err)
	}
	return nil
}
