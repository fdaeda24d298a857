package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/bnt-kitchen/internal/media"
	"github.com/bnt-kitchen/internal/metrics"
	"github.com/bnt-kitchen/internal/repository"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// fakeRemoteBackend 模拟 Cloudinary，按 public_id 记录资源
type fakeRemoteBackend struct {
	objects   map[string]media.StoredObject
	deleted   []string
	deleteErr error
}

func newFakeRemoteBackend(ids ...string) *fakeRemoteBackend {
	b := &fakeRemoteBackend{objects: make(map[string]media.StoredObject)}
	for _, id := range ids {
		b.objects[id] = media.StoredObject{
			PublicID:  id,
			URL:       "https://res.cloudinary.com/demo/image/upload/" + id + ".jpg",
			Format:    "jpg",
			Bytes:     2048,
			Width:     800,
			Height:    600,
			Folder:    "bnt/menu",
			CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		}
	}
	return b
}

func (b *fakeRemoteBackend) Store(_ context.Context, upload media.Upload) (*media.StoredObject, error) {
	obj := media.StoredObject{PublicID: "bnt/" + upload.Filename, URL: "https://cdn/" + upload.Filename, Format: "png"}
	b.objects[obj.PublicID] = obj
	return &obj, nil
}

func (b *fakeRemoteBackend) Delete(_ context.Context, publicID string) error {
	if b.deleteErr != nil {
		return b.deleteErr
	}
	if _, ok := b.objects[publicID]; !ok {
		return media.ErrObjectNotFound
	}
	delete(b.objects, publicID)
	b.deleted = append(b.deleted, publicID)
	return nil
}

func (b *fakeRemoteBackend) List(context.Context, media.ListOptions) ([]media.StoredObject, error) {
	out := make([]media.StoredObject, 0, len(b.objects))
	for _, obj := range b.objects {
		out = append(out, obj)
	}
	return out, nil
}

func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))); err != nil {
		t.Fatalf("encode png failed: %v", err)
	}
	return buf.Bytes()
}

func expectMetric(t *testing.T, m *metrics.Metrics, name, expected string) {
	t.Helper()
	if err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), name); err != nil {
		t.Fatalf("unexpected %s: %v", name, err)
	}
}

func pngUpload(data []byte) media.Upload {
	return media.Upload{Filename: "pho.png", Size: int64(len(data)), Reader: bytes.NewReader(data), Folder: "menu"}
}

func newTestMediaService(t *testing.T, remote media.Backend) (*MediaService, *metrics.Metrics) {
	t.Helper()
	db := openServiceTestDB(t)
	rules := media.Rules{
		MaxSize:           1 << 20,
		AllowedTypes:      []string{"image/png", "image/jpeg"},
		AllowedExtensions: []string{".png", ".jpg"},
		MaxWidth:          128,
		MaxHeight:         128,
	}
	local := media.NewLocalBackend(t.TempDir(), "/uploads", "common", rules)
	m := metrics.New()
	return NewMediaService(repository.NewMediaRepository(db), local, remote, nil, nil, m), m
}

func TestMediaServiceLocalUploadGetPatchDelete(t *testing.T) {
	svc, m := newTestMediaService(t, nil)
	ctx := context.Background()

	item, err := svc.Upload(ctx, MediaUploadInput{Upload: pngUpload(testPNG(t, 40, 20)), Alt: " bowl ", Tags: []string{"pho", " "}})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if item.Source != "local" || item.Width != 40 || item.Height != 20 || item.Alt != "bowl" {
		t.Fatalf("unexpected item: %+v", item)
	}
	if len(item.Tags) != 1 {
		t.Fatalf("blank tags should be dropped: %v", item.Tags)
	}

	got, err := svc.Get(ctx, item.ID)
	if err != nil || got.PublicID != item.PublicID {
		t.Fatalf("get failed: %v %+v", err, got)
	}

	alt := "phở bò"
	patched, err := svc.Patch(ctx, item.ID, MediaPatchInput{Alt: &alt, Tags: []string{}})
	if err != nil {
		t.Fatalf("patch failed: %v", err)
	}
	if patched.Alt != alt || len(patched.Tags) != 0 || patched.Filename != item.Filename {
		t.Fatalf("unexpected patch result: %+v", patched)
	}

	if _, err := svc.Delete(ctx, item.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := svc.Get(ctx, item.ID); !errors.Is(err, ErrMediaNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	expectMetric(t, m, "bnt_media_uploads_total", `
# HELP bnt_media_uploads_total Media uploads, by backend and result.
# TYPE bnt_media_uploads_total counter
bnt_media_uploads_total{result="ok",source="local"} 1
`)
}

func TestMediaServiceUploadValidation(t *testing.T) {
	svc, m := newTestMediaService(t, nil)
	ctx := context.Background()

	if _, err := svc.Upload(ctx, MediaUploadInput{Upload: pngUpload(testPNG(t, 400, 20))}); !errors.Is(err, ErrMediaUploadInvalid) {
		t.Fatalf("expected upload invalid, got %v", err)
	}
	if _, err := svc.Upload(ctx, MediaUploadInput{Source: "cloudinary", Upload: pngUpload(testPNG(t, 8, 8))}); !errors.Is(err, ErrMediaBackendUnavailable) {
		t.Fatalf("expected backend unavailable, got %v", err)
	}
	if _, err := svc.Upload(ctx, MediaUploadInput{Source: "s3", Upload: pngUpload(testPNG(t, 8, 8))}); !errors.Is(err, ErrMediaSourceInvalid) {
		t.Fatalf("expected source invalid, got %v", err)
	}
	expectMetric(t, m, "bnt_media_uploads_total", `
# HELP bnt_media_uploads_total Media uploads, by backend and result.
# TYPE bnt_media_uploads_total counter
bnt_media_uploads_total{result="error",source="cloudinary"} 1
bnt_media_uploads_total{result="error",source="local"} 1
bnt_media_uploads_total{result="error",source="unknown"} 1
`)
	if _, _, err := svc.List(ctx, repository.MediaListFilter{Source: "s3"}); !errors.Is(err, ErrMediaSourceInvalid) {
		t.Fatalf("expected list source invalid, got %v", err)
	}
}

func TestMediaServiceDeleteManySkipsMissing(t *testing.T) {
	svc, _ := newTestMediaService(t, nil)
	ctx := context.Background()

	first, err := svc.Upload(ctx, MediaUploadInput{Upload: pngUpload(testPNG(t, 8, 8))})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	second, err := svc.Upload(ctx, MediaUploadInput{Upload: pngUpload(testPNG(t, 9, 9))})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	deleted, err := svc.DeleteMany(ctx, []string{first.ID, "missing", second.ID, first.ID})
	if err != nil {
		t.Fatalf("delete many failed: %v", err)
	}
	if len(deleted) != 2 {
		t.Fatalf("expected 2 deleted, got %v", deleted)
	}
	if _, err := svc.DeleteMany(ctx, []string{" "}); !errors.Is(err, ErrMediaIDsRequired) {
		t.Fatalf("expected ids required, got %v", err)
	}
}

func TestMediaServiceSyncCloudinaryImportsMissing(t *testing.T) {
	remote := newFakeRemoteBackend("bnt/menu/pho", "bnt/menu/bun")
	svc, m := newTestMediaService(t, remote)
	ctx := context.Background()

	if _, err := svc.CreateMetadata(ctx, MediaMetadataInput{
		Source:   "cloudinary",
		PublicID: "bnt/menu/pho",
		URL:      "https://res.cloudinary.com/demo/image/upload/bnt/menu/pho.jpg",
	}); err != nil {
		t.Fatalf("create metadata failed: %v", err)
	}

	imported, err := svc.SyncCloudinary(ctx, "menu")
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if len(imported) != 1 || imported[0].PublicID != "bnt/menu/bun" || imported[0].Width != 800 {
		t.Fatalf("unexpected imported items: %+v", imported)
	}
	again, err := svc.SyncCloudinary(ctx, "menu")
	if err != nil || len(again) != 0 {
		t.Fatalf("second sync should import nothing, got %d %v", len(again), err)
	}
	expectMetric(t, m, "bnt_media_cloudinary_sync_imported_total", `
# HELP bnt_media_cloudinary_sync_imported_total Cloudinary resources imported into the media table.
# TYPE bnt_media_cloudinary_sync_imported_total counter
bnt_media_cloudinary_sync_imported_total 1
`)

	items, total, err := svc.List(ctx, repository.MediaListFilter{Source: "cloudinary"})
	if err != nil || total != 2 || len(items) != 2 {
		t.Fatalf("expected 2 cloudinary rows, got %d %v", total, err)
	}
}

func TestMediaServiceDeleteRemoteDropsMetadata(t *testing.T) {
	remote := newFakeRemoteBackend("bnt/menu/pho", "bnt/menu/bun")
	svc, _ := newTestMediaService(t, remote)
	ctx := context.Background()

	if _, err := svc.SyncCloudinary(ctx, ""); err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	deleted, err := svc.DeleteRemote(ctx, []string{"bnt/menu/pho", "bnt/menu/gone"})
	if err != nil {
		t.Fatalf("delete remote failed: %v", err)
	}
	if len(deleted) != 2 || len(remote.deleted) != 1 {
		t.Fatalf("unexpected delete result: %v remote=%v", deleted, remote.deleted)
	}
	_, total, _ := svc.List(ctx, repository.MediaListFilter{Source: "cloudinary"})
	if total != 1 {
		t.Fatalf("expected 1 remaining row, got %d", total)
	}

	remote.deleteErr = errors.New("rate limited")
	if _, err := svc.DeleteRemote(ctx, []string{"bnt/menu/bun"}); err == nil {
		t.Fatalf("expected backend error to surface")
	}
}

func TestMediaServiceMetadataCRUD(t *testing.T) {
	svc, _ := newTestMediaService(t, nil)
	ctx := context.Background()

	if _, err := svc.CreateMetadata(ctx, MediaMetadataInput{Source: "cloudinary", PublicID: "x"}); !errors.Is(err, ErrMediaUploadInvalid) {
		t.Fatalf("expected invalid metadata, got %v", err)
	}
	item, err := svc.CreateMetadata(ctx, MediaMetadataInput{Source: "cloudinary", PublicID: "bnt/a", URL: "https://cdn/a.jpg", Format: "JPG"})
	if err != nil {
		t.Fatalf("create metadata failed: %v", err)
	}
	dup, err := svc.CreateMetadata(ctx, MediaMetadataInput{Source: "cloudinary", PublicID: "bnt/a", URL: "https://cdn/other.jpg"})
	if err != nil || dup.ID != item.ID {
		t.Fatalf("duplicate public id should return the existing row: %v %+v", err, dup)
	}

	updated, err := svc.UpdateMetadata(ctx, MediaMetadataInput{ID: item.ID, Source: "cloudinary", PublicID: "bnt/a", URL: "https://cdn/a2.jpg", Alt: "menu"})
	if err != nil {
		t.Fatalf("update metadata failed: %v", err)
	}
	if updated.URL != "https://cdn/a2.jpg" || updated.Alt != "menu" || updated.Format != "" {
		t.Fatalf("update should overwrite fields: %+v", updated)
	}
	if _, err := svc.UpdateMetadata(ctx, MediaMetadataInput{ID: "missing", Source: "local", PublicID: "p", URL: "u"}); !errors.Is(err, ErrMediaNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	deleted, err := svc.DeleteMetadata(ctx, []string{item.ID, "missing"})
	if err != nil || len(deleted) != 1 {
		t.Fatalf("delete metadata failed: %v %v", deleted, err)
	}
}

func TestMediaServiceSignUploadWithoutSigner(t *testing.T) {
	svc, _ := newTestMediaService(t, nil)
	if _, err := svc.SignUpload("menu"); !errors.Is(err, ErrMediaBackendUnavailable) {
		t.Fatalf("expected backend unavailable, got %v", err)
	}
	if err := svc.ScheduleCloudinarySync("menu", "test"); !errors.Is(err, ErrMediaBackendUnavailable) {
		t.Fatalf("expected backend unavailable, got %v", err)
	}
}
