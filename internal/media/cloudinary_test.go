package media

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/bnt-kitchen/internal/config"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type fakeCloudinary struct {
	uploadParams  uploader.UploadParams
	destroyResult string
	destroyed     []string
	pages         [][]api.BriefAssetResult
	assetCalls    []admin.AssetsParams
}

func (f *fakeCloudinary) Upload(_ context.Context, _ interface{}, params uploader.UploadParams) (*uploader.UploadResult, error) {
	f.uploadParams = params
	return &uploader.UploadResult{
		PublicID:  params.Folder + "/abc123",
		SecureURL: "https://res.cloudinary.com/demo/image/upload/v1/" + params.Folder + "/abc123.png",
		Format:    "png",
		Bytes:     2048,
		Width:     16,
		Height:    8,
		CreatedAt: time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC),
	}, nil
}

func (f *fakeCloudinary) Destroy(_ context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error) {
	f.destroyed = append(f.destroyed, params.PublicID)
	return &uploader.DestroyResult{Result: f.destroyResult}, nil
}

func (f *fakeCloudinary) Assets(_ context.Context, params admin.AssetsParams) (*admin.AssetsResult, error) {
	f.assetCalls = append(f.assetCalls, params)
	index := len(f.assetCalls) - 1
	result := &admin.AssetsResult{}
	if index < len(f.pages) {
		result.Assets = f.pages[index]
		if index+1 < len(f.pages) {
			result.NextCursor = "next"
		}
	}
	return result, nil
}

func TestCloudinaryBackendStore(t *testing.T) {
	fake := &fakeCloudinary{}
	backend := newCloudinaryBackend(fake, "bnt", 0, testRules())

	stored, err := backend.Store(context.Background(), newUpload("bun-cha.png", pngBytes(t, 16, 8), "menu"))
	if err != nil {
		t.Fatalf("store failed: %v", err)
	}
	if fake.uploadParams.Folder != "bnt/menu" {
		t.Fatalf("unexpected upload folder: %s", fake.uploadParams.Folder)
	}
	if stored.PublicID != "bnt/menu/abc123" || stored.Bytes != 2048 || stored.Filename != "bun-cha.png" {
		t.Fatalf("unexpected stored object: %+v", stored)
	}
}

func TestCloudinaryBackendStoreValidates(t *testing.T) {
	fake := &fakeCloudinary{}
	backend := newCloudinaryBackend(fake, "bnt", 0, testRules())
	if _, err := backend.Store(context.Background(), newUpload("a.exe", []byte("MZ"), "")); !errors.Is(err, ErrInvalidUpload) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if fake.uploadParams.Folder != "" {
		t.Fatalf("invalid upload must not reach cloudinary")
	}
}

func TestCloudinaryBackendDelete(t *testing.T) {
	fake := &fakeCloudinary{destroyResult: "ok"}
	backend := newCloudinaryBackend(fake, "bnt", 0, testRules())
	if err := backend.Delete(context.Background(), "bnt/menu/abc123"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	fake.destroyResult = "not found"
	if err := backend.Delete(context.Background(), "bnt/menu/gone"); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := backend.Delete(context.Background(), " "); !errors.Is(err, ErrInvalidPublicID) {
		t.Fatalf("blank id should be rejected, got %v", err)
	}
	if len(fake.destroyed) != 2 {
		t.Fatalf("unexpected destroy calls: %v", fake.destroyed)
	}
}

func TestCloudinaryBackendListPaginates(t *testing.T) {
	fake := &fakeCloudinary{pages: [][]api.BriefAssetResult{
		{{PublicID: "bnt/menu/a", SecureURL: "https://x/a", Format: "jpg", Bytes: 10}},
		{{PublicID: "bnt/menu/b", SecureURL: "https://x/b", Format: "png", Bytes: 20}},
	}}
	backend := newCloudinaryBackend(fake, "bnt", 10, testRules())

	objects, err := backend.List(context.Background(), ListOptions{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(objects) != 2 || objects[1].PublicID != "bnt/menu/b" || objects[1].Folder != "bnt/menu" {
		t.Fatalf("unexpected objects: %+v", objects)
	}
	if len(fake.assetCalls) != 2 || fake.assetCalls[0].Prefix != "bnt/" || fake.assetCalls[1].NextCursor != "next" {
		t.Fatalf("unexpected asset calls: %+v", fake.assetCalls)
	}
}

func TestNewCloudinaryBackendDisabled(t *testing.T) {
	if _, err := NewCloudinaryBackend(config.CloudinaryConfig{Enabled: false}, testRules()); !IsDisabled(err) {
		t.Fatalf("disabled config should return ErrBackendDisabled, got %v", err)
	}
	if _, err := NewSigner(config.CloudinaryConfig{Enabled: true, CloudName: "demo"}); !IsDisabled(err) {
		t.Fatalf("missing credentials should return ErrBackendDisabled, got %v", err)
	}
}

func TestSignerSign(t *testing.T) {
	signer, err := NewSigner(config.CloudinaryConfig{
		Enabled:   true,
		CloudName: "demo",
		APIKey:    "key",
		APISecret: "secret",
		Folder:    "bnt",
	})
	if err != nil {
		t.Fatalf("new signer failed: %v", err)
	}
	signer.now = func() time.Time { return time.Unix(1700000000, 0) }

	signature, err := signer.Sign("menu")
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	sum := sha1.Sum([]byte("folder=bnt/menu&timestamp=1700000000secret"))
	if signature.Signature != hex.EncodeToString(sum[:]) {
		t.Fatalf("unexpected signature: %s", signature.Signature)
	}
	if signature.Folder != "bnt/menu" || signature.APIKey != "key" || signature.CloudName != "demo" || signature.Timestamp != 1700000000 {
		t.Fatalf("unexpected signature payload: %+v", signature)
	}
}
