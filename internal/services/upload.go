package services

import (
	"context"
	"io"
	"time"

	"github.com/harentsoaR/complaint-api/internal/storage"
	"go.uber.org/zap"
)

// Upload is a file received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

type storedObject struct {
	Key string
	URL string
}

// uploadAll stores files one by one. When any file fails, the objects
// already stored are deleted before the error is returned.
func uploadAll(ctx context.Context, images storage.ImageStore, log *zap.Logger, prefix string, files []Upload, now time.Time) ([]storedObject, error) {
	stored := make([]storedObject, 0, len(files))
	for _, f := range files {
		obj, err := uploadOne(ctx, images, prefix, f, now)
		if err != nil {
			cleanup(images, log, stored)
			return nil, err
		}
		stored = append(stored, obj)
	}
	return stored, nil
}

func uploadOne(ctx context.Context, images storage.ImageStore, prefix string, f Upload, now time.Time) (storedObject, error) {
	rc, err := f.Open()
	if err != nil {
		return storedObject{}, err
	}
	defer rc.Close()

	key := storage.NewKey(prefix, f.Filename, now)
	url, err := images.Put(ctx, key, rc, f.Size, f.ContentType)
	if err != nil {
		return storedObject{}, err
	}
	return storedObject{Key: key, URL: url}, nil
}

// cleanup deletes stored objects with a fresh context so that a cancelled
// request still releases its uploads.
func cleanup(images storage.ImageStore, log *zap.Logger, objs []storedObject) {
	if len(objs) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, o := range objs {
		if err := images.Delete(ctx, o.Key); err != nil {
			log.Warn("failed to clean up uploaded object", zap.String("key", o.Key), zap.Error(err))
		}
	}
}

func checkImages(files []Upload) bool {
	for _, f := range files {
		if !storage.IsImage(f.ContentType) {
			return false
		}
	}
	return true
}
