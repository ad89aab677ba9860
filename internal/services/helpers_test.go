package services

import (
	"io"
	"strings"
)

func imageUpload(name, body string) Upload {
	return textUpload(name, "image/png", body)
}

func textUpload(name, contentType, body string) Upload {
	return Upload{
		Filename:    name,
		ContentType: contentType,
		Size:        int64(len(body)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}
}
