// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package fs

import (
	"bytes"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

type S3Filesystem struct {
	svc    *s3.S3
	bucket string
}

func NewS3Filesystem(session *session.Session, stage string) (*S3Filesystem, error) {
	return &S3Filesystem{
		svc:    s3.New(session),
		bucket: "riverboat-" + stage + "-results",
	}, nil
}

// Patch S3's limited vocabulary of default content types
var s3ContentTypes = map[string]string{
	".json": "application/json",
	".csv":  "text/csv",
}

func (s3Filesystem *S3Filesystem) UploadFile(key string, secondsCache int, data []byte) error {
	var contentType *string
	if mime, ok := s3ContentTypes[path.Ext(key)]; ok {
		contentType = aws.String(mime)
	}

	_, err := s3Filesystem.svc.PutObject(&s3.PutObjectInput{
		Bucket:       aws.String(s3Filesystem.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		CacheControl: aws.String(fmt.Sprintf("no-transform, public, max-age=%d", secondsCache)),
		ContentType:  contentType,
	})
	if err != nil {
		return fmt.Errorf("upload s3://%s/%s: %w", s3Filesystem.bucket, key, err)
	}
	return nil
}
