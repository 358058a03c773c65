// Package s3 mirrors finished uploads to Amazon S3 or an S3-compatible
// service (MinIO, Wasabi, DigitalOcean Spaces).
//
//	m, err := s3.New(ctx, s3.Config{Bucket: "uploads", Region: "eu-central-1"})
//	err = m.Put(ctx, "user_upload/20240305-10/ab12/photo.png", "/srv/files/user_upload/20240305-10/ab12/photo.png")
//
// SDK errors are mapped onto the core/storage error values so callers can
// match them with errors.Is.
package s3
