// Package share uploads finished voice parts to S3 so a choir can fetch
// them without touching the machine that ran the split.
package share

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// UploadOutputs puts each file under s3://bucket/prefix/<name> and returns
// the object keys.
func UploadOutputs(bucket, prefix string, paths []string) ([]string, error) {
	sess, err := session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create AWS session: %w", err)
	}
	client := s3.New(sess)

	var keys []string
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, fmt.Errorf("could not open %v: %w", p, err)
		}

		key := path.Join(prefix, filepath.Base(p))
		_, err = client.PutObject(&s3.PutObjectInput{
			Bucket:      aws.String(bucket),
			Key:         aws.String(key),
			Body:        f,
			ContentType: aws.String("application/vnd.recordare.musicxml+xml"),
		})
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("upload of %v failed: %w", key, err)
		}
		fmt.Printf("  uploaded s3://%v/%v\n", bucket, key)
		keys = append(keys, key)
	}
	return keys, nil
}
