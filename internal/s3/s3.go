// Package s3 archives ready clips to MinIO.
package s3

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Capitan-Parrot/distributed-video-system/console/internal/models"
)

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Secure    bool
	Region    string
}

type Client struct {
	client *minio.Client
	bucket string

	// bucketReady is set once the bucket is known to exist.
	mu          sync.Mutex
	bucketReady bool
}

func NewMinioClient(cfg Config) (*Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &Client{client: client, bucket: cfg.Bucket}, nil
}

func (c *Client) EnsureBucketExists(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bucketReady {
		return nil
	}

	exists, err := c.client.BucketExists(ctx, c.bucket)
	if err != nil {
		return err
	}
	if !exists {
		if err := c.client.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
			return err
		}
	}
	c.bucketReady = true
	return nil
}

// ArchiveClip streams a clip's media into <session>/<clip>.<format> and
// returns the object URL. size may be -1 when unknown.
func (c *Client) ArchiveClip(ctx context.Context, clip models.Clip, body io.Reader, size int64) (string, error) {
	if err := c.EnsureBucketExists(ctx); err != nil {
		return "", fmt.Errorf("bucket error: %w", err)
	}

	objectName := ObjectName(clip)
	_, err := c.client.PutObject(
		ctx,
		c.bucket,
		objectName,
		body,
		size,
		minio.PutObjectOptions{
			ContentType: contentType(clip.Format),
			UserMetadata: map[string]string{
				"clip-id":    clip.ID,
				"play-id":    clip.PlayID,
				"channel-id": clip.ChannelID,
			},
		},
	)
	if err != nil {
		return "", fmt.Errorf("upload error: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s", strings.TrimRight(c.client.EndpointURL().String(), "/"), c.bucket, objectName)
	return url, nil
}

// ObjectName is the archive key of clip. Clips without a session go under
// "unsorted".
func ObjectName(clip models.Clip) string {
	session := clip.SessionID
	if session == "" {
		session = "unsorted"
	}
	format := strings.TrimPrefix(strings.ToLower(clip.Format), ".")
	if format == "" {
		format = "mp4"
	}
	return path.Join(sanitize(session), sanitize(clip.ID)+"."+format)
}

func sanitize(s string) string {
	return strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(s)
}

func contentType(format string) string {
	switch strings.ToLower(format) {
	case "webm":
		return "video/webm"
	case "mov":
		return "video/quicktime"
	case "ts":
		return "video/mp2t"
	default:
		return "video/mp4"
	}
}
