package artifacts

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"sync"

	xhttp "DiabScreen/pkg/http"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// Fetcher copies the object at src into dst and returns the number of bytes written.
type Fetcher interface {
	Fetch(ctx context.Context, src *url.URL, dst *os.File) (int64, error)
}

// HTTPFetcher downloads with a single GET. Non-2xx answers are errors.
type HTTPFetcher struct {
	client *xhttp.Client
}

func NewHTTPFetcher(client *xhttp.Client) *HTTPFetcher {
	return &HTTPFetcher{client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, src *url.URL, dst *os.File) (int64, error) {
	return f.client.Download(ctx, src.String(), dst)
}

// FileFetcher copies from the local filesystem, mostly for baked images and tests.
type FileFetcher struct{}

func (FileFetcher) Fetch(ctx context.Context, src *url.URL, dst *os.File) (int64, error) {
	in, err := os.Open(src.Path)
	if err != nil {
		return 0, err
	}
	defer in.Close()
	return io.Copy(dst, in)
}

// S3Fetcher downloads s3://bucket/key objects with a single attempt: SDK
// retries and part body retries are both off. The AWS session is created on
// first use so deployments without S3 sources never touch credentials.
type S3Fetcher struct {
	region   string
	endpoint string

	once sync.Once
	dl   *s3manager.Downloader
	err  error
}

func NewS3Fetcher(region, endpoint string) *S3Fetcher {
	return &S3Fetcher{region: region, endpoint: endpoint}
}

func (f *S3Fetcher) downloader() (*s3manager.Downloader, error) {
	f.once.Do(func() {
		cfg := aws.NewConfig().
			WithRegion(f.region).
			WithMaxRetries(0)
		if f.endpoint != "" {
			cfg = cfg.WithEndpoint(f.endpoint).WithS3ForcePathStyle(true)
		}
		sess, err := session.NewSession(cfg)
		if err != nil {
			f.err = fmt.Errorf("aws session: %w", err)
			return
		}
		f.dl = s3manager.NewDownloader(sess, func(d *s3manager.Downloader) {
			// part-body retries follow the client's MaxRetries (0 above)
			d.Concurrency = 1
		})
	})
	return f.dl, f.err
}

func (f *S3Fetcher) Fetch(ctx context.Context, src *url.URL, dst *os.File) (int64, error) {
	bucket := src.Host
	key := strings.TrimPrefix(src.Path, "/")
	if bucket == "" || key == "" {
		return 0, fmt.Errorf("s3 url needs bucket and key: %s", src.String())
	}

	dl, err := f.downloader()
	if err != nil {
		return 0, err
	}
	return dl.DownloadWithContext(ctx, dst, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
}
