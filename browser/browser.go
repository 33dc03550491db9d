// Package browser lists the files directly under a bucket folder and mints
// temporary read URLs for single objects.
package browser

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/SaiNageswarS/go-bucket-browser/cloud"
	"github.com/SaiNageswarS/go-bucket-browser/config"
	"github.com/SaiNageswarS/go-bucket-browser/logger"
	"go.uber.org/zap"
)

// Delimiter keeps listings to a single folder level.
const Delimiter = "/"

// Browser is safe for concurrent use. It holds no state besides the shared cloud
// client and the config it was built with.
type Browser struct {
	cfg   *config.BrowserConfig
	cloud cloud.Cloud
}

func New(cfg *config.BrowserConfig, c cloud.Cloud) *Browser {
	return &Browser{cfg: cfg, cloud: c}
}

// ListFilesInFolder returns the names of the objects directly under folderPath,
// with folderPath stripped, sorted ascending. The folder marker itself and any
// key ending in "/" are skipped. Any page failure aborts the whole listing and the
// provider error is returned as is.
func (b *Browser) ListFilesInFolder(ctx context.Context, bucketName, folderPath string) (files []string, err error) {
	start := time.Now()
	defer func() { observe(opList, start, err) }()

	files = []string{}
	req := cloud.ListRequest{
		Bucket:    bucketName,
		Prefix:    folderPath,
		Delimiter: Delimiter,
	}

	for pageNum := 1; ; pageNum++ {
		listingPagesTotal.Inc()

		page, err := b.cloud.ListObjectsPage(ctx, req)
		if err != nil {
			logger.Error("Failed listing folder",
				zap.String("bucket", bucketName),
				zap.String("folder", folderPath),
				zap.Int("page", pageNum),
				zap.Error(err))
			return nil, err
		}

		for _, key := range page.Keys {
			if key == folderPath || strings.HasSuffix(key, Delimiter) {
				continue
			}
			files = append(files, strings.TrimPrefix(key, folderPath))
		}

		if !page.Truncated {
			break
		}
		if page.NextToken == "" {
			logger.Warn("Truncated listing page without continuation token, stopping",
				zap.String("bucket", bucketName),
				zap.String("folder", folderPath),
				zap.Int("page", pageNum))
			break
		}
		req.ContinuationToken = page.NextToken
	}

	sort.Strings(files)
	return files, nil
}

// GenerateSignedUrl returns a read-only URL for objectKey that expires after
// cfg.UrlExpiresIn seconds. The object is not required to exist.
func (b *Browser) GenerateSignedUrl(ctx context.Context, bucketName, objectKey string) (signedUrl string, err error) {
	start := time.Now()
	defer func() { observe(opSign, start, err) }()

	expiry := time.Duration(b.cfg.UrlExpiresIn) * time.Second

	signedUrl, err = b.cloud.GetPresignedUrl(ctx, bucketName, objectKey, expiry)
	if err != nil {
		logger.Error("Failed generating signed url",
			zap.String("bucket", bucketName),
			zap.String("key", objectKey),
			zap.Duration("expiry", expiry),
			zap.Error(err))
		return "", err
	}
	return signedUrl, nil
}
