package cloud

import (
	"context"
	"fmt"
	"time"

	"github.com/SaiNageswarS/go-bucket-browser/config"
)

// ListRequest asks for one page of a delimiter listing.
type ListRequest struct {
	Bucket            string
	Prefix            string
	Delimiter         string
	ContinuationToken string
}

// ListPage holds the object keys of one listing page. Common prefixes are not keys
// and are never included.
type ListPage struct {
	Keys      []string
	Truncated bool
	NextToken string
}

// Cloud is the object storage surface the browser needs.
type Cloud interface {
	// ListObjectsPage fetches a single page. Callers drive pagination with NextToken.
	ListObjectsPage(ctx context.Context, req ListRequest) (*ListPage, error)

	// GetPresignedUrl returns a read-only URL for key valid for expiry.
	// Object existence is not checked.
	GetPresignedUrl(ctx context.Context, bucketName, key string, expiry time.Duration) (string, error)
}

// SecretLoader copies secrets from a cloud secret store into environment variables.
type SecretLoader interface {
	LoadSecretsIntoEnv(ctx context.Context) error
}

// Provide picks the Cloud implementation named by cfg.CloudProvider.
func Provide(cfg *config.BrowserConfig) (Cloud, error) {
	switch cfg.CloudProvider {
	case config.ProviderAWS, "":
		return ProvideAWS(cfg), nil
	case config.ProviderAzure:
		return ProvideAzure(cfg), nil
	case config.ProviderGCP:
		return ProvideGCP(cfg), nil
	default:
		return nil, fmt.Errorf("unknown cloud provider %q", cfg.CloudProvider)
	}
}
