package cloud

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"cloud.google.com/go/storage"
	"github.com/SaiNageswarS/go-bucket-browser/config"
	"github.com/SaiNageswarS/go-bucket-browser/logger"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
)

// gcsPageSize is the number of entries requested per listing page.
const gcsPageSize = 1000

type GCP struct {
	cfg *config.BrowserConfig

	storageOnce sync.Once
	storageErr  error
	Storage     gcsClient

	secretsOnce sync.Once
	secretsErr  error
	Secrets     secretStore
}

func ProvideGCP(cfg *config.BrowserConfig) *GCP {
	return &GCP{cfg: cfg}
}

// LoadSecretsIntoEnv copies the latest version of every secret in cfg.GcpProjectId
// into the environment. A secret that can't be read is logged and skipped.
func (g *GCP) LoadSecretsIntoEnv(ctx context.Context) error {
	projectID := g.cfg.GcpProjectId
	if projectID == "" {
		err := errors.New("gcp_project_id config not set")
		logger.Error("Failed loading GCP secrets", zap.Error(err))
		return err
	}

	if err := g.EnsureSecrets(); err != nil {
		logger.Error("Failed to create secret manager client", zap.Error(err))
		return err
	}

	names, err := g.Secrets.SecretNames(ctx, fmt.Sprintf("projects/%s", projectID))
	if err != nil {
		logger.Error("Failed to list secrets", zap.Error(err))
		return err
	}

	var secretList []string
	for _, fullName := range names {
		value, err := g.Secrets.SecretValue(ctx, fullName+"/versions/latest")
		if err != nil {
			logger.Error("Failed to access secret version", zap.String("secret", fullName), zap.Error(err))
			continue
		}

		secretName := envName(fullName[strings.LastIndex(fullName, "/")+1:])
		if err := os.Setenv(secretName, value); err != nil {
			logger.Error("Failed to export secret", zap.String("secret", secretName), zap.Error(err))
			continue
		}
		secretList = append(secretList, secretName)
	}

	logger.Info("Successfully loaded GCP secrets into environment variables.", zap.Strings("secrets", secretList))
	return nil
}

// ListObjectsPage fetches one page of objects. Synthetic prefix entries produced by
// the delimiter carry no Name and are dropped.
func (g *GCP) ListObjectsPage(ctx context.Context, req ListRequest) (*ListPage, error) {
	if err := g.EnsureStorage(); err != nil {
		return nil, err
	}

	query := &storage.Query{Prefix: req.Prefix, Delimiter: req.Delimiter}
	attrs, next, err := g.Storage.ListObjects(ctx, req.Bucket, query, gcsPageSize, req.ContinuationToken)
	if err != nil {
		return nil, err
	}

	page := &ListPage{
		Keys:      make([]string, 0, len(attrs)),
		Truncated: next != "",
		NextToken: next,
	}
	for _, obj := range attrs {
		if obj == nil || obj.Name == "" {
			continue
		}
		page.Keys = append(page.Keys, obj.Name)
	}
	return page, nil
}

// GetPresignedUrl returns a V4 signed GET URL using the client's credentials.
func (g *GCP) GetPresignedUrl(ctx context.Context, bucketName, key string, expiry time.Duration) (string, error) {
	if err := checkExpiry(expiry); err != nil {
		return "", err
	}
	if err := g.EnsureStorage(); err != nil {
		return "", err
	}

	return g.Storage.SignedURL(bucketName, key, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(expiry),
	})
}

// gcp clients

func (g *GCP) EnsureStorage() error {
	g.storageOnce.Do(func() {
		if g.Storage != nil {
			return
		}
		g.Storage, g.storageErr = newGCSClient()
	})
	return g.storageErr
}

func (g *GCP) EnsureSecrets() error {
	g.secretsOnce.Do(func() {
		if g.Secrets != nil {
			return
		}
		g.Secrets, g.secretsErr = newSecretStore()
	})
	return g.secretsErr
}

// factory variables – default to real SDK functions
var (
	newGCSClient = func() (gcsClient, error) {
		// long-lived client, not bound to any request context
		client, err := storage.NewClient(context.Background())
		if err != nil {
			return nil, err
		}
		return gcsStorage{client: client}, nil
	}
	newSecretStore = func() (secretStore, error) {
		client, err := secretmanager.NewClient(context.Background())
		if err != nil {
			return nil, err
		}
		return gcpSecretStore{client: client}, nil
	}
)

type gcsClient interface {
	ListObjects(ctx context.Context, bucket string, q *storage.Query, pageSize int, pageToken string) ([]*storage.ObjectAttrs, string, error)
	SignedURL(bucket, key string, opts *storage.SignedURLOptions) (string, error)
}

type secretStore interface {
	SecretNames(ctx context.Context, parent string) ([]string, error)
	SecretValue(ctx context.Context, versionName string) (string, error)
}

// gcsStorage adapts *storage.Client to gcsClient.
type gcsStorage struct {
	client *storage.Client
}

func (s gcsStorage) ListObjects(ctx context.Context, bucket string, q *storage.Query, pageSize int, pageToken string) ([]*storage.ObjectAttrs, string, error) {
	it := s.client.Bucket(bucket).Objects(ctx, q)

	var attrs []*storage.ObjectAttrs
	next, err := iterator.NewPager(it, pageSize, pageToken).NextPage(&attrs)
	if err != nil {
		return nil, "", err
	}
	return attrs, next, nil
}

func (s gcsStorage) SignedURL(bucket, key string, opts *storage.SignedURLOptions) (string, error) {
	return s.client.Bucket(bucket).SignedURL(key, opts)
}

// gcpSecretStore adapts *secretmanager.Client to secretStore.
type gcpSecretStore struct {
	client *secretmanager.Client
}

func (s gcpSecretStore) SecretNames(ctx context.Context, parent string) ([]string, error) {
	it := s.client.ListSecrets(ctx, &secretmanagerpb.ListSecretsRequest{Parent: parent})

	var names []string
	for {
		secret, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		names = append(names, secret.Name)
	}
	return names, nil
}

func (s gcpSecretStore) SecretValue(ctx context.Context, versionName string) (string, error) {
	resp, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: versionName})
	if err != nil {
		return "", err
	}
	return string(resp.GetPayload().GetData()), nil
}
