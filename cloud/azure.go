package cloud

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/service"
	"github.com/SaiNageswarS/go-bucket-browser/config"
	"github.com/SaiNageswarS/go-bucket-browser/logger"
	"go.uber.org/zap"
)

// sasClockSkew backdates SAS and delegation key start times.
const sasClockSkew = 5 * time.Minute

// Azure maps buckets to blob containers of cfg.AzureStorageAccount.
type Azure struct {
	cfg *config.BrowserConfig

	kvOnce   sync.Once
	kvErr    error
	KvClient keyVaultClient

	blobOnce   sync.Once
	blobErr    error
	BlobClient blobClient
}

func ProvideAzure(cfg *config.BrowserConfig) *Azure {
	return &Azure{cfg: cfg}
}

// LoadSecretsIntoEnv copies every Key Vault secret into the environment.
// Key Vault names can't hold underscores, so AWS-REGION is exported as AWS_REGION.
func (a *Azure) LoadSecretsIntoEnv(ctx context.Context) error {
	logger.Info("Loading Azure Keyvault secrets into environment variables.")

	if err := a.EnsureKV(); err != nil {
		logger.Error("Failed to ensure Keyvault client", zap.Error(err))
		return err
	}

	pager := a.KvClient.NewListSecretPropertiesPager(nil)
	var secretList []string

	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			logger.Error("Failed to get next page of secrets", zap.Error(err))
			return err
		}
		for _, secret := range page.Value {
			if secret.ID == nil {
				continue
			}
			resp, err := a.KvClient.GetSecret(ctx, secret.ID.Name(), secret.ID.Version(), nil)
			if err != nil {
				logger.Error("Failed to get secret", zap.String("secret", secret.ID.Name()), zap.Error(err))
				continue
			}
			if resp.Value == nil {
				continue
			}
			name := envName(secret.ID.Name())
			if err := os.Setenv(name, *resp.Value); err != nil {
				logger.Error("Failed to export secret", zap.String("secret", name), zap.Error(err))
				continue
			}
			secretList = append(secretList, name)
		}
	}

	logger.Info("Successfully loaded Azure Keyvault secrets into environment variables.", zap.Strings("secrets", secretList))
	return nil
}

// ListObjectsPage fetches one hierarchy page of the container named by req.Bucket.
func (a *Azure) ListObjectsPage(ctx context.Context, req ListRequest) (*ListPage, error) {
	if err := a.EnsureBlob(); err != nil {
		return nil, err
	}

	opts := &container.ListBlobsHierarchyOptions{
		Prefix: to.Ptr(req.Prefix),
	}
	if req.ContinuationToken != "" {
		opts.Marker = to.Ptr(req.ContinuationToken)
	}

	pager := a.BlobClient.NewListBlobsHierarchyPager(req.Bucket, req.Delimiter, opts)
	resp, err := pager.NextPage(ctx)
	if err != nil {
		return nil, err
	}

	page := &ListPage{}
	if resp.Segment != nil {
		for _, item := range resp.Segment.BlobItems {
			if item == nil || item.Name == nil {
				continue
			}
			page.Keys = append(page.Keys, *item.Name)
		}
	}
	if resp.NextMarker != nil && *resp.NextMarker != "" {
		page.Truncated = true
		page.NextToken = *resp.NextMarker
	}
	return page, nil
}

// GetPresignedUrl issues a read-only user delegation SAS for the blob.
func (a *Azure) GetPresignedUrl(ctx context.Context, containerName, key string, expiry time.Duration) (string, error) {
	if err := checkExpiry(expiry); err != nil {
		return "", err
	}
	if err := a.EnsureBlob(); err != nil {
		return "", err
	}

	now := time.Now().UTC()
	start := now.Add(-sasClockSkew)
	expiresAt := now.Add(expiry)

	cred, err := a.BlobClient.GetUserDelegationCredential(ctx, service.KeyInfo{
		Start:  to.Ptr(start.Format(sas.TimeFormat)),
		Expiry: to.Ptr(expiresAt.Format(sas.TimeFormat)),
	})
	if err != nil {
		return "", err
	}

	qp, err := sas.BlobSignatureValues{
		Protocol:      sas.ProtocolHTTPS,
		StartTime:     start,
		ExpiryTime:    expiresAt,
		Permissions:   to.Ptr(sas.BlobPermissions{Read: true}).String(),
		ContainerName: containerName,
		BlobName:      key,
	}.SignWithUserDelegation(cred)
	if err != nil {
		return "", err
	}

	return a.BlobClient.BlobURL(containerName, key) + "?" + qp.Encode(), nil
}

// azure clients

func (a *Azure) EnsureKV() error {
	a.kvOnce.Do(func() {
		if a.KvClient != nil {
			return
		}
		a.KvClient, a.kvErr = getKeyvaultClient(a.cfg)
	})
	return a.kvErr
}

func (a *Azure) EnsureBlob() error {
	a.blobOnce.Do(func() {
		if a.BlobClient != nil {
			return
		}
		if a.cfg.AzureStorageAccount == "" {
			a.blobErr = errors.New("azure_storage_account config not set")
			return
		}

		a.BlobClient, a.blobErr = getServiceClientTokenCredential(a.cfg.AzureStorageAccount)
	})
	return a.blobErr
}

func getKeyvaultClient(cfg *config.BrowserConfig) (keyVaultClient, error) {
	keyVaultName := cfg.AzureKeyVaultName
	if keyVaultName == "" {
		return nil, errors.New("azure_key_vault_name config not set")
	}

	keyVaultUrl := fmt.Sprintf("https://%s.vault.azure.net/", keyVaultName)

	cred, err := newDefaultCred()
	if err != nil {
		return nil, err
	}

	return newKVClient(keyVaultUrl, cred)
}

func getServiceClientTokenCredential(accountName string) (blobClient, error) {
	cred, err := newDefaultCred()
	if err != nil {
		return nil, err
	}

	accountURL := fmt.Sprintf("https://%s.blob.core.windows.net/", accountName)
	client, err := newBlobServiceClient(accountURL, cred)
	if err != nil {
		return nil, err
	}

	return azBlobService{svc: client}, nil
}

// envName turns a Key Vault secret name into an environment variable name.
func envName(secretName string) string {
	return strings.ReplaceAll(secretName, "-", "_")
}

// factory variables – default to real SDK functions
var (
	newDefaultCred = func() (*azidentity.DefaultAzureCredential, error) {
		return azidentity.NewDefaultAzureCredential(nil)
	}
	newKVClient = func(url string, cred *azidentity.DefaultAzureCredential) (keyVaultClient, error) {
		return azsecrets.NewClient(url, cred, nil)
	}
	newBlobServiceClient = func(url string, cred *azidentity.DefaultAzureCredential) (*service.Client, error) {
		return service.NewClient(url, cred, nil)
	}
)

type keyVaultClient interface {
	NewListSecretPropertiesPager(*azsecrets.ListSecretPropertiesOptions) *runtime.Pager[azsecrets.ListSecretPropertiesResponse]
	GetSecret(context.Context, string, string, *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error)
}

type blobClient interface {
	NewListBlobsHierarchyPager(containerName, delimiter string, o *container.ListBlobsHierarchyOptions) *runtime.Pager[container.ListBlobsHierarchyResponse]
	GetUserDelegationCredential(ctx context.Context, info service.KeyInfo) (*service.UserDelegationCredential, error)
	BlobURL(containerName, blobName string) string
}

// azBlobService adapts *service.Client to blobClient.
type azBlobService struct {
	svc *service.Client
}

func (s azBlobService) NewListBlobsHierarchyPager(containerName, delimiter string, o *container.ListBlobsHierarchyOptions) *runtime.Pager[container.ListBlobsHierarchyResponse] {
	return s.svc.NewContainerClient(containerName).NewListBlobsHierarchyPager(delimiter, o)
}

func (s azBlobService) GetUserDelegationCredential(ctx context.Context, info service.KeyInfo) (*service.UserDelegationCredential, error) {
	return s.svc.GetUserDelegationCredential(ctx, info, nil)
}

func (s azBlobService) BlobURL(containerName, blobName string) string {
	return s.svc.NewContainerClient(containerName).NewBlobClient(blobName).URL()
}
