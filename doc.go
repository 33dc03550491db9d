/*
Package go-bucket-browser is a small storage browser for object stores.

It lists the files directly under a folder of a bucket and hands out temporary
read URLs for single objects. AWS S3 is the default backend; Azure Blob Storage and
Google Cloud Storage are selected with cloud_provider.

What's included:
- browser: paginated folder listing (filtered, prefix stripped, sorted) and signed URLs
- cloud: AWS, Azure and GCP backends plus Key Vault / Secret Manager loading
- server: HTTP builder with a tiny DI container, CORS, rate limiting, /metrics, /health
- controller: JSON endpoints /api/v1/files and /api/v1/signed-url
- cmd/bucket-browser: ls, sign, serve and token commands

Quick Start:

	go install github.com/SaiNageswarS/go-bucket-browser/cmd/bucket-browser@latest
	AWS_REGION=eu-west-1 URL_EXPIRES_IN=900 bucket-browser ls my-bucket reports/2024/
	bucket-browser sign my-bucket reports/2024/a.pdf

Package Import:

	import "github.com/SaiNageswarS/go-bucket-browser/browser"
	import "github.com/SaiNageswarS/go-bucket-browser/cloud"
	import "github.com/SaiNageswarS/go-bucket-browser/config"

Author: SaiNageswarS
License: Apache-2.0
*/
package boot
