// Package publisher deploys rendered dashboards as public static sites on S3.
//
// Each dashboard lives under its own site prefix ({site_id}/index.html). The
// publisher also keeps the bucket serving: it applies the static website
// hosting configuration and a public-read bucket policy on every upload,
// tolerating buckets where policy writes are denied and public access is
// managed out of band.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/entrhq/qbridge/pkg/config"
	"github.com/entrhq/qbridge/pkg/logging"
)

// Default iframe attributes for embed snippets.
const (
	DefaultEmbedWidth  = "100%"
	DefaultEmbedHeight = "600px"
)

// timestampLayout formats object timestamps for listing responses.
const timestampLayout = "2006-01-02 15:04:05 UTC"

// s3API is the slice of the S3 client the publisher uses.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	PutBucketWebsite(ctx context.Context, params *s3.PutBucketWebsiteInput, optFns ...func(*s3.Options)) (*s3.PutBucketWebsiteOutput, error)
	PutBucketPolicy(ctx context.Context, params *s3.PutBucketPolicyInput, optFns ...func(*s3.Options)) (*s3.PutBucketPolicyOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// Dashboard describes one deployed site prefix.
type Dashboard struct {
	SiteID  string `json:"site_id"`
	URL     string `json:"url"`
	Created string `json:"created"`
}

// EmbedOptions controls the generated iframe attributes. Zero-value fields
// fall back to the defaults used by the dashboard endpoints.
type EmbedOptions struct {
	Width  string
	Height string

	// FrameBorder defaults to "0".
	FrameBorder string

	// NoFullscreen drops the allowfullscreen attribute.
	NoFullscreen bool
}

// Publisher uploads dashboard sites to a configured bucket.
type Publisher struct {
	client             s3API
	bucket             string
	region             string
	useWebsiteEndpoint bool
	logger             *logging.Logger
}

// New creates a Publisher from the publisher configuration. A nil logger
// disables logging.
func New(ctx context.Context, cfg config.PublisherConfig, logger *logging.Logger) (*Publisher, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.ForcePathStyle
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
		}
	})

	return &Publisher{
		client:             client,
		bucket:             cfg.Bucket,
		region:             cfg.Region,
		useWebsiteEndpoint: cfg.UseWebsiteEndpoint,
		logger:             logger,
	}, nil
}

// UploadStaticSite uploads the dashboard HTML plus any additional files under
// the site prefix, ensures the bucket serves static sites publicly, and
// returns the public URL of the deployed index.html.
func (p *Publisher) UploadStaticSite(ctx context.Context, htmlContent, siteID string, additionalFiles map[string]string) (string, error) {
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(siteID + "/index.html"),
		Body:        strings.NewReader(htmlContent),
		ContentType: aws.String("text/html"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload index.html: %w", err)
	}

	for path, content := range additionalFiles {
		_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(p.bucket),
			Key:         aws.String(siteID + "/" + path),
			Body:        strings.NewReader(content),
			ContentType: aws.String(contentTypeFor(path)),
		})
		if err != nil {
			return "", fmt.Errorf("failed to upload %s: %w", path, err)
		}
	}

	if err := p.ensureWebsiteHosting(ctx); err != nil {
		return "", err
	}
	if err := p.ensurePublicReadPolicy(ctx); err != nil {
		return "", err
	}

	url := p.SiteURL(siteID)
	p.logf("Deployed site %s to %s", siteID, url)
	return url, nil
}

// SiteURL returns the public URL of a site's index.html, using the website
// endpoint or the standard endpoint per configuration.
func (p *Publisher) SiteURL(siteID string) string {
	if p.useWebsiteEndpoint {
		return fmt.Sprintf("https://%s.s3-website-%s.amazonaws.com/%s/index.html", p.bucket, p.region, siteID)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s/index.html", p.bucket, p.region, siteID)
}

// EmbedCode builds an iframe snippet for embedding a deployed dashboard.
func (p *Publisher) EmbedCode(dashboardURL string, opts EmbedOptions) string {
	width := opts.Width
	if width == "" {
		width = DefaultEmbedWidth
	}
	height := opts.Height
	if height == "" {
		height = DefaultEmbedHeight
	}
	frameBorder := opts.FrameBorder
	if frameBorder == "" {
		frameBorder = "0"
	}

	code := fmt.Sprintf(`<iframe src="%s" width="%s" height="%s" frameborder="%s"`, dashboardURL, width, height, frameBorder)
	if !opts.NoFullscreen {
		code += " allowfullscreen"
	}
	return code + "></iframe>"
}

// ListDashboards enumerates deployed site prefixes. Creation timestamps come
// from each site's index.html; sites whose index cannot be read report "N/A".
func (p *Publisher) ListDashboards(ctx context.Context) ([]Dashboard, error) {
	out, err := p.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:    aws.String(p.bucket),
		Delimiter: aws.String("/"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list dashboards: %w", err)
	}

	dashboards := make([]Dashboard, 0, len(out.CommonPrefixes))
	for _, prefix := range out.CommonPrefixes {
		if prefix.Prefix == nil {
			continue
		}
		siteID := strings.TrimSuffix(*prefix.Prefix, "/")

		created := "N/A"
		head, err := p.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(p.bucket),
			Key:    aws.String(siteID + "/index.html"),
		})
		if err == nil && head.LastModified != nil {
			created = head.LastModified.UTC().Format(timestampLayout)
		}

		dashboards = append(dashboards, Dashboard{
			SiteID:  siteID,
			URL:     p.SiteURL(siteID),
			Created: created,
		})
	}

	return dashboards, nil
}

// CheckAvailability verifies the configured bucket is reachable.
func (p *Publisher) CheckAvailability(ctx context.Context) error {
	_, err := p.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(p.bucket)})
	if err != nil {
		return fmt.Errorf("bucket %s is not reachable: %w", p.bucket, err)
	}
	return nil
}

// ensureWebsiteHosting applies the static website configuration.
func (p *Publisher) ensureWebsiteHosting(ctx context.Context) error {
	_, err := p.client.PutBucketWebsite(ctx, &s3.PutBucketWebsiteInput{
		Bucket: aws.String(p.bucket),
		WebsiteConfiguration: &s3types.WebsiteConfiguration{
			IndexDocument: &s3types.IndexDocument{Suffix: aws.String("index.html")},
			ErrorDocument: &s3types.ErrorDocument{Key: aws.String("error.html")},
		},
	})
	if err != nil && errorCode(err) != "NoSuchWebsiteConfiguration" {
		return fmt.Errorf("failed to configure website hosting: %w", err)
	}
	return nil
}

// ensurePublicReadPolicy applies the public-read bucket policy. Buckets that
// refuse policy writes are logged and left as-is; public access on those is
// an operator concern.
func (p *Publisher) ensurePublicReadPolicy(ctx context.Context) error {
	policy := fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Sid":"PublicReadGetObject","Effect":"Allow","Principal":"*","Action":"s3:GetObject","Resource":"arn:aws:s3:::%s/*"}]}`, p.bucket)

	_, err := p.client.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
		Bucket: aws.String(p.bucket),
		Policy: aws.String(policy),
	})
	if err != nil {
		switch errorCode(err) {
		case "NoSuchBucketPolicy", "AccessDenied":
			p.logf("Could not set bucket policy on %s (%s): ensure the bucket has public read access configured", p.bucket, errorCode(err))
			return nil
		}
		return fmt.Errorf("failed to configure bucket policy: %w", err)
	}

	p.logf("Bucket policy configured for public read access on %s", p.bucket)
	return nil
}

// SiteID builds the site prefix for a dashboard deployment.
func SiteID(name string, ts time.Time) string {
	return fmt.Sprintf("%s_%s", name, ts.UTC().Format("20060102_150405"))
}

// FallbackSiteID builds the site prefix for a raw-data fallback deployment.
func FallbackSiteID(name string, ts time.Time) string {
	return SiteID(name, ts) + "_fallback"
}

// contentTypes maps file extensions to upload content types.
var contentTypes = map[string]string{
	".html": "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
	".json": "application/json",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",
	".txt":  "text/plain",
	".pdf":  "application/pdf",
}

func contentTypeFor(path string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// errorCode extracts the AWS error code, or "" for non-API errors.
func errorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

func (p *Publisher) logf(format string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Infof(format, args...)
	}
}
