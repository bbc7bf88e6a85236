package publisher

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// fakeS3 records inputs and replays scripted outputs for the operations the
// publisher issues.
type fakeS3 struct {
	puts         []*s3.PutObjectInput
	websiteInput *s3.PutBucketWebsiteInput
	policyInput  *s3.PutBucketPolicyInput
	listInput    *s3.ListObjectsV2Input

	putErr        error
	websiteErr    error
	policyErr     error
	listErr       error
	headBucketErr error

	listOutput *s3.ListObjectsV2Output
	headTimes  map[string]time.Time
	headErrs   map[string]error
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.puts = append(f.puts, params)
	if f.putErr != nil {
		return nil, f.putErr
	}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) PutBucketWebsite(_ context.Context, params *s3.PutBucketWebsiteInput, _ ...func(*s3.Options)) (*s3.PutBucketWebsiteOutput, error) {
	f.websiteInput = params
	if f.websiteErr != nil {
		return nil, f.websiteErr
	}
	return &s3.PutBucketWebsiteOutput{}, nil
}

func (f *fakeS3) PutBucketPolicy(_ context.Context, params *s3.PutBucketPolicyInput, _ ...func(*s3.Options)) (*s3.PutBucketPolicyOutput, error) {
	f.policyInput = params
	if f.policyErr != nil {
		return nil, f.policyErr
	}
	return &s3.PutBucketPolicyOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.listInput = params
	if f.listErr != nil {
		return nil, f.listErr
	}
	if f.listOutput != nil {
		return f.listOutput, nil
	}
	return &s3.ListObjectsV2Output{}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, params *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	key := aws.ToString(params.Key)
	if err, ok := f.headErrs[key]; ok {
		return nil, err
	}
	if ts, ok := f.headTimes[key]; ok {
		return &s3.HeadObjectOutput{LastModified: aws.Time(ts)}, nil
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) HeadBucket(_ context.Context, _ *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if f.headBucketErr != nil {
		return nil, f.headBucketErr
	}
	return &s3.HeadBucketOutput{}, nil
}

func newTestPublisher(fake *fakeS3) *Publisher {
	return &Publisher{
		client:             fake,
		bucket:             "qbridge-dashboards",
		region:             "us-east-1",
		useWebsiteEndpoint: true,
	}
}

// putByKey finds the recorded upload for a key and returns its content type
// and body.
func putByKey(t *testing.T, fake *fakeS3, key string) (string, string) {
	t.Helper()
	for _, put := range fake.puts {
		if aws.ToString(put.Key) != key {
			continue
		}
		body, err := io.ReadAll(put.Body)
		if err != nil {
			t.Fatalf("failed to read body for %s: %v", key, err)
		}
		return aws.ToString(put.ContentType), string(body)
	}
	t.Fatalf("no upload recorded for key %q, have %d uploads", key, len(fake.puts))
	return "", ""
}

func TestUploadStaticSiteDeploysAllFiles(t *testing.T) {
	fake := &fakeS3{}
	p := newTestPublisher(fake)

	url, err := p.UploadStaticSite(context.Background(), "<html><body>dashboard</body></html>", "costAnalysis_20240101_120000", map[string]string{
		"styles.css": "body { margin: 0 }",
		"data.json":  `{"rows": 1}`,
	})
	if err != nil {
		t.Fatalf("UploadStaticSite failed: %v", err)
	}

	t.Run("uploads index and extras with content types", func(t *testing.T) {
		if len(fake.puts) != 3 {
			t.Fatalf("Expected 3 uploads, got %d", len(fake.puts))
		}
		ct, body := putByKey(t, fake, "costAnalysis_20240101_120000/index.html")
		if ct != "text/html" {
			t.Errorf("Expected text/html for index, got %q", ct)
		}
		if body != "<html><body>dashboard</body></html>" {
			t.Errorf("Unexpected index body: %q", body)
		}
		if ct, _ := putByKey(t, fake, "costAnalysis_20240101_120000/styles.css"); ct != "text/css" {
			t.Errorf("Expected text/css for stylesheet, got %q", ct)
		}
		if ct, _ := putByKey(t, fake, "costAnalysis_20240101_120000/data.json"); ct != "application/json" {
			t.Errorf("Expected application/json for data file, got %q", ct)
		}
	})

	t.Run("configures website hosting", func(t *testing.T) {
		if fake.websiteInput == nil {
			t.Fatal("Expected a website configuration call")
		}
		cfg := fake.websiteInput.WebsiteConfiguration
		if got := aws.ToString(cfg.IndexDocument.Suffix); got != "index.html" {
			t.Errorf("Expected index.html suffix, got %q", got)
		}
		if got := aws.ToString(cfg.ErrorDocument.Key); got != "error.html" {
			t.Errorf("Expected error.html key, got %q", got)
		}
	})

	t.Run("applies the public read policy", func(t *testing.T) {
		if fake.policyInput == nil {
			t.Fatal("Expected a bucket policy call")
		}
		policy := aws.ToString(fake.policyInput.Policy)
		if !strings.Contains(policy, `"Sid":"PublicReadGetObject"`) {
			t.Errorf("Expected public read statement, got %q", policy)
		}
		if !strings.Contains(policy, "arn:aws:s3:::qbridge-dashboards/*") {
			t.Errorf("Expected bucket ARN in policy, got %q", policy)
		}
	})

	t.Run("returns the website endpoint URL", func(t *testing.T) {
		want := "https://qbridge-dashboards.s3-website-us-east-1.amazonaws.com/costAnalysis_20240101_120000/index.html"
		if url != want {
			t.Errorf("Expected %q, got %q", want, url)
		}
	})
}

func TestUploadStaticSiteStandardEndpoint(t *testing.T) {
	fake := &fakeS3{}
	p := newTestPublisher(fake)
	p.useWebsiteEndpoint = false

	url, err := p.UploadStaticSite(context.Background(), "<html></html>", "weekly_20240301_080000", nil)
	if err != nil {
		t.Fatalf("UploadStaticSite failed: %v", err)
	}
	want := "https://qbridge-dashboards.s3.us-east-1.amazonaws.com/weekly_20240301_080000/index.html"
	if url != want {
		t.Errorf("Expected %q, got %q", want, url)
	}
}

func TestUploadStaticSiteToleratesPolicyRestrictions(t *testing.T) {
	for _, code := range []string{"AccessDenied", "NoSuchBucketPolicy"} {
		t.Run(code, func(t *testing.T) {
			fake := &fakeS3{policyErr: &smithy.GenericAPIError{Code: code, Message: "blocked"}}
			p := newTestPublisher(fake)

			url, err := p.UploadStaticSite(context.Background(), "<html></html>", "site_20240101_000000", nil)
			if err != nil {
				t.Fatalf("Expected policy restriction to be tolerated, got %v", err)
			}
			if url == "" {
				t.Error("Expected a URL despite the policy restriction")
			}
		})
	}
}

func TestUploadStaticSitePolicyFailureSurfaces(t *testing.T) {
	fake := &fakeS3{policyErr: &smithy.GenericAPIError{Code: "MalformedPolicy", Message: "bad json"}}
	p := newTestPublisher(fake)

	_, err := p.UploadStaticSite(context.Background(), "<html></html>", "site_20240101_000000", nil)
	if err == nil {
		t.Fatal("Expected a policy failure to surface")
	}
	if !strings.Contains(err.Error(), "bucket policy") {
		t.Errorf("Expected bucket policy context, got %v", err)
	}
}

func TestUploadStaticSiteWebsiteConfig(t *testing.T) {
	t.Run("tolerates missing website configuration code", func(t *testing.T) {
		fake := &fakeS3{websiteErr: &smithy.GenericAPIError{Code: "NoSuchWebsiteConfiguration"}}
		p := newTestPublisher(fake)

		if _, err := p.UploadStaticSite(context.Background(), "<html></html>", "site_20240101_000000", nil); err != nil {
			t.Fatalf("Expected missing-config code to be tolerated, got %v", err)
		}
	})

	t.Run("surfaces other website failures", func(t *testing.T) {
		fake := &fakeS3{websiteErr: errors.New("connection reset")}
		p := newTestPublisher(fake)

		_, err := p.UploadStaticSite(context.Background(), "<html></html>", "site_20240101_000000", nil)
		if err == nil {
			t.Fatal("Expected a website configuration failure to surface")
		}
		if !strings.Contains(err.Error(), "website hosting") {
			t.Errorf("Expected website hosting context, got %v", err)
		}
	})
}

func TestUploadStaticSiteUploadFailure(t *testing.T) {
	fake := &fakeS3{putErr: errors.New("access denied")}
	p := newTestPublisher(fake)

	_, err := p.UploadStaticSite(context.Background(), "<html></html>", "site_20240101_000000", nil)
	if err == nil {
		t.Fatal("Expected an upload failure to surface")
	}
	if !strings.Contains(err.Error(), "index.html") {
		t.Errorf("Expected the failed file in the error, got %v", err)
	}
}

func TestContentTypeFor(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"index.html", "text/html"},
		{"styles.css", "text/css"},
		{"app.js", "application/javascript"},
		{"data.json", "application/json"},
		{"logo.png", "image/png"},
		{"photo.jpg", "image/jpeg"},
		{"photo.jpeg", "image/jpeg"},
		{"anim.gif", "image/gif"},
		{"icon.svg", "image/svg+xml"},
		{"favicon.ico", "image/x-icon"},
		{"notes.txt", "text/plain"},
		{"report.pdf", "application/pdf"},
		{"assets/LOGO.PNG", "image/png"},
		{"archive.bin", "application/octet-stream"},
		{"README", "application/octet-stream"},
	}
	for _, tt := range tests {
		if got := contentTypeFor(tt.path); got != tt.want {
			t.Errorf("contentTypeFor(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestEmbedCode(t *testing.T) {
	p := newTestPublisher(&fakeS3{})
	url := "https://qbridge-dashboards.s3-website-us-east-1.amazonaws.com/site/index.html"

	t.Run("defaults", func(t *testing.T) {
		want := `<iframe src="` + url + `" width="100%" height="600px" frameborder="0" allowfullscreen></iframe>`
		if got := p.EmbedCode(url, EmbedOptions{}); got != want {
			t.Errorf("Expected %q, got %q", want, got)
		}
	})

	t.Run("custom dimensions", func(t *testing.T) {
		got := p.EmbedCode(url, EmbedOptions{Width: "800px", Height: "400px"})
		if !strings.Contains(got, `width="800px"`) || !strings.Contains(got, `height="400px"`) {
			t.Errorf("Expected custom dimensions, got %q", got)
		}
	})

	t.Run("fullscreen opt-out", func(t *testing.T) {
		got := p.EmbedCode(url, EmbedOptions{NoFullscreen: true})
		if strings.Contains(got, "allowfullscreen") {
			t.Errorf("Expected no allowfullscreen attribute, got %q", got)
		}
	})

	t.Run("custom frame border", func(t *testing.T) {
		got := p.EmbedCode(url, EmbedOptions{FrameBorder: "1"})
		if !strings.Contains(got, `frameborder="1"`) {
			t.Errorf("Expected custom frameborder, got %q", got)
		}
	})
}

func TestSiteID(t *testing.T) {
	ts := time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)
	if got := SiteID("costAnalysis", ts); got != "costAnalysis_20240102_150405" {
		t.Errorf("Unexpected site id: %q", got)
	}
	if got := FallbackSiteID("costAnalysis", ts); got != "costAnalysis_20240102_150405_fallback" {
		t.Errorf("Unexpected fallback site id: %q", got)
	}

	t.Run("normalizes to UTC", func(t *testing.T) {
		east := time.FixedZone("east", 3600)
		local := time.Date(2024, 1, 2, 16, 4, 5, 0, east)
		if got := SiteID("costAnalysis", local); got != "costAnalysis_20240102_150405" {
			t.Errorf("Expected UTC timestamp, got %q", got)
		}
	})
}

func TestListDashboards(t *testing.T) {
	created := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
	fake := &fakeS3{
		listOutput: &s3.ListObjectsV2Output{
			CommonPrefixes: []s3types.CommonPrefix{
				{Prefix: aws.String("costAnalysis_20240301_083000/")},
				{Prefix: aws.String("weekly_20240210_120000/")},
			},
		},
		headTimes: map[string]time.Time{
			"costAnalysis_20240301_083000/index.html": created,
		},
		headErrs: map[string]error{
			"weekly_20240210_120000/index.html": errors.New("not found"),
		},
	}
	p := newTestPublisher(fake)

	dashboards, err := p.ListDashboards(context.Background())
	if err != nil {
		t.Fatalf("ListDashboards failed: %v", err)
	}
	if len(dashboards) != 2 {
		t.Fatalf("Expected 2 dashboards, got %d", len(dashboards))
	}

	if aws.ToString(fake.listInput.Delimiter) != "/" {
		t.Errorf("Expected delimiter listing, got %v", fake.listInput.Delimiter)
	}

	first := dashboards[0]
	if first.SiteID != "costAnalysis_20240301_083000" {
		t.Errorf("Expected trimmed site id, got %q", first.SiteID)
	}
	if first.Created != "2024-03-01 08:30:00 UTC" {
		t.Errorf("Expected formatted creation time, got %q", first.Created)
	}
	if !strings.HasSuffix(first.URL, "/costAnalysis_20240301_083000/index.html") {
		t.Errorf("Expected site URL, got %q", first.URL)
	}

	if dashboards[1].Created != "N/A" {
		t.Errorf("Expected N/A for unreadable index, got %q", dashboards[1].Created)
	}
}

func TestListDashboardsError(t *testing.T) {
	fake := &fakeS3{listErr: errors.New("no such bucket")}
	p := newTestPublisher(fake)

	_, err := p.ListDashboards(context.Background())
	if err == nil {
		t.Fatal("Expected a listing failure to surface")
	}
	if !strings.Contains(err.Error(), "list dashboards") {
		t.Errorf("Expected listing context, got %v", err)
	}
}

func TestCheckAvailability(t *testing.T) {
	if err := newTestPublisher(&fakeS3{}).CheckAvailability(context.Background()); err != nil {
		t.Errorf("Expected reachable bucket, got %v", err)
	}

	fake := &fakeS3{headBucketErr: errors.New("forbidden")}
	err := newTestPublisher(fake).CheckAvailability(context.Background())
	if err == nil {
		t.Fatal("Expected an unreachable bucket to surface")
	}
	if !strings.Contains(err.Error(), "qbridge-dashboards") {
		t.Errorf("Expected bucket name in error, got %v", err)
	}
}
