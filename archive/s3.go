// Package archive writes durable JSON records of enhanced documents to
// object storage.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"articleforge/config"
	"articleforge/types"
)

// ObjectStore is the narrow surface of the S3 client this package needs,
// kept small so tests can substitute a fake.
type ObjectStore interface {
	Put(ctx context.Context, bucket, key string, body io.Reader, contentType string) error
}

// S3Store wraps the AWS SDK for Go v2 S3 client behind ObjectStore.
type S3Store struct {
	client *s3.Client
}

// S3Config holds optional overrides; empty values fall back to the
// standard AWS config/credential chain.
type S3Config struct {
	Region       string
	Profile      string
	UsePathStyle bool
}

// NewS3Store creates an S3Store from the default AWS configuration
// chain with the given overrides.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})
	return &S3Store{client: client}, nil
}

// Put uploads an object to the given bucket/key.
func (s *S3Store) Put(ctx context.Context, bucket, key string, body io.Reader, contentType string) error {
	in := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	_, err := s.client.PutObject(ctx, in)
	return err
}

// Archiver serializes documents and writes them under
// <prefix>documents/<id>.json.
type Archiver struct {
	store  ObjectStore
	bucket string
	prefix string
	logger *slog.Logger
}

// NewArchiver creates an Archiver over the given object store.
func NewArchiver(store ObjectStore, bucket, prefix string, logger *slog.Logger) *Archiver {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Archiver{
		store:  store,
		bucket: bucket,
		prefix: prefix,
		logger: logger.With("component", "archive"),
	}
}

// NewArchiverFromEnv builds an Archiver from S3_BUCKET, S3_REGION,
// S3_PROFILE, S3_PREFIX and S3_USE_PATH_STYLE. Returns (nil, nil) when
// S3_BUCKET is unset so the caller can run without archiving.
func NewArchiverFromEnv(ctx context.Context, logger *slog.Logger) (*Archiver, error) {
	bucket := strings.TrimSpace(config.EnvOrDefault("S3_BUCKET", ""))
	if bucket == "" {
		return nil, nil
	}

	store, err := NewS3Store(ctx, S3Config{
		Region:       strings.TrimSpace(config.EnvOrDefault("S3_REGION", "")),
		Profile:      strings.TrimSpace(config.EnvOrDefault("S3_PROFILE", "")),
		UsePathStyle: strings.EqualFold(config.EnvOrDefault("S3_USE_PATH_STYLE", ""), "true"),
	})
	if err != nil {
		return nil, err
	}
	return NewArchiver(store, bucket, config.EnvOrDefault("S3_PREFIX", ""), logger), nil
}

// record is the archived payload. Reference bodies are dropped; they
// can be large and are reproducible from the acquired URLs.
type record struct {
	ID            string           `json:"id"`
	OriginalTitle string           `json:"original_title"`
	OriginalURL   string           `json:"original_url"`
	UpdatedTitle  string           `json:"updated_title"`
	UpdatedBody   string           `json:"updated_body"`
	Status        types.Status     `json:"status"`
	ProviderUsed  string           `json:"provider_used"`
	References    []archivedRef    `json:"references"`
	WordCount     types.WordCount  `json:"word_count"`
	ProcessingLog []types.LogEntry `json:"processing_log"`
	ArchivedAt    time.Time        `json:"archived_at"`
}

type archivedRef struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Domain string `json:"domain"`
}

// Archive writes the document's enhanced record to object storage.
func (a *Archiver) Archive(ctx context.Context, doc *types.Document) error {
	refs := make([]archivedRef, 0, len(doc.AcquiredReferences))
	for _, r := range doc.AcquiredReferences {
		refs = append(refs, archivedRef{Title: r.Title, URL: r.URL, Domain: r.Domain})
	}

	payload, err := json.MarshalIndent(record{
		ID:            doc.ID,
		OriginalTitle: doc.OriginalTitle,
		OriginalURL:   doc.OriginalURL,
		UpdatedTitle:  doc.UpdatedTitle,
		UpdatedBody:   doc.UpdatedBody,
		Status:        doc.Status,
		ProviderUsed:  doc.ProviderUsed,
		References:    refs,
		WordCount:     doc.WordCount,
		ProcessingLog: doc.ProcessingLog,
		ArchivedAt:    time.Now(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal archive record: %w", err)
	}

	key := a.prefix + "documents/" + doc.ID + ".json"
	if err := a.store.Put(ctx, a.bucket, key, bytes.NewReader(payload), "application/json"); err != nil {
		return fmt.Errorf("upload archive record: %w", err)
	}

	a.logger.Debug("document archived", "document_id", doc.ID, "key", key)
	return nil
}
