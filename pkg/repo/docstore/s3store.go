package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/ksysoev/omnidex-crawl/pkg/core"
)

// s3Object is the document envelope stored as a single JSON object per URL,
// keyed "{domain}/{urlHash}.json" under the bucket's prefix.
type s3Object struct {
	URL        string `json:"url"`
	Domain     string `json:"domain"`
	Title      string `json:"title"`
	Breadcrumb string `json:"breadcrumb"`
	Body       string `json:"body"`
	UpdatedAt  int64  `json:"updated_at"`
}

// s3API is the subset of the S3 client this store uses, narrowed for
// testability against gofakes3.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Store implements the documents collection on top of an S3-compatible
// object store, giving the reference stack's otherwise-unconsumed AWS SDK
// dependency a concrete home (see DESIGN.md).
type S3Store struct {
	client s3API
	bucket string
	prefix string
}

// NewS3Store builds an S3Store against an existing bucket. prefix may be
// empty to store objects at the bucket root.
func NewS3Store(client s3API, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (s *S3Store) key(domain, hash string) string {
	if s.prefix == "" {
		return fmt.Sprintf("%s/%s.json", domain, hash)
	}

	return fmt.Sprintf("%s/%s/%s.json", s.prefix, domain, hash)
}

// Upsert writes the document as a single JSON object.
func (s *S3Store) Upsert(ctx context.Context, doc core.Document) error {
	obj := s3Object{
		URL:        doc.URL,
		Domain:     doc.Domain,
		Title:      doc.Title,
		Breadcrumb: doc.Breadcrumb,
		Body:       doc.Body,
		UpdatedAt:  doc.UpdatedAt.Unix(),
	}

	data, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(doc.Domain, urlHash(doc.URL))),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("put document object: %w", err)
	}

	return nil
}

// Exists reports whether a document for url is present, scanning every
// domain prefix since S3 keys carry the domain but Exists only receives the
// URL.
func (s *S3Store) Exists(ctx context.Context, rawURL string) (bool, error) {
	_, err := s.Get(ctx, rawURL)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

// Get retrieves a document by URL.
func (s *S3Store) Get(ctx context.Context, rawURL string) (*core.Document, error) {
	hash := urlHash(rawURL)

	prefix := s.prefix
	if prefix != "" {
		prefix += "/"
	}

	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("list document objects: %w", err)
	}

	for _, obj := range out.Contents {
		if obj.Key != nil && strings.HasSuffix(*obj.Key, hash+".json") {
			return s.getByKey(ctx, *obj.Key)
		}
	}

	return nil, ErrNotFound
}

func (s *S3Store) getByKey(ctx context.Context, key string) (*core.Document, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *smithy.GenericAPIError
		if errors.As(err, &nsk) && (nsk.Code == "NoSuchKey" || nsk.Code == "NotFound") {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("get document object: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read document object: %w", err)
	}

	var obj s3Object
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("unmarshal document object: %w", err)
	}

	return &core.Document{
		URL:        obj.URL,
		Domain:     obj.Domain,
		Title:      obj.Title,
		Breadcrumb: obj.Breadcrumb,
		Body:       obj.Body,
	}, nil
}

// Delete removes the document object for url, if present.
func (s *S3Store) Delete(ctx context.Context, rawURL string) error {
	hash := urlHash(rawURL)

	prefix := s.prefix
	if prefix != "" {
		prefix += "/"
	}

	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return fmt.Errorf("list document objects: %w", err)
	}

	for _, obj := range out.Contents {
		if obj.Key != nil && strings.HasSuffix(*obj.Key, hash+".json") {
			_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(s.bucket),
				Key:    obj.Key,
			})
			if err != nil {
				return fmt.Errorf("delete document object: %w", err)
			}

			return nil
		}
	}

	return nil
}

// DeleteDomain removes every document object under a domain's prefix.
func (s *S3Store) DeleteDomain(ctx context.Context, domain string) error {
	prefix := domain + "/"
	if s.prefix != "" {
		prefix = s.prefix + "/" + prefix
	}

	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return fmt.Errorf("list domain objects: %w", err)
	}

	for _, obj := range out.Contents {
		if obj.Key == nil {
			continue
		}

		if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    obj.Key,
		}); err != nil {
			return fmt.Errorf("delete domain object %s: %w", *obj.Key, err)
		}
	}

	return nil
}

// List returns metadata for documents, optionally scoped to a single domain,
// paginating through ListObjectsV2 results.
func (s *S3Store) List(ctx context.Context, domain string) ([]core.DocumentMeta, error) {
	prefix := s.prefix
	if prefix != "" {
		prefix += "/"
	}

	if domain != "" {
		prefix += domain + "/"
	}

	var metas []core.DocumentMeta

	var token *string

	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("list document objects: %w", err)
		}

		for _, obj := range out.Contents {
			if obj.Key == nil {
				continue
			}

			doc, err := s.getByKey(ctx, *obj.Key)
			if err != nil {
				continue
			}

			metas = append(metas, core.DocumentMeta{
				URL:        doc.URL,
				Title:      doc.Title,
				Breadcrumb: doc.Breadcrumb,
				Domain:     doc.Domain,
			})
		}

		if out.IsTruncated == nil || !*out.IsTruncated {
			break
		}

		token = out.NextContinuationToken
	}

	sort.Slice(metas, func(i, j int) bool { return metas[i].URL < metas[j].URL })

	return metas, nil
}
