// Package publish uploads the generated dashboard pages to the results
// storage, an S3 bucket optionally served by a CloudFront distribution.
package publish

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudfront"
	"github.com/aws/aws-sdk-go/service/cloudfront/cloudfrontiface"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/apicurio/workflow-results/internal/workflow"
)

// maxInvalidationPaths is the number of paths above which a single
// wildcard invalidation is sent.
const maxInvalidationPaths = 15

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeJSON = "application/json"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// rootFiles are the generated files of the results root.
var rootFiles = map[string]string{
	"index.html":  contentTypeHTML,
	"index.json":  contentTypeJSON,
	"trends.html": contentTypeHTML,
}

// runFiles are the generated files of each run directory. Artifacts under
// the job directories are never published.
var runFiles = map[string]string{
	"index.html":          contentTypeHTML,
	"summary.json":        contentTypeJSON,
	"failures-index.xlsx": contentTypeXLSX,
}

// Config holds the storage settings of the publish command.
type Config struct {
	BucketName     string
	BucketRegion   string
	DistributionID string
	KeyPrefix      string
	BaseURL        string
	DryRun         bool
}

// Object is a local file and the key it is published to.
type Object struct {
	Path        string
	Key         string
	ContentType string
}

// Publisher uploads objects to the bucket.
type Publisher struct {
	cfg        *Config
	svc        s3iface.S3API
	uploader   s3manageriface.UploaderAPI
	cloudfront cloudfrontiface.CloudFrontAPI
}

// NewPublisher creates the AWS clients and checks the bucket exists. In
// dry-run mode no client is created.
func NewPublisher(cfg *Config) (*Publisher, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("missing bucket name")
	}
	p := &Publisher{cfg: cfg}
	if cfg.DryRun {
		return p, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.BucketRegion),
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to create AWS session")
	}
	p.svc = s3.New(sess)
	p.uploader = s3manager.NewUploader(sess)
	if cfg.DistributionID != "" {
		p.cloudfront = cloudfront.New(sess)
	}

	if err := p.checkBucketExists(); err != nil {
		return nil, err
	}
	return p, nil
}

// checkBucketExists checks if the bucket exists in the S3 storage.
func (p *Publisher) checkBucketExists() error {
	_, err := p.svc.HeadBucket(&s3.HeadBucketInput{
		Bucket: aws.String(p.cfg.BucketName),
	})
	if err != nil {
		return errors.Wrapf(err, "failed to check if bucket %s exists", p.cfg.BucketName)
	}
	return nil
}

// CollectObjects lists the generated files of the results root dir and of
// its run directories, sorted by key.
func CollectObjects(dir, prefix string) ([]*Object, error) {
	prefix = strings.Trim(prefix, "/")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to list %s", dir)
	}

	objects := []*Object{}
	add := func(rel, contentType string) {
		objects = append(objects, &Object{
			Path:        filepath.Join(dir, filepath.FromSlash(rel)),
			Key:         path.Join(prefix, rel),
			ContentType: contentType,
		})
	}
	isFile := func(p string) bool {
		fi, err := os.Stat(p)
		return err == nil && fi.Mode().IsRegular()
	}

	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() {
			if ct, ok := rootFiles[name]; ok && entry.Type().IsRegular() {
				add(name, ct)
			}
			continue
		}
		if _, ok := workflow.ParseRunName(name); !ok {
			continue
		}
		for file, ct := range runFiles {
			if isFile(filepath.Join(dir, name, file)) {
				add(name+"/"+file, ct)
			}
		}
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

// Publish uploads the generated files under dir and returns them.
func (p *Publisher) Publish(dir string) ([]*Object, error) {
	objects, err := CollectObjects(dir, p.cfg.KeyPrefix)
	if err != nil {
		return nil, err
	}
	if len(objects) == 0 {
		return nil, fmt.Errorf("no generated pages found under %s", dir)
	}
	for _, obj := range objects {
		if err := p.upload(obj); err != nil {
			return nil, err
		}
	}
	log.Infof("%d files published to s3://%s/%s", len(objects), p.cfg.BucketName, strings.Trim(p.cfg.KeyPrefix, "/"))
	return objects, nil
}

func (p *Publisher) upload(obj *Object) error {
	s3ObjectURI := "s3://" + p.cfg.BucketName + "/" + obj.Key
	if p.cfg.DryRun {
		log.Warnf("DRY-RUN mode: skipping upload of %s to %s", obj.Path, s3ObjectURI)
		return nil
	}

	log.Debugf("uploading %s to %s", obj.Path, s3ObjectURI)
	fd, err := os.Open(obj.Path)
	if err != nil {
		return errors.Wrapf(err, "failed to open file %s", obj.Path)
	}
	defer fd.Close()

	_, err = p.uploader.Upload(&s3manager.UploadInput{
		Bucket:      aws.String(p.cfg.BucketName),
		Key:         aws.String(obj.Key),
		ContentType: aws.String(obj.ContentType),
		Body:        fd,
	})
	if err != nil {
		return errors.Wrapf(err, "failed to upload file %s to bucket %s", obj.Path, p.cfg.BucketName)
	}
	return nil
}

// InvalidationPaths returns the CloudFront paths to expire for the objects.
func InvalidationPaths(objects []*Object, prefix string) []string {
	if len(objects) > maxInvalidationPaths {
		prefix = strings.Trim(prefix, "/")
		if prefix == "" {
			return []string{"/*"}
		}
		return []string{"/" + prefix + "/*"}
	}
	paths := make([]string, 0, len(objects))
	for _, obj := range objects {
		paths = append(paths, "/"+obj.Key)
	}
	return paths
}

// Invalidate expires the cached objects from the CloudFront distribution.
// A failure is logged with the equivalent aws CLI command.
func (p *Publisher) Invalidate(objects []*Object) {
	if p.cfg.DistributionID == "" {
		return
	}
	paths := InvalidationPaths(objects, p.cfg.KeyPrefix)
	if p.cfg.DryRun || p.cloudfront == nil {
		log.Warnf("DRY-RUN mode: skipping cache invalidation of %s", strings.Join(paths, " "))
		return
	}

	log.Infof("Creating cache invalidation for %v", strings.Join(paths, " "))
	_, err := p.cloudfront.CreateInvalidation(&cloudfront.CreateInvalidationInput{
		DistributionId: aws.String(p.cfg.DistributionID),
		InvalidationBatch: &cloudfront.InvalidationBatch{
			CallerReference: aws.String(time.Now().Format(time.RFC3339Nano)),
			Paths: &cloudfront.Paths{
				Quantity: aws.Int64(int64(len(paths))),
				Items:    aws.StringSlice(paths),
			},
		},
	})
	if err != nil {
		log.Warnf("failed to create cache invalidation: %v", err)
		log.Warnf("Run the following command to invalidate the cache: aws cloudfront create-invalidation --distribution-id %s --paths %s",
			p.cfg.DistributionID, strings.Join(paths, " "))
	}
}
