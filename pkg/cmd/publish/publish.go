package publish

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	pub "github.com/apicurio/workflow-results/internal/publish"
)

const (
	defaultBucketRegion = "us-east-1"
)

type Input struct {
	dir    string
	prefix string
	dryRun bool
	verify bool
}

var iInput Input

func NewCmdPublish() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "publish <results-root>",
		Example: "wfr publish results/ --bucket-name qe-dashboard --key-prefix registry",
		Short:   "Publish the generated dashboard pages to the results storage.",
		Long: `Upload index.html, index.json, trends.html and every run summary.json/index.html
under the results root to the S3 bucket, optionally expiring the CloudFront cache.
Settings are read from flags, the config file or WFR_* environment variables.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			iInput.dir = args[0]
			return publishResults(&iInput)
		},
	}

	cmd.Flags().String("bucket-name", "", "S3 bucket name.")
	cmd.Flags().String("bucket-region", defaultBucketRegion, "S3 bucket region.")
	cmd.Flags().String("cloudfront-distribution-id", "", "CloudFront distribution to invalidate after the upload.")
	cmd.Flags().String("public-base-url", "", "Public URL serving the bucket, used by --verify.")
	for _, flag := range []string{"bucket-name", "bucket-region", "cloudfront-distribution-id", "public-base-url"} {
		if err := viper.BindPFlag(flag, cmd.Flags().Lookup(flag)); err != nil {
			log.Warnf("Unable to bind flag %s\n", flag)
		}
	}
	cmd.Flags().StringVarP(&iInput.prefix, "key-prefix", "k", "", "Object key prefix of the published files.")
	cmd.Flags().BoolVar(&iInput.dryRun, "dry-run", false, "Show the files to publish without uploading them.")
	cmd.Flags().BoolVar(&iInput.verify, "verify", false, "Check the published pages are served by the public base URL.")

	return cmd
}

func publishResults(input *Input) error {
	fi, err := os.Stat(input.dir)
	if err != nil {
		return errors.Wrap(err, "invalid results root")
	}
	if !fi.IsDir() {
		return fmt.Errorf("results root %s is not a directory", input.dir)
	}

	cfg := &pub.Config{
		BucketName:     viper.GetString("bucket-name"),
		BucketRegion:   viper.GetString("bucket-region"),
		DistributionID: viper.GetString("cloudfront-distribution-id"),
		BaseURL:        viper.GetString("public-base-url"),
		KeyPrefix:      input.prefix,
		DryRun:         input.dryRun,
	}
	if input.verify && cfg.BaseURL == "" {
		return fmt.Errorf("--verify requires --public-base-url")
	}

	log.Info("Publishing the results to storage...")
	publisher, err := pub.NewPublisher(cfg)
	if err != nil {
		return err
	}
	objects, err := publisher.Publish(input.dir)
	if err != nil {
		return err
	}
	publisher.Invalidate(objects)

	if input.verify && !input.dryRun {
		if err := pub.NewVerifier(cfg.BaseURL).Verify(objects); err != nil {
			return errors.Wrap(err, "published pages verification failed")
		}
	}
	return nil
}
