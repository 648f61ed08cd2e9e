package publish

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Verifier checks the published pages are served by the public endpoint.
type Verifier struct {
	BaseURL  string
	RetryMax int
	WaitMin  time.Duration
	WaitMax  time.Duration
}

// NewVerifier creates a verifier with the default retry policy.
func NewVerifier(baseURL string) *Verifier {
	return &Verifier{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		RetryMax: 5,
		WaitMin:  1 * time.Second,
		WaitMax:  30 * time.Second,
	}
}

func (v *Verifier) client() *http.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = v.RetryMax
	retryClient.RetryWaitMin = v.WaitMin
	retryClient.RetryWaitMax = v.WaitMax
	retryLogger := log.New()
	retryLogger.SetLevel(log.WarnLevel)
	retryClient.Logger = retryLogger
	return retryClient.StandardClient()
}

// Verify requests every HTML object and fails on the first one not served
// with a 2xx status.
func (v *Verifier) Verify(objects []*Object) error {
	client := v.client()
	checked := 0
	for _, obj := range objects {
		if !strings.HasSuffix(obj.Key, ".html") {
			continue
		}
		url := fmt.Sprintf("%s/%s", v.BaseURL, obj.Key)
		req, err := http.NewRequest(http.MethodHead, url, nil)
		if err != nil {
			return errors.Wrapf(err, "error creating request for %s", url)
		}
		resp, err := client.Do(req)
		if err != nil {
			return errors.Wrapf(err, "error sending request to %s", url)
		}
		resp.Body.Close()
		log.Debugf("verify %s: %s", url, resp.Status)
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("page %s not available: %s", url, resp.Status)
		}
		checked += 1
	}
	log.Infof("%d published pages verified at %s", checked, v.BaseURL)
	return nil
}
