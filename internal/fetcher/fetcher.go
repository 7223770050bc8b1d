package fetcher

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/open-edge-platform/sysroot-bootstrapper/internal/logger"
)

var client = newClient()

// LocalPath maps a URL to its download location under scratchRoot:
// scratchRoot/<host>/<path>. The same URL always lands in the same
// place, so later stages can recompute it.
func LocalPath(rawURL, scratchRoot string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing URL %s: %v", rawURL, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("URL %s has no host", rawURL)
	}
	return filepath.Join(scratchRoot, u.Host, filepath.FromSlash(u.Path)), nil
}

// Fetch downloads a single URL into the scratch tree and returns the
// local path. Redirects are followed; any non-2xx status is an error.
// There is no retry policy: transport transients surface verbatim.
func Fetch(rawURL, scratchRoot string) (string, error) {
	log := logger.Logger()

	dest, err := LocalPath(rawURL, scratchRoot)
	if err != nil {
		return "", err
	}

	log.Debugf("fetching %s", rawURL)
	resp, err := client.Get(rawURL)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetching %s: unexpected status %s", rawURL, resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", fmt.Errorf("creating %s: %w", filepath.Dir(dest), err)
	}

	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return "", fmt.Errorf("writing %s: %w", filepath.Base(dest), err)
	}

	return dest, nil
}

// FetchAll downloads the given URLs into the scratch tree using a pool
// of workers, tracking completion with a single progress bar. The first
// failure fails the whole batch; remaining downloads are drained but
// their results discarded.
func FetchAll(urls []string, scratchRoot string, workers int) error {
	if len(urls) == 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}

	total := len(urls)
	jobs := make(chan string, total)
	errs := make(chan error, total)
	var wg sync.WaitGroup

	bar := progressbar.NewOptions(total,
		progressbar.OptionFullWidth(),
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionSetDescription("downloading"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100*time.Millisecond),
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range jobs {
				bar.Describe(fmt.Sprintf("downloading %s", path.Base(u)))
				if _, err := Fetch(u, scratchRoot); err != nil {
					errs <- err
				}
				bar.Add(1)
			}
		}()
	}

	for _, u := range urls {
		jobs <- u
	}
	close(jobs)

	wg.Wait()
	bar.Finish()
	close(errs)

	// Return the first error; the caller treats any failure as fatal.
	for err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
