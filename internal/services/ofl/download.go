package ofl

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

// OFLZipballURL is the URL to download the latest OFL repository as a zipball.
const OFLZipballURL = "https://api.github.com/repos/OpenLightingProject/open-fixture-library/zipball/master"

var downloadClient = &http.Client{Timeout: 5 * time.Minute}

// Download fetches the latest OFL repository zipball into destPath. The
// downloaded file is suitable for ConvertArchive.
func Download(ctx context.Context, destPath string) error {
	return downloadFrom(ctx, OFLZipballURL, destPath)
}

func downloadFrom(ctx context.Context, url, destPath string) error {
	log.Println("📥 Downloading Open Fixture Library from GitHub...")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "GDTF-Builder-Go")

	resp, err := downloadClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	written, err := io.Copy(out, resp.Body)
	if err != nil {
		return err
	}

	log.Printf("📥 Downloaded %.2f MB", float64(written)/(1024*1024))
	return nil
}
