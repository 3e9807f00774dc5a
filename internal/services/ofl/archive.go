package ofl

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bbernstein/gdtf-builder-go/pkg/gdtf"
)

const (
	// OFLRepoURL is the GitHub repository URL for the Open Fixture Library
	OFLRepoURL = "https://github.com/OpenLightingProject/open-fixture-library"
	// ManufacturersFile is the name of the manufacturers JSON file
	ManufacturersFile = "manufacturers.json"
)

// Manufacturer represents a manufacturer entry from the OFL manufacturers.json
type Manufacturer struct {
	Name    string `json:"name"`
	Website string `json:"website,omitempty"`
	RDMId   int    `json:"rdmId,omitempty"`
	Comment string `json:"comment,omitempty"`
}

// ConvertedFixture pairs a converted fixture with its origin inside the archive.
type ConvertedFixture struct {
	Manufacturer string // display name from manufacturers.json
	Key          string // manufacturer directory key
	File         string // fixture file name inside the archive
	Fixture      gdtf.Fixture
}

// ArchiveStats summarizes an archive conversion run.
type ArchiveStats struct {
	TotalFixtures int
	Converted     int
	Failed        int
}

// ConvertArchive converts every fixture in an OFL repository zipball. Files
// that fail to parse are counted and skipped, not fatal. Results come back
// sorted by manufacturer key and file name.
func ConvertArchive(ctx context.Context, path string) ([]ConvertedFixture, *ArchiveStats, error) {
	zipReader, err := zip.OpenReader(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open zip: %w", err)
	}
	defer func() { _ = zipReader.Close() }()

	return convertArchive(ctx, &zipReader.Reader)
}

func convertArchive(ctx context.Context, zipReader *zip.Reader) ([]ConvertedFixture, *ArchiveStats, error) {
	manufacturers, err := findAndParseManufacturers(zipReader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse manufacturers: %w", err)
	}
	log.Printf("📋 Found %d manufacturers", len(manufacturers))

	// Find all fixture JSON files
	var fixtureFiles []*zip.File
	for _, f := range zipReader.File {
		// The zipball has a root directory like
		// "OpenLightingProject-open-fixture-library-xxxxxxx/", so fixture
		// files sit at <root>/fixtures/<manufacturer>/<fixture>.json.
		parts := strings.Split(f.Name, "/")
		if len(parts) != 4 {
			continue
		}
		if parts[1] == "fixtures" && strings.HasSuffix(f.Name, ".json") {
			fixtureFiles = append(fixtureFiles, f)
		}
	}
	log.Printf("📋 Found %d fixture files to convert", len(fixtureFiles))

	stats := &ArchiveStats{TotalFixtures: len(fixtureFiles)}

	var (
		successCount int64
		failCount    int64
		wg           sync.WaitGroup
		mu           sync.Mutex
		converted    []ConvertedFixture
	)

	// Use a semaphore to limit concurrency
	sem := make(chan struct{}, 10)

	for _, f := range fixtureFiles {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(file *zip.File) {
			defer wg.Done()

			sem <- struct{}{}        // Acquire
			defer func() { <-sem }() // Release

			// Extract manufacturer key from path
			parts := strings.Split(file.Name, "/")
			manufacturerKey := parts[2]
			fixtureFileName := parts[3]

			// Get manufacturer name
			mfg, ok := manufacturers[manufacturerKey]
			manufacturerName := manufacturerKey
			if ok && mfg.Name != "" {
				manufacturerName = mfg.Name
			}

			// Read fixture JSON
			rc, err := file.Open()
			if err != nil {
				log.Printf("⚠️  Failed to open %s: %v", fixtureFileName, err)
				atomic.AddInt64(&failCount, 1)
				return
			}
			defer func() { _ = rc.Close() }()

			data, err := io.ReadAll(rc)
			if err != nil {
				log.Printf("⚠️  Failed to read %s: %v", fixtureFileName, err)
				atomic.AddInt64(&failCount, 1)
				return
			}

			// Convert the fixture
			fixture, err := Convert(manufacturerName, data)
			if err != nil {
				// Log errors but don't spam
				if atomic.LoadInt64(&failCount) < 10 {
					log.Printf("⚠️  Failed to convert %s/%s: %v", manufacturerName, fixtureFileName, err)
				}
				atomic.AddInt64(&failCount, 1)
				return
			}

			mu.Lock()
			converted = append(converted, ConvertedFixture{
				Manufacturer: manufacturerName,
				Key:          manufacturerKey,
				File:         fixtureFileName,
				Fixture:      fixture,
			})
			mu.Unlock()

			current := atomic.AddInt64(&successCount, 1)
			if current%100 == 0 {
				log.Printf("✅ Converted %d fixtures...", current)
			}
		}(f)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	stats.Converted = int(successCount)
	stats.Failed = int(failCount)

	sort.Slice(converted, func(i, j int) bool {
		if converted[i].Key != converted[j].Key {
			return converted[i].Key < converted[j].Key
		}
		return converted[i].File < converted[j].File
	})

	log.Printf("✅ OFL conversion complete: %d converted, %d failed, %d total",
		stats.Converted, stats.Failed, stats.TotalFixtures)

	return converted, stats, nil
}

// findAndParseManufacturers finds and parses the manufacturers.json file from the zip
func findAndParseManufacturers(zipReader *zip.Reader) (map[string]Manufacturer, error) {
	for _, f := range zipReader.File {
		if strings.HasSuffix(f.Name, "fixtures/"+ManufacturersFile) {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer func() { _ = rc.Close() }()

			data, err := io.ReadAll(rc)
			if err != nil {
				return nil, err
			}

			// First, unmarshal into a generic map to handle mixed value types
			// (the OFL manufacturers.json has a "$schema" key with a string value)
			var rawManufacturers map[string]json.RawMessage
			if err := json.Unmarshal(data, &rawManufacturers); err != nil {
				return nil, err
			}

			manufacturers := make(map[string]Manufacturer)
			for key, raw := range rawManufacturers {
				// Skip special keys like $schema
				if strings.HasPrefix(key, "$") {
					continue
				}

				var mfg Manufacturer
				if err := json.Unmarshal(raw, &mfg); err != nil {
					// If it's not a valid manufacturer object, skip it
					log.Printf("⚠️  Skipping invalid manufacturer entry: %s", key)
					continue
				}
				manufacturers[key] = mfg
			}

			return manufacturers, nil
		}
	}

	return nil, fmt.Errorf("manufacturers.json not found in archive")
}
