package gdtf

import (
	"archive/zip"
	"bytes"
	"fmt"
)

// DescriptionFileName is the single entry inside a .gdtf package.
const DescriptionFileName = "description.xml"

// Package wraps description.xml content in a .gdtf container: a ZIP archive
// holding exactly one stored entry. The entry must stay uncompressed; MA3,
// Vectorworks and Capture all reject deflated descriptions.
func Package(xmlContent string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	entry, err := zw.CreateHeader(&zip.FileHeader{
		Name:   DescriptionFileName,
		Method: zip.Store,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s entry: %w", DescriptionFileName, err)
	}
	if _, err := entry.Write([]byte(xmlContent)); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", DescriptionFileName, err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize package: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadDescription extracts description.xml from .gdtf package bytes. It is
// the inverse of Package and tolerates archives with extra entries, as
// long as a description.xml is present.
func ReadDescription(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open package: %w", err)
	}
	for _, f := range zr.File {
		if f.Name != DescriptionFileName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open %s: %w", DescriptionFileName, err)
		}
		defer rc.Close()
		var out bytes.Buffer
		if _, err := out.ReadFrom(rc); err != nil {
			return "", fmt.Errorf("failed to read %s: %w", DescriptionFileName, err)
		}
		return out.String(), nil
	}
	return "", fmt.Errorf("package has no %s entry", DescriptionFileName)
}
