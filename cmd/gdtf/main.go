// Package main is the gdtf command line tool: it builds .gdtf packages from
// fixture definitions or plain channel lists and converts Open Fixture
// Library documents without running the server.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/akamensky/argparse"

	"github.com/bbernstein/gdtf-builder-go/internal/services/builder"
	"github.com/bbernstein/gdtf-builder-go/internal/services/library"
	"github.com/bbernstein/gdtf-builder-go/internal/services/ofl"
	"github.com/bbernstein/gdtf-builder-go/pkg/gdtf"
)

type buildOptions struct {
	inputPath     string
	channelsPath  string
	name          string
	manufacturer  string
	mode          string
	outputPath    string
	attributesDir string
	printXML      bool
}

type convertOptions struct {
	inputPath     string
	fetch         bool
	manufacturer  string
	outputPath    string
	attributesDir string
}

type attributesOptions struct {
	wheels        bool
	attributesDir string
}

func main() {
	p := argparse.NewParser("gdtf", "Build GDTF 1.1 fixture packages from channel lists")

	buildCmd := p.NewCommand("build", "Build a .gdtf package from a fixture definition")
	buildInput := buildCmd.String("i", "input", &argparse.Options{Required: false, Help: "Fixture definition JSON file"})
	buildChannels := buildCmd.String("c", "channels", &argparse.Options{Required: false, Help: "Plain text channel list, one label per line"})
	buildName := buildCmd.String("n", "name", &argparse.Options{Required: false, Help: "Fixture name"})
	buildManufacturer := buildCmd.String("m", "manufacturer", &argparse.Options{Required: false, Help: "Manufacturer name"})
	buildMode := buildCmd.String("", "mode", &argparse.Options{Required: false, Help: "Mode name for channel list input", Default: "Default"})
	buildOutput := buildCmd.String("o", "output", &argparse.Options{Required: false, Help: "Output file path, defaults to the fixture download name"})
	buildAttrs := buildCmd.String("a", "attributes", &argparse.Options{Required: false, Help: "Directory of attribute overlay YAML files"})
	buildPrintXML := buildCmd.Flag("", "print-xml", &argparse.Options{Required: false, Help: "Print description.xml to stdout instead of writing a package"})

	convertCmd := p.NewCommand("convert", "Convert Open Fixture Library JSON into .gdtf packages")
	convertInput := convertCmd.String("i", "input", &argparse.Options{Required: false, Help: "OFL fixture JSON file, or a repository zipball to convert in bulk"})
	convertFetch := convertCmd.Flag("", "fetch", &argparse.Options{Required: false, Help: "Download the latest OFL repository zipball and convert it"})
	convertManufacturer := convertCmd.String("m", "manufacturer", &argparse.Options{Required: false, Help: "Manufacturer name for single-file conversion"})
	convertOutput := convertCmd.String("o", "output", &argparse.Options{Required: false, Help: "Output file, or output directory for zipball conversion"})
	convertAttrs := convertCmd.String("a", "attributes", &argparse.Options{Required: false, Help: "Directory of attribute overlay YAML files"})

	attrsCmd := p.NewCommand("attributes", "Print the attribute mapping table")
	attrsWheels := attrsCmd.Flag("", "wheels", &argparse.Options{Required: false, Help: "List wheel-capable attributes only"})
	attrsDir := attrsCmd.String("a", "attributes", &argparse.Options{Required: false, Help: "Directory of attribute overlay YAML files"})

	if err := p.Parse(os.Args); err != nil {
		fmt.Print(p.Usage(err))
		os.Exit(1)
	}

	var err error
	switch {
	case buildCmd.Happened():
		err = runBuild(buildOptions{
			inputPath:     *buildInput,
			channelsPath:  *buildChannels,
			name:          *buildName,
			manufacturer:  *buildManufacturer,
			mode:          *buildMode,
			outputPath:    *buildOutput,
			attributesDir: *buildAttrs,
			printXML:      *buildPrintXML,
		})
	case convertCmd.Happened():
		err = runConvert(convertOptions{
			inputPath:     *convertInput,
			fetch:         *convertFetch,
			manufacturer:  *convertManufacturer,
			outputPath:    *convertOutput,
			attributesDir: *convertAttrs,
		})
	case attrsCmd.Happened():
		err = runAttributes(attributesOptions{
			wheels:        *attrsWheels,
			attributesDir: *attrsDir,
		})
	}
	if err != nil {
		log.Fatalf("gdtf: %v", err)
	}
}

func runBuild(opts buildOptions) error {
	fx, err := loadFixture(opts)
	if err != nil {
		return err
	}

	b, err := newBuilder(opts.attributesDir)
	if err != nil {
		return err
	}

	if opts.printXML {
		xmlText, warnings, err := b.BuildXML(fx)
		if err != nil {
			return err
		}
		printWarnings(warnings)
		fmt.Println(xmlText)
		return nil
	}

	data, warnings, err := b.BuildPackage(fx)
	if err != nil {
		return err
	}
	printWarnings(warnings)

	out := opts.outputPath
	if out == "" {
		out = builder.FileName(fx.Name)
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return fmt.Errorf("failed to write package: %w", err)
	}
	fmt.Printf("Wrote %s (%d bytes)\n", out, len(data))
	return nil
}

// loadFixture assembles the fixture from either a JSON definition or a plain
// channel list. Name and manufacturer flags override the file contents.
func loadFixture(opts buildOptions) (gdtf.Fixture, error) {
	var fx gdtf.Fixture

	switch {
	case opts.inputPath != "":
		data, err := os.ReadFile(opts.inputPath)
		if err != nil {
			return fx, fmt.Errorf("failed to read fixture file: %w", err)
		}
		if err := json.Unmarshal(data, &fx); err != nil {
			return fx, fmt.Errorf("failed to parse fixture JSON: %w", err)
		}
	case opts.channelsPath != "":
		f, err := os.Open(opts.channelsPath)
		if err != nil {
			return fx, fmt.Errorf("failed to open channel list: %w", err)
		}
		defer f.Close()
		channels, err := parseChannelList(f)
		if err != nil {
			return fx, fmt.Errorf("failed to read channel list: %w", err)
		}
		fx.Modes = []gdtf.Mode{{Name: opts.mode, Channels: channels}}
	default:
		return fx, fmt.Errorf("either --input or --channels is required")
	}

	if opts.name != "" {
		fx.Name = opts.name
	}
	if opts.manufacturer != "" {
		fx.Manufacturer = opts.manufacturer
	}
	return fx, nil
}

// parseChannelList reads one channel label per line. Blank lines are kept as
// empty channels so line numbers in the source list stay meaningful; labels
// that look like fine bytes are flagged as such.
func parseChannelList(r io.Reader) ([]gdtf.Channel, error) {
	scanner := bufio.NewScanner(r)
	var channels []gdtf.Channel
	for scanner.Scan() {
		label := strings.TrimSpace(scanner.Text())
		channels = append(channels, gdtf.Channel{
			Name:     label,
			FineByte: gdtf.IsFineName(label),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return channels, nil
}

func runConvert(opts convertOptions) error {
	if opts.fetch {
		tmp, err := os.CreateTemp("", "ofl-*.zip")
		if err != nil {
			return fmt.Errorf("failed to create temp file: %w", err)
		}
		_ = tmp.Close()
		defer os.Remove(tmp.Name())

		if err := ofl.Download(context.Background(), tmp.Name()); err != nil {
			return fmt.Errorf("failed to download OFL archive: %w", err)
		}
		opts.inputPath = tmp.Name()
		return convertZipball(opts)
	}

	if opts.inputPath == "" {
		return fmt.Errorf("either --input or --fetch is required")
	}
	if strings.HasSuffix(opts.inputPath, ".zip") {
		return convertZipball(opts)
	}

	data, err := os.ReadFile(opts.inputPath)
	if err != nil {
		return fmt.Errorf("failed to read OFL fixture: %w", err)
	}
	fx, err := ofl.Convert(opts.manufacturer, data)
	if err != nil {
		return err
	}

	b, err := newBuilder(opts.attributesDir)
	if err != nil {
		return err
	}
	pkg, warnings, err := b.BuildPackage(fx)
	if err != nil {
		return err
	}
	printWarnings(warnings)

	out := opts.outputPath
	if out == "" {
		out = builder.FileName(fx.Name)
	}
	if err := os.WriteFile(out, pkg, 0644); err != nil {
		return fmt.Errorf("failed to write package: %w", err)
	}
	fmt.Printf("Wrote %s (%d bytes)\n", out, len(pkg))
	return nil
}

func convertZipball(opts convertOptions) error {
	results, stats, err := ofl.ConvertArchive(context.Background(), opts.inputPath)
	if err != nil {
		return err
	}

	outDir := opts.outputPath
	if outDir == "" {
		outDir = "."
	}

	b, err := newBuilder(opts.attributesDir)
	if err != nil {
		return err
	}

	written := 0
	for _, res := range results {
		pkg, _, err := b.BuildPackage(res.Fixture)
		if err != nil {
			log.Printf("Warning: failed to build %s/%s: %v", res.Key, res.File, err)
			continue
		}
		dir := filepath.Join(outDir, res.Key)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		path := filepath.Join(dir, builder.FileName(res.Fixture.Name))
		if err := os.WriteFile(path, pkg, 0644); err != nil {
			return fmt.Errorf("failed to write package: %w", err)
		}
		written++
	}

	fmt.Printf("Wrote %d of %d converted fixtures to %s (%d failed to convert)\n",
		written, stats.Converted, outDir, stats.Failed)
	return nil
}

func runAttributes(opts attributesOptions) error {
	if opts.wheels {
		for _, name := range gdtf.WheelAttributes() {
			fmt.Println(name)
		}
		return nil
	}

	lib, err := library.Load(opts.attributesDir)
	if err != nil {
		return err
	}
	fmt.Printf("%-24s %-20s %-12s %-14s %s\n", "KEY", "ATTRIBUTE", "GROUP", "FEATURE", "ACTIVATION")
	for _, m := range lib.Mappings() {
		fmt.Printf("%-24s %-20s %-12s %-14s %s\n", m.Key, m.Attribute, m.FeatureGroup, m.Feature, m.ActivationGroup)
	}
	return nil
}

// newBuilder returns a package builder using the overlay directory when one
// is given.
func newBuilder(attributesDir string) (*gdtf.Builder, error) {
	lib, err := library.Load(attributesDir)
	if err != nil {
		return nil, err
	}
	b := gdtf.NewBuilder()
	b.Resolver = lib.Resolver()
	return b, nil
}

func printWarnings(warnings []string) {
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}
}
