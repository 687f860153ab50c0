package support

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cucumber/godog"
	"github.com/disintegration/imaging"

	"github.com/MeKo-Tech/tiffkit/internal/pdf"
	"github.com/MeKo-Tech/tiffkit/internal/testutil"
)

var compressionTags = map[string]uint16{
	"none":    testutil.TIFFCompressionNone,
	"lzw":     testutil.TIFFCompressionLZW,
	"deflate": testutil.TIFFCompressionDeflate,
}

func splitNames(list string) []string {
	var names []string
	for _, n := range strings.Split(list, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}

func fileNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := []string{}
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// pageImagesExist writes labelled page images into the input directory.
func (testCtx *TestContext) pageImagesExist(list string) error {
	for _, name := range splitNames(list) {
		config := testutil.DefaultPageImageConfig()
		config.Label = name
		path := filepath.Join(testCtx.InputDir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := imaging.Save(testutil.GeneratePageImage(config), path); err != nil {
			return fmt.Errorf("failed to write page image %s: %w", name, err)
		}
	}
	return nil
}

// aCorruptImageExists writes a file with an image extension but garbage
// content into the input directory.
func (testCtx *TestContext) aCorruptImageExists(name string) error {
	return os.WriteFile(filepath.Join(testCtx.InputDir, name), []byte("definitely not an image"), 0o600)
}

// aConfigFileContains writes tiffkit.yaml into the scenario directory.
func (testCtx *TestContext) aConfigFileContains(content *godog.DocString) error {
	return os.WriteFile(filepath.Join(testCtx.TempDir, "tiffkit.yaml"),
		[]byte(testCtx.substituteVariables(content.Content)), 0o600)
}

func (testCtx *TestContext) directoryShouldContainExactly(dir, list string) error {
	got, err := fileNames(dir)
	if err != nil {
		return err
	}
	want := splitNames(list)
	slices.Sort(want)
	if !slices.Equal(got, want) {
		return fmt.Errorf("expected %s to contain %v, got %v", dir, want, got)
	}
	return nil
}

func (testCtx *TestContext) theDestinationShouldContainExactly(list string) error {
	return testCtx.directoryShouldContainExactly(testCtx.DestDir, list)
}

func (testCtx *TestContext) theInputDirectoryShouldContainExactly(list string) error {
	return testCtx.directoryShouldContainExactly(testCtx.InputDir, list)
}

func (testCtx *TestContext) theDestinationShouldBeEmpty() error {
	return testCtx.directoryShouldContainExactly(testCtx.DestDir, "")
}

// theFileShouldExist verifies a file exists.
func (testCtx *TestContext) theFileShouldExist(name string) error {
	path := testCtx.resolve(name)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("file %s does not exist: %w", path, err)
	}
	return nil
}

// theFileShouldHaveSize checks decoded pixel dimensions.
func (testCtx *TestContext) theFileShouldHaveSize(name string, width, height int) error {
	img, err := imaging.Open(testCtx.resolve(name))
	if err != nil {
		return err
	}
	b := img.Bounds()
	if b.Dx() != width || b.Dy() != height {
		return fmt.Errorf("expected %dx%d, got %dx%d", width, height, b.Dx(), b.Dy())
	}
	return nil
}

// theFileShouldBeCompressedWith checks the TIFF compression tag.
func (testCtx *TestContext) theFileShouldBeCompressedWith(name, scheme string) error {
	want, ok := compressionTags[scheme]
	if !ok {
		return fmt.Errorf("unknown compression scheme %q", scheme)
	}
	got, err := testutil.TIFFCompression(testCtx.resolve(name))
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("expected compression tag %d (%s), got %d", want, scheme, got)
	}
	return nil
}

// mergedFile returns the single Merge* file with ext in the destination.
func (testCtx *TestContext) mergedFile(ext string) (string, error) {
	names, err := fileNames(testCtx.DestDir)
	if err != nil {
		return "", err
	}
	var found []string
	for _, n := range names {
		if strings.HasPrefix(n, "Merge") && filepath.Ext(n) == ext {
			found = append(found, n)
		}
	}
	if len(found) != 1 {
		return "", fmt.Errorf("expected one merged %s file in destination, found %v", ext, names)
	}
	return filepath.Join(testCtx.DestDir, found[0]), nil
}

func (testCtx *TestContext) theDestinationShouldContainMergedFile(kind string) error {
	_, err := testCtx.mergedFile("." + kind)
	return err
}

func (testCtx *TestContext) theDestinationShouldContainMergedFiles(n int, kind string) error {
	names, err := fileNames(testCtx.DestDir)
	if err != nil {
		return err
	}
	count := 0
	for _, name := range names {
		if strings.HasPrefix(name, "Merge") && filepath.Ext(name) == "."+kind {
			count++
		}
	}
	if count != n {
		return fmt.Errorf("expected %d merged %s files, found %v", n, kind, names)
	}
	return nil
}

func (testCtx *TestContext) theMergedPDFShouldHavePages(pages int) error {
	path, err := testCtx.mergedFile(".pdf")
	if err != nil {
		return err
	}
	n, err := pdf.PageCount(path)
	if err != nil {
		return err
	}
	if n != pages {
		return fmt.Errorf("expected %d pages, got %d", pages, n)
	}
	return nil
}

// RegisterImageSteps registers fixture and file assertion steps.
func (testCtx *TestContext) RegisterImageSteps(sc *godog.ScenarioContext) {
	sc.Step(`^page images "([^"]*)" in the input directory$`, testCtx.pageImagesExist)
	sc.Step(`^a corrupt image "([^"]*)" in the input directory$`, testCtx.aCorruptImageExists)
	sc.Step(`^a config file containing:$`, testCtx.aConfigFileContains)

	sc.Step(`^the destination should contain exactly "([^"]*)"$`, testCtx.theDestinationShouldContainExactly)
	sc.Step(`^the input directory should contain exactly "([^"]*)"$`, testCtx.theInputDirectoryShouldContainExactly)
	sc.Step(`^the destination should be empty$`, testCtx.theDestinationShouldBeEmpty)
	sc.Step(`^the file "([^"]*)" should exist$`, testCtx.theFileShouldExist)
	sc.Step(`^the image "([^"]*)" should be (\d+)x(\d+)$`, testCtx.theFileShouldHaveSize)
	sc.Step(`^"([^"]*)" should be a TIFF compressed with "([^"]*)"$`, testCtx.theFileShouldBeCompressedWith)

	sc.Step(`^the destination should contain one merged "(tiff|pdf)" file$`, testCtx.theDestinationShouldContainMergedFile)
	sc.Step(`^the destination should contain (\d+) merged "(tiff|pdf)" files$`, testCtx.theDestinationShouldContainMergedFiles)
	sc.Step(`^the merged PDF should have (\d+) pages$`, testCtx.theMergedPDFShouldHavePages)
}
