package latest

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	manifestPathRequiredMessageConstant = "release series manifest path must be provided"
	manifestLoadErrorTemplateConstant   = "failed to load release series manifest: %w"
	manifestParseErrorTemplateConstant  = "failed to parse release series manifest: %w"
	manifestEmptySeriesMessageConstant  = "release series manifest must define at least one series"
	manifestSeriesFieldsMessageTemplate = "release series %q must define dest, dvers, and arches"
	manifestSeriesNameRequiredMessage   = "release series names must be non-empty"
)

// ReleaseSeries describes one release series: where it lives beneath the
// destination root, which OS versions it publishes, and its architectures.
// The first architecture is the primary one used for release-pointer lookups.
type ReleaseSeries struct {
	Name          string   `yaml:"name"`
	Destination   string   `yaml:"dest"`
	OSVersions    []string `yaml:"dvers"`
	Architectures []string `yaml:"arches"`
}

// PrimaryArchitecture returns the series' first configured architecture.
func (series ReleaseSeries) PrimaryArchitecture() string {
	return series.Architectures[0]
}

// SeriesManifest is the YAML document listing every maintained release series.
type SeriesManifest struct {
	Series []ReleaseSeries `yaml:"series"`
}

// LoadSeriesManifest reads the release series manifest from disk and performs
// basic validation.
func LoadSeriesManifest(filePath string) (SeriesManifest, error) {
	trimmedPath := strings.TrimSpace(filePath)
	if len(trimmedPath) == 0 {
		return SeriesManifest{}, errors.New(manifestPathRequiredMessageConstant)
	}

	contentBytes, readError := os.ReadFile(trimmedPath)
	if readError != nil {
		return SeriesManifest{}, fmt.Errorf(manifestLoadErrorTemplateConstant, readError)
	}

	var manifest SeriesManifest
	if unmarshalError := yaml.Unmarshal(contentBytes, &manifest); unmarshalError != nil {
		return SeriesManifest{}, fmt.Errorf(manifestParseErrorTemplateConstant, unmarshalError)
	}

	if len(manifest.Series) == 0 {
		return SeriesManifest{}, errors.New(manifestEmptySeriesMessageConstant)
	}
	for _, series := range manifest.Series {
		if len(strings.TrimSpace(series.Name)) == 0 {
			return SeriesManifest{}, errors.New(manifestSeriesNameRequiredMessage)
		}
		if len(series.Destination) == 0 || len(series.OSVersions) == 0 || len(series.Architectures) == 0 {
			return SeriesManifest{}, fmt.Errorf(manifestSeriesFieldsMessageTemplate, series.Name)
		}
	}

	return manifest, nil
}
