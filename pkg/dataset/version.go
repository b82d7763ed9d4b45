package dataset

import (
	"errors"
	"strings"

	"github.com/bastiangx/hposerve/pkg/ontology"
	"github.com/tidwall/gjson"
)

// ErrNoVersion is returned when a payload carries no usable version tag.
var ErrNoVersion = errors.New("hpo_version missing or empty")

// ReadVersion returns the cleaned version tag of a processed dataset.
func ReadVersion(payload []byte) (string, error) {
	if !gjson.ValidBytes(payload) {
		return "", ontology.NewDataFormatError("payload is not valid JSON", nil)
	}
	root := gjson.ParseBytes(payload)
	if !root.IsObject() {
		return "", ErrNoVersion
	}
	return CleanVersion(firstString(root, "hpo_version", "version"))
}

// CleanVersion makes a version usable in tags and file names.
func CleanVersion(version string) (string, error) {
	version = strings.TrimSpace(version)
	if version == "" || version == "Unknown" {
		return "", ErrNoVersion
	}
	version = strings.ReplaceAll(version, " ", "_")
	version = strings.ReplaceAll(version, "/", "-")
	return version, nil
}
