// Package app wires config, dataset loading and the engine together for the binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/bastiangx/hposerve/internal/utils"
	"github.com/bastiangx/hposerve/pkg/config"
	"github.com/bastiangx/hposerve/pkg/dataset"
	"github.com/bastiangx/hposerve/pkg/ontology"
	"github.com/bastiangx/hposerve/pkg/suggest"
	"github.com/charmbracelet/log"
)

// Loaded is a ready engine and what it was built from.
type Loaded struct {
	Engine  *suggest.Engine
	Dataset *dataset.Dataset
	Source  string
}

// EngineOptions maps the search config onto engine options.
func EngineOptions(cfg *config.Config) suggest.Options {
	return suggest.Options{
		Search: ontology.SearchOptions{
			MinQueryLen: cfg.Search.MinQuery,
			MaxResults:  cfg.Search.MaxResults,
		},
		RelatedLimit: cfg.Search.RelatedLimit,
		CacheSize:    cfg.Search.CacheSize,
	}
}

// ResolveSource returns source unchanged for URLs and resolves files through
// the usual data locations. An empty source falls back to the config.
func ResolveSource(cfg *config.Config, source string) (string, error) {
	if source == "" {
		source = cfg.Dataset.Source()
	}
	if dataset.IsURL(source) || utils.FileExists(source) {
		return source, nil
	}

	resolver, err := utils.NewPathResolver("hposerve")
	if err != nil {
		return "", fmt.Errorf("initializing path resolver: %w", err)
	}
	path, err := resolver.ResolveDataFile(source)
	if err != nil {
		return path, fmt.Errorf("dataset %s not found: %w", source, err)
	}
	return path, nil
}

// Load reads the dataset and builds the engine. An empty dataset is not an
// error; it is logged as a warning and every search comes back empty.
func Load(ctx context.Context, cfg *config.Config, source string) (*Loaded, error) {
	resolved, err := ResolveSource(cfg, source)
	if err != nil {
		return nil, err
	}

	loader := dataset.NewLoader(dataset.LoaderOptions{
		MaxRetries: cfg.Dataset.MaxRetries,
		RetryDelay: dataset.DefaultLoaderOptions().RetryDelay,
		Timeout:    cfg.Dataset.FetchTimeout(),
	})
	ds, err := loader.Load(ctx, resolved)
	if err != nil {
		return nil, err
	}

	idx := ds.Index()
	if err := idx.Validate(); errors.Is(err, ontology.ErrEmptyDataset) {
		log.Warnf("Dataset %s holds no usable terms; searches will return nothing", resolved)
	}
	stats := idx.Stats()
	log.Debugf("Indexed %d terms (%d neighbors, %d dropped, %d obsolete) from %s",
		stats.Terms, stats.Neighbors, stats.Dropped, ds.Obsolete, resolved)

	return &Loaded{
		Engine:  suggest.NewEngine(idx, EngineOptions(cfg)),
		Dataset: ds,
		Source:  resolved,
	}, nil
}

// ExitCode maps load errors onto process exit codes: 1 not found,
// 3 malformed data, 4 anything else.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, os.ErrNotExist):
		return 1
	case errors.Is(err, ontology.ErrDataFormat):
		return 3
	default:
		return 4
	}
}
