package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tieubaoca/query-retrieval/types"
	"go.uber.org/zap"
)

// BootstrapOutcome is how the knowledge base came to be usable, or not.
type BootstrapOutcome int

const (
	// Loaded means a previously built knowledge base was reused.
	Loaded BootstrapOutcome = iota
	// Built means the knowledge base was built from the documents directory.
	Built
	// Unavailable means there was nothing to load and nothing to build from.
	Unavailable
	// FatalBuildError means documents were found but could not be turned
	// into a knowledge base.
	FatalBuildError
)

func (o BootstrapOutcome) String() string {
	switch o {
	case Loaded:
		return "loaded"
	case Built:
		return "built"
	case Unavailable:
		return "unavailable"
	case FatalBuildError:
		return "fatal_build_error"
	default:
		return fmt.Sprintf("BootstrapOutcome(%d)", int(o))
	}
}

type KnowledgeBaseState string

const (
	StateReady KnowledgeBaseState = "ready"
	StateEmpty KnowledgeBaseState = "empty"
)

type BootstrapResult struct {
	Outcome BootstrapOutcome
	// Paths lists the documents discovered when a build was attempted.
	Paths []string
	// LoadErr is why the cached knowledge base could not be used. It is
	// set for every outcome but Loaded.
	LoadErr error
	// Err is set for FatalBuildError.
	Err error
}

// State maps the outcome onto the knowledge base state queries run against.
func (r BootstrapResult) State() KnowledgeBaseState {
	switch r.Outcome {
	case Loaded, Built:
		return StateReady
	default:
		return StateEmpty
	}
}

// Bootstrap loads the knowledge base, falling back to building it from the
// top-level entries of documentsDir. It runs once, before the server listens.
func Bootstrap(ctx context.Context, engine KnowledgeBaseBuilder, documentsDir string, logger *zap.Logger) BootstrapResult {
	loadErr := engine.LoadKnowledgeBase(ctx)
	if loadErr == nil {
		logger.Info("knowledge base loaded from cache")
		return BootstrapResult{Outcome: Loaded}
	}
	loadErr = types.NewDomainError(types.ErrorTypeBootstrapLoad, loadErr.Error(), loadErr)
	logger.Info("no cached knowledge base, looking for documents",
		zap.String("documents_dir", documentsDir),
		zap.NamedError("load_error", loadErr))

	paths, err := discoverDocuments(documentsDir)
	if err != nil {
		logger.Error("cannot read documents directory", zap.String("documents_dir", documentsDir), zap.Error(err))
		return BootstrapResult{
			Outcome: FatalBuildError,
			LoadErr: loadErr,
			Err:     types.NewDomainError(types.ErrorTypeBootstrapBuild, err.Error(), err),
		}
	}

	if len(paths) == 0 {
		logger.Warn("no documents found, queries will run without a knowledge base",
			zap.String("documents_dir", documentsDir))
		return BootstrapResult{Outcome: Unavailable, LoadErr: loadErr}
	}

	logger.Info("building knowledge base", zap.Int("documents", len(paths)))
	if err := engine.BuildKnowledgeBase(ctx, paths); err != nil {
		logger.Error("knowledge base build failed", zap.Error(err))
		return BootstrapResult{
			Outcome: FatalBuildError,
			Paths:   paths,
			LoadErr: loadErr,
			Err:     types.NewDomainError(types.ErrorTypeBootstrapBuild, err.Error(), err),
		}
	}

	logger.Info("knowledge base built", zap.Int("documents", len(paths)))
	return BootstrapResult{Outcome: Built, Paths: paths, LoadErr: loadErr}
}

// discoverDocuments lists every entry of dir, in name order. A missing
// directory has no documents.
func discoverDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	return paths, nil
}
