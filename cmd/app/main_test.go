package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"DiabScreen/internal/services/artifacts"

	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	fetch := &artifacts.FetchError{URL: "https://x/model.json", Path: "artifacts/model.json", Err: errors.New("404")}
	load := &artifacts.LoadError{Artifact: artifacts.ArtifactThreshold, Path: "t.json", Err: errors.New("bad")}

	assert.Equal(t, exitFetchFail, exitCode(fmt.Errorf("init: %w", fetch)))
	assert.Equal(t, exitLoadFail, exitCode(fmt.Errorf("init: %w", load)))
	assert.Equal(t, 0, exitCode(context.Canceled))
	assert.Equal(t, exitError, exitCode(errors.New("boom")))
}
