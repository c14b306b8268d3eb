//go:build !windows

package overlay

import (
	"context"
	"fmt"

	"element-digitizer/src/capture"
)

type stubSelector struct{}

func newPlatformSelector(opts Options) Selector {
	return stubSelector{}
}

func (stubSelector) Select(ctx context.Context) (*capture.Result, bool, error) {
	return nil, false, fmt.Errorf("interactive region selection not implemented for this platform")
}

func (stubSelector) Teardown() {}
