package extractor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mbedbridge/internal/interfaces"
	"github.com/ternarybob/mbedbridge/internal/models"
)

// UpdateRegions names the regions that also make up the update image
var UpdateRegions = []string{"application"}

// ErrNoMerger is returned when a target has regions but no merger is wired
var ErrNoMerger = errors.New("no region merger configured")

// Extraction is the result of one extraction. It owns the toolchain that
// produced it, so merging never reaches back into the service.
type Extraction struct {
	Info      *models.ProjectInfo
	Toolchain interfaces.Toolchain

	buildPath string
	merger    interfaces.RegionMerger
	notify    interfaces.Notifier
	logger    arbor.ILogger
}

// MergeResult names the images written by MergeApps. Update is empty when
// no update image was produced.
type MergeResult struct {
	Firmware string
	Update   string
}

// NeedsMerging reports whether the target declares flash regions
func (e *Extraction) NeedsMerging() bool {
	return len(e.Toolchain.Regions()) > 0
}

// MergeApps places the user program into the active region and merges all
// regions into firmwarePath. Regions named in UpdateRegions are merged again
// into <build>/<firmware>_update.bin. The build layer calls it once the
// user program is linked.
func (e *Extraction) MergeApps(ctx context.Context, userprogPath, firmwarePath string) (MergeResult, error) {
	if !e.NeedsMerging() {
		return MergeResult{}, nil
	}
	if e.merger == nil {
		return MergeResult{}, ErrNoMerger
	}

	regions := make([]models.Region, 0, len(e.Toolchain.Regions()))
	for _, r := range e.Toolchain.Regions() {
		if r.Active {
			r.Filename = userprogPath
		}
		regions = append(regions, r)
	}

	if err := e.merger.Merge(ctx, regions, firmwarePath, e.notify); err != nil {
		return MergeResult{}, fmt.Errorf("merge regions into %s: %w", firmwarePath, err)
	}
	result := MergeResult{Firmware: firmwarePath}

	var update []models.Region
	for _, r := range regions {
		if slices.Contains(UpdateRegions, r.Name) {
			update = append(update, r)
		}
	}
	if len(update) > 0 {
		updatePath := UpdateImagePath(e.buildPath, firmwarePath)
		if err := e.merger.Merge(ctx, update, updatePath, e.notify); err != nil {
			return MergeResult{}, fmt.Errorf("merge update regions into %s: %w", updatePath, err)
		}
		result.Update = updatePath
	}

	e.logger.Info().
		Str("firmware", result.Firmware).
		Str("update", result.Update).
		Int("regions", len(regions)).
		Msg("Merged application regions")

	return result, nil
}

// UpdateImagePath returns <build>/<firmware base name>_update.bin
func UpdateImagePath(buildPath, firmwarePath string) string {
	base := filepath.Base(firmwarePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(buildPath, base+"_update.bin")
}
