package attendance

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/kozaktomas/face-attendance/internal/facerec"
	"github.com/sirupsen/logrus"
)

// ValidationResult is the outcome for one validation image.
type ValidationResult struct {
	Path   string
	Result *Result
	Err    error
}

// Validate runs RecognizeFaces on every image below the validation
// directory. A failing image does not stop the run; a missing encoding set does.
func (d *Detector) Validate(ctx context.Context, model facerec.Model) ([]ValidationResult, error) {
	var paths []string
	root := d.cfg.Paths.ValidationDir
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() && facerec.IsImageFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking validation directory %s: %w", root, err)
	}

	if _, err := d.loadKnown(ctx); err != nil {
		return nil, err
	}

	results := make([]ValidationResult, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := d.RecognizeFaces(ctx, path, model)
		if err != nil {
			logrus.WithError(err).WithField("path", path).Warn("validation image failed")
		}
		results = append(results, ValidationResult{Path: path, Result: res, Err: err})
	}
	return results, nil
}
