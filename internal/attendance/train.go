package attendance

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/facerec"
	"github.com/kozaktomas/face-attendance/internal/fingerprint"
	"github.com/sirupsen/logrus"
)

// TrainingFile is one file below the training directory.
type TrainingFile struct {
	Path   string
	Person string // name of the parent directory
}

// TrainSummary reports what EncodeKnownFaces did.
type TrainSummary struct {
	Files     int
	Skipped   int // not an image
	Failed    int // unreadable or rejected by the encoder
	Duplicate int // near copies of an earlier training image, still encoded
	Images    int // decoded and fingerprinted
	Encodings int
	People    int
}

// ProgressFunc is called once per training file after it was processed.
type ProgressFunc func(file TrainingFile, faces int, err error)

// TrainingFiles lists <training>/<person>/<file> entries in lexical order.
// Files directly under the training directory and deeper nesting are ignored.
func (d *Detector) TrainingFiles() ([]TrainingFile, error) {
	root := d.cfg.Paths.TrainingDir
	people, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading training directory %s: %w", root, err)
	}

	var files []TrainingFile
	for _, person := range people {
		if !person.IsDir() {
			continue
		}
		dir := filepath.Join(root, person.Name())
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", dir, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			files = append(files, TrainingFile{
				Path:   filepath.Join(dir, entry.Name()),
				Person: person.Name(),
			})
		}
	}

	sort.SliceStable(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// EncodeKnownFaces encodes every face in the training images and replaces
// the stored encoding set. Every face found in an image counts for the
// image's person.
func (d *Detector) EncodeKnownFaces(ctx context.Context, model facerec.Model, progress ProgressFunc) (*TrainSummary, error) {
	files, err := d.TrainingFiles()
	if err != nil {
		return nil, err
	}

	known := &facematch.KnownFaces{}
	summary := &TrainSummary{Files: len(files)}
	seen := fingerprint.NewIndex(constants.DuplicateHashDistance)

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		faces, err := d.encodeTrainingFile(ctx, file, model, seen, summary)
		switch {
		case errors.Is(err, errNotImage):
			summary.Skipped++
			logrus.WithField("path", file.Path).Warn("skipping non-image file")
		case err != nil:
			summary.Failed++
			logrus.WithError(err).WithField("path", file.Path).Warn("failed to encode training image")
		default:
			for _, f := range faces {
				known.Add(file.Person, f.Encoding)
			}
			if len(faces) == 0 {
				logrus.WithField("path", file.Path).Warn("no face found in training image")
			}
		}

		if progress != nil {
			progress(file, len(faces), err)
		}
	}

	if err := d.store.Save(ctx, known); err != nil {
		return summary, fmt.Errorf("saving encodings: %w", err)
	}

	summary.Images = seen.Len()
	summary.Encodings = known.Len()
	summary.People = len(known.People())

	logrus.WithFields(logrus.Fields{
		"files":     summary.Files,
		"images":    summary.Images,
		"encodings": summary.Encodings,
		"people":    summary.People,
	}).Info("training finished")

	return summary, nil
}

var errNotImage = errors.New("not an image file")

func (d *Detector) encodeTrainingFile(
	ctx context.Context, file TrainingFile, model facerec.Model, seen *fingerprint.Index, summary *TrainSummary,
) ([]facerec.Face, error) {
	if !facerec.IsImageFile(file.Path) {
		return nil, errNotImage
	}
	img, err := facerec.LoadImage(file.Path, d.cfg.Recognition.MaxImageSize)
	if err != nil {
		return nil, err
	}

	if original, dup := seen.Add(file.Path, fingerprint.Compute(img)); dup {
		summary.Duplicate++
		logrus.WithFields(logrus.Fields{
			"path":     file.Path,
			"original": original,
		}).Warn("training image looks like a copy of another one")
	}

	return d.encoder.Encode(ctx, img, model)
}
