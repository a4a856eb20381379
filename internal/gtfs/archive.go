package gtfs

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ErrInvalidArchive is returned when the uploaded file is not a parseable
// ZIP. Nothing has been loaded when this error is reported.
var ErrInvalidArchive = errors.New("invalid or corrupt feed archive")

// NewScratchDir creates a unique scratch directory under workDir for one
// import invocation. The caller owns removal on every exit path.
func NewScratchDir(workDir string) (string, error) {
	dir := filepath.Join(workDir, "feed-import-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating scratch dir: %w", err)
	}
	return dir, nil
}

// ExtractArchive unzips every member file of the archive at src into
// destDir, flattening any directory structure inside the archive. Member
// contents are not validated here; that is the ingester's job.
func ExtractArchive(src, destDir string) ([]string, error) {
	reader, err := zip.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	defer reader.Close()

	if len(reader.File) == 0 {
		return nil, fmt.Errorf("%w: archive is empty", ErrInvalidArchive)
	}

	var names []string
	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}

		name := filepath.Base(file.Name)
		if err := extractMember(file, filepath.Join(destDir, name)); err != nil {
			return nil, err
		}
		names = append(names, name)
	}

	return names, nil
}

func extractMember(file *zip.File, destPath string) error {
	rc, err := file.Open()
	if err != nil {
		return fmt.Errorf("%w: opening member %s: %v", ErrInvalidArchive, file.Name, err)
	}
	defer rc.Close()

	outFile, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("extracting %s: %w", file.Name, err)
	}
	defer outFile.Close()

	if _, err := io.Copy(outFile, rc); err != nil {
		return fmt.Errorf("%w: reading member %s: %v", ErrInvalidArchive, file.Name, err)
	}

	return nil
}
