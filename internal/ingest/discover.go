package ingest

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hbomb79/Sectrans/internal/video"
)

// Discovery is the outcome of listing a car directory. Errors holds the
// failures to list individual camera or date directories; those
// directories were skipped and their siblings still listed.
type Discovery struct {
	Items  []*IngestItem
	Errors []error
}

// Discover enumerates the fixed three level tree beneath carRoot:
//
//	<carRoot>/<camera>/<date>/<recording>
//
// Non-directories at the camera and date levels are ignored, as is anything
// nested deeper than the recording level. Only a failure to list carRoot
// itself is returned as an error.
func Discover(carRoot string, config Config) (*Discovery, error) {
	cameras, err := listCameras(carRoot)
	if err != nil {
		return nil, err
	}

	discovery := &Discovery{Items: make([]*IngestItem, 0)}
	for _, cameraPath := range cameras {
		dates, err := listDates(cameraPath)
		if err != nil {
			discovery.Errors = append(discovery.Errors, err)
			continue
		}

		cameraName := filepath.Base(cameraPath)
		for _, datePath := range dates {
			files, err := listFiles(datePath, config)
			if err != nil {
				discovery.Errors = append(discovery.Errors, err)
				continue
			}

			for _, file := range files {
				discovery.Items = append(discovery.Items, newItem(file, cameraName))
			}
		}
	}

	return discovery, nil
}

// listCameras returns the camera directories inside a car directory.
func listCameras(carRoot string) ([]string, error) {
	return listChildren(carRoot, isDirectory)
}

// listDates returns the date directories inside a camera directory.
func listDates(cameraPath string) ([]string, error) {
	return listChildren(cameraPath, isDirectory)
}

// listFiles returns the recordings inside a date directory which pass the
// configured extension filter.
func listFiles(datePath string, config Config) ([]string, error) {
	return listChildren(datePath, func(parent string, entry fs.DirEntry) bool {
		return isRegularFile(parent, entry) && config.acceptsFile(entry.Name())
	})
}

// listChildren lists the directory provided, returning the absolute paths
// of the entries accepted by the filter, in name order.
func listChildren(dir string, accept func(string, fs.DirEntry) bool) ([]string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, &video.FileAccessError{Path: dir, Op: "resolve", Err: err}
	}

	entries, err := os.ReadDir(absDir)
	if err != nil {
		return nil, &video.FileAccessError{Path: absDir, Op: "list", Err: err}
	}

	children := make([]string, 0, len(entries))
	for _, entry := range entries {
		if accept(absDir, entry) {
			children = append(children, filepath.Join(absDir, entry.Name()))
		}
	}

	return children, nil
}

// isDirectory reports whether the entry is a directory, following symlinks.
func isDirectory(parent string, entry fs.DirEntry) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}

	info, err := os.Stat(filepath.Join(parent, entry.Name()))
	return err == nil && info.IsDir()
}

// isRegularFile reports whether the entry is a regular file, following symlinks.
func isRegularFile(parent string, entry fs.DirEntry) bool {
	if entry.Type().IsRegular() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}

	info, err := os.Stat(filepath.Join(parent, entry.Name()))
	return err == nil && info.Mode().IsRegular()
}
