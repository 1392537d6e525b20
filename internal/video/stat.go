package video

import (
	"fmt"
	"io/fs"
	"os"
)

func statFile(path string) (fs.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &FileAccessError{Path: path, Op: "stat", Err: err}
	}
	if !info.Mode().IsRegular() {
		return nil, &FileAccessError{Path: path, Op: "stat", Err: fmt.Errorf("not a regular file (mode %s)", info.Mode())}
	}

	return info, nil
}
