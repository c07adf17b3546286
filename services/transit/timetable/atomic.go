package timetable

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
)

// writeAtomic writes a temporary file next to path and renames it into place,
// so a server never sees a partially written file.
func writeAtomic(path string, write func(w io.Writer) error) error {
	tmp, err := ioutil.TempFile(filepath.Dir(path), "."+filepath.Base(path)+".tmp")
	if err != nil {
		return err
	}

	err = write(tmp)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(tmp.Name(), 0644)
	}
	if err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
