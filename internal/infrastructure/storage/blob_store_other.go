//go:build !unix

package storage

import "os"

func writeAt(f *os.File, start int64, data []byte) error {
	if _, err := f.WriteAt(data, start); err != nil {
		return err
	}
	return f.Sync()
}
