package testutils

import (
	pathpkg "path"

	"github.com/mandelsoft/vfs/pkg/composefs"
	"github.com/mandelsoft/vfs/pkg/layerfs"
	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mandelsoft/vfs/pkg/projectionfs"
	"github.com/mandelsoft/vfs/pkg/readonlyfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
)

// TestFileSystem provides the test data directory path at the same path
// of a virtual filesystem. Unless readonly, modifications are kept in a
// memory layer and never reach the original directory.
func TestFileSystem(path string, readonly bool) (vfs.FileSystem, error) {
	data, err := projectionfs.New(osfs.OsFs, path)
	if err != nil {
		return nil, err
	}
	if readonly {
		data = readonlyfs.New(data)
	} else {
		data = layerfs.New(memoryfs.New(), data)
	}

	root := memoryfs.New()
	for _, dir := range []string{path, "/tmp"} {
		if err := root.MkdirAll(dir, 0o700); err != nil {
			return nil, err
		}
	}
	fs := composefs.New(root, "/tmp")
	if err := fs.Mount(path, data); err != nil {
		return nil, err
	}
	return fs, nil
}

// MemoryFileSystem returns an empty in-memory filesystem holding the
// given files.
func MemoryFileSystem(files map[string]string) (vfs.FileSystem, error) {
	fs := memoryfs.New()
	for p, content := range files {
		if err := fs.MkdirAll(pathpkg.Dir(p), 0o700); err != nil {
			return nil, err
		}
		if err := vfs.WriteFile(fs, p, []byte(content), 0o600); err != nil {
			return nil, err
		}
	}
	return fs, nil
}
