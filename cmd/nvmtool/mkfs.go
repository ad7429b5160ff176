//go:build !tinygo && cgo

package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"tinygo.org/x/tinyfs/littlefs"

	"nvflash/drivers/nvm"
)

func newLFS(dev *nvm.Device) *littlefs.LFS {
	lfs := littlefs.New(nvm.NewBlockDevice(dev))
	lfs.Configure(&littlefs.Config{
		CacheSize:     512,
		LookaheadSize: 512,
		BlockCycles:   100,
	})
	return lfs
}

// runMkfs formats the image as littlefs and imports a host directory.
func runMkfs(e *env, args []string) (err error) {
	flags := newFlagSet(e, "mkfs")
	var f imageFlags
	f.register(flags)
	srcDir := flags.String("src", "", "Source directory to import into littlefs.")
	if err := parse(flags, args); err != nil {
		return err
	}
	if *srcDir == "" {
		return fmt.Errorf("%w: -src is required", errUsage)
	}

	src := filepath.Clean(*srcDir)
	st, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat src %q: %w", src, err)
	}
	if !st.IsDir() {
		return fmt.Errorf("src %q is not a directory", src)
	}

	s, err := openSession(e, &f)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, s.Close()) }()

	lfs := newLFS(s.sys.Device())
	if err := lfs.Format(); err != nil {
		return fmt.Errorf("format: %w", err)
	}
	if err := lfs.Mount(); err != nil {
		return fmt.Errorf("mount: %w", err)
	}

	dirs, files, err := walkSource(src)
	if err != nil {
		_ = lfs.Unmount()
		return err
	}
	for _, d := range dirs {
		if err := lfs.Mkdir(d, 0o777); err != nil {
			_ = lfs.Unmount()
			return fmt.Errorf("mkdir %q: %w", d, err)
		}
	}
	for _, p := range files {
		hostPath := filepath.Join(src, filepath.FromSlash(strings.TrimPrefix(p, "/")))
		if err := copyFile(lfs, hostPath, p); err != nil {
			_ = lfs.Unmount()
			return err
		}
	}
	if err := lfs.Unmount(); err != nil {
		return fmt.Errorf("unmount: %w", err)
	}
	fmt.Fprintf(e.stdout, "imported %d files in %d directories into %s\n", len(files), len(dirs), f.name())
	return nil
}

// walkSource returns the littlefs paths of the directories and regular files
// under src, parents before children. Symlinks are skipped.
func walkSource(src string) (dirs, files []string, err error) {
	walkErr := filepath.WalkDir(src, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == src || entry.Type()&os.ModeSymlink != 0 {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		lfsPath := "/" + filepath.ToSlash(rel)
		switch {
		case entry.IsDir():
			dirs = append(dirs, lfsPath)
		case entry.Type().IsRegular():
			files = append(files, lfsPath)
		}
		return nil
	})
	if walkErr != nil {
		return nil, nil, fmt.Errorf("walk src %q: %w", src, walkErr)
	}
	sort.Strings(dirs)
	sort.Strings(files)
	return dirs, files, nil
}

func copyFile(lfs *littlefs.LFS, hostPath, lfsPath string) error {
	in, err := os.Open(hostPath)
	if err != nil {
		return fmt.Errorf("open %q: %w", hostPath, err)
	}
	defer func() { _ = in.Close() }()

	w, err := lfs.OpenFile(lfsPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC)
	if err != nil {
		return fmt.Errorf("open writer %q: %w", lfsPath, err)
	}
	if _, err := io.Copy(w, in); err != nil {
		_ = w.Close()
		return fmt.Errorf("write %q: %w", lfsPath, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close %q: %w", lfsPath, err)
	}
	return nil
}
