package remap

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nipponcolors/nipponize/internal/imgio"
)

// Result records the outcome of one file in a batch run.
type Result struct {
	Path   string // input file
	Output string // written file, empty on failure
	Err    error  // load, remap, or save failure
}

// RemapFiles remaps every listed image file, writing each result into
// dir as <name>_<mode>.png, and calls report (when non-nil) with the
// outcome of each file as it completes. A file that cannot be loaded,
// remapped, or saved is reported and skipped; only a batch that writes
// nothing at all is an error. cache may be nil; each file's cache entry
// is released once the file has been processed.
func (r *Remapper) RemapFiles(cache *imgio.Cache, paths []string, dir string, report func(Result)) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("remap: creating output directory: %w", err)
	}
	if cache == nil {
		cache = imgio.NewCache()
	}

	written := 0
	for _, p := range paths {
		res := r.remapFile(cache, p, dir)
		if res.Err == nil {
			written++
		}
		if report != nil {
			report(res)
		}
	}
	if written == 0 {
		return fmt.Errorf("remap: no images remapped")
	}
	return nil
}

func (r *Remapper) remapFile(cache *imgio.Cache, path, dir string) Result {
	img, err := cache.Load(path)
	if err != nil {
		return Result{Path: path, Err: err}
	}
	out, err := r.Remap(img)
	cache.Evict(path)
	if err != nil {
		return Result{Path: path, Err: err}
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	target := filepath.Join(dir, fmt.Sprintf("%s_%s.png", stem, r.opts.Mode))
	if err := imgio.Save(out, target); err != nil {
		return Result{Path: path, Err: err}
	}
	return Result{Path: path, Output: target}
}
