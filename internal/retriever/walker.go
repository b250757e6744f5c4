package retriever

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-enry/go-enry/v2"
	gitignore "github.com/sabhiram/go-gitignore"
	"go.uber.org/zap"
)

// WalkOptions controls which files IndexDirectory ingests.
type WalkOptions struct {
	// Extensions whitelists files by extension (with or without the dot).
	Extensions []string
	// ExcludedDirs are directory names skipped wherever they appear.
	ExcludedDirs []string
	// MaxFileSize caps the bytes read per file; 0 means DefaultMaxFileSize.
	MaxFileSize int64
}

// DefaultMaxFileSize is the per-file read cap used when none is configured.
const DefaultMaxFileSize = 1 << 20

type walkState struct {
	root     string
	exts     map[string]struct{}
	excluded map[string]struct{}
	maxSize  int64
	ignorer  *gitignore.GitIgnore
	// visited holds resolved real paths of directories already walked, so a
	// symlink cycle is entered at most once.
	visited map[string]struct{}
}

// IndexDirectory walks the tree rooted at root and feeds every allowed file
// into the index, returning the total number of chunks added. Hidden
// directories, names in ExcludedDirs, and paths matched by a root .gitignore
// are skipped. Unreadable or binary files are logged and skipped; no
// per-file failure aborts the walk.
func (r *Retriever) IndexDirectory(root string, opts WalkOptions) (int, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return 0, err
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return 0, err
	}

	st := &walkState{
		root:     realRoot,
		exts:     make(map[string]struct{}, len(opts.Extensions)),
		excluded: make(map[string]struct{}, len(opts.ExcludedDirs)),
		maxSize:  opts.MaxFileSize,
		visited:  map[string]struct{}{realRoot: {}},
	}
	if st.maxSize <= 0 {
		st.maxSize = DefaultMaxFileSize
	}
	for _, ext := range opts.Extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		st.exts[strings.ToLower(ext)] = struct{}{}
	}
	for _, name := range opts.ExcludedDirs {
		st.excluded[name] = struct{}{}
	}
	if ign, err := gitignore.CompileIgnoreFile(filepath.Join(realRoot, ".gitignore")); err == nil {
		st.ignorer = ign
	}

	total := r.walkTree(realRoot, "", st)
	r.logger.Info("indexing finished",
		zap.String("root", realRoot),
		zap.Int("files", len(r.index.Files())),
		zap.Int("chunks", r.index.Len()))
	return total, nil
}

// walkTree walks one directory subtree. prefix is the index-relative path of
// dir; it differs from the filesystem layout when the subtree was reached
// through a symlink.
func (r *Retriever) walkTree(dir, prefix string, st *walkState) int {
	total := 0
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			r.logger.Warn("skipping unreadable entry", zap.String("path", path), zap.Error(err))
			return nil
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(filepath.Join(prefix, rel))

		if d.IsDir() {
			if path == dir {
				return nil
			}
			if st.skipDir(d.Name(), rel) {
				return filepath.SkipDir
			}
			real, err := filepath.EvalSymlinks(path)
			if err != nil {
				r.logger.Warn("skipping unresolvable directory", zap.String("path", path), zap.Error(err))
				return filepath.SkipDir
			}
			if _, seen := st.visited[real]; seen {
				return filepath.SkipDir
			}
			st.visited[real] = struct{}{}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			total += r.followSymlink(path, rel, d.Name(), st)
			return nil
		}

		total += r.indexFile(path, rel, st)
		return nil
	})
	return total
}

// followSymlink resolves a symlink entry. Link targets that are directories
// are walked once (guarded by the visited set); file targets are indexed
// under the link's relative path.
func (r *Retriever) followSymlink(path, rel, name string, st *walkState) int {
	real, err := filepath.EvalSymlinks(path)
	if err != nil {
		r.logger.Warn("skipping broken symlink", zap.String("path", path), zap.Error(err))
		return 0
	}
	info, err := os.Stat(real)
	if err != nil {
		r.logger.Warn("skipping unreadable symlink target", zap.String("path", real), zap.Error(err))
		return 0
	}
	if info.IsDir() {
		if st.skipDir(name, rel) {
			return 0
		}
		if _, seen := st.visited[real]; seen {
			return 0
		}
		st.visited[real] = struct{}{}
		return r.walkTree(real, rel, st)
	}
	return r.indexFile(real, rel, st)
}

// indexFile reads a single candidate and adds it to the index. Every
// failure is non-fatal: log, skip, move on.
func (r *Retriever) indexFile(path, rel string, st *walkState) int {
	if _, ok := st.exts[strings.ToLower(filepath.Ext(path))]; !ok {
		return 0
	}
	if st.ignorer != nil && st.ignorer.MatchesPath(rel) {
		return 0
	}
	info, err := os.Stat(path)
	if err != nil {
		r.logger.Warn("skipping unreadable file", zap.String("path", rel), zap.Error(err))
		return 0
	}
	if info.Size() > st.maxSize {
		r.logger.Warn("skipping oversized file", zap.String("path", rel), zap.Int64("size", info.Size()))
		return 0
	}
	data, err := os.ReadFile(path)
	if err != nil {
		r.logger.Warn("skipping unreadable file", zap.String("path", rel), zap.Error(err))
		return 0
	}
	if enry.IsBinary(data) {
		r.logger.Warn("skipping binary file", zap.String("path", rel))
		return 0
	}
	n, err := r.index.AddFile(rel, string(data))
	if err != nil {
		r.logger.Warn("skipping file that failed to embed", zap.String("path", rel), zap.Error(err))
		return 0
	}
	r.logger.Debug("indexed file", zap.String("path", rel), zap.Int("chunks", n))
	return n
}

func (st *walkState) skipDir(name, rel string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	if _, ok := st.excluded[name]; ok {
		return true
	}
	if st.ignorer != nil && st.ignorer.MatchesPath(rel+"/") {
		return true
	}
	return false
}
