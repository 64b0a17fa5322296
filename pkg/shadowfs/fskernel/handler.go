// Package fskernel implements the kernel callback handler (C9): it maps the
// filesystem operations onto the layer manager, rule engine,
// transform pipeline, and cache, and owns the open-handle table.
package fskernel

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/andronics/shadowfs/pkg/shadowfs/cache"
	"github.com/andronics/shadowfs/pkg/shadowfs/config"
	"github.com/andronics/shadowfs/pkg/shadowfs/layers"
	"github.com/andronics/shadowfs/pkg/shadowfs/logging"
	"github.com/andronics/shadowfs/pkg/shadowfs/rules"
	"github.com/andronics/shadowfs/pkg/shadowfs/transform"
)

const transformedSuffix = ":transformed"

// Handler is the C9 kernel callback handler.
type Handler struct {
	cfg      *config.Config
	manager  *layers.Manager
	engine   *rules.Engine
	pipeline *transform.Pipeline
	cache    *cache.Cache
	handles  *handleTable
	logger   *logging.Logger
	readOnly bool
}

// New constructs a Handler wired to its collaborators.
func New(cfg *config.Config, manager *layers.Manager, engine *rules.Engine, pipeline *transform.Pipeline, c *cache.Cache, logger *logging.Logger) *Handler {
	return &Handler{
		cfg:      cfg,
		manager:  manager,
		engine:   engine,
		pipeline: pipeline,
		cache:    c,
		handles:  newHandleTable(),
		logger:   logger,
		readOnly: cfg.ReadOnly,
	}
}

// normalize collapses "." and ".." segments and unifies separators.
func normalize(virtualPath string) string {
	cleaned := filepath.ToSlash(filepath.Clean("/" + strings.ReplaceAll(virtualPath, "\\", "/")))
	if cleaned == "." {
		return "/"
	}
	return cleaned
}

// resolve is the shared path resolution subroutine: consult
// the path cache, ask the layer manager, fall back to probing source
// roots directly, then filter through the rule engine.
func (h *Handler) resolve(virtualPath string) (string, *Error) {
	virtualPath = normalize(virtualPath)

	if h.cache != nil {
		if cached, ok := h.cache.Get(cache.NamespacePath, virtualPath, cache.L1); ok {
			if path, ok := cached.(string); ok {
				return path, nil
			}
		}
	}

	backing, ok := h.manager.Resolve(strings.TrimPrefix(virtualPath, "/"))
	if !ok {
		backing, ok = h.probeSources(virtualPath)
		if !ok {
			return "", newError(NotFound, "no source or layer projects "+virtualPath)
		}
	}

	attrs := h.attrsForRuleEngine(backing)
	if !h.engine.Visible(strings.TrimPrefix(virtualPath, "/"), attrs) {
		return "", newError(NotFound, "filtered by rule engine: "+virtualPath)
	}

	if h.cache != nil {
		h.cache.Set(cache.NamespacePath, virtualPath, backing, int64(len(backing)), cache.L1)
	}
	return backing, nil
}

// probeSources tries each configured source root in priority order,
// appending the virtual path, for direct pass-through of non-layer paths.
func (h *Handler) probeSources(virtualPath string) (string, bool) {
	sources := append([]config.SourceConfig(nil), h.cfg.Sources...)
	sort.Slice(sources, func(i, j int) bool { return sources[i].Priority < sources[j].Priority })

	for _, src := range sources {
		candidate := filepath.Join(src.Path, filepath.FromSlash(virtualPath))
		if _, err := os.Lstat(candidate); err == nil {
			return candidate, true
		}
	}
	return "", false
}

// attrsForRuleEngine builds a best-effort Attrs snapshot for the rule
// engine; a stat failure yields a nil Attrs, which makes any
// condition-bearing rule simply fail to match.
func (h *Handler) attrsForRuleEngine(backing string) *rules.Attrs {
	info, err := os.Lstat(backing)
	if err != nil {
		return nil
	}
	return rules.NewAttrs().
		WithSize(info.Size()).
		WithMTime(info.ModTime().Unix()).
		WithMode(info.Mode()).
		WithIsFile(info.Mode().IsRegular()).
		WithIsDir(info.IsDir()).
		WithIsSymlink(info.Mode()&os.ModeSymlink != 0).
		WithPermissions(info.Mode().Perm().String())
}

// requireWritable fails write-bearing operations when the filesystem (or
// this specific source) is read-only.
func (h *Handler) requireWritable(backing string) *Error {
	if h.readOnly {
		return newError(ReadOnly, "filesystem is mounted read-only")
	}
	for _, src := range h.cfg.Sources {
		if src.ReadOnly && strings.HasPrefix(backing, src.Path) {
			return newError(ReadOnly, "source "+src.Path+" is mounted read-only")
		}
	}
	return nil
}

// invalidateAfterMutation clears the caches that a mutation on virtualPath
// makes stale.
func (h *Handler) invalidateAfterMutation(virtualPath string) {
	if h.cache == nil {
		return
	}
	h.cache.Invalidate(cache.NamespaceContent, virtualPath+transformedSuffix)
	h.cache.Invalidate(cache.NamespaceAttr, virtualPath)
	h.cache.Invalidate(cache.NamespaceReaddir, parentOf(virtualPath))
	h.cache.Invalidate(cache.NamespacePath, virtualPath)
}

func parentOf(virtualPath string) string {
	dir := filepath.ToSlash(filepath.Dir(virtualPath))
	if dir == "." {
		return "/"
	}
	return dir
}

// GetAttributes implements the "get-attributes" callback.
func (h *Handler) GetAttributes(virtualPath string) (Attributes, *Error) {
	virtualPath = normalize(virtualPath)

	if h.cache != nil {
		if cached, ok := h.cache.Get(cache.NamespaceAttr, virtualPath, cache.L1); ok {
			if attrs, ok := cached.(Attributes); ok {
				return attrs, nil
			}
		}
	}

	backing, rerr := h.resolve(virtualPath)
	if rerr != nil {
		return Attributes{}, rerr
	}

	attrs, err := statAttributes(backing)
	if err != nil {
		return Attributes{}, newError(NotFound, err.Error())
	}

	if h.cache != nil {
		h.cache.Set(cache.NamespaceAttr, virtualPath, attrs, 128, cache.L1)
	}
	return attrs, nil
}

// ReadSymlink implements "read-symlink".
func (h *Handler) ReadSymlink(virtualPath string) (string, *Error) {
	backing, rerr := h.resolve(virtualPath)
	if rerr != nil {
		return "", rerr
	}
	info, err := os.Lstat(backing)
	if err != nil {
		return "", newError(NotFound, err.Error())
	}
	if info.Mode()&os.ModeSymlink == 0 {
		return "", newError(NotSymlink, backing+" is not a symlink")
	}
	target, err := os.Readlink(backing)
	if err != nil {
		return "", osError(err)
	}
	return target, nil
}

// StatFilesystem implements "stat-filesystem", delegating to the first
// configured source root.
func (h *Handler) StatFilesystem(string) (FilesystemStats, *Error) {
	if len(h.cfg.Sources) == 0 {
		return FilesystemStats{}, newError(NotFound, "no configured source roots")
	}
	stats, err := statFilesystem(h.cfg.Sources[0].Path)
	if err != nil {
		return FilesystemStats{}, osError(err)
	}
	return stats, nil
}

// ReadDirectory implements "read-directory": try the layer
// manager's projection first, falling back to a backing directory walk,
// filtering every entry through the rule engine and caching the result.
func (h *Handler) ReadDirectory(virtualPath string) ([]string, *Error) {
	virtualPath = normalize(virtualPath)

	if h.cache != nil {
		if cached, ok := h.cache.Get(cache.NamespaceReaddir, virtualPath, cache.L1); ok {
			if names, ok := cached.([]string); ok {
				return names, nil
			}
		}
	}

	names := h.manager.List(strings.TrimPrefix(virtualPath, "/"))
	var filtered []string
	if len(names) > 0 {
		for _, name := range names {
			childVirtual := joinVirtual(virtualPath, name)
			backing, ok := h.manager.Resolve(strings.TrimPrefix(childVirtual, "/"))
			if !ok {
				filtered = append(filtered, name)
				continue
			}
			if h.engine.Visible(strings.TrimPrefix(childVirtual, "/"), h.attrsForRuleEngine(backing)) {
				filtered = append(filtered, name)
			}
		}
	} else {
		backing, rerr := h.resolve(virtualPath)
		if rerr != nil {
			return nil, rerr
		}
		entries, err := os.ReadDir(backing)
		if err != nil {
			return nil, osError(err)
		}
		for _, entry := range entries {
			childBacking := filepath.Join(backing, entry.Name())
			childVirtual := strings.TrimPrefix(joinVirtual(virtualPath, entry.Name()), "/")
			if h.engine.Visible(childVirtual, h.attrsForRuleEngine(childBacking)) {
				filtered = append(filtered, entry.Name())
			}
		}
	}

	result := append([]string{".", ".."}, filtered...)
	if h.cache != nil {
		h.cache.Set(cache.NamespaceReaddir, virtualPath, result, int64(len(result)*16), cache.L1)
	}
	return result, nil
}

func joinVirtual(parent, name string) string {
	if parent == "/" {
		return "/" + name
	}
	return parent + "/" + name
}

// MakeDirectory implements "make-directory".
func (h *Handler) MakeDirectory(virtualPath string, mode os.FileMode) *Error {
	backing, rerr := h.resolveForWrite(virtualPath)
	if rerr != nil {
		return rerr
	}
	if err := h.requireWritable(backing); err != nil {
		return err
	}
	if err := os.Mkdir(backing, mode); err != nil {
		return osError(err)
	}
	h.invalidateAfterMutation(virtualPath)
	return nil
}

// RemoveDirectory implements "remove-directory".
func (h *Handler) RemoveDirectory(virtualPath string) *Error {
	backing, rerr := h.resolve(virtualPath)
	if rerr != nil {
		return rerr
	}
	if err := h.requireWritable(backing); err != nil {
		return err
	}
	if err := os.Remove(backing); err != nil {
		return osError(err)
	}
	h.invalidateAfterMutation(virtualPath)
	return nil
}

// resolveForWrite resolves a path that may not yet exist (create, mkdir):
// it resolves the parent directory and joins the leaf name, since the
// target itself has no backing file to resolve yet.
func (h *Handler) resolveForWrite(virtualPath string) (string, *Error) {
	virtualPath = normalize(virtualPath)
	parentBacking, rerr := h.resolve(parentOf(virtualPath))
	if rerr != nil {
		return "", rerr
	}
	return filepath.Join(parentBacking, filepath.Base(virtualPath)), nil
}

// Open implements "open".
func (h *Handler) Open(virtualPath string, flags int) (uint64, *Error) {
	backing, rerr := h.resolve(virtualPath)
	if rerr != nil {
		return 0, rerr
	}
	if isWriteFlags(flags) {
		if err := h.requireWritable(backing); err != nil {
			return 0, err
		}
	}
	f, err := os.OpenFile(backing, flags, 0)
	if err != nil {
		return 0, newError(NotFound, err.Error())
	}
	return h.handles.open(f, backing, virtualPath, flags).id, nil
}

// Create implements "create".
func (h *Handler) Create(virtualPath string, mode os.FileMode) (uint64, *Error) {
	backing, rerr := h.resolveForWrite(virtualPath)
	if rerr != nil {
		return 0, rerr
	}
	if err := h.requireWritable(backing); err != nil {
		return 0, err
	}
	f, err := os.OpenFile(backing, os.O_CREATE|os.O_RDWR|os.O_TRUNC, mode)
	if err != nil {
		return 0, osError(err)
	}
	h.invalidateAfterMutation(virtualPath)
	return h.handles.open(f, backing, virtualPath, os.O_CREATE|os.O_RDWR).id, nil
}

// Read implements "read" with transformation: the whole backing file is
// read, passed through the pipeline, cached, and sliced to the requested range.
func (h *Handler) Read(ctx context.Context, virtualPath string, size, offset int, handleID uint64) ([]byte, *Error) {
	hnd, ok := h.handles.get(handleID)
	if !ok {
		return nil, newError(BadHandle, "unknown handle")
	}

	cacheKey := virtualPath + transformedSuffix
	var transformed []byte
	if h.cache != nil {
		if cached, ok := h.cache.Get(cache.NamespaceContent, cacheKey, cache.L2); ok {
			if bs, ok := cached.([]byte); ok {
				transformed = bs
			}
		}
	}

	if transformed == nil {
		raw, err := os.ReadFile(hnd.backingPath)
		if err != nil {
			return nil, osError(err)
		}
		meta := transform.Meta{Size: int64(len(raw)), Extension: strings.TrimPrefix(filepath.Ext(virtualPath), ".")}
		result := h.pipeline.Apply(ctx, raw, virtualPath, meta)
		transformed = result.Bytes
		if h.cache != nil {
			h.cache.Set(cache.NamespaceContent, cacheKey, transformed, int64(len(transformed)), cache.L2)
		}
	}

	if offset >= len(transformed) {
		return []byte{}, nil
	}
	end := offset + size
	if end > len(transformed) {
		end = len(transformed)
	}
	return transformed[offset:end], nil
}

// Write implements "write": bypasses the transform pipeline (writes target
// the backing file directly, matching writes to the raw tree), then invalidates.
func (h *Handler) Write(virtualPath string, data []byte, offset int, handleID uint64) (int, *Error) {
	hnd, ok := h.handles.get(handleID)
	if !ok {
		return 0, newError(BadHandle, "unknown handle")
	}
	if err := h.requireWritable(hnd.backingPath); err != nil {
		return 0, err
	}
	n, err := hnd.file.WriteAt(data, int64(offset))
	if err != nil {
		return 0, osError(err)
	}
	h.invalidateAfterMutation(virtualPath)
	return n, nil
}

// Release implements "release".
func (h *Handler) Release(handleID uint64) *Error {
	if !h.handles.release(handleID) {
		return newError(BadHandle, "unknown handle")
	}
	return nil
}

// Unlink implements "unlink".
func (h *Handler) Unlink(virtualPath string) *Error {
	backing, rerr := h.resolve(virtualPath)
	if rerr != nil {
		return rerr
	}
	if err := h.requireWritable(backing); err != nil {
		return err
	}
	if err := os.Remove(backing); err != nil {
		return osError(err)
	}
	h.invalidateAfterMutation(virtualPath)
	return nil
}

// Chmod implements "chmod".
func (h *Handler) Chmod(virtualPath string, mode os.FileMode) *Error {
	backing, rerr := h.resolve(virtualPath)
	if rerr != nil {
		return rerr
	}
	if err := h.requireWritable(backing); err != nil {
		return err
	}
	if err := os.Chmod(backing, mode); err != nil {
		return osError(err)
	}
	h.invalidateAfterMutation(virtualPath)
	return nil
}

// Chown implements "chown".
func (h *Handler) Chown(virtualPath string, uid, gid int) *Error {
	backing, rerr := h.resolve(virtualPath)
	if rerr != nil {
		return rerr
	}
	if err := h.requireWritable(backing); err != nil {
		return err
	}
	if err := os.Chown(backing, uid, gid); err != nil {
		return osError(err)
	}
	h.invalidateAfterMutation(virtualPath)
	return nil
}

// Utimens implements "utimens".
func (h *Handler) Utimens(virtualPath string, atimeSeconds, mtimeSeconds int64) *Error {
	backing, rerr := h.resolve(virtualPath)
	if rerr != nil {
		return rerr
	}
	if err := h.requireWritable(backing); err != nil {
		return err
	}
	if err := os.Chtimes(backing, time.Unix(atimeSeconds, 0), time.Unix(mtimeSeconds, 0)); err != nil {
		return osError(err)
	}
	h.invalidateAfterMutation(virtualPath)
	return nil
}

// Access implements "access".
func (h *Handler) Access(virtualPath string, writeRequested bool) *Error {
	backing, rerr := h.resolve(virtualPath)
	if rerr != nil {
		return rerr
	}
	if writeRequested {
		if err := h.requireWritable(backing); err != nil {
			return err
		}
	}
	if _, err := os.Lstat(backing); err != nil {
		return newError(NoPermission, err.Error())
	}
	return nil
}

// Fsync implements "fsync".
func (h *Handler) Fsync(handleID uint64) *Error {
	hnd, ok := h.handles.get(handleID)
	if !ok {
		return newError(BadHandle, "unknown handle")
	}
	if err := hnd.file.Sync(); err != nil {
		return osError(err)
	}
	return nil
}

func isWriteFlags(flags int) bool {
	return flags&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_TRUNC|os.O_APPEND) != 0
}
