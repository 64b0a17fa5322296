package fskernel

import (
	"context"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// permMode narrows a raw FUSE mode/permission word down to the
// permission bits Handler's os.FileMode-typed operations expect.
func permMode(raw uint32) os.FileMode { return os.FileMode(raw & 0o7777) }

// toErrno translates a Code into the syscall.Errno the kernel expects.
func toErrno(err *Error) syscall.Errno {
	if err == nil {
		return 0
	}
	switch err.Code {
	case OK:
		return 0
	case InvalidInput:
		return syscall.EINVAL
	case NotFound:
		return syscall.ENOENT
	case NoPermission:
		return syscall.EACCES
	case ReadOnly:
		return syscall.EROFS
	case NotDirectory:
		return syscall.ENOTDIR
	case NotEmpty:
		return syscall.ENOTEMPTY
	case Exists:
		return syscall.EEXIST
	case NotSymlink:
		return syscall.EINVAL
	case BadHandle:
		return syscall.EBADF
	default:
		return syscall.EIO
	}
}

// node is the InodeEmbedder backing every entry in the mounted tree. It
// carries no state of its own beyond its virtual path; every operation is
// delegated to the shared Handler, so the tree never drifts out of sync
// with the layer manager, rule engine, or cache.
type node struct {
	fs.Inode
	handler *Handler
	vpath   string
}

var _ = (fs.InodeEmbedder)((*node)(nil))
var _ = (fs.NodeLookuper)((*node)(nil))
var _ = (fs.NodeGetattrer)((*node)(nil))
var _ = (fs.NodeReaddirer)((*node)(nil))
var _ = (fs.NodeOpener)((*node)(nil))
var _ = (fs.NodeCreater)((*node)(nil))
var _ = (fs.NodeMkdirer)((*node)(nil))
var _ = (fs.NodeRmdirer)((*node)(nil))
var _ = (fs.NodeUnlinker)((*node)(nil))
var _ = (fs.NodeReadlinker)((*node)(nil))
var _ = (fs.NodeSetattrer)((*node)(nil))
var _ = (fs.NodeStatfser)((*node)(nil))

func childPath(parent, name string) string {
	if parent == "/" {
		return "/" + name
	}
	return parent + "/" + name
}

// Root constructs the InodeEmbedder for the mount's root directory.
func Root(handler *Handler) fs.InodeEmbedder {
	return &node{handler: handler, vpath: "/"}
}

func (n *node) newChild(ctx context.Context, vpath string, attrs Attributes, out *fuse.EntryOut) *fs.Inode {
	mode := attrs.Mode
	if attrs.IsDir {
		mode |= syscall.S_IFDIR
	} else if attrs.IsSymlink {
		mode |= syscall.S_IFLNK
	} else {
		mode |= syscall.S_IFREG
	}
	fillAttrOut(attrs, &out.Attr)
	out.SetEntryTimeout(time.Second)
	out.SetAttrTimeout(time.Second)
	return n.NewInode(ctx, &node{handler: n.handler, vpath: vpath}, fs.StableAttr{Mode: mode})
}

func fillAttrOut(attrs Attributes, out *fuse.Attr) {
	out.Mode = attrs.Mode
	out.Size = uint64(attrs.Size)
	out.Nlink = attrs.NLink
	out.Mtime = uint64(attrs.ModTimeSeconds)
	out.Mtimensec = uint32(attrs.ModTimeNanos)
	out.Ctime = uint64(attrs.ChangeTimeSeconds)
	out.Ctimensec = uint32(attrs.ChangeTimeNanos)
	out.Atime = uint64(attrs.AccessTimeSeconds)
	out.Atimensec = uint32(attrs.AccessTimeNanos)
	out.Uid = attrs.UID
	out.Gid = attrs.GID
}

// Lookup resolves name within n, delegating to the handler's path
// resolution and attribute lookup.
func (n *node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	vpath := childPath(n.vpath, name)
	attrs, err := n.handler.GetAttributes(vpath)
	if err != nil {
		return nil, toErrno(err)
	}
	return n.newChild(ctx, vpath, attrs, out), 0
}

// Getattr fills out with the node's current attributes.
func (n *node) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	attrs, err := n.handler.GetAttributes(n.vpath)
	if err != nil {
		return toErrno(err)
	}
	fillAttrOut(attrs, &out.Attr)
	return 0
}

// Setattr supports mode, ownership, and timestamp changes.
func (n *node) Setattr(ctx context.Context, f fs.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	if mode, ok := in.GetMode(); ok {
		if err := n.handler.Chmod(n.vpath, permMode(mode)); err != nil {
			return toErrno(err)
		}
	}
	if uid, ok := in.GetUID(); ok {
		gid, hasGID := in.GetGID()
		if !hasGID {
			gid = ^uint32(0)
		}
		if err := n.handler.Chown(n.vpath, int(uid), int(gid)); err != nil {
			return toErrno(err)
		}
	}
	if mtime, ok := in.GetMTime(); ok {
		atime, hasAtime := in.GetATime()
		if !hasAtime {
			atime = mtime
		}
		if err := n.handler.Utimens(n.vpath, atime.Unix(), mtime.Unix()); err != nil {
			return toErrno(err)
		}
	}
	return n.Getattr(ctx, f, out)
}

// Statfs reports filesystem-level statistics.
func (n *node) Statfs(ctx context.Context, out *fuse.StatfsOut) syscall.Errno {
	stats, err := n.handler.StatFilesystem(n.vpath)
	if err != nil {
		return toErrno(err)
	}
	out.Bsize = stats.BlockSize
	out.Blocks = stats.TotalBlocks
	out.Bfree = stats.FreeBlocks
	out.Bavail = stats.AvailableBlocks
	out.Files = stats.TotalFiles
	out.Ffree = stats.FreeFiles
	out.NameLen = stats.MaxNameLength
	return 0
}

// Readlink returns a symlink's target.
func (n *node) Readlink(ctx context.Context) ([]byte, syscall.Errno) {
	target, err := n.handler.ReadSymlink(n.vpath)
	if err != nil {
		return nil, toErrno(err)
	}
	return []byte(target), 0
}

// dirStream adapts a []string of entry names to fs.DirStream.
type dirStream struct {
	names []string
	pos   int
}

func (d *dirStream) HasNext() bool { return d.pos < len(d.names) }

func (d *dirStream) Next() (fuse.DirEntry, syscall.Errno) {
	name := d.names[d.pos]
	d.pos++
	return fuse.DirEntry{Name: name}, 0
}

func (d *dirStream) Close() {}

// Readdir lists the directory's visible entries through the handler.
func (n *node) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	names, err := n.handler.ReadDirectory(n.vpath)
	if err != nil {
		return nil, toErrno(err)
	}
	return &dirStream{names: names}, 0
}

// fileHandle wraps an open handle id so FileReader/FileWriter/FileFlusher/
// FileReleaser can identify which entry in the handler's table to use.
type fileHandle struct {
	mu      sync.Mutex
	handler *Handler
	vpath   string
	id      uint64
}

var _ = (fs.FileReader)((*fileHandle)(nil))
var _ = (fs.FileWriter)((*fileHandle)(nil))
var _ = (fs.FileFlusher)((*fileHandle)(nil))
var _ = (fs.FileReleaser)((*fileHandle)(nil))
var _ = (fs.FileFsyncer)((*fileHandle)(nil))

func (fh *fileHandle) Read(ctx context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	data, err := fh.handler.Read(ctx, fh.vpath, len(dest), int(off), fh.id)
	if err != nil {
		return nil, toErrno(err)
	}
	return fuse.ReadResultData(data), 0
}

func (fh *fileHandle) Write(ctx context.Context, data []byte, off int64) (uint32, syscall.Errno) {
	n, err := fh.handler.Write(fh.vpath, data, int(off), fh.id)
	if err != nil {
		return 0, toErrno(err)
	}
	return uint32(n), 0
}

func (fh *fileHandle) Flush(ctx context.Context) syscall.Errno { return 0 }

func (fh *fileHandle) Release(ctx context.Context) syscall.Errno {
	if err := fh.handler.Release(fh.id); err != nil {
		return toErrno(err)
	}
	return 0
}

func (fh *fileHandle) Fsync(ctx context.Context, flags uint32) syscall.Errno {
	if err := fh.handler.Fsync(fh.id); err != nil {
		return toErrno(err)
	}
	return 0
}

// Open opens the node for reading/writing, returning a fileHandle bound to
// the handler's open-handle table.
func (n *node) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	id, err := n.handler.Open(n.vpath, int(flags))
	if err != nil {
		return nil, 0, toErrno(err)
	}
	return &fileHandle{handler: n.handler, vpath: n.vpath, id: id}, 0, 0
}

// Create creates a new regular file child.
func (n *node) Create(ctx context.Context, name string, flags uint32, mode uint32, out *fuse.EntryOut) (*fs.Inode, fs.FileHandle, uint32, syscall.Errno) {
	vpath := childPath(n.vpath, name)
	id, err := n.handler.Create(vpath, permMode(mode))
	if err != nil {
		return nil, nil, 0, toErrno(err)
	}
	attrs, attrErr := n.handler.GetAttributes(vpath)
	if attrErr != nil {
		return nil, nil, 0, toErrno(attrErr)
	}
	child := n.newChild(ctx, vpath, attrs, out)
	return child, &fileHandle{handler: n.handler, vpath: vpath, id: id}, 0, 0
}

// Mkdir creates a new subdirectory child.
func (n *node) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	vpath := childPath(n.vpath, name)
	if err := n.handler.MakeDirectory(vpath, permMode(mode)); err != nil {
		return nil, toErrno(err)
	}
	attrs, err := n.handler.GetAttributes(vpath)
	if err != nil {
		return nil, toErrno(err)
	}
	return n.newChild(ctx, vpath, attrs, out), 0
}

// Rmdir removes a subdirectory child.
func (n *node) Rmdir(ctx context.Context, name string) syscall.Errno {
	if err := n.handler.RemoveDirectory(childPath(n.vpath, name)); err != nil {
		return toErrno(err)
	}
	return 0
}

// Unlink removes a regular file or symlink child.
func (n *node) Unlink(ctx context.Context, name string) syscall.Errno {
	if err := n.handler.Unlink(childPath(n.vpath, name)); err != nil {
		return toErrno(err)
	}
	return 0
}

// Mount starts serving the tree rooted at handler over FUSE at mountpoint,
// returning the running server so the caller can Wait or Unmount it.
func Mount(mountpoint string, handler *Handler, allowOther bool) (*fuse.Server, error) {
	opts := &fs.Options{
		MountOptions: fuse.MountOptions{
			AllowOther: allowOther,
			FsName:     "shadowfs",
			Name:       "shadowfs",
		},
	}
	sec := time.Second
	opts.EntryTimeout = &sec
	opts.AttrTimeout = &sec
	server, err := fs.Mount(mountpoint, Root(handler), opts)
	if err != nil {
		return nil, err
	}
	return server, nil
}
