package rules

import "os"

// Attrs is the attribute set a condition may test. Fields are plain values;
// callers populate only what they have (recorded in the present set) and
// the condition evaluator treats an attribute it needs but wasn't given as
// "missing" — which spec.md requires
// to make any condition rule involving it simply not match.
type Attrs struct {
	Size        int64
	ModTime     int64 // Unix seconds
	Mode        os.FileMode
	UID         uint32
	GID         uint32
	IsFile      bool
	IsDir       bool
	IsSymlink   bool
	Permissions string // e.g. "rwxr-xr-x"

	// present tracks which fields were actually set, so that an omitted
	// attribute (as opposed to one explicitly set to its zero value) can be
	// distinguished for the "missing attribute" failure rule.
	present map[Attribute]bool
}

// Attribute names a single testable attribute.
type Attribute string

const (
	AttrSize        Attribute = "size"
	AttrMTime       Attribute = "mtime"
	AttrMode        Attribute = "mode"
	AttrUID         Attribute = "uid"
	AttrGID         Attribute = "gid"
	AttrIsFile      Attribute = "is_file"
	AttrIsDir       Attribute = "is_dir"
	AttrIsSymlink   Attribute = "is_symlink"
	AttrPermissions Attribute = "permissions"
)

// NewAttrs creates an Attrs builder with nothing marked present yet.
func NewAttrs() *Attrs {
	return &Attrs{present: make(map[Attribute]bool, 8)}
}

func (a *Attrs) WithSize(v int64) *Attrs        { a.Size = v; a.mark(AttrSize); return a }
func (a *Attrs) WithMTime(v int64) *Attrs       { a.ModTime = v; a.mark(AttrMTime); return a }
func (a *Attrs) WithMode(v os.FileMode) *Attrs  { a.Mode = v; a.mark(AttrMode); return a }
func (a *Attrs) WithUID(v uint32) *Attrs        { a.UID = v; a.mark(AttrUID); return a }
func (a *Attrs) WithGID(v uint32) *Attrs        { a.GID = v; a.mark(AttrGID); return a }
func (a *Attrs) WithIsFile(v bool) *Attrs       { a.IsFile = v; a.mark(AttrIsFile); return a }
func (a *Attrs) WithIsDir(v bool) *Attrs        { a.IsDir = v; a.mark(AttrIsDir); return a }
func (a *Attrs) WithIsSymlink(v bool) *Attrs    { a.IsSymlink = v; a.mark(AttrIsSymlink); return a }
func (a *Attrs) WithPermissions(v string) *Attrs {
	a.Permissions = v
	a.mark(AttrPermissions)
	return a
}

func (a *Attrs) mark(attr Attribute) { a.present[attr] = true }

// Has reports whether attr was explicitly populated.
func (a *Attrs) Has(attr Attribute) bool {
	return a != nil && a.present[attr]
}
