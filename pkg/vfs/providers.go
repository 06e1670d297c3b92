package vfs

import (
	"github.com/objectfs/memvfs/pkg/types"
	"github.com/objectfs/memvfs/pkg/vfserr"
)

func ro(kind types.AttrKind) AttrDescriptor {
	return AttrDescriptor{Type: kind, Flags: AttrFlags{Readable: true}}
}

func rw(kind types.AttrKind, onCreate bool) AttrDescriptor {
	return AttrDescriptor{Type: kind, Flags: AttrFlags{Readable: true, Writable: true, SettableOnCreate: onCreate}}
}

// basicProvider implements the basic view: the nine attributes every node
// carries regardless of kind.
type basicProvider struct{}

func (basicProvider) Name() string     { return types.ViewBasic }
func (basicProvider) Inherits() []string { return nil }

func (basicProvider) Attributes() map[string]AttrDescriptor {
	return map[string]AttrDescriptor{
		"lastModifiedTime": rw(types.KindFileTime, true),
		"lastAccessTime":   rw(types.KindFileTime, true),
		"creationTime":     rw(types.KindFileTime, true),
		"size":             ro(types.KindInt64),
		"isRegularFile":    ro(types.KindBool),
		"isDirectory":      ro(types.KindBool),
		"isSymbolicLink":   ro(types.KindBool),
		"isOther":          ro(types.KindBool),
		"fileKey":          ro(types.KindInt64),
	}
}

func (p basicProvider) GetOne(n *node, name string) (types.AttrValue, bool) {
	switch name {
	case "lastModifiedTime":
		return types.FileTimeValue(n.mtime), true
	case "lastAccessTime":
		return types.FileTimeValue(n.atime), true
	case "creationTime":
		return types.FileTimeValue(n.ctime), true
	case "size":
		if n.isRegularFile() {
			return types.Int64Value(n.file.Size()), true
		}
		return types.Int64Value(0), true
	case "isRegularFile":
		return types.BoolValue(n.isRegularFile()), true
	case "isDirectory":
		return types.BoolValue(n.isDirectory()), true
	case "isSymbolicLink":
		return types.BoolValue(n.isSymbolicLink()), true
	case "isOther":
		return types.BoolValue(false), true
	case "fileKey":
		return types.Int64Value(n.id), true
	}
	return nil, false
}

func (p basicProvider) Get(n *node) (string, map[string]types.AttrValue) {
	out := make(map[string]types.AttrValue, len(p.Attributes()))
	for name := range p.Attributes() {
		if v, ok := p.GetOne(n, name); ok {
			out[name] = v
		}
	}
	return p.Name(), out
}

func (basicProvider) Set(n *node, name string, value types.AttrValue, onCreate bool) error {
	switch name {
	case "lastModifiedTime":
		n.mtime = types.FileTime(value.(types.FileTimeValue))
	case "lastAccessTime":
		n.atime = types.FileTime(value.(types.FileTimeValue))
	case "creationTime":
		n.ctime = types.FileTime(value.(types.FileTimeValue))
	default:
		return vfserr.New(vfserr.Unsupported, "attribute not settable").WithAttribute(name).WithComponent("attrs")
	}
	return nil
}

func (basicProvider) SetInitialAttributes(n *node) {}

// ownerProvider implements the owner view: a single UserPrincipal.
type ownerProvider struct{ defaultOwner string }

func (ownerProvider) Name() string       { return types.ViewOwner }
func (ownerProvider) Inherits() []string { return nil }

func (ownerProvider) Attributes() map[string]AttrDescriptor {
	return map[string]AttrDescriptor{"owner": rw(types.KindUserPrincipal, true)}
}

func (p ownerProvider) GetOne(n *node, name string) (types.AttrValue, bool) {
	if name != "owner" {
		return nil, false
	}
	v, ok := n.getAttr(types.ViewOwner, "owner")
	if !ok {
		return types.UserPrincipalValue(p.defaultOwner), true
	}
	return v, true
}

func (p ownerProvider) Get(n *node) (string, map[string]types.AttrValue) {
	v, _ := p.GetOne(n, "owner")
	return p.Name(), map[string]types.AttrValue{"owner": v}
}

func (ownerProvider) Set(n *node, name string, value types.AttrValue, onCreate bool) error {
	n.setAttr(types.ViewOwner, "owner", value)
	return nil
}

func (p ownerProvider) SetInitialAttributes(n *node) {
	n.setAttr(types.ViewOwner, "owner", types.UserPrincipalValue(p.defaultOwner))
}

// posixProvider implements the posix view: permissions and group, plus
// basic and owner by inheritance.
type posixProvider struct{ defaultGroup string }

func (posixProvider) Name() string       { return types.ViewPosix }
func (posixProvider) Inherits() []string { return []string{types.ViewBasic, types.ViewOwner} }

func (posixProvider) Attributes() map[string]AttrDescriptor {
	return map[string]AttrDescriptor{
		"permissions": rw(types.KindPermissionSet, true),
		"group":       rw(types.KindUserPrincipal, true),
	}
}

func (p posixProvider) GetOne(n *node, name string) (types.AttrValue, bool) {
	switch name {
	case "permissions":
		v, ok := n.getAttr(types.ViewPosix, "permissions")
		if !ok {
			return types.NewPermissionSet("OWNER_READ", "OWNER_WRITE", "GROUP_READ"), true
		}
		return v, true
	case "group":
		v, ok := n.getAttr(types.ViewPosix, "group")
		if !ok {
			return types.UserPrincipalValue(p.defaultGroup), true
		}
		return v, true
	}
	return nil, false
}

func (p posixProvider) Get(n *node) (string, map[string]types.AttrValue) {
	out := map[string]types.AttrValue{}
	for name := range p.Attributes() {
		if v, ok := p.GetOne(n, name); ok {
			out[name] = v
		}
	}
	return p.Name(), out
}

func (posixProvider) Set(n *node, name string, value types.AttrValue, onCreate bool) error {
	switch name {
	case "permissions", "group":
		n.setAttr(types.ViewPosix, name, value)
	default:
		return vfserr.New(vfserr.Unsupported, "attribute not settable").WithAttribute(name).WithComponent("attrs")
	}
	return nil
}

func (p posixProvider) SetInitialAttributes(n *node) {
	n.setAttr(types.ViewPosix, "permissions", types.NewPermissionSet("OWNER_READ", "OWNER_WRITE", "GROUP_READ"))
	n.setAttr(types.ViewPosix, "group", types.UserPrincipalValue(p.defaultGroup))
}

// unixProvider implements the unix view, inheriting basic, owner, and
// posix.
type unixProvider struct{}

func (unixProvider) Name() string { return types.ViewUnix }
func (unixProvider) Inherits() []string {
	return []string{types.ViewBasic, types.ViewOwner, types.ViewPosix}
}

func (unixProvider) Attributes() map[string]AttrDescriptor {
	return map[string]AttrDescriptor{
		"uid":   rw(types.KindInt64, true),
		"gid":   rw(types.KindInt64, true),
		"mode":  rw(types.KindInt64, true),
		"ctime": ro(types.KindFileTime),
		"ino":   ro(types.KindInt64),
		"dev":   ro(types.KindInt64),
		"rdev":  ro(types.KindInt64),
		"nlink": ro(types.KindInt64),
	}
}

func (unixProvider) GetOne(n *node, name string) (types.AttrValue, bool) {
	switch name {
	case "uid":
		v, ok := n.getAttr(types.ViewUnix, "uid")
		if !ok {
			return types.Int64Value(0), true
		}
		return v, true
	case "gid":
		v, ok := n.getAttr(types.ViewUnix, "gid")
		if !ok {
			return types.Int64Value(0), true
		}
		return v, true
	case "mode":
		v, ok := n.getAttr(types.ViewUnix, "mode")
		if !ok {
			return types.Int64Value(defaultModeFor(n)), true
		}
		return v, true
	case "ctime":
		return types.FileTimeValue(n.ctime), true
	case "ino":
		return types.Int64Value(n.id), true
	case "dev", "rdev":
		return types.Int64Value(0), true
	case "nlink":
		return types.Int64Value(int64(n.linkCount())), true
	}
	return nil, false
}

func defaultModeFor(n *node) int64 {
	if n.isDirectory() {
		return 0755
	}
	return 0644
}

func (p unixProvider) Get(n *node) (string, map[string]types.AttrValue) {
	out := map[string]types.AttrValue{}
	for name := range p.Attributes() {
		if v, ok := p.GetOne(n, name); ok {
			out[name] = v
		}
	}
	return p.Name(), out
}

func (unixProvider) Set(n *node, name string, value types.AttrValue, onCreate bool) error {
	switch name {
	case "uid", "gid", "mode":
		n.setAttr(types.ViewUnix, name, value)
	default:
		return vfserr.New(vfserr.Unsupported, "attribute not settable").WithAttribute(name).WithComponent("attrs")
	}
	return nil
}

func (unixProvider) SetInitialAttributes(n *node) {}

// dosProvider implements the dos view: four boolean flags, inheriting
// basic.
type dosProvider struct{}

func (dosProvider) Name() string         { return types.ViewDos }
func (dosProvider) Inherits() []string   { return []string{types.ViewBasic} }

func (dosProvider) Attributes() map[string]AttrDescriptor {
	return map[string]AttrDescriptor{
		"readonly": rw(types.KindBool, true),
		"hidden":   rw(types.KindBool, true),
		"system":   rw(types.KindBool, true),
		"archive":  rw(types.KindBool, true),
	}
}

func (dosProvider) GetOne(n *node, name string) (types.AttrValue, bool) {
	switch name {
	case "readonly", "hidden", "system", "archive":
		v, ok := n.getAttr(types.ViewDos, name)
		if !ok {
			return types.BoolValue(false), true
		}
		return v, true
	}
	return nil, false
}

func (p dosProvider) Get(n *node) (string, map[string]types.AttrValue) {
	out := map[string]types.AttrValue{}
	for name := range p.Attributes() {
		if v, ok := p.GetOne(n, name); ok {
			out[name] = v
		}
	}
	return p.Name(), out
}

func (dosProvider) Set(n *node, name string, value types.AttrValue, onCreate bool) error {
	switch name {
	case "readonly", "hidden", "system", "archive":
		n.setAttr(types.ViewDos, name, value)
	default:
		return vfserr.New(vfserr.Unsupported, "attribute not settable").WithAttribute(name).WithComponent("attrs")
	}
	return nil
}

func (dosProvider) SetInitialAttributes(n *node) {
	n.setAttr(types.ViewDos, "readonly", types.BoolValue(false))
	n.setAttr(types.ViewDos, "hidden", types.BoolValue(false))
	n.setAttr(types.ViewDos, "system", types.BoolValue(false))
	n.setAttr(types.ViewDos, "archive", types.BoolValue(false))
}

// userProvider implements the user view: arbitrary byte-array attributes,
// akin to POSIX extended attributes. Any name is valid; there is no fixed
// attribute list.
type userProvider struct{}

func (userProvider) Name() string       { return types.ViewUser }
func (userProvider) Inherits() []string { return nil }

// Attributes returns an empty declared set: the user view accepts any
// name, so HasDynamicNames (not a fixed Attributes() entry) governs
// resolution in AttributeService.
func (userProvider) Attributes() map[string]AttrDescriptor { return map[string]AttrDescriptor{} }

// HasDynamicNames marks the user view as accepting any attribute name,
// consulted by AttributeService.resolve instead of a fixed Attributes() set.
func (userProvider) HasDynamicNames() bool { return true }

func (userProvider) GetOne(n *node, name string) (types.AttrValue, bool) {
	return n.getAttr(types.ViewUser, name)
}

func (userProvider) Get(n *node) (string, map[string]types.AttrValue) {
	n.attrsMu.RLock()
	defer n.attrsMu.RUnlock()
	out := make(map[string]types.AttrValue, len(n.attrs[types.ViewUser]))
	for k, v := range n.attrs[types.ViewUser] {
		out[k] = v
	}
	return types.ViewUser, out
}

func (userProvider) Set(n *node, name string, value types.AttrValue, onCreate bool) error {
	if value.Kind() != types.KindByteArray {
		return vfserr.New(vfserr.InvalidArgument, "user attributes must be byte arrays").WithAttribute(name).WithComponent("attrs")
	}
	n.setAttr(types.ViewUser, name, value)
	return nil
}

func (userProvider) SetInitialAttributes(n *node) {}

// DefaultProviders builds the standard set of providers for a Unix-flavored
// filesystem, per spec.md §6's attribute view table.
func DefaultProviders() []AttributeProvider {
	return []AttributeProvider{
		basicProvider{},
		ownerProvider{defaultOwner: "root"},
		posixProvider{defaultGroup: "root"},
		unixProvider{},
		dosProvider{},
		userProvider{},
	}
}
