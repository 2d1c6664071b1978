package composer

import (
	"context"
	"path"
	"path/filepath"
	"strings"

	"github.com/brave/ios-buildtools/internal/ctxlog"
	"github.com/brave/ios-buildtools/pbxproj"
	"github.com/brave/ios-buildtools/pegparser"
)

// normalizePath turns a directory or file path into the slash separated,
// source root relative key both caches use.
func normalizePath(p string) string {
	p = path.Clean(filepath.ToSlash(p))
	for strings.HasPrefix(p, "../") {
		p = strings.TrimPrefix(p, "../")
	}
	if p == ".." {
		return "."
	}
	return p
}

// GroupCache maps a directory to the single group created for it. Parent
// directories get their groups first, so the group tree mirrors the
// directory tree.
type GroupCache struct {
	project *pbxproj.PbxProject
	groups  map[string]pegparser.ObjectWithUUID
}

func NewGroupCache(project *pbxproj.PbxProject) *GroupCache {
	return &GroupCache{
		project: project,
		groups:  make(map[string]pegparser.ObjectWithUUID),
	}
}

// Group returns the group for dir, creating it and its ancestors on first
// use. "." is the main group.
func (c *GroupCache) Group(dir string) pegparser.ObjectWithUUID {
	dir = normalizePath(dir)
	if group, ok := c.groups[dir]; ok {
		return group
	}
	if dir == "." {
		group := c.project.MainGroup()
		c.groups[dir] = group
		return group
	}

	var parent *pegparser.ObjectWithUUID
	if parentDir := path.Dir(dir); parentDir != "." {
		p := c.Group(parentDir)
		parent = &p
	}
	group := c.project.GetOrCreateGroup(path.Base(dir), dir, parent)
	c.groups[dir] = group
	return group
}

func (c *GroupCache) Len() int {
	return len(c.groups)
}

// FileRefCache remembers the file reference registered for each path. The
// first registration wins.
type FileRefCache struct {
	project *pbxproj.PbxProject
	refs    map[string]*pbxproj.PbxFile
}

func NewFileRefCache(project *pbxproj.PbxProject) *FileRefCache {
	return &FileRefCache{
		project: project,
		refs:    make(map[string]*pbxproj.PbxFile),
	}
}

// Register adds the file at rel to parent without build files. A path seen
// before is logged and its cached reference returned.
func (c *FileRefCache) Register(ctx context.Context, rel string, parent pegparser.ObjectWithUUID) (*pbxproj.PbxFile, error) {
	rel = normalizePath(rel)
	if ref, ok := c.refs[rel]; ok {
		ctxlog.FromContext(ctx).Warn("duplicate file registration", "path", rel, "fileRef", ref.FileRef)
		return ref, nil
	}
	ref, err := c.project.AddFile(path.Base(rel), pbxproj.PbxFileOptions{Parent: &parent})
	if err != nil {
		return nil, err
	}
	c.refs[rel] = ref
	return ref, nil
}

func (c *FileRefCache) Lookup(rel string) (*pbxproj.PbxFile, bool) {
	ref, ok := c.refs[normalizePath(rel)]
	return ref, ok
}

// Insert records a reference created elsewhere. An existing entry is kept.
func (c *FileRefCache) Insert(rel string, ref *pbxproj.PbxFile) {
	rel = normalizePath(rel)
	if _, ok := c.refs[rel]; !ok {
		c.refs[rel] = ref
	}
}

func (c *FileRefCache) Len() int {
	return len(c.refs)
}
