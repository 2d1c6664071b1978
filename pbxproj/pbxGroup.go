package pbxproj

import (
	"path/filepath"

	"github.com/brave/ios-buildtools/pegparser"
)

func pbxGroupChild(pbxfile *PbxFile) CommentValue {
	return CommentValue{
		Value:   pbxfile.FileRef,
		Comment: pbxfile.Basename,
	}
}

// MainGroup returns the root group of the first project. The returned
// object is empty when the project has none.
func (p *PbxProject) MainGroup() pegparser.ObjectWithUUID {
	project := p.getFirstProject()
	id := project.GetString("mainGroup")
	return pegparser.ObjectWithUUID{
		UUID:   id,
		Object: p.pbxGroupSection.GetObject(id),
	}
}

func (p *PbxProject) groupByKey(key string) pegparser.Object {
	return p.pbxGroupSection.GetObject(key)
}

// groupName is the display name Xcode shows: the name when set, otherwise
// the last path element.
func groupName(group pegparser.Object) string {
	if name := unquoted(group.GetString("name")); name != "" {
		return name
	}
	return filepath.Base(unquoted(group.GetString("path")))
}

func (p *PbxProject) findChildGroup(parent pegparser.Object, name string) (pegparser.ObjectWithUUID, bool) {
	for _, child := range parent.GetArray("children") {
		key := listValue(child)
		group := p.groupByKey(key)
		if group.IsEmpty() {
			continue
		}
		if groupName(group) == name {
			return pegparser.ObjectWithUUID{UUID: key, Object: group}, true
		}
	}
	return pegparser.ObjectWithUUID{}, false
}

// GetOrCreateGroup returns the child group called name below parent (the
// main group when parent is nil), creating it when missing. Groups created
// with a path are anchored at the source root.
func (p *PbxProject) GetOrCreateGroup(name, path string, parent *pegparser.ObjectWithUUID) pegparser.ObjectWithUUID {
	if parent == nil {
		mainGroup := p.MainGroup()
		parent = &mainGroup
	}
	if group, ok := p.findChildGroup(parent.Object, name); ok {
		return group
	}

	group := p.pbxCreateGroup(name, path)
	addToObjectList(parent.Object, "children", CommentValue{
		Value:   group.UUID,
		Comment: name,
	}.ToObject())
	return group
}

func (p *PbxProject) pbxCreateGroup(name, pathName string) pegparser.ObjectWithUUID {
	model := pegparser.NewObjectWithData([]pegparser.SliceItem{
		pegparser.NewObjectItem("isa", "PBXGroup"),
		pegparser.NewObjectItem("children", []interface{}{}),
		pegparser.NewObjectItem("name", quoteIfNeeded(name)),
	})

	if pathName != "" {
		model.Set("path", quoteIfNeeded(filepath.ToSlash(pathName)))
		model.Set("sourceTree", SOURCE_ROOT_SOURCETREE)
	} else {
		model.Set("sourceTree", DEFAULT_SOURCETREE)
	}
	key := p.generateUuid()

	p.pbxGroupSection.Set(key, model)
	p.pbxGroupSection.Set(toCommentKey(key), name)
	return pegparser.ObjectWithUUID{UUID: key, Object: model}
}

// GroupChildren lists the uuids below group in display order.
func (p *PbxProject) GroupChildren(group pegparser.ObjectWithUUID) []string {
	var ids []string
	for _, child := range group.GetArray("children") {
		ids = append(ids, listValue(child))
	}
	return ids
}

func (p *PbxProject) MoveLastChildToFront(group pegparser.ObjectWithUUID) {
	children := group.GetArray("children")
	if len(children) < 2 {
		return
	}
	reordered := make([]interface{}, 0, len(children))
	reordered = append(reordered, children[len(children)-1])
	reordered = append(reordered, children[:len(children)-1]...)
	group.Set("children", reordered)
}
