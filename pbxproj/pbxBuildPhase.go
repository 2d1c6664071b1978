package pbxproj

import (
	"fmt"

	"github.com/brave/ios-buildtools/pegparser"
)

func (p *PbxProject) TargetByName(name string) (target pegparser.ObjectWithUUID, err error) {
	found := false
	p.pbxNativeTargetSection.ForeachWithFilter(func(key string, value interface{}) pegparser.IterateActionType {
		obj, ok := value.(pegparser.Object)
		if ok && unquoted(obj.GetString("name")) == name {
			target = pegparser.ObjectWithUUID{UUID: key, Object: obj}
			found = true
			return pegparser.IterateActionBreak
		}
		return pegparser.IterateActionContinue
	}, nonCommentsFilter)
	if !found {
		return target, fmt.Errorf("%w: %s", ErrTargetNotFound, name)
	}
	return target, nil
}

// TargetBuildPhases returns the build phases of target in build order. An
// empty isa selects every phase.
func (p *PbxProject) TargetBuildPhases(target pegparser.ObjectWithUUID, isa string) []pegparser.ObjectWithUUID {
	var phases []pegparser.ObjectWithUUID
	for _, entry := range target.GetArray("buildPhases") {
		key := listValue(entry)
		phase, ok := p.objectByUUID(key)
		if !ok {
			continue
		}
		if isa != "" && unquoted(phase.GetString("isa")) != isa {
			continue
		}
		phases = append(phases, pegparser.ObjectWithUUID{UUID: key, Object: phase})
	}
	return phases
}

// AddBuildFile creates a PBXBuildFile for pbxfile and lists it in phase.
func (p *PbxProject) AddBuildFile(pbxfile *PbxFile, phase pegparser.ObjectWithUUID) string {
	if name := buildPhaseNameForIsa(unquoted(phase.GetString("isa"))); name != "" {
		pbxfile.Group = name
	}
	pbxfile.Uuid = p.generateUuid()
	p.addToPbxBuildFileSection(pbxfile)
	addToObjectList(phase.Object, "files", pbxBuildPhaseObj(pbxfile))
	return pbxfile.Uuid
}

// AppendToBuildPhase lists an existing build file in another phase. It
// reports false when the phase already lists it.
func (p *PbxProject) AppendToBuildPhase(buildFileUuid, comment string, phase pegparser.ObjectWithUUID) bool {
	entry := CommentValue{Value: buildFileUuid, Comment: comment}.ToObject()
	return addToObjectListOnlyNotExist(phase.Object, "files", entry, func(v1, v2 interface{}) bool {
		return listValue(v1) == listValue(v2)
	})
}

func pbxBuildPhaseObj(pbxfile *PbxFile) pegparser.Object {
	obj := pegparser.NewObject()
	obj.Set("value", pbxfile.Uuid)
	obj.Set("comment", longComment(pbxfile))
	return obj
}

type pbxShellScriptBuildPhaseObjOptions struct {
	InputPaths  []string
	OutputPaths []string
	ShellPath   string
	ShellScript string
}

func pbxShellScriptBuildPhaseObj(obj pegparser.Object, options pbxShellScriptBuildPhaseObjOptions, phaseName string) pegparser.Object {
	obj.Set("inputPaths", stringToInterfaceSliceOrEmpty(options.InputPaths))
	obj.Set("name", quoteIfNeeded(phaseName))
	obj.Set("outputPaths", stringToInterfaceSliceOrEmpty(options.OutputPaths))
	obj.Set("runOnlyForDeploymentPostprocessing", 0)
	shellPath := options.ShellPath
	if shellPath == "" {
		shellPath = "/bin/sh"
	}
	obj.Set("shellPath", shellPath)
	obj.Set("shellScript", quoted(options.ShellScript))
	return obj
}

func stringToInterfaceSliceOrEmpty(val []string) []interface{} {
	if val == nil {
		return []interface{}{}
	}
	return stringToInterfaceSlice(val)
}

// AddRunScript appends a shell script build phase to the named target.
func (p *PbxProject) AddRunScript(targetName, phaseName, script string) (string, error) {
	target, err := p.TargetByName(targetName)
	if err != nil {
		return "", err
	}

	buildPhaseUuid := p.generateUuid()
	buildPhase := pegparser.NewObjectWithData([]pegparser.SliceItem{
		pegparser.NewObjectItem("isa", "PBXShellScriptBuildPhase"),
		pegparser.NewObjectItem("buildActionMask", 2147483647),
		pegparser.NewObjectItem("files", []interface{}{}),
	})
	buildPhase = pbxShellScriptBuildPhaseObj(buildPhase, pbxShellScriptBuildPhaseObjOptions{
		ShellScript: script,
	}, phaseName)

	section := p.section("PBXShellScriptBuildPhase")
	section.Set(buildPhaseUuid, buildPhase)
	section.Set(toCommentKey(buildPhaseUuid), phaseName)

	addToObjectList(target.Object, "buildPhases", CommentValue{
		Value:   buildPhaseUuid,
		Comment: phaseName,
	}.ToObject())
	return buildPhaseUuid, nil
}
