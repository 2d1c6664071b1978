/**
Licensed to the Apache Software Foundation (ASF) under one
or more contributor license agreements.  See the NOTICE file
distributed with this work for additional information
regarding copyright ownership.  The ASF licenses this file
to you under the Apache License, Version 2.0 (the
'License'); you may not use this file except in compliance
with the License.  You may obtain a copy of the License at
http://www.apache.org/licenses/LICENSE-2.0
Unless required by applicable law or agreed to in writing,
software distributed under the License is distributed on an
'AS IS' BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
KIND, either express or implied.  See the License for the
specific language governing permissions and limitations
under the License.
*/

package pbxproj

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/brave/ios-buildtools/pegparser"
)

const (
	DEFAULT_SOURCETREE     = "\"<group>\""
	SOURCE_ROOT_SOURCETREE = "SOURCE_ROOT"
	DEFAULT_FILETYPE       = "unknown"
	FOLDER_FILETYPE        = "folder"
)

var FILETYPE_BY_EXTENSION = map[string]string{
	"a":            "archive.ar",
	"app":          "wrapper.application",
	"appex":        "wrapper.app-extension",
	"bundle":       "wrapper.plug-in",
	"c":            "sourcecode.c.c",
	"cpp":          "sourcecode.cpp.cpp",
	"dylib":        "compiled.mach-o.dylib",
	"entitlements": "text.plist.entitlements",
	"framework":    "wrapper.framework",
	"h":            "sourcecode.c.h",
	"html":         "text.html",
	"js":           "sourcecode.javascript",
	"json":         "text.json",
	"m":            "sourcecode.c.objc",
	"markdown":     "text",
	"mm":           "sourcecode.cpp.objcpp",
	"pch":          "sourcecode.c.h",
	"plist":        "text.plist.xml",
	"sh":           "text.script.sh",
	"strings":      "text.plist.strings",
	"swift":        "sourcecode.swift",
	"tbd":          "sourcecode.text-based-dylib-definition",
	"txt":          "text",
	"xcassets":     "folder.assetcatalog",
	"xcconfig":     "text.xcconfig",
	"xcdatamodel":  "wrapper.xcdatamodel",
	"xcodeproj":    "wrapper.pb-project",
	"xctest":       "wrapper.cfbundle",
	"xib":          "file.xib",
}

// BUILDPHASE_BY_FILETYPE names the build phase a file of the given type is
// compiled or copied by. Types without an entry are never built.
var BUILDPHASE_BY_FILETYPE = map[string]string{
	"sourcecode.c.c":                         "PBXSourcesBuildPhase",
	"sourcecode.c.objc":                      "PBXSourcesBuildPhase",
	"sourcecode.cpp.cpp":                     "PBXSourcesBuildPhase",
	"sourcecode.cpp.objcpp":                  "PBXSourcesBuildPhase",
	"sourcecode.swift":                       "PBXSourcesBuildPhase",
	"file.xib":                               "PBXResourcesBuildPhase",
	"folder":                                 "PBXResourcesBuildPhase",
	"folder.assetcatalog":                    "PBXResourcesBuildPhase",
	"sourcecode.javascript":                  "PBXResourcesBuildPhase",
	"text":                                   "PBXResourcesBuildPhase",
	"text.html":                              "PBXResourcesBuildPhase",
	"text.json":                              "PBXResourcesBuildPhase",
	"text.plist.strings":                     "PBXResourcesBuildPhase",
	"text.plist.xml":                         "PBXResourcesBuildPhase",
	"wrapper.plug-in":                        "PBXResourcesBuildPhase",
	"archive.ar":                             "PBXFrameworksBuildPhase",
	"compiled.mach-o.dylib":                  "PBXFrameworksBuildPhase",
	"sourcecode.text-based-dylib-definition": "PBXFrameworksBuildPhase",
	"wrapper.framework":                      "PBXFrameworksBuildPhase",
}

const DEFAULT_ENCODING_VALUE = 4

var ENCODING_BY_FILETYPE = map[string]int{
	"sourcecode.c.c":          DEFAULT_ENCODING_VALUE,
	"sourcecode.c.h":          DEFAULT_ENCODING_VALUE,
	"sourcecode.c.objc":       DEFAULT_ENCODING_VALUE,
	"sourcecode.cpp.cpp":      DEFAULT_ENCODING_VALUE,
	"sourcecode.cpp.objcpp":   DEFAULT_ENCODING_VALUE,
	"sourcecode.javascript":   DEFAULT_ENCODING_VALUE,
	"sourcecode.swift":        DEFAULT_ENCODING_VALUE,
	"text":                    DEFAULT_ENCODING_VALUE,
	"text.html":               DEFAULT_ENCODING_VALUE,
	"text.plist.entitlements": DEFAULT_ENCODING_VALUE,
	"text.plist.strings":      DEFAULT_ENCODING_VALUE,
	"text.plist.xml":          DEFAULT_ENCODING_VALUE,
	"text.script.sh":          DEFAULT_ENCODING_VALUE,
	"text.xcconfig":           DEFAULT_ENCODING_VALUE,
}

type PbxFileOptions struct {
	// LastKnownFileType overrides detection by extension.
	LastKnownFileType string
	// SourceTree defaults to "<group>".
	SourceTree string
	// Parent is the group receiving the file; nil means the main group.
	Parent *pegparser.ObjectWithUUID
	// Target names the native target whose matching build phases get a
	// build file when CreateBuildFiles is set.
	Target           string
	CreateBuildFiles bool
}

type PbxFile struct {
	Uuid              string
	FileRef           string
	Basename          string
	Path              string
	LastKnownFileType string
	BuildPhase        string
	Group             string
	SourceTree        string
	FileEncoding      int
	Target            string
	// BuildFiles lists the PBXBuildFile uuids created for this reference.
	BuildFiles []string
}

func newPbxFile(filePath string, options PbxFileOptions) *PbxFile {
	pbxfile := &PbxFile{}
	pbxfile.Path = filepath.ToSlash(filePath)
	pbxfile.Basename = filepath.Base(filePath)

	if options.LastKnownFileType != "" {
		pbxfile.LastKnownFileType = options.LastKnownFileType
	} else {
		pbxfile.LastKnownFileType = pbxfile.detectType(filePath)
	}
	pbxfile.BuildPhase = BUILDPHASE_BY_FILETYPE[pbxfile.LastKnownFileType]
	pbxfile.Group = buildPhaseNameForIsa(pbxfile.BuildPhase)
	pbxfile.FileEncoding = ENCODING_BY_FILETYPE[pbxfile.LastKnownFileType]

	if options.SourceTree != "" {
		pbxfile.SourceTree = options.SourceTree
	} else {
		pbxfile.SourceTree = DEFAULT_SOURCETREE
	}
	return pbxfile
}

func (pbxfile *PbxFile) detectType(filePath string) string {
	extension := strings.TrimPrefix(filepath.Ext(filePath), ".")
	filetype, found := FILETYPE_BY_EXTENSION[unquoted(extension)]
	if !found {
		return DEFAULT_FILETYPE
	}

	return filetype
}

// BuildFileComment is the annotation Xcode puts next to build file uuids.
func (pbxfile *PbxFile) BuildFileComment() string {
	return longComment(pbxfile)
}

func newPbxFileReferenceObj(pbxfile *PbxFile) pegparser.Object {
	obj := pegparser.NewObject()
	obj.Set("isa", "PBXFileReference")
	if pbxfile.FileEncoding > 0 {
		obj.Set("fileEncoding", pbxfile.FileEncoding)
	}
	obj.Set("lastKnownFileType", quoteIfNeeded(pbxfile.LastKnownFileType))
	if pbxfile.Basename != pbxfile.Path {
		obj.Set("name", quoteIfNeeded(pbxfile.Basename))
	}
	obj.Set("path", quoteIfNeeded(pbxfile.Path))
	obj.Set("sourceTree", pbxfile.SourceTree)
	return obj
}

func pbxBuildFileObj(pbxfile *PbxFile) pegparser.Object {
	obj := pegparser.NewObject()
	obj.Set("isa", "PBXBuildFile")
	obj.Set("fileRef", pbxfile.FileRef)
	obj.Set(toCommentKey("fileRef"), pbxfile.Basename)
	return obj
}

func pbxFileReferenceComment(pbxfile *PbxFile) string {
	if pbxfile.Basename != "" {
		return pbxfile.Basename
	}
	return filepath.Base(pbxfile.Path)
}

func longComment(pbxfile *PbxFile) string {
	return fmt.Sprintf("%s in %s", pbxfile.Basename, pbxfile.Group)
}

func buildPhaseNameForIsa(isa string) string {
	switch isa {
	case "PBXCopyFilesBuildPhase":
		return "Copy Files"
	case "PBXResourcesBuildPhase":
		return "Resources"
	case "PBXSourcesBuildPhase":
		return "Sources"
	case "PBXFrameworksBuildPhase":
		return "Frameworks"
	case "PBXHeadersBuildPhase":
		return "Headers"
	case "PBXShellScriptBuildPhase":
		return "ShellScript"
	default:
		return ""
	}
}
