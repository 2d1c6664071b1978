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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gofrs/uuid"

	"github.com/brave/ios-buildtools/pegparser"
)

var (
	ErrTargetNotFound = errors.New("target not found")
	ErrNoProject      = errors.New("no PBXProject object")
)

type CommentValue struct {
	Value   string
	Comment string
}

func (c CommentValue) ToObject() pegparser.Object {
	return pegparser.NewObjectWithData([]pegparser.SliceItem{
		pegparser.NewObjectItem("value", c.Value),
		pegparser.NewObjectItem("comment", c.Comment),
	})
}

type PbxProject struct {
	filePath                       string
	pbxContents                    pegparser.Object
	topProjectSection              pegparser.Object
	pbxObjectSection               pegparser.Object
	pbxGroupSection                pegparser.Object
	pbxProjectSection              pegparser.Object
	pbxBuildFileSection            pegparser.Object
	pbxXCBuildConfigurationSection pegparser.Object
	pbxFileReferenceSection        pegparser.Object
	pbxNativeTargetSection         pegparser.Object
	uuids                          map[string]struct{}
}

func NewPbxProject(filename string) *PbxProject {
	return &PbxProject{
		filePath: filename,
		uuids:    make(map[string]struct{}),
	}
}

func (p *PbxProject) FilePath() string {
	return p.filePath
}

func (p *PbxProject) Contents() pegparser.Object {
	return p.pbxContents
}

func (p *PbxProject) Parse() error {
	f, err := os.Open(p.filePath)
	if err != nil {
		return err
	}
	defer f.Close()
	return p.ParseReader(f)
}

func (p *PbxProject) ParseReader(r io.Reader) error {
	contents, err := pegparser.ParseReader(p.filePath, r)
	if err != nil {
		return err
	}
	p.pbxContents = contents
	if err := p.initSections(); err != nil {
		return fmt.Errorf("%s: %w", p.filePath, err)
	}
	p.buildExistUuids()
	return nil
}

func (p *PbxProject) Dump(writer io.Writer) error {
	buffer := bytes.NewBuffer([]byte{})
	jsonEncoder := json.NewEncoder(buffer)
	jsonEncoder.SetEscapeHTML(false)
	jsonEncoder.SetIndent("", "  ")
	if err := jsonEncoder.Encode(p.Contents()); err != nil {
		return err
	}
	_, err := writer.Write(buffer.Bytes())
	return err
}

func (p *PbxProject) initSections() error {
	p.topProjectSection = p.pbxContents.GetObject("project")
	if !p.topProjectSection.Has("objects") {
		return errors.New("missing objects dictionary")
	}
	p.pbxObjectSection = p.topProjectSection.GetObject("objects")
	p.pbxProjectSection = p.section("PBXProject")
	if p.pbxProjectSection.IsEmpty() {
		return ErrNoProject
	}
	p.pbxGroupSection = p.section("PBXGroup")
	p.pbxBuildFileSection = p.section("PBXBuildFile")
	p.pbxXCBuildConfigurationSection = p.section("XCBuildConfiguration")
	p.pbxFileReferenceSection = p.section("PBXFileReference")
	p.pbxNativeTargetSection = p.section("PBXNativeTarget")
	return nil
}

// section returns the objects of one isa, creating the section on first use.
func (p *PbxProject) section(isa string) pegparser.Object {
	if s, ok := p.pbxObjectSection.Get(isa); ok {
		return s.(pegparser.Object)
	}
	s := pegparser.NewObject()
	p.pbxObjectSection.Set(isa, s)
	return s
}

func (p *PbxProject) buildExistUuids() {
	uuids := make(map[string]struct{})
	p.pbxObjectSection.Foreach(func(_ string, v interface{}) pegparser.IterateActionType {
		fileSection := v.(pegparser.Object)
		fileSection.ForeachWithFilter(func(key string, value interface{}) pegparser.IterateActionType {
			if len(key) == 24 {
				uuids[key] = struct{}{}
			}
			return pegparser.IterateActionContinue
		}, nonCommentsFilter)
		return pegparser.IterateActionContinue
	})

	p.uuids = uuids
}

func (p *PbxProject) generateUuid() string {
	u, err := uuid.NewV4()
	if err != nil {
		panic(fmt.Sprintf("pbxproj: no entropy for uuid: %v", err))
	}
	newUUID := strings.ToUpper(strings.ReplaceAll(u.String(), "-", "")[0:24])

	_, found := p.uuids[newUUID]
	if found {
		return p.generateUuid()
	}
	p.uuids[newUUID] = struct{}{}
	return newUUID
}

// objectByUUID looks a uuid up in every section.
func (p *PbxProject) objectByUUID(id string) (obj pegparser.Object, found bool) {
	p.pbxObjectSection.Foreach(func(_ string, v interface{}) pegparser.IterateActionType {
		section, ok := v.(pegparser.Object)
		if !ok {
			return pegparser.IterateActionContinue
		}
		if o, ok := section.Get(id); ok {
			if o, ok := o.(pegparser.Object); ok {
				obj, found = o, true
				return pegparser.IterateActionBreak
			}
		}
		return pegparser.IterateActionContinue
	})
	return
}

func (p *PbxProject) getFirstProject() pegparser.ObjectWithUUID {
	uuid := ""
	var project pegparser.Object
	p.pbxProjectSection.ForeachWithFilter(func(key string, value interface{}) pegparser.IterateActionType {
		uuid = key
		project = value.(pegparser.Object)
		return pegparser.IterateActionBreak
	}, nonCommentsFilter)

	return pegparser.ObjectWithUUID{
		UUID:   uuid,
		Object: project,
	}
}

func (p *PbxProject) addToPbxBuildFileSection(pbxfile *PbxFile) {
	p.pbxBuildFileSection.Set(pbxfile.Uuid, pbxBuildFileObj(pbxfile))
	p.pbxBuildFileSection.Set(toCommentKey(pbxfile.Uuid), longComment(pbxfile))
}

func (p *PbxProject) addToPbxFileReferenceSection(pbxfile *PbxFile) {
	p.pbxFileReferenceSection.Set(pbxfile.FileRef, newPbxFileReferenceObj(pbxfile))
	p.pbxFileReferenceSection.Set(toCommentKey(pbxfile.FileRef), pbxFileReferenceComment(pbxfile))
}

// AddFile creates a file reference inside options.Parent (the main group by
// default). With a target and CreateBuildFiles set, every build phase of
// that target handling the file type receives a build file.
func (p *PbxProject) AddFile(filePath string, options PbxFileOptions) (*PbxFile, error) {
	pbxfile := newPbxFile(filePath, options)

	var target pegparser.ObjectWithUUID
	buildable := options.Target != "" && options.CreateBuildFiles && pbxfile.BuildPhase != ""
	if buildable {
		var err error
		if target, err = p.TargetByName(options.Target); err != nil {
			return nil, err
		}
		pbxfile.Target = target.UUID
	}

	parent := options.Parent
	if parent == nil {
		mainGroup := p.MainGroup()
		parent = &mainGroup
	}

	pbxfile.FileRef = p.generateUuid()
	p.addToPbxFileReferenceSection(pbxfile)
	addToObjectList(parent.Object, "children", pbxGroupChild(pbxfile).ToObject())

	if buildable {
		for _, phase := range p.TargetBuildPhases(target, pbxfile.BuildPhase) {
			pbxfile.BuildFiles = append(pbxfile.BuildFiles, p.AddBuildFile(pbxfile, phase))
		}
	}
	return pbxfile, nil
}
