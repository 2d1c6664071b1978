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
	"io"
	"os"
	"strings"

	"github.com/brave/ios-buildtools/pegparser"
)

const (
	INDENT = "\t"
)

type PbxWriterOption func(w *PbxWriter)

func WithOmitEmpty() PbxWriterOption {
	return func(w *PbxWriter) {
		w.omitEmptyValues = true
	}
}

type PbxWriter struct {
	buf             strings.Builder
	omitEmptyValues bool
	contents        pegparser.Object
	indentLevel     int
	err             error
}

func NewPbxWriter(project *PbxProject, options ...PbxWriterOption) *PbxWriter {
	w := &PbxWriter{
		contents: project.Contents(),
	}
	for _, option := range options {
		option(w)
	}
	return w
}

func indent(x int) string {
	return strings.Repeat(INDENT, max(x, 0))
}

func getComment(key string, parent pegparser.Object) string {
	return parent.GetString(toCommentKey(key))
}

func (w *PbxWriter) write(format string, str ...string) {
	w.buf.WriteString(indent(w.indentLevel))
	w.buf.WriteString(fmt.Sprintf(format, stringToInterfaceSlice(str)...))
}

func (w *PbxWriter) writeNoIndent(format string, str ...string) {
	w.buf.WriteString(fmt.Sprintf(format, stringToInterfaceSlice(str)...))
}

func (w *PbxWriter) fail(format string, a ...interface{}) {
	if w.err == nil {
		w.err = fmt.Errorf(format, a...)
	}
}

// Encode writes the project in Xcode's own layout.
func (w *PbxWriter) Encode(out io.Writer) error {
	w.buf.Reset()
	w.indentLevel = 0
	w.err = nil
	w.writeHeadComment()
	w.writeProject()
	if w.err != nil {
		return w.err
	}
	_, err := io.WriteString(out, w.buf.String())
	return err
}

func (w *PbxWriter) Write(filePath string) error {
	var sb strings.Builder
	if err := w.Encode(&sb); err != nil {
		return err
	}
	return os.WriteFile(filePath, []byte(sb.String()), 0644)
}

func (w *PbxWriter) writeHeadComment() {
	comment := w.contents.GetString("headComment")
	if comment != "" {
		w.writeNoIndent("// %s\n", comment)
	}
}

func (w *PbxWriter) writeProject() {
	proj := w.contents.GetObject("project")

	w.write("{\n")
	w.indentLevel++
	w.writeEntries(proj, true)
	w.indentLevel--
	w.write("}\n")
}

func (w *PbxWriter) writeObject(obj pegparser.Object) {
	w.writeEntries(obj, false)
}

func (w *PbxWriter) writeEntries(obj pegparser.Object, top bool) {
	obj.ForeachWithFilter(func(key string, val interface{}) pegparser.IterateActionType {
		cmt := getComment(key, obj)
		switch {
		case isArray(val):
			w.writeArray(toArray(val), key)
		case isObject(val):
			w.write("%s = {\n", key)
			w.indentLevel++
			if top && key == "objects" {
				w.writeObjectsSections(toObject(val))
			} else {
				w.writeObject(toObject(val))
			}
			w.indentLevel--
			w.write("};\n")
		case isString(val):
			str := toString(val)
			if str == "" {
				if w.omitEmptyValues {
					return pegparser.IterateActionContinue
				}
				str = `""`
			}
			w.writeScalar(key, str, cmt)
		case isInt(val):
			w.writeScalar(key, toIntString(val), cmt)
		default:
			w.fail("unsupported value %T for %s", val, key)
		}
		return pegparser.IterateActionContinue
	}, nonCommentsFilter)
}

func (w *PbxWriter) writeScalar(key, value, cmt string) {
	if cmt != "" {
		w.write("%s = %s /* %s */;\n", key, value, cmt)
	} else {
		w.write("%s = %s;\n", key, value)
	}
}

func (w *PbxWriter) writeObjectsSections(obj pegparser.Object) {
	obj.Foreach(func(key string, val interface{}) pegparser.IterateActionType {
		if isObject(val) {
			value := val.(pegparser.Object)
			if value.IsEmpty() {
				return pegparser.IterateActionContinue
			}
			w.writeNoIndent("\n")
			w.writeSectionComment(key, true)
			w.writeSection(value)
			w.writeSectionComment(key, false)
		}
		return pegparser.IterateActionContinue
	})
}

func (w *PbxWriter) writeArray(arr []interface{}, name string) {
	w.write("%s = (\n", name)
	w.indentLevel++

	for _, obj := range arr {
		switch {
		case isObject(obj):
			val := obj.(pegparser.Object)
			value := val.GetString("value")
			comment := val.GetString("comment")
			if value != "" && comment != "" && val.Size() == 2 {
				w.write("%s /* %s */,\n", value, comment)
			} else {
				w.write("{\n")
				w.indentLevel++
				w.writeObject(val)
				w.indentLevel--
				w.write("},\n")
			}
		case isString(obj):
			w.write("%s,\n", obj.(string))
		case isInt(obj):
			w.write("%s,\n", toIntString(obj))
		default:
			w.fail("unsupported array element %T in %s", obj, name)
		}
	}
	w.indentLevel--
	w.write(");\n")
}

func (w *PbxWriter) writeSectionComment(name string, begin bool) {
	if begin {
		w.writeNoIndent("/* Begin %s section */\n", name)
	} else {
		w.writeNoIndent("/* End %s section */\n", name)
	}
}

func (w *PbxWriter) writeSection(section pegparser.Object) {
	section.ForeachWithFilter(func(key string, val interface{}) pegparser.IterateActionType {
		cmt := getComment(key, section)
		if !isObject(val) {
			return pegparser.IterateActionContinue
		}
		obj := val.(pegparser.Object)
		isa := obj.GetString("isa")
		if isa == "PBXBuildFile" || isa == "PBXFileReference" {
			w.writeInlineObject(key, cmt, obj)
		} else {
			if cmt != "" {
				w.write("%s /* %s */ = {\n", key, cmt)
			} else {
				w.write("%s = {\n", key)
			}

			w.indentLevel++
			w.writeObject(obj)
			w.indentLevel--
			w.write("};\n")
		}
		return pegparser.IterateActionContinue
	}, nonCommentsFilter)
}

func (w *PbxWriter) inlineValue(val interface{}) string {
	switch {
	case isString(val):
		return toString(val)
	case isInt(val):
		return toIntString(val)
	case isObject(val):
		obj := toObject(val)
		if value, comment := obj.GetString("value"), obj.GetString("comment"); value != "" && comment != "" {
			return fmt.Sprintf("%s /* %s */", value, comment)
		}
	}
	w.fail("unsupported inline value %T", val)
	return ""
}

func (w *PbxWriter) writeInlineObjectHelp(buffer *[]string, name string, desc string, ref pegparser.Object) {
	output := *buffer
	if desc != "" {
		output = append(output, fmt.Sprintf("%s /* %s */ = {", name, desc))
	} else {
		output = append(output, fmt.Sprintf("%s = {", name))
	}

	ref.ForeachWithFilter(func(key string, val interface{}) pegparser.IterateActionType {
		cmt := getComment(key, ref)
		switch {
		case isArray(val):
			output = append(output, fmt.Sprintf("%s = (", key))
			for _, item := range toArray(val) {
				output = append(output, w.inlineValue(item)+", ")
			}
			output = append(output, "); ")
		case isObject(val):
			w.writeInlineObjectHelp(&output, key, cmt, val.(pegparser.Object))
		case isString(val) || isInt(val):
			value := w.inlineValue(val)
			if value == "" && w.omitEmptyValues {
				return pegparser.IterateActionContinue
			}
			if cmt != "" {
				output = append(output, fmt.Sprintf("%s = %s /* %s */; ", key, value, cmt))
			} else {
				output = append(output, fmt.Sprintf("%s = %s; ", key, value))
			}
		default:
			w.fail("unhandled inline object type %s->%T", key, val)
		}
		return pegparser.IterateActionContinue
	}, nonCommentsFilter)

	output = append(output, "}; ")
	*buffer = output
}

func (w *PbxWriter) writeInlineObject(name string, desc string, ref pegparser.Object) {
	output := []string{}
	w.writeInlineObjectHelp(&output, name, desc, ref)
	w.write("%s\n", strings.TrimSpace(strings.Join(output, "")))
}
