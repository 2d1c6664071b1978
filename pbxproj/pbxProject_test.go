package pbxproj

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brave/ios-buildtools/pegparser"
)

const fixturePath = "testdata/Client.pbxproj"

func loadFixture(t *testing.T) *PbxProject {
	t.Helper()
	project := NewPbxProject(fixturePath)
	require.NoError(t, project.Parse())
	return project
}

func encode(t *testing.T, project *PbxProject) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, NewPbxWriter(project).Encode(&buf))
	return buf.String()
}

func phaseFiles(phase pegparser.ObjectWithUUID) []string {
	var ids []string
	for _, v := range phase.GetArray("files") {
		ids = append(ids, listValue(v))
	}
	return ids
}

func TestWriter_RoundTrip(t *testing.T) {
	want, err := os.ReadFile(fixturePath)
	require.NoError(t, err)

	got := encode(t, loadFixture(t))
	if diff := cmp.Diff(strings.Split(string(want), "\n"), strings.Split(got, "\n")); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriter_WriteFile(t *testing.T) {
	project := loadFixture(t)
	out := filepath.Join(t.TempDir(), "project.pbxproj")
	require.NoError(t, NewPbxWriter(project).Write(out))

	reloaded := NewPbxProject(out)
	require.NoError(t, reloaded.Parse())
	assert.Equal(t, encode(t, project), encode(t, reloaded))
}

func TestParse_MissingProject(t *testing.T) {
	project := NewPbxProject("empty")
	err := project.ParseReader(strings.NewReader("{ objects = { }; }"))
	require.ErrorIs(t, err, ErrNoProject)
}

func TestMainGroup(t *testing.T) {
	project := loadFixture(t)
	main := project.MainGroup()
	assert.Equal(t, "B10000000000000000000001", main.UUID)
	assert.Equal(t, []string{
		"B10000000000000000000002",
		"B10000000000000000000003",
		"B10000000000000000000004",
		"B10000000000000000000005",
	}, project.GroupChildren(main))
}

func TestGetOrCreateGroup_ReusesExisting(t *testing.T) {
	project := loadFixture(t)
	group := project.GetOrCreateGroup("Client", "Client", nil)
	assert.Equal(t, "B10000000000000000000002", group.UUID)
	assert.Len(t, project.GroupChildren(project.MainGroup()), 4)
}

func TestGetOrCreateGroup_CreatesNested(t *testing.T) {
	project := loadFixture(t)
	client := project.GetOrCreateGroup("Client", "Client", nil)
	frontend := project.GetOrCreateGroup("Frontend", "Client/Frontend", &client)

	assert.Len(t, frontend.UUID, 24)
	assert.Equal(t, "Frontend", frontend.GetString("name"))
	assert.Equal(t, "Client/Frontend", frontend.GetString("path"))
	assert.Equal(t, SOURCE_ROOT_SOURCETREE, frontend.GetString("sourceTree"))
	assert.Contains(t, project.GroupChildren(client), frontend.UUID)

	again := project.GetOrCreateGroup("Frontend", "Client/Frontend", &client)
	assert.Equal(t, frontend.UUID, again.UUID)
}

func TestGetOrCreateGroup_QuotesNames(t *testing.T) {
	project := loadFixture(t)
	group := project.GetOrCreateGroup("My Group", "", nil)
	assert.Equal(t, `"My Group"`, group.GetString("name"))
	assert.Equal(t, DEFAULT_SOURCETREE, group.GetString("sourceTree"))
	assert.False(t, group.Has("path"))
}

func TestAddFile_WithBuildFiles(t *testing.T) {
	project := loadFixture(t)
	client := project.GetOrCreateGroup("Client", "Client", nil)

	file, err := project.AddFile("BrowserViewController.swift", PbxFileOptions{
		Parent:           &client,
		Target:           "Client",
		CreateBuildFiles: true,
	})
	require.NoError(t, err)
	require.Len(t, file.BuildFiles, 1)
	assert.Equal(t, "sourcecode.swift", file.LastKnownFileType)
	assert.Equal(t, "F10000000000000000000001", file.Target)
	assert.Contains(t, project.GroupChildren(client), file.FileRef)

	target, err := project.TargetByName("Client")
	require.NoError(t, err)
	sources := project.TargetBuildPhases(target, "PBXSourcesBuildPhase")
	require.Len(t, sources, 1)
	assert.Equal(t, []string{"A20000000000000000000001", file.BuildFiles[0]}, phaseFiles(sources[0]))

	out := encode(t, project)
	assert.Contains(t, out, file.FileRef+" /* BrowserViewController.swift */ = {isa = PBXFileReference; fileEncoding = 4; lastKnownFileType = sourcecode.swift; path = BrowserViewController.swift; sourceTree = \"<group>\"; };")
	assert.Contains(t, out, file.BuildFiles[0]+" /* BrowserViewController.swift in Sources */ = {isa = PBXBuildFile; fileRef = "+file.FileRef+" /* BrowserViewController.swift */; };")
}

func TestAddFile_ResourcesGoToEveryMatchingPhase(t *testing.T) {
	project := loadFixture(t)
	file, err := project.AddFile("Client/Assets/reader.html", PbxFileOptions{
		Target:           "Client",
		CreateBuildFiles: true,
	})
	require.NoError(t, err)
	require.Len(t, file.BuildFiles, 1)
	assert.Equal(t, "reader.html in Resources", file.BuildFileComment())

	ref := project.pbxFileReferenceSection.GetObject(file.FileRef)
	assert.Equal(t, "reader.html", ref.GetString("name"))
	assert.Equal(t, "Client/Assets/reader.html", ref.GetString("path"))
	assert.Contains(t, project.GroupChildren(project.MainGroup()), file.FileRef)
}

func TestAddFile_NoBuildPhaseForHeaders(t *testing.T) {
	project := loadFixture(t)
	file, err := project.AddFile("Bridging.h", PbxFileOptions{Target: "Client", CreateBuildFiles: true})
	require.NoError(t, err)
	assert.Empty(t, file.BuildFiles)
	assert.Empty(t, file.Target)
	assert.False(t, project.pbxFileReferenceSection.GetObject(file.FileRef).Has("name"))
}

func TestAddFile_UnknownTarget(t *testing.T) {
	project := loadFixture(t)
	before := project.pbxFileReferenceSection.Size()

	_, err := project.AddFile("Missing.swift", PbxFileOptions{Target: "Nope", CreateBuildFiles: true})
	require.ErrorIs(t, err, ErrTargetNotFound)
	assert.Equal(t, before, project.pbxFileReferenceSection.Size())
}

func TestAddFile_UnknownExtension(t *testing.T) {
	project := loadFixture(t)
	file, err := project.AddFile("LICENSE", PbxFileOptions{})
	require.NoError(t, err)
	assert.Equal(t, DEFAULT_FILETYPE, file.LastKnownFileType)
	assert.Empty(t, file.BuildPhase)
}

func TestAppendToBuildPhase(t *testing.T) {
	project := loadFixture(t)
	tests, err := project.TargetByName("ClientTests")
	require.NoError(t, err)
	phases := project.TargetBuildPhases(tests, "")
	require.Len(t, phases, 3)

	first := phases[0]
	assert.True(t, project.AppendToBuildPhase("A20000000000000000000001", "AppDelegate.swift in Sources", first))
	assert.False(t, project.AppendToBuildPhase("A20000000000000000000001", "AppDelegate.swift in Sources", first))
	assert.Equal(t, []string{"A20000000000000000000002", "A20000000000000000000001"}, phaseFiles(first))
}

func TestTargetBuildPhases_FilterByIsa(t *testing.T) {
	project := loadFixture(t)
	shared, err := project.TargetByName("Shared")
	require.NoError(t, err)

	headers := project.TargetBuildPhases(shared, "PBXHeadersBuildPhase")
	require.Len(t, headers, 1)
	assert.Equal(t, "C10000000000000000000007", headers[0].UUID)
	assert.Empty(t, project.TargetBuildPhases(shared, "PBXResourcesBuildPhase"))
}

func TestAddRunScript(t *testing.T) {
	project := loadFixture(t)
	id, err := project.AddRunScript("Client", "Run Script", "./Fabric.framework/run key secret")
	require.NoError(t, err)

	client, err := project.TargetByName("Client")
	require.NoError(t, err)
	phases := project.TargetBuildPhases(client, "PBXShellScriptBuildPhase")
	require.Len(t, phases, 1)
	assert.Equal(t, id, phases[0].UUID)
	assert.Equal(t, `"./Fabric.framework/run key secret"`, phases[0].GetString("shellScript"))
	assert.Equal(t, "/bin/sh", phases[0].GetString("shellPath"))

	out := encode(t, project)
	assert.Contains(t, out, "/* Begin PBXShellScriptBuildPhase section */")
	assert.Contains(t, out, id+" /* Run Script */,")

	_, err = project.AddRunScript("Nope", "Run Script", "true")
	require.ErrorIs(t, err, ErrTargetNotFound)
}

func TestForeachBuildConfiguration(t *testing.T) {
	project := loadFixture(t)

	var names []string
	project.ForeachBuildConfiguration(func(name string, settings BuildSettings) {
		names = append(names, name)
		if settings.Has("PRODUCT_BUNDLE_IDENTIFIER") {
			settings.Set("PRODUCT_BUNDLE_IDENTIFIER", "com.brave.ios.$(PRODUCT_NAME)")
		}
	})
	assert.Equal(t, []string{"Debug", "Release", "Debug", "Release", "Debug", "Debug"}, names)

	var values []string
	project.ForeachBuildConfiguration(func(_ string, settings BuildSettings) {
		values = append(values, settings.Get("PRODUCT_BUNDLE_IDENTIFIER"))
	})
	assert.Equal(t, []string{"", "", "com.brave.ios.$(PRODUCT_NAME)", "com.brave.ios.$(PRODUCT_NAME)", "com.brave.ios.$(PRODUCT_NAME)", ""}, values)
	assert.Contains(t, encode(t, project), `PRODUCT_BUNDLE_IDENTIFIER = "com.brave.ios.$(PRODUCT_NAME)";`)
}

func TestMoveLastChildToFront(t *testing.T) {
	project := loadFixture(t)
	main := project.MainGroup()
	project.MoveLastChildToFront(main)
	assert.Equal(t, []string{
		"B10000000000000000000005",
		"B10000000000000000000002",
		"B10000000000000000000003",
		"B10000000000000000000004",
	}, project.GroupChildren(main))
}

func TestGenerateUuid_Unique(t *testing.T) {
	project := loadFixture(t)
	seen := map[string]bool{}
	for i := 0; i < 500; i++ {
		id := project.generateUuid()
		require.Len(t, id, 24)
		require.Equal(t, strings.ToUpper(id), id)
		require.False(t, seen[id], "duplicate uuid %s", id)
		seen[id] = true
	}
	_, clash := seen["A10000000000000000000001"]
	assert.False(t, clash)
}

func TestDump(t *testing.T) {
	project := loadFixture(t)
	var buf bytes.Buffer
	require.NoError(t, project.Dump(&buf))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "!$*UTF8*$!", decoded["headComment"])
}

func TestQuoteIfNeeded(t *testing.T) {
	tests := map[string]string{
		"Client":                "Client",
		"Client/Info.plist":     "Client/Info.plist",
		"abp-filter-parser-cpp": "abp-filter-parser-cpp",
		"My File.swift":         `"My File.swift"`,
		"org.brave.$(NAME)":     `"org.brave.$(NAME)"`,
		"<group>":               `"<group>"`,
		`say "hi"`:              `"say \"hi\""`,
	}
	for in, want := range tests {
		assert.Equal(t, want, quoteIfNeeded(in), in)
	}
	assert.Equal(t, "My File.swift", Unquoted(`"My File.swift"`))
	assert.Equal(t, "Client", Unquoted("Client"))
}
