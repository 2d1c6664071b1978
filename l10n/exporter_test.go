package l10n

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brave/ios-buildtools/internal/ctxlog"
)

const xliffHeader = `<?xml version="1.0" encoding="UTF-8"?>
<xliff xmlns="urn:oasis:names:tc:xliff:document:1.2" version="1.2">
`

func writeXliff(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(xliffHeader+body+"</xliff>\n"), 0644))
}

func readString(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func newExporter(t *testing.T, options ...Option) (*Exporter, string, string, *bytes.Buffer, context.Context) {
	t.Helper()
	in, out := t.TempDir(), t.TempDir()
	e, err := NewExporter(in, out, options...)
	require.NoError(t, err)

	var logs bytes.Buffer
	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&logs, nil)))
	return e, in, out, &logs, ctx
}

func TestExportFile_TranslatedUnit(t *testing.T) {
	e, in, out, _, ctx := newExporter(t)
	doc := filepath.Join(in, "fr.xlf")
	writeXliff(t, doc, `<file original="brave/Localizable.strings" source-language="en" target-language="fr">
<body>
<trans-unit id="Cancel">
<source>Cancel</source>
<target>Annuler</target>
<note>Cancel button</note>
</trans-unit>
</body>
</file>
`)

	require.NoError(t, e.ExportFile(ctx, doc))
	got := readString(t, filepath.Join(out, "brave", "fr.lproj", "Localizable.strings"))
	assert.Equal(t, "/* Cancel button */\n\"Cancel\" = \"Annuler\";\n\n", got)
}

func TestExportFile_UntranslatedUnitIsOmitted(t *testing.T) {
	e, in, out, _, ctx := newExporter(t)
	doc := filepath.Join(in, "de.xlf")
	writeXliff(t, doc, `<file original="brave/Menu.strings" target-language="de">
<body>
<trans-unit id="Done"><source>Done</source></trans-unit>
<trans-unit id="Open"><source>Open</source><target>Öffnen</target></trans-unit>
</body>
</file>
`)

	require.NoError(t, e.ExportFile(ctx, doc))
	got := readString(t, filepath.Join(out, "brave", "de.lproj", "Menu.strings"))
	assert.Equal(t, "\"Open\" = \"Öffnen\";\n\n", got)
	assert.NotContains(t, got, "Done")
}

func TestExportFile_MissingLanguageFallsBackToBase(t *testing.T) {
	e, in, out, logs, ctx := newExporter(t)
	doc := filepath.Join(in, "base.xlf")
	writeXliff(t, doc, `<file original="brave/Menu.strings">
<body>
<trans-unit id="Say &quot;hi&quot;"><source>Say "hi"</source></trans-unit>
<trans-unit id="Back"><source>Back</source><target>Go back</target></trans-unit>
<trans-unit><source>no id</source><target>ignored</target></trans-unit>
</body>
</file>
`)

	require.NoError(t, e.ExportFile(ctx, doc))
	assert.Contains(t, logs.String(), "missing target-language")
	got := readString(t, filepath.Join(out, "brave", "en.lproj", "Menu.strings"))
	assert.Equal(t, "\"Say \\\"hi\\\"\" = \"Say \\\"hi\\\"\";\n\n\"Back\" = \"Go back\";\n\n", got)
	assert.NotContains(t, got, "ignored")
}

func TestExportFile_BaseLanguageOption(t *testing.T) {
	e, in, out, _, ctx := newExporter(t, WithBaseLanguage("de"))
	doc := filepath.Join(in, "de.xlf")
	writeXliff(t, doc, `<file original="brave/Menu.strings" target-language="de">
<body>
<trans-unit id="Done"><source>Done</source></trans-unit>
</body>
</file>
`)

	require.NoError(t, e.ExportFile(ctx, doc))
	got := readString(t, filepath.Join(out, "brave", "de.lproj", "Menu.strings"))
	assert.Equal(t, "\"Done\" = \"Done\";\n\n", got)
}

func TestExportFile_Notes(t *testing.T) {
	e, in, out, _, ctx := newExporter(t)
	doc := filepath.Join(in, "fr.xlf")
	writeXliff(t, doc, `<file original="brave/Notes.strings" target-language="fr">
<body>
<trans-unit id="Two"><target>Deux</target><note>first</note><note>second</note></trans-unit>
<trans-unit id="Empty"><target>Vide</target><note></note></trans-unit>
</body>
</file>
`)

	require.NoError(t, e.ExportFile(ctx, doc))
	got := readString(t, filepath.Join(out, "brave", "fr.lproj", "Notes.strings"))
	assert.Equal(t, "\"Two\" = \"Deux\";\n\n\"Empty\" = \"Vide\";\n\n", got)
}

func TestExportFile_InfoPlistAndEmptyTables(t *testing.T) {
	e, in, out, _, ctx := newExporter(t)
	stale := filepath.Join(out, "brave", "fr.lproj", "Empty.strings")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0755))
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0644))

	doc := filepath.Join(in, "fr.xlf")
	writeXliff(t, doc, `<file original="Extensions/ShareTo/Info.plist" target-language="fr">
<body>
<trans-unit id="CFBundleDisplayName"><target>Brave</target></trans-unit>
</body>
</file>
<file original="brave/Empty.strings" target-language="fr">
<body>
<trans-unit id="Untranslated"><source>Untranslated</source></trans-unit>
</body>
</file>
<file original="../../etc/passwd" target-language="fr">
<body>
<trans-unit id="x"><target>y</target></trans-unit>
</body>
</file>
`)

	require.NoError(t, e.ExportFile(ctx, doc))
	got := readString(t, filepath.Join(out, "Extensions", "ShareTo", "fr.lproj", "BraveShareToInfoPlist.strings"))
	assert.Equal(t, "\"CFBundleDisplayName\" = \"Brave\";\n\n", got)
	assert.NoFileExists(t, stale)
	assert.NoFileExists(t, filepath.Join(filepath.Dir(out), "etc", "fr.lproj", "passwd"))
}

func TestExportFile_NoFiles(t *testing.T) {
	e, in, out, logs, ctx := newExporter(t)
	doc := filepath.Join(in, "empty.xlf")
	writeXliff(t, doc, "")

	require.NoError(t, e.ExportFile(ctx, doc))
	assert.Contains(t, logs.String(), "no translated files")
	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExportFile_InvalidLanguageIsUsedAsIs(t *testing.T) {
	e, in, out, logs, ctx := newExporter(t)
	doc := filepath.Join(in, "odd.xlf")
	writeXliff(t, doc, `<file original="brave/Menu.strings" target-language="not_a_tag!">
<body><trans-unit id="A"><target>B</target></trans-unit></body>
</file>
`)

	require.NoError(t, e.ExportFile(ctx, doc))
	assert.Contains(t, logs.String(), "not a valid BCP 47 tag")
	assert.FileExists(t, filepath.Join(out, "brave", "not_a_tag!.lproj", "Menu.strings"))
}

func TestExportFile_MalformedDocument(t *testing.T) {
	e, in, _, _, ctx := newExporter(t)
	doc := filepath.Join(in, "broken.xlf")
	require.NoError(t, os.WriteFile(doc, []byte("<xliff><file"), 0644))
	require.Error(t, e.ExportFile(ctx, doc))
}

func TestRun_Consolidates(t *testing.T) {
	e, in, out, _, ctx := newExporter(t)
	writeXliff(t, filepath.Join(in, "fr.xlf"), `<file original="brave/Menu.strings" target-language="fr">
<body><trans-unit id="Open"><target>Ouvrir</target></trans-unit></body>
</file>
<file original="brave/Alerts.strings" target-language="fr">
<body><trans-unit id="OK"><target>D'accord</target><note>Alert button</note></trans-unit></body>
</file>
`)
	writeXliff(t, filepath.Join(in, "de.xlf"), `<file original="brave/Menu.strings" target-language="de">
<body><trans-unit id="Open"><target>Öffnen</target></trans-unit></body>
</file>
`)
	require.NoError(t, os.WriteFile(filepath.Join(in, "notes.txt"), []byte("ignored"), 0644))

	require.NoError(t, e.Run(ctx))

	fr := filepath.Join(out, "brave", "fr.lproj")
	assert.Equal(t,
		"/* Alert button */\n\"OK\" = \"D'accord\";\n\n\"Open\" = \"Ouvrir\";\n\n",
		readString(t, filepath.Join(fr, ConsolidatedName)))
	assert.NoFileExists(t, filepath.Join(fr, "Menu.strings"))
	assert.NoFileExists(t, filepath.Join(fr, "Alerts.strings"))

	de := filepath.Join(out, "brave", "de.lproj")
	assert.Equal(t, "\"Open\" = \"Öffnen\";\n\n", readString(t, filepath.Join(de, ConsolidatedName)))

	entries, err := os.ReadDir(fr)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestNewExporter_InvalidDirs(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	tests := []struct {
		name    string
		in, out string
	}{
		{"missing import", filepath.Join(dir, "missing"), dir},
		{"missing export", dir, filepath.Join(dir, "missing")},
		{"import is a file", file, dir},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExporter(tt.in, tt.out)
			require.ErrorIs(t, err, ErrInvalidDir)
		})
	}
}

func TestTable_WriteTo(t *testing.T) {
	table := &Table{Language: "fr"}
	table.Add(NewEntry("", `a "b"`, "c"))
	table.Add(NewEntry("note", "d", `e "f"`))

	var buf bytes.Buffer
	n, err := table.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.Equal(t, "\"a \\\"b\\\"\" = \"c\";\n\n/* note */\n\"d\" = \"e \\\"f\\\"\";\n\n", buf.String())
}

func TestExportPath(t *testing.T) {
	tests := []struct {
		original string
		want     string
		wantErr  bool
	}{
		{"brave/Localizable.strings", "brave/fr.lproj/Localizable.strings", false},
		{"Client/Info.plist", "Client/fr.lproj/BraveShareToInfoPlist.strings", false},
		{"Top.strings", "fr.lproj/Top.strings", false},
		{"", "", true},
		{"brave/", "", true},
		{"../x.strings", "", true},
	}
	for _, tt := range tests {
		got, err := exportPath(tt.original, "fr")
		if tt.wantErr {
			assert.Error(t, err, tt.original)
			continue
		}
		require.NoError(t, err, tt.original)
		assert.Equal(t, tt.want, got)
	}
}
