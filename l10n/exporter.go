// Package l10n converts XLIFF 1.2 exchange documents into per-language
// .strings tables.
package l10n

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/text/language"

	"github.com/brave/ios-buildtools/internal/ctxlog"
)

const (
	DefaultBaseLanguage = "en"
	ConsolidatedName    = "Localizable.strings"
	infoPlistName       = "BraveShareToInfoPlist.strings"
)

var ErrInvalidDir = errors.New("path does not exist or is not a directory")

type Option func(e *Exporter)

func WithBaseLanguage(lang string) Option {
	return func(e *Exporter) {
		e.baseLanguage = lang
	}
}

// Exporter turns every *.xlf document of the import root into strings
// tables below the export root, then merges each language directory into
// one Localizable.strings.
type Exporter struct {
	importRoot   string
	exportRoot   string
	baseLanguage string
	written      map[string]struct{}
}

func NewExporter(importRoot, exportRoot string, options ...Option) (*Exporter, error) {
	for _, dir := range []string{importRoot, exportRoot} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidDir, dir)
		}
	}
	e := &Exporter{
		importRoot:   importRoot,
		exportRoot:   exportRoot,
		baseLanguage: DefaultBaseLanguage,
		written:      make(map[string]struct{}),
	}
	for _, option := range options {
		option(e)
	}
	return e, nil
}

// Run exports every document, in name order, and consolidates the result.
func (e *Exporter) Run(ctx context.Context) error {
	docs, err := filepath.Glob(filepath.Join(e.importRoot, "*.xlf"))
	if err != nil {
		return err
	}
	sort.Strings(docs)
	for _, doc := range docs {
		if err := e.ExportFile(ctx, doc); err != nil {
			return err
		}
	}
	return e.Consolidate(ctx)
}

// ExportFile writes one strings table per <file> section of the document.
func (e *Exporter) ExportFile(ctx context.Context, xliffPath string) error {
	logger := ctxlog.FromContext(ctx).With("document", xliffPath)
	logger.Info("exporting")

	doc := etree.NewDocument()
	if err := doc.ReadFromFile(xliffPath); err != nil {
		return fmt.Errorf("reading %s: %w", xliffPath, err)
	}

	files := doc.FindElements("//file")
	if len(files) == 0 {
		logger.Error("no translated files, skipping")
		return nil
	}

	// Only the first <file> reliably carries the target language.
	lang := files[0].SelectAttrValue("target-language", "")
	if lang == "" {
		logger.Warn("missing target-language, assuming base language", "language", e.baseLanguage)
		lang = e.baseLanguage
	} else if _, err := language.Parse(lang); err != nil {
		logger.Warn("target-language is not a valid BCP 47 tag", "language", lang, "error", err)
	}

	for _, file := range files {
		original := file.SelectAttrValue("original", "")
		rel, err := exportPath(original, lang)
		if err != nil {
			logger.Warn("skipping file", "original", original, "error", err)
			continue
		}
		table := e.buildTable(file, lang)
		table.Path = filepath.Join(e.exportRoot, filepath.FromSlash(rel))
		logger.Info("writing", "original", original, "path", table.Path, "entries", table.Len())
		if err := e.writeTable(table); err != nil {
			return err
		}
	}
	return nil
}

// exportPath maps an original file name to <dir>/<lang>.lproj/<file>.
func exportPath(original, lang string) (string, error) {
	if original == "" {
		return "", errors.New("no original attribute")
	}
	dir, file := path.Split(filepath.ToSlash(original))
	if strings.Contains(file, "Info.plist") {
		file = infoPlistName
	}
	if file == "" {
		return "", fmt.Errorf("original %q names a directory", original)
	}
	rel := path.Join(dir, lang+".lproj", file)
	if !filepath.IsLocal(filepath.FromSlash(rel)) {
		return "", fmt.Errorf("original %q escapes the export root", original)
	}
	return rel, nil
}

func (e *Exporter) buildTable(file *etree.Element, lang string) *Table {
	table := &Table{Language: lang}
	for _, unit := range file.FindElements("body/trans-unit") {
		id := unit.SelectAttr("id")
		if id == nil {
			continue
		}

		var value string
		targets := unit.SelectElements("target")
		switch {
		case len(targets) > 0 && targets[0].Text() != "":
			value = targets[0].Text()
		case lang == e.baseLanguage:
			value = id.Value
		default:
			continue
		}

		comment := ""
		if notes := unit.SelectElements("note"); len(notes) == 1 {
			comment = notes[0].Text()
		}
		table.Add(NewEntry(comment, id.Value, value))
	}
	return table
}

// writeTable writes table to its path. An empty table leaves no file
// behind, since Xcode rejects empty strings files.
func (e *Exporter) writeTable(table *Table) error {
	if table.Len() == 0 {
		if err := os.Remove(table.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	}

	dir := filepath.Dir(table.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	f, err := os.Create(table.Path)
	if err != nil {
		return err
	}
	if _, err := table.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	e.written[dir] = struct{}{}
	return nil
}

// Consolidate concatenates the *.strings files of every language directory
// written so far, in name order, into a single Localizable.strings.
func (e *Exporter) Consolidate(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	dirs := make([]string, 0, len(e.written))
	for dir := range e.written {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	for _, dir := range dirs {
		inputs, err := filepath.Glob(filepath.Join(dir, "*.strings"))
		if err != nil {
			return err
		}
		if len(inputs) == 0 {
			continue
		}
		sort.Strings(inputs)

		var merged []byte
		for _, input := range inputs {
			data, err := os.ReadFile(input)
			if err != nil {
				return err
			}
			merged = append(merged, data...)
		}
		for _, input := range inputs {
			if err := os.Remove(input); err != nil {
				return err
			}
		}
		if err := os.WriteFile(filepath.Join(dir, ConsolidatedName), merged, 0644); err != nil {
			return err
		}
		logger.Info("consolidated", "dir", dir, "inputs", len(inputs))
	}
	return nil
}
