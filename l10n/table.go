package l10n

import (
	"bytes"
	"io"
	"strings"
	"text/template"
)

const stringsTemplate = `{{range .Entries}}{{with .Comment}}/* {{.}} */
{{end}}"{{.Key}}" = "{{.Value}}";

{{end}}`

var tableTemplate = template.Must(template.New("strings").Parse(stringsTemplate))

var quoteEscaper = strings.NewReplacer(`"`, `\"`)

// Entry is one line of a strings table. Key and Value are stored escaped.
type Entry struct {
	Comment string
	Key     string
	Value   string
}

func NewEntry(comment, key, value string) Entry {
	return Entry{
		Comment: comment,
		Key:     quoteEscaper.Replace(key),
		Value:   quoteEscaper.Replace(value),
	}
}

// Table is the strings table generated from one <file> of a document.
type Table struct {
	Language string
	Path     string
	Entries  []Entry
}

func (t *Table) Add(e Entry) {
	t.Entries = append(t.Entries, e)
}

func (t *Table) Len() int {
	return len(t.Entries)
}

// WriteTo renders the table in the .strings format.
func (t *Table) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	if err := tableTemplate.Execute(&buf, t); err != nil {
		return 0, err
	}
	n, err := w.Write(buf.Bytes())
	return int64(n), err
}
