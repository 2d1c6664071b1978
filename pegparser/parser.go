package pegparser

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

const CommentKeySuffix = "_comment"

var canonicalInt = regexp.MustCompile(`^(0|[1-9][0-9]{0,17})$`)

type parser struct {
	name string
	data []byte
	pos  int
	line int
}

// ParseReader parses a project descriptor. The result holds the leading
// "// ..." line under "headComment" and the root dictionary under "project".
func ParseReader(filename string, r io.Reader) (Object, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Object{}, err
	}
	return Parse(filename, data)
}

func Parse(filename string, data []byte) (Object, error) {
	p := &parser{name: filename, data: data, line: 1}
	contents := NewObject()

	p.skipSpace()
	if p.hasPrefix("//") {
		contents.Set("headComment", strings.TrimSpace(p.readLineComment()))
	}
	p.skipTrivia()
	project, err := p.parseObject()
	if err != nil {
		return Object{}, err
	}
	p.skipTrivia()
	if !p.eof() {
		return Object{}, p.errorf("unexpected %q after root dictionary", p.data[p.pos])
	}

	if project.Has("objects") {
		sections, err := groupObjectsByIsa(project.GetObject("objects"))
		if err != nil {
			return Object{}, fmt.Errorf("%s: %w", filename, err)
		}
		project.Set("objects", sections)
	}
	contents.Set("project", project)
	return contents, nil
}

// groupObjectsByIsa turns the flat uuid -> object dictionary into
// isa -> (uuid -> object) sections, keeping first-seen order.
func groupObjectsByIsa(objects Object) (Object, error) {
	sections := NewObject()
	for _, item := range objects.Items() {
		if strings.HasSuffix(item.key, CommentKeySuffix) {
			continue
		}
		obj, ok := item.data.(Object)
		if !ok {
			return Object{}, fmt.Errorf("object %s is not a dictionary", item.key)
		}
		isa := strings.Trim(obj.GetString("isa"), `"`)
		if isa == "" {
			return Object{}, fmt.Errorf("object %s has no isa", item.key)
		}
		section, found := sections.Get(isa)
		if !found {
			section = NewObject()
			sections.Set(isa, section)
		}
		section.(Object).Set(item.key, obj)
		if cmt, ok := objects.Get(item.key + CommentKeySuffix); ok {
			section.(Object).Set(item.key+CommentKeySuffix, cmt)
		}
	}
	return sections, nil
}

func (p *parser) errorf(format string, a ...interface{}) error {
	return fmt.Errorf("%s:%d: "+format, append([]interface{}{p.name, p.line}, a...)...)
}

func (p *parser) eof() bool { return p.pos >= len(p.data) }

func (p *parser) hasPrefix(s string) bool {
	return strings.HasPrefix(string(p.data[p.pos:min(len(p.data), p.pos+len(s))]), s)
}

func (p *parser) advance(n int) {
	for i := 0; i < n && !p.eof(); i++ {
		if p.data[p.pos] == '\n' {
			p.line++
		}
		p.pos++
	}
}

func (p *parser) skipSpace() {
	for !p.eof() {
		switch p.data[p.pos] {
		case ' ', '\t', '\r', '\n':
			p.advance(1)
		default:
			return
		}
	}
}

// skipTrivia skips whitespace and every kind of comment.
func (p *parser) skipTrivia() {
	for {
		p.skipSpace()
		switch {
		case p.hasPrefix("//"):
			p.readLineComment()
		case p.hasPrefix("/*"):
			p.readBlockComment()
		default:
			return
		}
	}
}

func (p *parser) readLineComment() string {
	p.advance(2)
	start := p.pos
	for !p.eof() && p.data[p.pos] != '\n' {
		p.pos++
	}
	return string(p.data[start:p.pos])
}

func (p *parser) readBlockComment() string {
	p.advance(2)
	start := p.pos
	for !p.eof() && !p.hasPrefix("*/") {
		p.advance(1)
	}
	text := string(p.data[start:p.pos])
	p.advance(2)
	return strings.TrimSpace(text)
}

// annotation reads an optional /* ... */ directly following a key or value.
func (p *parser) annotation() string {
	p.skipSpace()
	if p.hasPrefix("/*") {
		return p.readBlockComment()
	}
	return ""
}

func (p *parser) expect(c byte) error {
	p.skipSpace()
	if p.eof() {
		return p.errorf("expected %q, found end of input", c)
	}
	if p.data[p.pos] != c {
		return p.errorf("expected %q, found %q", c, p.data[p.pos])
	}
	p.advance(1)
	return nil
}

func (p *parser) parseObject() (Object, error) {
	if err := p.expect('{'); err != nil {
		return Object{}, err
	}
	obj := NewObject()
	for {
		p.skipTrivia()
		if p.eof() {
			return Object{}, p.errorf("unterminated dictionary")
		}
		if p.data[p.pos] == '}' {
			p.advance(1)
			return obj, nil
		}
		key, err := p.parseLiteral()
		if err != nil {
			return Object{}, err
		}
		keyComment := p.annotation()
		if err := p.expect('='); err != nil {
			return Object{}, err
		}
		value, err := p.parseValue()
		if err != nil {
			return Object{}, err
		}
		valueComment := p.annotation()
		if err := p.expect(';'); err != nil {
			return Object{}, err
		}
		obj.Set(key, value)
		switch {
		case valueComment != "":
			obj.Set(key+CommentKeySuffix, valueComment)
		case keyComment != "":
			obj.Set(key+CommentKeySuffix, keyComment)
		}
	}
}

func (p *parser) parseArray() ([]interface{}, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	arr := []interface{}{}
	for {
		p.skipTrivia()
		if p.eof() {
			return nil, p.errorf("unterminated array")
		}
		if p.data[p.pos] == ')' {
			p.advance(1)
			return arr, nil
		}
		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		comment := p.annotation()
		if str, ok := value.(string); ok && comment != "" {
			arr = append(arr, NewObjectWithData([]ObjectItem{
				NewObjectItem("value", str),
				NewObjectItem("comment", comment),
			}))
		} else {
			arr = append(arr, value)
		}
		p.skipTrivia()
		if !p.eof() && p.data[p.pos] == ',' {
			p.advance(1)
		} else if p.eof() || p.data[p.pos] != ')' {
			return nil, p.errorf("expected ',' or ')' in array")
		}
	}
}

func (p *parser) parseValue() (interface{}, error) {
	p.skipTrivia()
	if p.eof() {
		return nil, p.errorf("expected value, found end of input")
	}
	switch p.data[p.pos] {
	case '{':
		return p.parseObject()
	case '(':
		return p.parseArray()
	}
	literal, err := p.parseLiteral()
	if err != nil {
		return nil, err
	}
	if canonicalInt.MatchString(literal) {
		if n, err := strconv.Atoi(literal); err == nil {
			return n, nil
		}
	}
	return literal, nil
}

// parseLiteral returns quoted strings and data blocks verbatim, delimiters
// included, and bare words as they are.
func (p *parser) parseLiteral() (string, error) {
	p.skipSpace()
	if p.eof() {
		return "", p.errorf("expected string, found end of input")
	}
	start := p.pos
	switch p.data[p.pos] {
	case '"':
		p.advance(1)
		for !p.eof() && p.data[p.pos] != '"' {
			if p.data[p.pos] == '\\' {
				p.advance(1)
			}
			p.advance(1)
		}
		if p.eof() {
			return "", p.errorf("unterminated quoted string")
		}
		p.advance(1)
		return string(p.data[start:p.pos]), nil
	case '<':
		for !p.eof() && p.data[p.pos] != '>' {
			p.advance(1)
		}
		if p.eof() {
			return "", p.errorf("unterminated data block")
		}
		p.advance(1)
		return string(p.data[start:p.pos]), nil
	}
	for !p.eof() && !p.atDelimiter() {
		p.advance(1)
	}
	if p.pos == start {
		return "", p.errorf("unexpected %q", p.data[p.pos])
	}
	return string(p.data[start:p.pos]), nil
}

func (p *parser) atDelimiter() bool {
	switch p.data[p.pos] {
	case ' ', '\t', '\r', '\n', ';', ',', '=', '(', ')', '{', '}', '"':
		return true
	}
	return p.hasPrefix("/*") || p.hasPrefix("//")
}
