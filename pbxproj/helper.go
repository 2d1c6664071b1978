package pbxproj

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/brave/ios-buildtools/pegparser"
)

const COMMENT_KEY_SUFFIX = pegparser.CommentKeySuffix

func isObject(obj interface{}) bool {
	_, ok := obj.(pegparser.Object)
	return ok
}

func toObject(obj interface{}) pegparser.Object {
	return obj.(pegparser.Object)
}

func isArray(obj interface{}) bool {
	_, ok := obj.([]interface{})
	return ok
}

func toArray(obj interface{}) []interface{} {
	return obj.([]interface{})
}

func isString(obj interface{}) bool {
	_, ok := obj.(string)
	return ok
}

func toString(obj interface{}) string {
	return obj.(string)
}

func isInt(obj interface{}) bool {
	switch obj.(type) {
	case int, int8, int16, int32, int64:
		return true
	}
	return false
}

func toIntString(obj interface{}) string {
	switch obj.(type) {
	case int, int8, int16, int32, int64:
		return strconv.FormatInt(reflect.ValueOf(obj).Int(), 10)
	}

	return ""
}

func toCommentKey(key string) string {
	return key + COMMENT_KEY_SUFFIX
}

func isCommentKey(key string) bool {
	return strings.HasSuffix(key, COMMENT_KEY_SUFFIX)
}

func nonCommentsFilter(key string, v interface{}) bool {
	return !onlyCommentsFilter(key, v)
}

func onlyCommentsFilter(key string, _ interface{}) bool {
	return isCommentKey(key)
}

func stringToInterfaceSlice(val []string) []interface{} {
	if val == nil {
		return nil
	}
	result := make([]interface{}, len(val))
	for i, v := range val {
		result[i] = v
	}
	return result
}

func addToObjectList(obj pegparser.Object, key string, val interface{}) {
	if obj.IsNil() {
		return
	}
	list := obj.ForceGet(key)
	if list == nil {
		list = []interface{}{val}
	} else {
		list = append(list.([]interface{}), val)
	}
	obj.Set(key, list)
}

func addToObjectListOnlyNotExist(obj pegparser.Object, key string, val interface{}, equal func(v1, v2 interface{}) bool) bool {
	if obj.IsNil() {
		return false
	}
	list := obj.ForceGet(key)
	if list == nil {
		list = []interface{}{val}
	} else {
		for _, v := range list.([]interface{}) {
			if equal(v, val) {
				return false
			}
		}
		list = append(list.([]interface{}), val)
	}
	obj.Set(key, list)
	return true
}

// listValue returns the uuid of an array entry, annotated or not.
func listValue(v interface{}) string {
	switch v := v.(type) {
	case pegparser.Object:
		return v.GetString("value")
	case string:
		return v
	}
	return ""
}

var unquotedRegex = regexp.MustCompile(`(^")|("$)`)

func unquoted(text string) string {
	if text == "" {
		return text
	}
	return unquotedRegex.ReplaceAllString(text, "")
}

// Unquoted strips the surrounding quotes of a descriptor string literal.
func Unquoted(text string) string {
	return unquoted(text)
}

var bareWordRegex = regexp.MustCompile(`^[A-Za-z0-9_/:.\-]+$`)

func quoted(text string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`)
	return `"` + r.Replace(text) + `"`
}

// quoteIfNeeded leaves bare words alone and quotes everything else, the way
// Xcode writes its own files.
func quoteIfNeeded(text string) string {
	if bareWordRegex.MatchString(text) {
		return text
	}
	return quoted(text)
}
