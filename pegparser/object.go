package pegparser

import (
	"encoding/json"
	"reflect"
)

type IterateActionType = int8

const (
	IterateActionContinue IterateActionType = iota
	IterateActionBreak
)

type ObjectItem = SliceItem

// Object is one dictionary of a project descriptor. Copies share the
// underlying storage.
type Object struct {
	*SliceMap
}

type ObjectWithUUID struct {
	Object
	UUID string
}

func NewObjectItem(key string, value interface{}) ObjectItem {
	return SliceItem{key, value}
}

func NewObject() Object {
	return Object{
		SliceMap: NewSliceMap(),
	}
}

func NewObjectWithData(items []ObjectItem) Object {
	o := NewObject()
	for _, item := range items {
		o.Set(item.key, item.data)
	}

	return o
}

func (o Object) toMarshalJSONData() map[string]interface{} {
	dataMap := make(map[string]interface{})
	o.Foreach(func(key string, val interface{}) IterateActionType {
		obj, ok := val.(Object)
		if ok {
			dataMap[key] = obj.toMarshalJSONData()
		} else {
			dataMap[key] = val
		}
		return IterateActionContinue
	})
	return dataMap
}

func (o Object) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.toMarshalJSONData())
}

func (o Object) IsEmpty() bool {
	if o.SliceMap == nil || o.sl == nil {
		return true
	}
	return o.Size() == 0
}

// IsNil reports whether o was never initialised. Unlike IsEmpty it is false
// for dictionaries that exist but have no entries.
func (o Object) IsNil() bool {
	return o.SliceMap == nil
}

// GetObject returns the dictionary stored under key, or a new detached
// dictionary when there is none.
func (o Object) GetObject(key string) Object {
	if o.SliceMap == nil {
		return NewObject()
	}
	if value, ok := o.Get(key); ok {
		if obj, ok := value.(Object); ok {
			return obj
		}
	}
	return NewObject()
}

func (o Object) GetString(key string) string {
	if o.SliceMap == nil {
		return ""
	}
	if value, ok := o.Get(key); ok {
		switch v := value.(type) {
		case string:
			return v
		default:
			return ""
		}
	}
	return ""
}

func (o Object) GetInt(key string) int {
	if o.SliceMap == nil {
		return 0
	}
	if value, ok := o.Get(key); ok {
		switch value.(type) {
		case int, int8, int16, int32, int64:
			return int(reflect.ValueOf(value).Int())
		}
	}
	return 0
}

func (o Object) GetArray(key string) []interface{} {
	if o.SliceMap == nil {
		return nil
	}
	if value, ok := o.Get(key); ok {
		if arr, ok := value.([]interface{}); ok {
			return arr
		}
	}
	return nil
}

type ApplyFunc = func(key string, val interface{}) IterateActionType
type FilterFunc = func(key string, val interface{}) bool

func (o Object) Foreach(apply ApplyFunc) {
	if o.IsEmpty() {
		return
	}
	for _, item := range o.Items() {
		if item.data == nil {
			continue
		}
		action := apply(item.key, item.data)
		if action == IterateActionBreak {
			break
		}
	}
}

func (o Object) ForeachWithFilter(apply ApplyFunc, filter FilterFunc) {
	if o.IsEmpty() {
		return
	}
	for _, item := range o.Items() {
		if item.data == nil {
			continue
		}
		if filter(item.key, item.data) {
			action := apply(item.key, item.data)
			if action == IterateActionBreak {
				break
			}
		}
	}
}

func (o Object) Filter(f FilterFunc) Object {
	newObj := NewObject()
	o.Foreach(func(key string, val interface{}) IterateActionType {
		if f(key, val) {
			newObj.Set(key, val)
		}
		return IterateActionContinue
	})
	return newObj
}
