package pegparser

type SliceItem struct {
	key  string
	data interface{}
}

func (i SliceItem) Key() string        { return i.key }
func (i SliceItem) Data() interface{} { return i.data }

// SliceMap is a string keyed map that remembers insertion order. Setting an
// existing key keeps its position.
type SliceMap struct {
	mp map[string]int
	sl []*SliceItem
}

func NewSliceMap() *SliceMap {
	return &SliceMap{
		mp: make(map[string]int),
		sl: make([]*SliceItem, 0),
	}
}

func (m *SliceMap) ForceGet(key string) interface{} {
	v, _ := m.Get(key)
	return v
}

func (m *SliceMap) Get(key string) (interface{}, bool) {
	idx, found := m.mp[key]
	if !found {
		return nil, false
	}
	return m.sl[idx].data, true
}

func (m *SliceMap) Set(key string, v interface{}) {
	if idx, found := m.mp[key]; found {
		m.sl[idx] = &SliceItem{key: key, data: v}
		return
	}
	m.sl = append(m.sl, &SliceItem{key: key, data: v})
	m.mp[key] = len(m.sl) - 1
}

func (m *SliceMap) Has(key string) bool {
	_, found := m.mp[key]
	return found
}

func (m *SliceMap) Delete(key string) {
	if idx, found := m.mp[key]; found {
		m.DeleteAt(idx)
	}
}

func (m *SliceMap) Clear() {
	m.mp = make(map[string]int)
	m.sl = make([]*SliceItem, 0)
}

func (m *SliceMap) Size() int {
	return len(m.sl)
}

func (m *SliceMap) Items() []*SliceItem {
	return m.sl
}

func (m *SliceMap) GetAt(idx int) (interface{}, bool) {
	if idx < 0 || idx >= len(m.sl) {
		return nil, false
	}
	return m.sl[idx].data, true
}

func (m *SliceMap) DeleteAt(idx int) {
	if idx < 0 || idx >= len(m.sl) {
		return
	}
	old := m.sl[idx]
	m.sl = append(m.sl[:idx], m.sl[idx+1:]...)
	delete(m.mp, old.key)
	for i := idx; i < len(m.sl); i++ {
		m.mp[m.sl[i].key] = i
	}
}
