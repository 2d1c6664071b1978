package pbxproj

import "github.com/brave/ios-buildtools/pegparser"

// BuildSettings wraps the buildSettings dictionary of one
// XCBuildConfiguration. Values are read and written unquoted.
type BuildSettings struct {
	obj pegparser.Object
}

func (s BuildSettings) Has(key string) bool {
	return !s.obj.IsNil() && s.obj.Has(key)
}

func (s BuildSettings) Get(key string) string {
	return unquoted(s.obj.GetString(key))
}

func (s BuildSettings) Set(key, value string) {
	if s.obj.IsNil() {
		return
	}
	s.obj.Set(key, quoteIfNeeded(value))
}

// ForeachBuildConfiguration calls fn with the name and settings of every
// XCBuildConfiguration, in file order.
func (p *PbxProject) ForeachBuildConfiguration(fn func(name string, settings BuildSettings)) {
	p.pbxXCBuildConfigurationSection.ForeachWithFilter(func(key string, val interface{}) pegparser.IterateActionType {
		configuration, ok := val.(pegparser.Object)
		if !ok {
			return pegparser.IterateActionContinue
		}
		buildSettings, found := configuration.Get("buildSettings")
		if !found {
			buildSettings = pegparser.NewObject()
			configuration.Set("buildSettings", buildSettings)
		}
		settings, ok := buildSettings.(pegparser.Object)
		if !ok {
			return pegparser.IterateActionContinue
		}
		fn(unquoted(configuration.GetString("name")), BuildSettings{obj: settings})
		return pegparser.IterateActionContinue
	}, nonCommentsFilter)
}
