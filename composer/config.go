package composer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Component is a third-party source tree compiled into the main target.
type Component struct {
	Name  string   `yaml:"name"`
	Path  string   `yaml:"path"`
	Files []string `yaml:"files"`
}

// Config locates every input and output of a composer run. Relative paths
// are resolved against WorkDir, except SourceDirs, Components and manifest
// entries which are relative to SourceRoot.
type Config struct {
	WorkDir    string `yaml:"workdir"`
	SourceRoot string `yaml:"source_root"`

	ProjectDir        string `yaml:"project_dir"`
	Archive           string `yaml:"archive"`
	ArchiveProjectDir string `yaml:"archive_project_dir"`

	CredentialsFile   string `yaml:"credentials_file"`
	InfoPlistTemplate string `yaml:"info_plist_template"`
	InfoPlist         string `yaml:"info_plist"`
	BundleIDConfig    string `yaml:"bundle_id_config"`
	OverrideConfig    string `yaml:"override_config"`
	DisabledFlags     string `yaml:"disabled_flags"`

	// ManifestPattern is formatted with a target name.
	ManifestPattern string   `yaml:"manifest_pattern"`
	ManifestTargets []string `yaml:"manifest_targets"`

	MainTarget string `yaml:"main_target"`
	TestTarget string `yaml:"test_target"`
	PrimaryDir string `yaml:"primary_dir"`

	SourceDirs []string    `yaml:"source_dirs"`
	BraveDir   string      `yaml:"brave_dir"`
	BraveSrc   string      `yaml:"brave_src"`
	Components []Component `yaml:"components"`
	Frameworks []string    `yaml:"frameworks"`

	DumpPath string `yaml:"dump"`
}

func DefaultConfig() Config {
	return Config{
		WorkDir:           ".",
		SourceRoot:        "..",
		ProjectDir:        "../Client.xcodeproj",
		Archive:           "../Client.xcodeproj.tgz",
		ArchiveProjectDir: "Client.xcodeproj",
		CredentialsFile:   "~/.brave-fabric-keys",
		InfoPlistTemplate: "../Client/Info.plist.template",
		InfoPlist:         "../Client/Info.plist",
		BundleIDConfig:    "xcconfig/.bundle-id.xcconfig",
		OverrideConfig:    "xcconfig/.fabric-override.xcconfig",
		DisabledFlags:     "-DBRAVE -DDEBUG -DNO_FABRIC",
		ManifestPattern:   "build-system/target-%s.txt",
		ManifestTargets: []string{
			"Account", "BraveShareTo", "Client", "ReadingList", "Shared", "Storage", "Sync",
		},
		MainTarget: "Client",
		TestTarget: "ClientTests",
		PrimaryDir: "Client",
		SourceDirs: []string{
			"Account", "BraveShareTo", "Client", "FxA", "FxAClient", "Providers",
			"ReadingList", "Shared", "Storage", "Sync", "ThirdParty", "Utils",
		},
		BraveDir: "brave",
		BraveSrc: "src",
		Components: []Component{
			{
				Name: "abp-filter-parser-cpp",
				Path: "brave/node_modules/abp-filter-parser-cpp",
				Files: []string{
					"ABPFilterParser.h", "ABPFilterParser.cpp", "filter.cpp",
					"node_modules/bloom-filter-cpp/BloomFilter.cpp", "node_modules/bloom-filter-cpp/BloomFilter.h",
					"node_modules/hashset-cpp/hashFn.h", "node_modules/hashset-cpp/HashItem.h",
					"node_modules/hashset-cpp/HashSet.h", "node_modules/hashset-cpp/HashSet.cpp",
					"cosmeticFilter.h", "cosmeticFilter.cpp",
				},
			},
			{
				Name:  "tracking-protection",
				Path:  "brave/node_modules/tracking-protection",
				Files: []string{"FirstPartyHost.h", "TPParser.h", "TPParser.cpp"},
			},
		},
		Frameworks: []string{"Fabric.framework", "Crashlytics.framework"},
	}
}

// LoadConfig overlays the YAML file at path, when given, on DefaultConfig.
// Lists in the file replace the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// path resolves p against WorkDir, expanding a leading "~/".
func (c Config) path(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.WorkDir, p)
}

// sourcePath resolves a source root relative path.
func (c Config) sourcePath(rel string) string {
	return filepath.Join(c.path(c.SourceRoot), filepath.FromSlash(rel))
}

func (c Config) manifestPath(target string) string {
	return c.path(fmt.Sprintf(c.ManifestPattern, target))
}

func (c Config) projectFile() string {
	return filepath.Join(c.path(c.ProjectDir), "project.pbxproj")
}
