package composer

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/brave/ios-buildtools/internal/ctxlog"
	"github.com/brave/ios-buildtools/pbxproj"
	"github.com/brave/ios-buildtools/pegparser"
)

var (
	sourceExtensions  = []string{".h", ".swift", ".m", ".mm", ".entitlements", ".plist"}
	primaryExtensions = []string{".js", ".txt", ".html"}
	braveExtensions   = []string{".h", ".js", ".swift", ".m", ".mm", ".html", ".entitlements"}

	// Files whose build files stay out of the test target.
	notForTestTarget = []string{"Setting.swift"}
)

func hasSuffix(name string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

func isBundleDir(name string) bool {
	return strings.Contains(name, ".xcassets") || name == "SearchPlugins"
}

// underPrimary reports whether the source root relative rel lies in the
// primary directory.
func (c *Composer) underPrimary(rel string) bool {
	first, _, _ := strings.Cut(normalizePath(rel), "/")
	return first == c.cfg.PrimaryDir
}

// addProjectFiles walks every source directory and registers what it finds.
func (c *Composer) addProjectFiles(ctx context.Context) error {
	for _, dir := range c.cfg.SourceDirs {
		if err := c.addSourceDir(ctx, dir); err != nil {
			return err
		}
	}
	return nil
}

func (c *Composer) addSourceDir(ctx context.Context, dir string) error {
	logger := ctxlog.FromContext(ctx)
	root := c.cfg.sourcePath(dir)
	if _, err := os.Stat(root); err != nil {
		logger.Warn("source directory missing", "dir", dir)
		return nil
	}
	c.groups.Group(dir)

	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		relToDir, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel := path.Join(dir, filepath.ToSlash(relToDir))
		parentDir := path.Dir(rel)

		if d.IsDir() {
			if !isBundleDir(d.Name()) {
				c.groups.Group(rel)
				return nil
			}
			if c.underPrimary(rel) {
				if err := c.addBundle(rel); err != nil {
					return err
				}
			}
			return filepath.SkipDir
		}

		name := d.Name()
		switch {
		case hasSuffix(name, sourceExtensions):
			_, err := c.files.Register(ctx, rel, c.groups.Group(parentDir))
			return err
		case hasSuffix(name, primaryExtensions):
			if !c.underPrimary(rel) {
				logger.Info("ignore", "path", rel)
				return nil
			}
			parent := c.groups.Group(parentDir)
			ref, err := c.project.AddFile(name, pbxproj.PbxFileOptions{
				Parent:           &parent,
				Target:           c.cfg.MainTarget,
				CreateBuildFiles: true,
			})
			if err != nil {
				return fmt.Errorf("%s: %w", rel, err)
			}
			c.files.Insert(rel, ref)
		}
		return nil
	})
}

// addBundle adds an opaque bundle directory as one resource of the main
// target.
func (c *Composer) addBundle(rel string) error {
	parent := c.groups.Group(path.Dir(rel))
	options := pbxproj.PbxFileOptions{
		Parent:           &parent,
		Target:           c.cfg.MainTarget,
		CreateBuildFiles: true,
	}
	if path.Ext(rel) == "" {
		options.LastKnownFileType = pbxproj.FOLDER_FILETYPE
	}
	if _, err := c.project.AddFile(path.Base(rel), options); err != nil {
		return fmt.Errorf("%s: %w", rel, err)
	}
	return nil
}

func readManifest(file string) ([]string, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var paths []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimRight(scanner.Text(), "\r"); strings.TrimSpace(line) != "" {
			paths = append(paths, line)
		}
	}
	return paths, scanner.Err()
}

// addManifests links the files each target manifest lists into that
// target's build phases.
func (c *Composer) addManifests(ctx context.Context) error {
	for _, target := range c.cfg.ManifestTargets {
		if err := c.addManifest(ctx, target); err != nil {
			return err
		}
	}
	return nil
}

func (c *Composer) addManifest(ctx context.Context, targetName string) error {
	logger := ctxlog.FromContext(ctx)
	file := c.cfg.manifestPath(targetName)
	paths, err := readManifest(file)
	if err != nil {
		return fmt.Errorf("manifest for %s: %w", targetName, err)
	}

	for _, p := range paths {
		ref, ok := c.files.Lookup(p)
		if !ok {
			logger.Info("manifest entry missing from file cache", "target", targetName, "path", p)
			ref, err = c.project.AddFile(p, pbxproj.PbxFileOptions{})
			if err != nil {
				return err
			}
			c.files.Insert(p, ref)
		}
		if ref.BuildPhase == "" {
			continue
		}

		target, err := c.project.TargetByName(targetName)
		if err != nil {
			return fmt.Errorf("manifest %s: %w", file, err)
		}
		for _, phase := range c.project.TargetBuildPhases(target, ref.BuildPhase) {
			ref.BuildFiles = append(ref.BuildFiles, c.project.AddBuildFile(ref, phase))
		}
	}
	logger.Debug("manifest linked", "target", targetName, "entries", len(paths))
	return nil
}

// addBraveFiles registers the brave sources, the optional crash reporting
// run script and the third-party components.
func (c *Composer) addBraveFiles(ctx context.Context) error {
	if c.creds.Enabled() {
		script := fmt.Sprintf("./Fabric.framework/run %s %s", c.creds.Key, c.creds.Secret)
		if _, err := c.project.AddRunScript(c.cfg.MainTarget, "Run Script", script); err != nil {
			return err
		}
	}

	braveGroup := c.groups.Group(c.cfg.BraveDir)
	if _, err := c.project.AddFile(path.Join(c.cfg.BraveDir, "Brave.entitlements"), pbxproj.PbxFileOptions{
		Parent:     &braveGroup,
		SourceTree: pbxproj.SOURCE_ROOT_SOURCETREE,
	}); err != nil {
		return err
	}

	if err := c.addBraveSources(ctx); err != nil {
		return err
	}

	for _, component := range c.cfg.Components {
		group := c.project.GetOrCreateGroup(component.Name, component.Path, &braveGroup)
		for _, f := range component.Files {
			if _, err := c.project.AddFile(f, pbxproj.PbxFileOptions{
				Parent:           &group,
				Target:           c.cfg.MainTarget,
				CreateBuildFiles: true,
			}); err != nil {
				return fmt.Errorf("%s: %w", component.Name, err)
			}
		}
	}
	return nil
}

func (c *Composer) testTargetPhase() (pegparser.ObjectWithUUID, error) {
	target, err := c.project.TargetByName(c.cfg.TestTarget)
	if err != nil {
		return pegparser.ObjectWithUUID{}, err
	}
	phases := c.project.TargetBuildPhases(target, "")
	if len(phases) == 0 {
		return pegparser.ObjectWithUUID{}, fmt.Errorf("target %s has no build phases", c.cfg.TestTarget)
	}
	return phases[0], nil
}

// sharedWithTests decides whether a main target file also builds for the
// test target. dir is relative to the brave directory.
func sharedWithTests(dir, name string) bool {
	if strings.Contains(dir, "frontend") || strings.Contains(dir, "page-hooks") || strings.HasSuffix(name, ".js") {
		return false
	}
	for _, s := range notForTestTarget {
		if strings.Contains(name, s) {
			return false
		}
	}
	return true
}

func (c *Composer) addBraveSources(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	braveRoot := c.cfg.sourcePath(c.cfg.BraveDir)
	srcRoot := filepath.Join(braveRoot, filepath.FromSlash(c.cfg.BraveSrc))
	c.groups.Group(path.Join(c.cfg.BraveDir, c.cfg.BraveSrc))

	testPhase, err := c.testTargetPhase()
	if err != nil {
		return err
	}
	if _, err := os.Stat(srcRoot); err != nil {
		logger.Warn("brave sources missing", "dir", srcRoot)
		return nil
	}

	return filepath.WalkDir(srcRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		relToBrave, err := filepath.Rel(braveRoot, p)
		if err != nil {
			return err
		}
		relToBrave = filepath.ToSlash(relToBrave)
		rel := path.Join(c.cfg.BraveDir, relToBrave)

		if d.IsDir() {
			c.groups.Group(rel)
			return nil
		}
		name := d.Name()
		if !hasSuffix(name, braveExtensions) {
			return nil
		}
		dir := path.Dir(relToBrave)
		parent := c.groups.Group(path.Dir(rel))

		if strings.Contains(dir, "test") {
			_, err := c.project.AddFile(name, pbxproj.PbxFileOptions{
				Parent:           &parent,
				Target:           c.cfg.TestTarget,
				CreateBuildFiles: true,
			})
			return err
		}

		ref, err := c.project.AddFile(name, pbxproj.PbxFileOptions{
			Parent:           &parent,
			Target:           c.cfg.MainTarget,
			CreateBuildFiles: true,
		})
		if err != nil {
			return err
		}
		if !sharedWithTests(dir, name) {
			return nil
		}
		for _, id := range ref.BuildFiles {
			c.project.AppendToBuildPhase(id, ref.BuildFileComment(), testPhase)
		}
		if len(ref.BuildFiles) > 0 {
			logger.Debug("shared with test target", "path", rel)
		}
		return nil
	})
}
