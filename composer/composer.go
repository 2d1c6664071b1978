// Package composer rebuilds the application's Xcode project from the
// reference archive, registering every tracked source file, third-party
// component, build phase and bundle identifier.
package composer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/brave/ios-buildtools/internal/ctxlog"
	"github.com/brave/ios-buildtools/pbxproj"
)

const bundleIDKey = "PRODUCT_BUNDLE_IDENTIFIER"

type Composer struct {
	cfg      Config
	creds    Credentials
	bundleID string

	project *pbxproj.PbxProject
	groups  *GroupCache
	files   *FileRefCache
}

func New(cfg Config) *Composer {
	return &Composer{cfg: cfg}
}

// Run executes the whole pipeline. Steps run strictly in order: the
// headers section is captured before the descriptor is loaded and saved.
func (c *Composer) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	if err := c.prepareProject(ctx); err != nil {
		return err
	}
	if err := c.prepareInputs(ctx); err != nil {
		return err
	}

	projectFile := c.cfg.projectFile()
	original, err := readFileString(projectFile)
	if err != nil {
		return fmt.Errorf("reading project: %w", err)
	}
	headers := captureHeadersSection(original)
	if headers == "" {
		logger.Warn("project has no headers build phase section", "path", projectFile)
	}

	c.project = pbxproj.NewPbxProject(projectFile)
	if err := c.project.ParseReader(strings.NewReader(original)); err != nil {
		return err
	}
	c.groups = NewGroupCache(c.project)
	c.files = NewFileRefCache(c.project)

	if err := c.addProjectFiles(ctx); err != nil {
		return err
	}
	if err := c.addManifests(ctx); err != nil {
		return err
	}
	if err := c.addBraveFiles(ctx); err != nil {
		return err
	}
	c.project.MoveLastChildToFront(c.project.MainGroup())
	if err := c.addFrameworks(); err != nil {
		return err
	}
	c.applyBundleIDs()

	if err := c.save(ctx, headers); err != nil {
		return err
	}
	logger.Info("project composed",
		"path", projectFile,
		"groups", c.groups.Len(),
		"files", c.files.Len(),
		"fabric", c.creds.Enabled())

	if c.cfg.DumpPath != "" {
		return c.dump(c.cfg.path(c.cfg.DumpPath))
	}
	return nil
}

// prepareProject replaces the project directory contents with the
// reference archive.
func (c *Composer) prepareProject(ctx context.Context) error {
	projectFile := c.cfg.projectFile()
	if err := os.Remove(projectFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	n, err := extractProject(ctx, c.cfg.path(c.cfg.Archive), c.cfg.ArchiveProjectDir, c.cfg.path(c.cfg.ProjectDir))
	if err != nil {
		return fmt.Errorf("extracting reference project: %w", err)
	}
	ctxlog.FromContext(ctx).Debug("reference project extracted", "files", n)
	return nil
}

// prepareInputs writes Info.plist and the override xcconfig.
func (c *Composer) prepareInputs(ctx context.Context) error {
	creds, err := readCredentials(ctx, c.cfg.path(c.cfg.CredentialsFile))
	if err != nil {
		return err
	}
	c.creds = creds

	flags := ""
	if !creds.Enabled() {
		flags = c.cfg.DisabledFlags
	}
	if err := writeOverride(c.cfg.path(c.cfg.OverrideConfig), flags); err != nil {
		return fmt.Errorf("writing override xcconfig: %w", err)
	}

	c.bundleID, err = readBundleID(c.cfg.path(c.cfg.BundleIDConfig))
	if err != nil {
		return err
	}
	return renderInfoPlist(c.cfg.path(c.cfg.InfoPlistTemplate), c.cfg.path(c.cfg.InfoPlist), creds, c.bundleID)
}

func (c *Composer) addFrameworks() error {
	if !c.creds.Enabled() {
		return nil
	}
	for _, framework := range c.cfg.Frameworks {
		if _, err := c.project.AddFile(framework, pbxproj.PbxFileOptions{
			SourceTree:       pbxproj.SOURCE_ROOT_SOURCETREE,
			Target:           c.cfg.MainTarget,
			CreateBuildFiles: true,
		}); err != nil {
			return err
		}
	}
	return nil
}

// applyBundleIDs points every configuration at the configured bundle id:
// the main product gets it verbatim, everything else a suffixed form.
func (c *Composer) applyBundleIDs() {
	suffixed := c.bundleID + ".$(PRODUCT_NAME)"
	c.project.ForeachBuildConfiguration(func(_ string, settings pbxproj.BuildSettings) {
		switch {
		case settings.Has(bundleIDKey):
			if settings.Has("PRODUCT_NAME") && strings.Contains(settings.Get("PRODUCT_NAME"), c.cfg.MainTarget) {
				settings.Set(bundleIDKey, c.bundleID)
			} else {
				settings.Set(bundleIDKey, suffixed)
			}
		case settings.Has("INFOPLIST_FILE"):
			settings.Set(bundleIDKey, suffixed)
		}
	})
}

func (c *Composer) save(ctx context.Context, headers string) error {
	var out strings.Builder
	if err := pbxproj.NewPbxWriter(c.project).Encode(&out); err != nil {
		return err
	}
	text, restored := restoreHeadersSection(out.String(), headers)
	if restored {
		ctxlog.FromContext(ctx).Info("restored headers build phase section")
	}
	return os.WriteFile(c.project.FilePath(), []byte(text), 0644)
}

func (c *Composer) dump(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := c.project.Dump(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
