package composer

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/ini.v1"
	"howett.net/plist"

	"github.com/brave/ios-buildtools/internal/ctxlog"
)

const (
	fabricKeyPlaceholder = "FABRIC_KEY_REMOVED"
	bundleIDPlaceholder  = "BUNDLE-ID-PLACEHOLDER"
)

// Credentials holds the crash reporting key pair. The zero value means the
// integration is disabled.
type Credentials struct {
	Key    string
	Secret string
}

func (c Credentials) Enabled() bool {
	return c.Key != "" && c.Secret != ""
}

// readCredentials loads the two-line key file. A missing or incomplete
// file disables the integration and is not an error.
func readCredentials(ctx context.Context, path string) (Credentials, error) {
	logger := ctxlog.FromContext(ctx)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Info("no fabric keys, integration disabled", "path", path)
		return Credentials{}, nil
	}
	if err != nil {
		return Credentials{}, fmt.Errorf("reading credentials: %w", err)
	}

	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < 2 {
		logger.Warn("incomplete fabric keys, integration disabled", "path", path, "lines", len(lines))
		return Credentials{}, nil
	}
	return Credentials{Key: lines[0], Secret: lines[1]}, nil
}

// renderInfoPlist fills the template placeholders and checks that the
// result still decodes as a property list before writing it.
func renderInfoPlist(templatePath, outPath string, creds Credentials, bundleID string) error {
	data, err := os.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("reading Info.plist template: %w", err)
	}
	text := string(data)
	if creds.Enabled() {
		text = strings.ReplaceAll(text, fabricKeyPlaceholder, creds.Key)
	}
	text = strings.ReplaceAll(text, bundleIDPlaceholder, bundleID)

	var info map[string]interface{}
	if _, err := plist.Unmarshal([]byte(text), &info); err != nil {
		return fmt.Errorf("%s: rendered Info.plist is not a property list: %w", templatePath, err)
	}
	return os.WriteFile(outPath, []byte(text), 0644)
}

func loadXcconfig(path string) (*ini.File, error) {
	return ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:     true,
		SkipUnrecognizableLines: true,
		KeyValueDelimiters:      "=",
	}, path)
}

// readBundleID returns the value of the first assignment in an xcconfig.
func readBundleID(path string) (string, error) {
	cfg, err := loadXcconfig(path)
	if err != nil {
		return "", fmt.Errorf("reading bundle id: %w", err)
	}
	for _, key := range cfg.Section(ini.DefaultSection).Keys() {
		if strings.HasPrefix(key.Name(), "//") {
			continue
		}
		if id := strings.TrimSpace(key.Value()); id != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("%s: no bundle id assignment", path)
}

// writeOverride replaces the override xcconfig. Empty flags leave it empty.
func writeOverride(path, flags string) error {
	cfg := ini.Empty()
	if flags != "" {
		if _, err := cfg.Section(ini.DefaultSection).NewKey("OTHER_SWIFT_FLAGS", flags); err != nil {
			return err
		}
	}
	return cfg.SaveTo(path)
}
