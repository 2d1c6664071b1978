package main

import (
	"context"
	"log/slog"
	"os"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/brave/ios-buildtools/composer"
	"github.com/brave/ios-buildtools/internal/ctxlog"
	"github.com/brave/ios-buildtools/l10n"
)

// go build -ldflags "-X main.version={version}"
var version string

const appDescription = `
Build tooling for the Brave iOS browser.

compose:
    Restores the Xcode project from its reference archive and registers every
    tracked source file, component, build phase and bundle identifier.

strings:
    Converts translated XLIFF documents into per-language Localizable.strings
    tables.
`

var (
	app     = kingpin.New("brave-buildtools", appDescription).Version(version)
	verbose = app.Flag("verbose", "Verbose logs. Use this to debug potential errors.").Short('v').Bool()

	compose        = app.Command("compose", "Compose the Xcode project.")
	composeWorkDir = compose.Flag("workdir", "Directory the project paths are relative to.").ExistingDir()
	composeConfig  = compose.Flag("config", "YAML file overriding the default layout.").ExistingFile()
	composeDump    = compose.Flag("dump", "Write the composed project as JSON to this file.").String()

	stringsCmd   = app.Command("strings", "Export XLIFF translations to strings tables.")
	importDir    = stringsCmd.Flag("import", "Directory holding the *.xlf documents.").Default(".").ExistingDir()
	exportDir    = stringsCmd.Flag("export", "Directory the tables are written below.").Default(".").ExistingDir()
	baseLanguage = stringsCmd.Flag("base-language", "Language whose untranslated units fall back to their id.").Default(l10n.DefaultBaseLanguage).String()
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	var err error
	switch command {
	case compose.FullCommand():
		err = runCompose(ctx)
	case stringsCmd.FullCommand():
		err = runStrings(ctx)
	}
	if err != nil {
		logger.Error("command failed", "command", command, "error", err)
		os.Exit(1)
	}
}

func runCompose(ctx context.Context) error {
	cfg, err := composer.LoadConfig(*composeConfig)
	if err != nil {
		return err
	}
	if *composeWorkDir != "" {
		cfg.WorkDir = *composeWorkDir
	}
	if *composeDump != "" {
		cfg.DumpPath = *composeDump
	}
	return composer.New(cfg).Run(ctx)
}

func runStrings(ctx context.Context) error {
	exporter, err := l10n.NewExporter(*importDir, *exportDir, l10n.WithBaseLanguage(*baseLanguage))
	if err != nil {
		return err
	}
	return exporter.Run(ctx)
}
