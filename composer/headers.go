package composer

import (
	"os"
	"strings"
)

const (
	headersSectionMarker = "PBXHeadersBuildPhase section"
	buildFileBeginMarker = "Begin PBXBuildFile section"
)

// captureHeadersSection returns the PBXHeadersBuildPhase section of the
// descriptor text, Begin and End marker lines included, or "" when there is
// none.
func captureHeadersSection(text string) string {
	var section []string
	inside := false
	for _, line := range strings.SplitAfter(text, "\n") {
		if strings.Contains(line, headersSectionMarker) {
			if inside {
				section = append(section, line)
				break
			}
			inside = true
		}
		if inside {
			section = append(section, line)
		}
	}
	if !inside {
		return ""
	}
	return strings.Join(section, "")
}

// restoreHeadersSection splices section back in front of the PBXBuildFile
// section. Text that already has a headers section is returned unchanged.
func restoreHeadersSection(text, section string) (string, bool) {
	if section == "" || strings.Contains(text, "Begin "+headersSectionMarker) {
		return text, false
	}
	if !strings.HasSuffix(section, "\n") {
		section += "\n"
	}
	var out strings.Builder
	restored := false
	for _, line := range strings.SplitAfter(text, "\n") {
		if !restored && strings.Contains(line, buildFileBeginMarker) {
			out.WriteString(section)
			restored = true
		}
		out.WriteString(line)
	}
	return out.String(), restored
}

func readFileString(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
