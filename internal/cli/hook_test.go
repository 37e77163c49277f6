package cli

import (
	"strings"
	"testing"
)

func TestGenerateHookScript(t *testing.T) {
	script := generateHookScript("text", "")

	if !strings.Contains(script, hookMarkerStart) {
		t.Error("Script missing start marker")
	}
	if !strings.Contains(script, hookMarkerEnd) {
		t.Error("Script missing end marker")
	}
	if !strings.Contains(script, "prradar analyze staged --format text\n") {
		t.Error("Script missing prradar command with correct flags")
	}
	if !strings.Contains(script, "PRRADAR_EXIT=$?") {
		t.Error("Script missing exit code capture")
	}
	if strings.Contains(script, "exit 1") {
		t.Error("Script should never block the commit")
	}
	if !strings.Contains(script, "allowing commit") {
		t.Error("Script missing warning for errors")
	}
}

func TestGenerateHookScript_OutputDir(t *testing.T) {
	script := generateHookScript("json", ".prradar/staged")

	if !strings.Contains(script, "--format json") {
		t.Error("Script doesn't use custom format")
	}
	if !strings.Contains(script, `--output-dir ".prradar/staged"`) {
		t.Error("Script doesn't pass the quoted output dir")
	}
}

func TestReplaceHookSection_NoExisting(t *testing.T) {
	existing := "#!/bin/sh\nsome-other-hook\n"
	section := generateHookScript("text", "")

	result := replaceHookSection(existing, section)

	if !strings.HasPrefix(result, "#!/bin/sh\nsome-other-hook\n") {
		t.Error("Existing content should be preserved")
	}
	if !strings.Contains(result, hookMarkerStart) {
		t.Error("New section should be appended")
	}
}

func TestReplaceHookSection_ExistingSection(t *testing.T) {
	oldSection := generateHookScript("text", "")
	existing := "#!/bin/sh\nbefore\n" + oldSection + "after\n"
	newSection := generateHookScript("markdown", "")

	result := replaceHookSection(existing, newSection)

	if !strings.Contains(result, "before") {
		t.Error("Content before prradar section should be preserved")
	}
	if !strings.Contains(result, "after") {
		t.Error("Content after prradar section should be preserved")
	}
	if !strings.Contains(result, "--format markdown") {
		t.Error("New section should have updated flags")
	}
	if strings.Contains(result, "--format text") {
		t.Error("Old section should be replaced")
	}
	if strings.Count(result, hookMarkerStart) != 1 {
		t.Error("Exactly one prradar section should remain")
	}
}

func TestRemoveHookSection(t *testing.T) {
	section := generateHookScript("text", "")
	existing := "#!/bin/sh\nbefore\n" + section + "after\n"

	result := removeHookSection(existing)

	if strings.Contains(result, hookMarkerStart) {
		t.Error("prradar section should be removed")
	}
	if result != "#!/bin/sh\nbefore\nafter\n" {
		t.Errorf("result = %q", result)
	}
}

func TestRemoveHookSection_NoSection(t *testing.T) {
	existing := "#!/bin/sh\nsome-hook\n"
	if result := removeHookSection(existing); result != existing {
		t.Error("Content without prradar section should be unchanged")
	}
}

func TestReplaceHookSection_NoTrailingNewline(t *testing.T) {
	existing := "#!/bin/sh\nsome-hook"
	section := generateHookScript("text", "")

	result := replaceHookSection(existing, section)

	if !strings.HasPrefix(result, "#!/bin/sh\nsome-hook\n"+hookMarkerStart) {
		t.Errorf("Section should start on its own line, got %q", result)
	}
}
