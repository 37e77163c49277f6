package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

const (
	hookMarkerStart = "# >>> prradar pre-commit hook >>>"
	hookMarkerEnd   = "# <<< prradar pre-commit hook <<<"
)

var (
	hookFormat    string
	hookOutputDir string
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Manage git pre-commit hook",
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install prradar as a git pre-commit hook",
	Long:  "Install a pre-commit hook that prints the effective diff summary of the staged changes. The hook never blocks a commit.",
	RunE: func(cmd *cobra.Command, args []string) error {
		hookPath, err := getHookPath()
		if err != nil {
			return fail(cmd, err)
		}

		section := generateHookScript(hookFormat, hookOutputDir)

		existing, err := os.ReadFile(hookPath)
		if err != nil && !os.IsNotExist(err) {
			return fail(cmd, fmt.Errorf("reading hook file: %w", err))
		}

		var content string
		if os.IsNotExist(err) || len(existing) == 0 {
			content = "#!/bin/sh\n" + section
		} else {
			content = replaceHookSection(string(existing), section)
		}

		if err := os.MkdirAll(filepath.Dir(hookPath), 0o755); err != nil {
			return fail(cmd, fmt.Errorf("creating hooks directory: %w", err))
		}
		if err := os.WriteFile(hookPath, []byte(content), 0o755); err != nil {
			return fail(cmd, fmt.Errorf("writing hook file: %w", err))
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Installed prradar pre-commit hook at %s\n", hookPath)
		return nil
	},
}

var hookUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove prradar pre-commit hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		hookPath, err := getHookPath()
		if err != nil {
			return fail(cmd, err)
		}

		existing, err := os.ReadFile(hookPath)
		if err != nil {
			if os.IsNotExist(err) {
				fmt.Fprintln(cmd.OutOrStdout(), "No pre-commit hook found.")
				return nil
			}
			return fail(cmd, fmt.Errorf("reading hook file: %w", err))
		}

		content := removeHookSection(string(existing))

		// If only shebang (and whitespace) remains, delete the file entirely
		trimmed := strings.TrimSpace(content)
		if trimmed == "" || trimmed == "#!/bin/sh" || trimmed == "#!/bin/bash" {
			if err := os.Remove(hookPath); err != nil {
				return fail(cmd, fmt.Errorf("removing hook file: %w", err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed prradar pre-commit hook at %s\n", hookPath)
			return nil
		}

		if err := os.WriteFile(hookPath, []byte(content), 0o755); err != nil {
			return fail(cmd, fmt.Errorf("writing hook file: %w", err))
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Removed prradar section from %s\n", hookPath)
		return nil
	},
}

func getHookPath() (string, error) {
	out, err := exec.Command("git", "rev-parse", "--git-path", "hooks/pre-commit").Output()
	if err != nil {
		return "", fmt.Errorf("not a git repository (git rev-parse --git-path failed)")
	}
	return strings.TrimSpace(string(out)), nil
}

func generateHookScript(format, outputDir string) string {
	var b strings.Builder
	b.WriteString(hookMarkerStart + "\n")
	fmt.Fprintf(&b, "prradar analyze staged --format %s", format)
	if outputDir != "" {
		fmt.Fprintf(&b, " --output-dir %q", outputDir)
	}
	b.WriteString("\n")
	b.WriteString("PRRADAR_EXIT=$?\n")
	b.WriteString("if [ $PRRADAR_EXIT -ne 0 ]; then\n")
	b.WriteString("  echo \"prradar: analysis failed (exit $PRRADAR_EXIT), allowing commit\"\n")
	b.WriteString("fi\n")
	b.WriteString(hookMarkerEnd + "\n")
	return b.String()
}

func replaceHookSection(existing, section string) string {
	startIdx := strings.Index(existing, hookMarkerStart)
	endIdx := strings.Index(existing, hookMarkerEnd)

	if startIdx == -1 || endIdx == -1 {
		// No existing prradar section, append
		if !strings.HasSuffix(existing, "\n") {
			existing += "\n"
		}
		return existing + section
	}

	before := existing[:startIdx]
	after := existing[endIdx+len(hookMarkerEnd):]
	// Trim leading newline from after to avoid double newlines
	after = strings.TrimPrefix(after, "\n")
	return before + section + after
}

func removeHookSection(existing string) string {
	startIdx := strings.Index(existing, hookMarkerStart)
	endIdx := strings.Index(existing, hookMarkerEnd)

	if startIdx == -1 || endIdx == -1 {
		return existing
	}

	before := existing[:startIdx]
	after := existing[endIdx+len(hookMarkerEnd):]
	after = strings.TrimPrefix(after, "\n")

	return before + after
}

func init() {
	hookCmd.AddCommand(hookInstallCmd)
	hookCmd.AddCommand(hookUninstallCmd)
	hookInstallCmd.Flags().StringVar(&hookFormat, "format", "text", "Summary format (text, json, markdown)")
	hookInstallCmd.Flags().StringVar(&hookOutputDir, "output-dir", "", "Also write artifacts to this directory")
}
