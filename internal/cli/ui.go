package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/depresolve/pkg/deps"
	"github.com/matzehuels/depresolve/pkg/report"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleLockfile = lipgloss.NewStyle().Foreground(colorGray)
	styleDynamic  = lipgloss.NewStyle().Foreground(colorGreen)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func printInfo(format string, args ...any) {
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// =============================================================================
// Reports
// =============================================================================

// writeTextReport prints a scan report grouped by ecosystem, followed by the
// unresolved subprojects and a one-line summary.
func writeTextReport(w io.Writer, rep report.Report) {
	fmt.Fprintln(w, StyleTitle.Render("Scan of "+rep.Root)+" "+StyleDim.Render(rep.ScanID))

	for _, er := range rep.Ecosystems {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s %s\n", StyleTitle.Render(string(er.Ecosystem)), StyleDim.Render(fmt.Sprintf("(%d)", len(er.Subprojects))))
		for _, sp := range er.Subprojects {
			direct := 0
			for _, d := range sp.Dependencies {
				if d.Transitivity == deps.Direct {
					direct++
				}
			}
			fmt.Fprintf(w, "  %s %s  %s  %s %s\n",
				styleIconSuccess.Render(iconSuccess),
				StyleValue.Render(displayRoot(sp.RootDir)),
				StyleDim.Render(sourcePaths(sp.Sources)),
				StyleNumber.Render(fmt.Sprintf("%d deps (%d direct)", len(sp.Dependencies), direct)),
				methodLabel(sp.Resolved),
			)
			writeErrorRecords(w, sp.Errors, styleIconWarning.Render(iconWarning))
		}
	}

	if len(rep.Unresolved) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s %s\n", StyleWarning.Render("unresolved"), StyleDim.Render(fmt.Sprintf("(%d)", len(rep.Unresolved))))
		for _, u := range rep.Unresolved {
			fmt.Fprintf(w, "  %s %s  %s\n",
				styleIconError.Render(iconError),
				StyleValue.Render(displayRoot(u.RootDir)),
				StyleDim.Render(sourcePaths(u.Sources)),
			)
			writeErrorRecords(w, u.Errors, styleIconInfo.Render(iconInfo))
		}
	}

	s := rep.Summarize()
	fmt.Fprintln(w)
	parts := []string{
		fmt.Sprintf("%d subprojects", s.Subprojects),
		fmt.Sprintf("%d dependencies", s.Dependencies),
		fmt.Sprintf("%d unresolved", s.Unresolved),
		fmt.Sprintf("%d errors", s.Errors),
	}
	fmt.Fprintln(w, StyleDim.Render(strings.Join(parts, " · ")))
}

func writeErrorRecords(w io.Writer, records []deps.ErrorRecord, icon string) {
	for _, r := range records {
		fmt.Fprintf(w, "      %s %s\n", icon, StyleDim.Render(r.Err().Error()))
	}
}

// writeSubprojects prints discovered subprojects, one per line.
func writeSubprojects(w io.Writer, subprojects []deps.Subproject) {
	for _, sp := range subprojects {
		fmt.Fprintf(w, "%s  %s\n", StyleValue.Render(displayRoot(sp.RootDir)), StyleDim.Render(sourcePaths(sp.Source.Stats())))
	}
	fmt.Fprintln(w, StyleDim.Render(fmt.Sprintf("%d subprojects", len(subprojects))))
}

func methodLabel(rs *deps.ResolvedStats) string {
	if rs == nil {
		return ""
	}
	if rs.Method == deps.MethodDynamic {
		return styleDynamic.Render(string(rs.Method))
	}
	return styleLockfile.Render(string(rs.Method))
}

func sourcePaths(files []deps.SourceFile) string {
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	return strings.Join(paths, ", ")
}

func displayRoot(dir string) string {
	if dir == "" || dir == "." {
		return "."
	}
	return dir
}
