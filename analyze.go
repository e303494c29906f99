package jupyterkit

import (
	"regexp"
	"sort"
	"strings"
)

// Analysis summarizes a notebook without executing it: cell census, plotting
// indicators, imported modules, and spatial metadata presence.
type Analysis struct {
	TotalCells      int      `json:"total_cells"`
	CodeCells       int      `json:"code_cells"`
	MarkdownCells   int      `json:"markdown_cells"`
	HasPlots        bool     `json:"has_plots"`
	Imports         []string `json:"imports"`
	WindowCells     int      `json:"window_cells"`
	HasSpatialData  bool     `json:"has_visionos_data"`
	SpatialMetadata any      `json:"visionos_metadata,omitempty"`
}

// plotIndicators are source fragments that mark a cell as producing charts.
var plotIndicators = []string{"plt.", "plot(", "scatter(", "bar(", "hist("}

var (
	importRegex     = regexp.MustCompile(`(?m)^\s*import\s+([\w.]+(?:\s*,\s*[\w.]+)*)`)
	fromImportRegex = regexp.MustCompile(`(?m)^\s*from\s+([\w.]+)\s+import\b`)
	asAliasRegex    = regexp.MustCompile(`\s+as\s+\w+`)
)

// Analyze inspects a notebook statically. It never runs cell code; import
// extraction is textual, which matches how the charts themselves are later
// produced (the cell source is shipped verbatim to the runner).
func Analyze(nb *Notebook) *Analysis {
	analysis := &Analysis{
		TotalCells: len(nb.Cells),
		Imports:    []string{},
	}

	if nb.Metadata != nil {
		if meta, ok := nb.Metadata[spatialExportKey]; ok {
			analysis.HasSpatialData = true
			analysis.SpatialMetadata = meta
		}
	}

	imports := map[string]bool{}
	for i := range nb.Cells {
		cell := &nb.Cells[i]
		switch cell.CellType {
		case "code":
			analysis.CodeCells++
			source := string(cell.Source)
			if !analysis.HasPlots {
				for _, indicator := range plotIndicators {
					if strings.Contains(source, indicator) {
						analysis.HasPlots = true
						break
					}
				}
			}
			collectImports(source, imports)
		case "markdown":
			analysis.MarkdownCells++
		}

		if _, ok := cell.Metadata[spatialWindowKey]; ok {
			analysis.WindowCells++
		}
	}

	for name := range imports {
		analysis.Imports = append(analysis.Imports, name)
	}
	sort.Strings(analysis.Imports)
	return analysis
}

// collectImports extracts module names from "import a, b" and "from c import"
// statements in source.
func collectImports(source string, into map[string]bool) {
	for _, match := range importRegex.FindAllStringSubmatch(source, -1) {
		list := asAliasRegex.ReplaceAllString(match[1], "")
		for _, name := range strings.Split(list, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				into[name] = true
			}
		}
	}
	for _, match := range fromImportRegex.FindAllStringSubmatch(source, -1) {
		into[match[1]] = true
	}
}
