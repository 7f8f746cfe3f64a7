package nodelink

import (
	"strings"
	"testing"

	"github.com/matzehuels/stagegraph/pkg/dag/build"
	"github.com/matzehuels/stagegraph/pkg/layout"
	"github.com/matzehuels/stagegraph/pkg/measure"
	"github.com/matzehuels/stagegraph/pkg/stage"
)

// A feeds B and D, B feeds D: D is two phases right of A, so phase 1 gets
// a placeholder.
func testDocument(t *testing.T) layout.Document {
	t.Helper()
	e := stage.Execution{ID: "e", StageSummaries: []stage.StageSummary{
		{RefID: "A", Name: "Build", Status: "SUCCEEDED"},
		{RefID: "B", Name: "Test <unit>", Status: "RUNNING", RequisiteStageRefIDs: []stage.Ref{"A"}},
		{RefID: "D", Name: "Deploy", Status: "NOT_STARTED", HasNotStarted: true, RequisiteStageRefIDs: []stage.Ref{"B", "A"}},
	}}
	vs := stage.ViewState{ExecutionID: "e", ActiveRefID: "B"}
	l, err := layout.Compute(build.Execution(e), vs, layout.Options{}, measure.Fixed(15))
	if err != nil {
		t.Fatalf("Compute() error: %v", err)
	}
	return layout.Export(l)
}

func TestToDOT(t *testing.T) {
	doc := testDocument(t)
	dot := ToDOT(doc, Options{})

	for _, want := range []string{
		"rankdir=LR",
		"subgraph phase_0 {",
		"subgraph phase_2 {",
		`"A" [label="Build"`,
		`"B" -> "D"`,
		`"A" -> "B" [class="active running has-status"]`,
		"penwidth=3",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "dashed") {
		t.Error("placeholders should be hidden by default")
	}
}

func TestToDOTOptions(t *testing.T) {
	doc := testDocument(t)
	dot := ToDOT(doc, Options{Detailed: true, ShowPlaceholders: true})

	if !strings.Contains(dot, `label="Deploy\nphase: 2\nrow: 0\nstatus: NOT_STARTED"`) {
		t.Errorf("detailed label missing:\n%s", dot)
	}
	if !strings.Contains(dot, "dashed") {
		t.Error("placeholder not drawn")
	}
}

func TestRenderSVG(t *testing.T) {
	doc := testDocument(t)
	svg := string(RenderSVG(doc, Options{}))

	if got := strings.Count(svg, "<circle"); got != 3 {
		t.Errorf("circles = %d, want 3", got)
	}
	if got := strings.Count(svg, "<path"); got != len(doc.Links) {
		t.Errorf("paths = %d, want %d", got, len(doc.Links))
	}
	for _, want := range []string{
		`class="node has-status active"`,
		"Test &lt;unit&gt;",
		`d="` + doc.Links[0].Line + `"`,
		"</svg>",
	} {
		if !strings.Contains(svg, want) {
			t.Errorf("SVG missing %q", want)
		}
	}
	if strings.Contains(svg, "placeholder") {
		t.Error("placeholder drawn without ShowPlaceholders")
	}

	// active node is painted last
	if strings.LastIndex(svg, `id="node-B"`) < strings.LastIndex(svg, `id="node-D"`) {
		t.Error("active node should be drawn on top")
	}

	withPh := string(RenderSVG(doc, Options{ShowPlaceholders: true}))
	if !strings.Contains(withPh, `class="placeholder"`) {
		t.Error("placeholder missing with ShowPlaceholders")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 10.00 20.00" xmlns="x"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10.00 20.00" width="10" height="20"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox() = %s, want %s", got, want)
	}
	if got := string(normalizeViewBox([]byte("<svg/>"))); got != "<svg/>" {
		t.Errorf("normalizeViewBox() without viewBox = %s", got)
	}
}
