package nodelink

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/matzehuels/stagegraph/pkg/layout"
)

const interactionCSS = `
    .link { fill: none; stroke: #b0b0b0; stroke-width: 2; }
    .link.active { stroke: #2a7ab0; }
    .link.highlighted { stroke: #555; stroke-width: 3; }
    .link.succeeded { stroke: #4caf50; }
    .link.running { stroke: #2196f3; }
    .link.terminal { stroke: #e53935; }
    .node circle { fill: #fff; stroke: #777; stroke-width: 2; }
    .node.active circle { fill: #2a7ab0; stroke: #2a7ab0; }
    .node.highlighted circle { stroke: #333; stroke-width: 3; }
    .node text { font-family: sans-serif; font-size: 12px; }`

const interactionJS = `
    function setHighlight(id, on) {
      const node = document.getElementById('node-' + id);
      if (!node || node.classList.contains('active')) return;
      node.classList.toggle('highlighted', on);
      document.querySelectorAll('.link').forEach(l => {
        if (l.dataset.parent === id || l.dataset.child === id) l.classList.toggle('highlighted', on);
      });
    }
    document.querySelectorAll('.node').forEach(el => {
      const id = el.dataset.id;
      el.addEventListener('mouseenter', () => setHighlight(id, true));
      el.addEventListener('mouseleave', () => setHighlight(id, false));
    });`

// RenderSVG draws a layout document at its computed coordinates. Links are
// drawn first, then nodes in the document's paint order, so the active node
// ends up on top.
func RenderSVG(doc layout.Document, opts Options) []byte {
	geo := doc.Geometry
	width := float64(geo.MaxPhase+1)*geo.PhaseSpacing() + geo.NodeRadius
	height := geo.GraphHeight

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		width, height, width, height)
	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", interactionCSS)

	// circles of phase 0 are centered on x=0
	fmt.Fprintf(&buf, "  <g transform=\"translate(%g,0)\">\n", geo.NodeRadius)
	for _, l := range doc.Links {
		fmt.Fprintf(&buf, "    <path class=%q d=%q data-parent=%q data-child=%q/>\n",
			className("link", l.Class), l.Line, escapeXML(l.Parent), escapeXML(l.Child))
	}
	for _, n := range doc.Nodes {
		if n.Placeholder {
			if opts.ShowPlaceholders {
				fmt.Fprintf(&buf, "    <rect class=\"placeholder\" x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" fill=\"none\" stroke=\"#ccc\" stroke-dasharray=\"4 2\"/>\n",
					n.X-geo.NodeRadius, n.Y-geo.NodeRadius, geo.PhaseSpacing()-geo.NodeRadius, n.Height)
			}
			continue
		}
		renderNode(&buf, n, geo)
	}
	buf.WriteString("  </g>\n")

	fmt.Fprintf(&buf, "  <script type=\"text/javascript\"><![CDATA[%s\n  ]]></script>\n", interactionJS)
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderNode(buf *bytes.Buffer, n layout.NodeView, geo layout.Geometry) {
	id := escapeXML(n.ID)
	fmt.Fprintf(buf, "    <g id=\"node-%s\" class=%q data-id=\"%s\">\n", id, className("node", n.Class), id)
	fmt.Fprintf(buf, "      <circle cx=\"%g\" cy=\"%g\" r=\"%g\"/>\n", n.X, n.Y, geo.NodeRadius)

	label := n.Name
	if label == "" {
		label = n.ID
	}
	lines := strings.Split(label, "\n")
	fmt.Fprintf(buf, "      <text x=\"%g\" y=\"%g\">", n.X+geo.LabelOffsetX, n.Y+geo.LabelOffsetY-geo.NodeRadius)
	for i, line := range lines {
		dy := "0"
		if i > 0 {
			dy = "1.25em"
		}
		fmt.Fprintf(buf, "<tspan x=\"%g\" dy=\"%s\">%s</tspan>", n.X+geo.LabelOffsetX, dy, escapeXML(line))
	}
	buf.WriteString("</text>\n")
	buf.WriteString("    </g>\n")
}

func className(base, state string) string {
	if state == "" {
		return base
	}
	return base + " " + state
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
