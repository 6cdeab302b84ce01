package chart

import (
	"bufio"
	"fmt"
	"html"
	"io"
)

const svgFont = `font-family="ui-monospace, Menlo, Monaco, Consolas, monospace"`

// WriteSVG draws a frame and its overlay as a standalone SVG document. An empty
// frame produces an empty surface of the configured size.
func WriteSVG(w io.Writer, f Frame, o Overlay, dims Dimensions) error {
	if f.Geometry != nil {
		dims = f.Geometry.Dims
	}
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`+"\n",
		num(dims.Width), num(dims.Height), num(dims.Width), num(dims.Height))

	if g := f.Geometry; g != nil {
		writeAxes(bw, g)

		fmt.Fprintf(bw, `<g class="chart-area" transform="%s">`+"\n", f.Transform.SVG(dims.Margin))
		for _, c := range g.Candles {
			fmt.Fprintf(bw, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s"/>`+"\n",
				num(c.Wick.X1), num(c.Wick.Y1), num(c.Wick.X2), num(c.Wick.Y2), attr(c.Color))
			fmt.Fprintf(bw, `<rect x="%s" y="%s" width="%s" height="%s" fill="%s"/>`+"\n",
				num(c.Body.X), num(c.Body.Y), num(c.Body.W), num(c.Body.H), attr(c.Color))
			fmt.Fprintf(bw, `<rect x="%s" y="%s" width="%s" height="%s" fill="%s" opacity="%s"/>`+"\n",
				num(c.Volume.X), num(c.Volume.Y), num(c.Volume.W), num(c.Volume.H), attr(c.Color), num(g.Style.VolumeOpacity))
			fmt.Fprintf(bw, `<text x="%s" y="%s" text-anchor="middle" font-size="10px" fill="#666">%s</text>`+"\n",
				num(c.VolumeLabel.X), num(c.VolumeLabel.Y), html.EscapeString(c.VolumeLabel.Text))
		}
		if g.MAPath.D != "" {
			fmt.Fprintf(bw, `<path d="%s" fill="none" stroke="%s" stroke-width="%s"/>`+"\n",
				g.MAPath.D, attr(g.Style.MAColor), num(g.Style.MAWidth))
		}
		bw.WriteString("</g>\n")
	}

	if o.Visible {
		writeOverlay(bw, o, dims.Margin)
	}

	bw.WriteString("</svg>\n")
	return bw.Flush()
}

func writeAxes(bw *bufio.Writer, g *Geometry) {
	m := g.Dims.Margin
	innerH := g.Dims.InnerHeight()

	fmt.Fprintf(bw, `<g class="y-axis" transform="translate(%s,%s)">`+"\n", num(m.Left), num(m.Top))
	for _, t := range g.YAxis {
		fmt.Fprintf(bw, `<line x1="-6" y1="%s" x2="0" y2="%s" stroke="currentColor"/>`+"\n", num(t.Pos), num(t.Pos))
		fmt.Fprintf(bw, `<text x="-9" y="%s" dy="0.32em" text-anchor="end" font-size="10" %s>%s</text>`+"\n",
			num(t.Pos), svgFont, html.EscapeString(t.Label))
	}
	bw.WriteString("</g>\n")

	fmt.Fprintf(bw, `<g class="x-axis" transform="translate(%s,%s)">`+"\n", num(m.Left), num(m.Top+innerH))
	for _, t := range g.XAxis {
		fmt.Fprintf(bw, `<line x1="%s" y1="0" x2="%s" y2="6" stroke="currentColor"/>`+"\n", num(t.Pos), num(t.Pos))
		fmt.Fprintf(bw, `<text x="%s" y="9" dy="0.71em" text-anchor="middle" font-size="10" %s>%s</text>`+"\n",
			num(t.Pos), svgFont, html.EscapeString(t.Label))
	}
	bw.WriteString("</g>\n")
}

func writeOverlay(bw *bufio.Writer, o Overlay, m Margin) {
	fmt.Fprintf(bw, `<g class="overlay" transform="translate(%s,%s)">`+"\n", num(m.Left), num(m.Top))
	if c := o.Crosshair; c != nil {
		for _, l := range []Line{c.Vertical, c.Horizontal} {
			fmt.Fprintf(bw, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="#999" stroke-dasharray="3 3"/>`+"\n",
				num(l.X1), num(l.Y1), num(l.X2), num(l.Y2))
		}
	}
	if t := o.Tooltip; t != nil {
		fmt.Fprintf(bw, `<rect x="%s" y="%s" width="%s" height="%s" fill="white" stroke="#ccc" rx="4"/>`+"\n",
			num(t.Box.X), num(t.Box.Y), num(t.Box.W), num(t.Box.H))
		for i, line := range t.Lines {
			fmt.Fprintf(bw, `<text x="%s" y="%s" font-size="12" fill="black" %s>%s</text>`+"\n",
				num(t.Box.X+8), num(t.Box.Y+16+float64(i)*14), svgFont, html.EscapeString(line))
		}
	}
	bw.WriteString("</g>\n")
}

// attr escapes a configured value for use inside a quoted attribute
func attr(s string) string {
	return html.EscapeString(s)
}

func num(v float64) string {
	return formatCoord(v)
}
