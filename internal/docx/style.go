package docx

import (
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"

	"docx-translator/internal/docmodel"
)

// ExtractStyle reads the run properties of a w:r element into a style
// descriptor. A run with no w:rPr child yields the zero descriptor.
func ExtractStyle(run *xmlquery.Node) docmodel.StyleDescriptor {
	var style docmodel.StyleDescriptor
	rPr := childElement(run, "rPr")
	if rPr == nil {
		return style
	}

	// Bold and italic may be carried by the primary toggle or by the
	// complex-script one; either counts.
	style.Bold = onOff(childElement(rPr, "b")) || onOff(childElement(rPr, "bCs"))
	style.Italic = onOff(childElement(rPr, "i")) || onOff(childElement(rPr, "iCs"))

	// Underline carries a named pattern rather than an on/off toggle; any
	// value except "none" means underlined.
	if u := childElement(rPr, "u"); u != nil {
		if val := attrValue(u, "w:val"); val != "" && !strings.EqualFold(val, "none") {
			style.Underline = true
		}
	}

	if fonts := childElement(rPr, "rFonts"); fonts != nil {
		style.FontName = pickFont(fonts)
	}

	style.FontSize = fontSize(rPr)

	if color := childElement(rPr, "color"); color != nil {
		if val := attrValue(color, "w:val"); val != "" && val != "auto" {
			style.Color = val
		}
	}

	if rStyle := childElement(rPr, "rStyle"); rStyle != nil {
		style.CharStyle = attrValue(rStyle, "w:val")
	}

	return style
}

// onOff evaluates a wordprocessing toggle element: absent means off, present
// without a value means on, and an explicit "false" or "0" turns it off.
func onOff(n *xmlquery.Node) bool {
	if n == nil {
		return false
	}
	val := attrValue(n, "w:val")
	if val == "" {
		return true
	}
	return val != "false" && val != "0"
}

// pickFont chooses among the rFonts slots, preferring the East Asian font
// since the output is bilingual with Chinese text.
func pickFont(fonts *xmlquery.Node) string {
	for _, attr := range []string{"w:eastAsia", "w:ascii", "w:hAnsi", "w:cs"} {
		if v := attrValue(fonts, attr); v != "" {
			return v
		}
	}
	return ""
}

// fontSize reads the run size in points. Sizes are stored in half-points;
// w:szCs wins over w:sz when both are present.
func fontSize(rPr *xmlquery.Node) docmodel.Points {
	for _, name := range []string{"szCs", "sz"} {
		if n := childElement(rPr, name); n != nil {
			if val := attrValue(n, "w:val"); val != "" {
				if half, err := strconv.ParseFloat(val, 64); err == nil {
					return docmodel.Points(half / 2)
				}
			}
		}
	}
	return 0
}

// childElement returns the first child element whose local name matches,
// regardless of its namespace prefix.
func childElement(n *xmlquery.Node, local string) *xmlquery.Node {
	if n == nil {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xmlquery.ElementNode {
			continue
		}
		name := c.Data
		if i := strings.Index(name, ":"); i >= 0 {
			name = name[i+1:]
		}
		if name == local {
			return c
		}
	}
	return nil
}
