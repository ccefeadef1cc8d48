package docx

import (
	"encoding/xml"
)

// WordprocessingML namespace URIs used by the generated package.
const (
	nsW   = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsR   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsWP  = "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
	nsA   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsPic = "http://schemas.openxmlformats.org/drawingml/2006/picture"

	nsRelPkg     = "http://schemas.openxmlformats.org/package/2006/relationships"
	nsCT         = "http://schemas.openxmlformats.org/package/2006/content-types"
	relTypeDoc   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relTypeImage = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	relTypeStyle = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
)

// wmlDocument is the root of word/document.xml. Namespace declarations are
// written as plain attributes so the prefixed element names below resolve.
type wmlDocument struct {
	XMLName  xml.Name `xml:"w:document"`
	XmlnsW   string   `xml:"xmlns:w,attr"`
	XmlnsR   string   `xml:"xmlns:r,attr"`
	XmlnsWP  string   `xml:"xmlns:wp,attr"`
	XmlnsA   string   `xml:"xmlns:a,attr"`
	XmlnsPic string   `xml:"xmlns:pic,attr"`
	Body     wmlBody  `xml:"w:body"`
}

// wmlBody holds the ordered block stream. Paragraphs and tables interleave
// freely, so marshaling walks the slice instead of separate fields.
type wmlBody struct {
	Blocks []interface{}
	SectPr *wmlSectPr
}

func (b wmlBody) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name.Local = "w:body"
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, block := range b.Blocks {
		if err := e.Encode(block); err != nil {
			return err
		}
	}
	if b.SectPr != nil {
		if err := e.Encode(b.SectPr); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

type wmlParagraph struct {
	XMLName xml.Name      `xml:"w:p"`
	Props   *wmlParaProps `xml:"w:pPr,omitempty"`
	Runs    []wmlRun      `xml:"w:r"`
}

type wmlParaProps struct {
	Style     *wmlValAttr `xml:"w:pStyle,omitempty"`
	Alignment *wmlValAttr `xml:"w:jc,omitempty"`
}

type wmlValAttr struct {
	Val string `xml:"w:val,attr"`
}

type wmlRun struct {
	Props   *wmlRunProps `xml:"w:rPr,omitempty"`
	Drawing *wmlDrawing  `xml:"w:drawing,omitempty"`
	Text    *wmlText     `xml:"w:t,omitempty"`
}

type wmlText struct {
	Space string `xml:"xml:space,attr"`
	Value string `xml:",chardata"`
}

// wmlRunProps fields follow the schema order for rPr children.
type wmlRunProps struct {
	Style     *wmlValAttr `xml:"w:rStyle,omitempty"`
	Fonts     *wmlFonts   `xml:"w:rFonts,omitempty"`
	Bold      *wmlToggle  `xml:"w:b,omitempty"`
	BoldCS    *wmlToggle  `xml:"w:bCs,omitempty"`
	Italic    *wmlToggle  `xml:"w:i,omitempty"`
	ItalicCS  *wmlToggle  `xml:"w:iCs,omitempty"`
	Color     *wmlValAttr `xml:"w:color,omitempty"`
	Size      *wmlValAttr `xml:"w:sz,omitempty"`
	SizeCS    *wmlValAttr `xml:"w:szCs,omitempty"`
	Underline *wmlValAttr `xml:"w:u,omitempty"`
}

type wmlToggle struct{}

type wmlFonts struct {
	ASCII    string `xml:"w:ascii,attr,omitempty"`
	HAnsi    string `xml:"w:hAnsi,attr,omitempty"`
	EastAsia string `xml:"w:eastAsia,attr,omitempty"`
}

type wmlTable struct {
	XMLName xml.Name      `xml:"w:tbl"`
	Props   wmlTableProps `xml:"w:tblPr"`
	Grid    wmlTableGrid  `xml:"w:tblGrid"`
	Rows    []wmlTableRow `xml:"w:tr"`
}

type wmlTableProps struct {
	Style   *wmlValAttr    `xml:"w:tblStyle,omitempty"`
	Width   wmlTableWidth  `xml:"w:tblW"`
	Borders wmlTblBorders  `xml:"w:tblBorders"`
	Look    *wmlValAttr    `xml:"w:tblLook,omitempty"`
}

type wmlTableWidth struct {
	W    string `xml:"w:w,attr"`
	Type string `xml:"w:type,attr"`
}

type wmlTblBorders struct {
	Top     wmlBorder `xml:"w:top"`
	Left    wmlBorder `xml:"w:left"`
	Bottom  wmlBorder `xml:"w:bottom"`
	Right   wmlBorder `xml:"w:right"`
	InsideH wmlBorder `xml:"w:insideH"`
	InsideV wmlBorder `xml:"w:insideV"`
}

type wmlBorder struct {
	Val   string `xml:"w:val,attr"`
	Size  string `xml:"w:sz,attr"`
	Space string `xml:"w:space,attr"`
	Color string `xml:"w:color,attr"`
}

type wmlTableGrid struct {
	Cols []wmlGridCol `xml:"w:gridCol"`
}

type wmlGridCol struct {
	W string `xml:"w:w,attr"`
}

type wmlTableRow struct {
	Cells []wmlTableCell `xml:"w:tc"`
}

type wmlTableCell struct {
	Props      wmlCellProps   `xml:"w:tcPr"`
	Paragraphs []wmlParagraph `xml:"w:p"`
}

type wmlCellProps struct {
	Width    wmlTableWidth `xml:"w:tcW"`
	GridSpan *wmlValAttr   `xml:"w:gridSpan,omitempty"`
	VMerge   *wmlVMerge    `xml:"w:vMerge,omitempty"`
}

// wmlVMerge with an empty Val marshals as a bare element, which means the
// cell continues the vertical merge started above it.
type wmlVMerge struct {
	Val string `xml:"w:val,attr,omitempty"`
}

// wmlDrawing is the inline picture chain: wp:inline down through a:graphic
// to the pic:pic element carrying the blip reference.
type wmlDrawing struct {
	Inline wmlInline `xml:"wp:inline"`
}

type wmlInline struct {
	Extent  wmlExtent     `xml:"wp:extent"`
	DocPr   wmlDocPr      `xml:"wp:docPr"`
	Graphic wmlGraphic    `xml:"a:graphic"`
}

type wmlExtent struct {
	CX int64 `xml:"cx,attr"`
	CY int64 `xml:"cy,attr"`
}

type wmlDocPr struct {
	ID   int    `xml:"id,attr"`
	Name string `xml:"name,attr"`
}

type wmlGraphic struct {
	Data wmlGraphicData `xml:"a:graphicData"`
}

type wmlGraphicData struct {
	URI string `xml:"uri,attr"`
	Pic wmlPic `xml:"pic:pic"`
}

type wmlPic struct {
	NvPicPr  wmlNvPicPr  `xml:"pic:nvPicPr"`
	BlipFill wmlBlipFill `xml:"pic:blipFill"`
	SpPr     wmlSpPr     `xml:"pic:spPr"`
}

type wmlNvPicPr struct {
	CNvPr    wmlDocPr  `xml:"pic:cNvPr"`
	CNvPicPr wmlToggle `xml:"pic:cNvPicPr"`
}

type wmlBlipFill struct {
	Blip    wmlBlip   `xml:"a:blip"`
	Stretch wmlStretch `xml:"a:stretch"`
}

type wmlBlip struct {
	Embed string `xml:"r:embed,attr"`
}

type wmlStretch struct {
	FillRect wmlToggle `xml:"a:fillRect"`
}

type wmlSpPr struct {
	Xfrm     wmlXfrm     `xml:"a:xfrm"`
	PrstGeom wmlPrstGeom `xml:"a:prstGeom"`
}

type wmlXfrm struct {
	Off wmlOff    `xml:"a:off"`
	Ext wmlExtent `xml:"a:ext"`
}

type wmlOff struct {
	X int64 `xml:"x,attr"`
	Y int64 `xml:"y,attr"`
}

type wmlPrstGeom struct {
	Prst string `xml:"prst,attr"`
}

// wmlSectPr fixes the page to A4 portrait with one-inch margins.
type wmlSectPr struct {
	XMLName xml.Name    `xml:"w:sectPr"`
	PgSz    wmlPgSz     `xml:"w:pgSz"`
	PgMar   wmlPgMar    `xml:"w:pgMar"`
}

type wmlPgSz struct {
	W string `xml:"w:w,attr"`
	H string `xml:"w:h,attr"`
}

type wmlPgMar struct {
	Top    string `xml:"w:top,attr"`
	Right  string `xml:"w:right,attr"`
	Bottom string `xml:"w:bottom,attr"`
	Left   string `xml:"w:left,attr"`
	Header string `xml:"w:header,attr"`
	Footer string `xml:"w:footer,attr"`
	Gutter string `xml:"w:gutter,attr"`
}

func defaultSectPr() *wmlSectPr {
	return &wmlSectPr{
		PgSz: wmlPgSz{W: "11906", H: "16838"},
		PgMar: wmlPgMar{
			Top: "1440", Right: "1440", Bottom: "1440", Left: "1440",
			Header: "720", Footer: "720", Gutter: "0",
		},
	}
}
