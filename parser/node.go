package parser

import "golang.org/x/net/html/atom"

// https://html.spec.whatwg.org/multipage/parsing.html#special
func isSpecial(q QualName) bool {
	switch q.Space {
	case HTMLNamespace:
		switch q.Atom {
		case atom.Address, atom.Applet, atom.Area, atom.Article, atom.Aside, atom.Base,
			atom.Basefont, atom.Bgsound, atom.Blockquote, atom.Body, atom.Br, atom.Button,
			atom.Caption, atom.Center, atom.Col, atom.Colgroup, atom.Dd, atom.Details,
			atom.Dir, atom.Div, atom.Dl, atom.Dt, atom.Embed, atom.Fieldset, atom.Figcaption,
			atom.Figure, atom.Footer, atom.Form, atom.Frame, atom.Frameset, atom.H1, atom.H2,
			atom.H3, atom.H4, atom.H5, atom.H6, atom.Head, atom.Header, atom.Hgroup, atom.Hr,
			atom.Html, atom.Iframe, atom.Img, atom.Input, atom.Keygen, atom.Li, atom.Link,
			atom.Listing, atom.Main, atom.Marquee, atom.Menu, atom.Meta, atom.Nav,
			atom.Noembed, atom.Noframes, atom.Noscript, atom.Object, atom.Ol, atom.P,
			atom.Param, atom.Plaintext, atom.Pre, atom.Script, atom.Section, atom.Select,
			atom.Source, atom.Style, atom.Summary, atom.Table, atom.Tbody, atom.Td,
			atom.Template, atom.Textarea, atom.Tfoot, atom.Th, atom.Thead, atom.Title,
			atom.Tr, atom.Track, atom.Ul, atom.Wbr, atom.Xmp:
			return true
		}
		return q.Local == "search"
	case MathMLNamespace:
		switch q.Local {
		case "mi", "mo", "mn", "ms", "mtext", "annotation-xml":
			return true
		}
	case SVGNamespace:
		switch q.Local {
		case "foreignObject", "desc", "title":
			return true
		}
	}
	return false
}

// isFormatting reports whether an HTML start tag goes on the list of active
// formatting elements.
func isFormatting(a atom.Atom) bool {
	switch a {
	case atom.A, atom.B, atom.Big, atom.Code, atom.Em, atom.Font, atom.I, atom.Nobr,
		atom.S, atom.Small, atom.Strike, atom.Strong, atom.Tt, atom.U:
		return true
	}
	return false
}

func isHeading(a atom.Atom) bool {
	switch a {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		return true
	}
	return false
}

func isVoid(a atom.Atom) bool {
	switch a {
	case atom.Area, atom.Base, atom.Basefont, atom.Bgsound, atom.Br, atom.Col, atom.Embed,
		atom.Frame, atom.Hr, atom.Img, atom.Input, atom.Keygen, atom.Link, atom.Meta,
		atom.Param, atom.Source, atom.Track, atom.Wbr:
		return true
	}
	return false
}

// scopeKind selects the set of elements that bound a "has an element in
// scope" search.
type scopeKind uint

const (
	defaultScope scopeKind = iota
	listItemScope
	buttonScope
	tableScope
	selectScope
)

// https://html.spec.whatwg.org/multipage/parsing.html#has-an-element-in-the-specific-scope
func isScopeBoundary(kind scopeKind, q QualName) bool {
	switch kind {
	case tableScope:
		return q.Is(atom.Html) || q.Is(atom.Table) || q.Is(atom.Template)
	case selectScope:
		return !(q.Is(atom.Optgroup) || q.Is(atom.Option))
	case listItemScope:
		if q.Is(atom.Ol) || q.Is(atom.Ul) {
			return true
		}
	case buttonScope:
		if q.Is(atom.Button) {
			return true
		}
	}

	switch q.Space {
	case HTMLNamespace:
		switch q.Atom {
		case atom.Applet, atom.Caption, atom.Html, atom.Table, atom.Td, atom.Th,
			atom.Marquee, atom.Object, atom.Template:
			return true
		}
	case MathMLNamespace:
		switch q.Local {
		case "mi", "mo", "mn", "ms", "mtext", "annotation-xml":
			return true
		}
	case SVGNamespace:
		switch q.Local {
		case "foreignObject", "desc", "title":
			return true
		}
	}
	return false
}

// https://html.spec.whatwg.org/multipage/parsing.html#generate-implied-end-tags
func hasImpliedEndTag(q QualName, thoroughly bool) bool {
	if q.Space != HTMLNamespace {
		return false
	}
	switch q.Atom {
	case atom.Dd, atom.Dt, atom.Li, atom.Optgroup, atom.Option, atom.P, atom.Rb,
		atom.Rp, atom.Rt, atom.Rtc:
		return true
	case atom.Caption, atom.Colgroup, atom.Tbody, atom.Td, atom.Tfoot, atom.Th,
		atom.Thead, atom.Tr:
		return thoroughly
	}
	return false
}

// isMathMLTextIntegrationPoint reports whether q is one of the MathML
// elements whose text content is parsed as HTML.
func isMathMLTextIntegrationPoint(q QualName) bool {
	if q.Space != MathMLNamespace {
		return false
	}
	switch q.Local {
	case "mi", "mo", "mn", "ms", "mtext":
		return true
	}
	return false
}

// isHTMLIntegrationPoint decides integration from the start tag that created
// the element. annotation-xml depends on its encoding attribute, which the
// element may lose later, so the answer is kept on the stack entry.
func isHTMLIntegrationPoint(q QualName, t *Token) bool {
	switch q.Space {
	case SVGNamespace:
		switch q.Local {
		case "foreignObject", "desc", "title":
			return true
		}
	case MathMLNamespace:
		if q.Local != "annotation-xml" || t == nil {
			return false
		}
		for _, a := range t.Attributes {
			if a.Name.Space == NoNamespace && a.Name.Local == "encoding" {
				switch asciiLower(a.Value) {
				case "text/html", "application/xhtml+xml":
					return true
				}
			}
		}
	}
	return false
}

// isForeignBreakout reports whether a start tag seen in foreign content pops
// back out to HTML.
func isForeignBreakout(t *Token) bool {
	switch t.DataAtom {
	case atom.B, atom.Big, atom.Blockquote, atom.Body, atom.Br, atom.Center, atom.Code,
		atom.Dd, atom.Div, atom.Dl, atom.Dt, atom.Em, atom.Embed, atom.H1, atom.H2,
		atom.H3, atom.H4, atom.H5, atom.H6, atom.Head, atom.Hr, atom.I, atom.Img,
		atom.Li, atom.Listing, atom.Menu, atom.Meta, atom.Nobr, atom.Ol, atom.P,
		atom.Pre, atom.Ruby, atom.S, atom.Small, atom.Span, atom.Strong, atom.Strike,
		atom.Sub, atom.Sup, atom.Table, atom.Tt, atom.U, atom.Ul, atom.Var:
		return true
	case atom.Font:
		for _, attr := range []string{"color", "face", "size"} {
			if _, ok := t.Attr(attr); ok {
				return true
			}
		}
	}
	return false
}

func asciiLower(s string) string {
	for i := 0; i < len(s); i++ {
		if isASCIIUpper(rune(s[i])) {
			b := []byte(s)
			for j := i; j < len(b); j++ {
				if isASCIIUpper(rune(b[j])) {
					b[j] += 0x20
				}
			}
			return string(b)
		}
	}
	return s
}

// svgTagNameAdjustments restores the camel case of SVG element names, which
// the tokenizer lower cases.
var svgTagNameAdjustments = map[string]string{
	"altglyph":            "altGlyph",
	"altglyphdef":         "altGlyphDef",
	"altglyphitem":        "altGlyphItem",
	"animatecolor":        "animateColor",
	"animatemotion":       "animateMotion",
	"animatetransform":    "animateTransform",
	"clippath":            "clipPath",
	"feblend":             "feBlend",
	"fecolormatrix":       "feColorMatrix",
	"fecomponenttransfer": "feComponentTransfer",
	"fecomposite":         "feComposite",
	"feconvolvematrix":    "feConvolveMatrix",
	"fediffuselighting":   "feDiffuseLighting",
	"fedisplacementmap":   "feDisplacementMap",
	"fedistantlight":      "feDistantLight",
	"fedropshadow":        "feDropShadow",
	"feflood":             "feFlood",
	"fefunca":             "feFuncA",
	"fefuncb":             "feFuncB",
	"fefuncg":             "feFuncG",
	"fefuncr":             "feFuncR",
	"fegaussianblur":      "feGaussianBlur",
	"feimage":             "feImage",
	"femerge":             "feMerge",
	"femergenode":         "feMergeNode",
	"femorphology":        "feMorphology",
	"feoffset":            "feOffset",
	"fepointlight":        "fePointLight",
	"fespecularlighting":  "feSpecularLighting",
	"fespotlight":         "feSpotLight",
	"fetile":              "feTile",
	"feturbulence":        "feTurbulence",
	"foreignobject":       "foreignObject",
	"glyphref":            "glyphRef",
	"lineargradient":      "linearGradient",
	"radialgradient":      "radialGradient",
	"textpath":            "textPath",
}

var svgAttributeAdjustments = map[string]string{
	"attributename":       "attributeName",
	"attributetype":       "attributeType",
	"basefrequency":       "baseFrequency",
	"baseprofile":         "baseProfile",
	"calcmode":            "calcMode",
	"clippathunits":       "clipPathUnits",
	"diffuseconstant":     "diffuseConstant",
	"edgemode":            "edgeMode",
	"filterunits":         "filterUnits",
	"glyphref":            "glyphRef",
	"gradienttransform":   "gradientTransform",
	"gradientunits":       "gradientUnits",
	"kernelmatrix":        "kernelMatrix",
	"kernelunitlength":    "kernelUnitLength",
	"keypoints":           "keyPoints",
	"keysplines":          "keySplines",
	"keytimes":            "keyTimes",
	"lengthadjust":        "lengthAdjust",
	"limitingconeangle":   "limitingConeAngle",
	"markerheight":        "markerHeight",
	"markerunits":         "markerUnits",
	"markerwidth":         "markerWidth",
	"maskcontentunits":    "maskContentUnits",
	"maskunits":           "maskUnits",
	"numoctaves":          "numOctaves",
	"pathlength":          "pathLength",
	"patterncontentunits": "patternContentUnits",
	"patterntransform":    "patternTransform",
	"patternunits":        "patternUnits",
	"pointsatx":           "pointsAtX",
	"pointsaty":           "pointsAtY",
	"pointsatz":           "pointsAtZ",
	"preservealpha":       "preserveAlpha",
	"preserveaspectratio": "preserveAspectRatio",
	"primitiveunits":      "primitiveUnits",
	"refx":                "refX",
	"refy":                "refY",
	"repeatcount":         "repeatCount",
	"repeatdur":           "repeatDur",
	"requiredextensions":  "requiredExtensions",
	"requiredfeatures":    "requiredFeatures",
	"specularconstant":    "specularConstant",
	"specularexponent":    "specularExponent",
	"spreadmethod":        "spreadMethod",
	"startoffset":         "startOffset",
	"stddeviation":        "stdDeviation",
	"stitchtiles":         "stitchTiles",
	"surfacescale":        "surfaceScale",
	"systemlanguage":      "systemLanguage",
	"tablevalues":         "tableValues",
	"targetx":             "targetX",
	"targety":             "targetY",
	"textlength":          "textLength",
	"viewbox":             "viewBox",
	"viewtarget":          "viewTarget",
	"xchannelselector":    "xChannelSelector",
	"ychannelselector":    "yChannelSelector",
	"zoomandpan":          "zoomAndPan",
}

// foreignAttributeAdjustments moves prefixed attributes of foreign elements
// into their namespace.
var foreignAttributeAdjustments = map[string]QualName{
	"xlink:actuate": {Space: XLinkNamespace, Local: "actuate"},
	"xlink:arcrole": {Space: XLinkNamespace, Local: "arcrole"},
	"xlink:href":    {Space: XLinkNamespace, Local: "href"},
	"xlink:role":    {Space: XLinkNamespace, Local: "role"},
	"xlink:show":    {Space: XLinkNamespace, Local: "show"},
	"xlink:title":   {Space: XLinkNamespace, Local: "title"},
	"xlink:type":    {Space: XLinkNamespace, Local: "type"},
	"xml:lang":      {Space: XMLNamespace, Local: "lang"},
	"xml:space":     {Space: XMLNamespace, Local: "space"},
	"xmlns":         {Space: XMLNSNamespace, Local: "xmlns"},
	"xmlns:xlink":   {Space: XMLNSNamespace, Local: "xlink"},
}

func adjustSVGAttributes(attrs []Attribute) {
	for i := range attrs {
		if a, ok := svgAttributeAdjustments[attrs[i].Name.Local]; ok && attrs[i].Name.Space == NoNamespace {
			attrs[i].Name = NewQualName(NoNamespace, a)
		}
	}
}

func adjustMathMLAttributes(attrs []Attribute) {
	for i := range attrs {
		if attrs[i].Name.Space == NoNamespace && attrs[i].Name.Local == "definitionurl" {
			attrs[i].Name = NewQualName(NoNamespace, "definitionURL")
		}
	}
}

func adjustForeignAttributes(attrs []Attribute) {
	for i := range attrs {
		if attrs[i].Name.Space != NoNamespace {
			continue
		}
		if q, ok := foreignAttributeAdjustments[attrs[i].Name.Local]; ok {
			attrs[i].Name = NewQualName(q.Space, q.Local)
		}
	}
}
