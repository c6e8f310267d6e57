// Package callxml builds the XML documents a Plivo-compatible provider
// executes on each callback: Speak, GetDigits, Play, Dial and Hangup.
//
// Every directive renders to a freshly built Element tree, so nothing is
// shared between directives or between responses.
package callxml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
)

// ContentType is sent with every rendered document.
const ContentType = "application/xml"

// Element is one node of a rendered document.
type Element struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []Element  `xml:",any"`
}

// Directive is a single instruction for the provider.
type Directive interface {
	Element() Element
}

// Speak reads Text out loud.
type Speak struct {
	Text string
}

func (s Speak) Element() Element {
	return Element{XMLName: xml.Name{Local: "Speak"}, Text: s.Text}
}

// GetDigits collects DTMF input and posts it to Action. The provider speaks
// Prompt while waiting and gives up after Retries extra attempts.
type GetDigits struct {
	Action    string
	Method    string
	NumDigits int
	Timeout   int
	Retries   int
	Prompt    Speak
}

func (g GetDigits) Element() Element {
	return Element{
		XMLName: xml.Name{Local: "GetDigits"},
		Attrs: []xml.Attr{
			{Name: xml.Name{Local: "action"}, Value: g.Action},
			{Name: xml.Name{Local: "method"}, Value: g.Method},
			{Name: xml.Name{Local: "numDigits"}, Value: strconv.Itoa(g.NumDigits)},
			{Name: xml.Name{Local: "timeout"}, Value: strconv.Itoa(g.Timeout)},
			{Name: xml.Name{Local: "retries"}, Value: strconv.Itoa(g.Retries)},
		},
		Children: []Element{g.Prompt.Element()},
	}
}

// Play streams the audio file at URL.
type Play struct {
	URL string
}

func (p Play) Element() Element {
	return Element{XMLName: xml.Name{Local: "Play"}, Text: p.URL}
}

// Dial bridges the call to Number.
type Dial struct {
	Number string
}

func (d Dial) Element() Element {
	return Element{
		XMLName:  xml.Name{Local: "Dial"},
		Children: []Element{{XMLName: xml.Name{Local: "Number"}, Text: d.Number}},
	}
}

// Hangup ends the call.
type Hangup struct{}

func (Hangup) Element() Element {
	return Element{XMLName: xml.Name{Local: "Hangup"}}
}

// Build composes the directives, in order, under a Response root.
func Build(directives ...Directive) Element {
	root := Element{
		XMLName:  xml.Name{Local: "Response"},
		Children: make([]Element, 0, len(directives)),
	}
	for _, d := range directives {
		root.Children = append(root.Children, d.Element())
	}
	return root
}

// Render serializes the directives into a complete XML document.
func Render(directives ...Directive) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	if err := xml.NewEncoder(&buf).Encode(Build(directives...)); err != nil {
		return nil, fmt.Errorf("encoding response: %w", err)
	}
	return buf.Bytes(), nil
}
