package callxml

import (
	"encoding/xml"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(elems []Element) []string {
	out := make([]string, 0, len(elems))
	for _, e := range elems {
		out = append(out, e.XMLName.Local)
	}
	return out
}

func attr(e Element, name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func parse(t *testing.T, doc []byte) Element {
	t.Helper()
	var root Element
	require.NoError(t, xml.Unmarshal(doc, &root))
	return root
}

func TestRenderKeepsOrder(t *testing.T) {
	doc, err := Render(
		Speak{Text: "Playing message..."},
		Play{URL: "https://example.com/a.mp3"},
		Speak{Text: "Goodbye."},
		Hangup{},
	)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(doc), xml.Header))

	root := parse(t, doc)
	assert.Equal(t, "Response", root.XMLName.Local)
	assert.Equal(t, []string{"Speak", "Play", "Speak", "Hangup"}, names(root.Children))
	assert.Equal(t, "Playing message...", root.Children[0].Text)
	assert.Equal(t, "https://example.com/a.mp3", root.Children[1].Text)
	assert.Empty(t, root.Children[3].Children)
}

func TestGetDigitsAttributesAndPrompt(t *testing.T) {
	doc, err := Render(
		GetDigits{
			Action:    "https://ivr.example.com/ivr/action?lang=en",
			Method:    "POST",
			NumDigits: 1,
			Timeout:   7,
			Retries:   1,
			Prompt:    Speak{Text: "Press 1."},
		},
		Speak{Text: "No input received. Goodbye."},
	)
	require.NoError(t, err)

	root := parse(t, doc)
	require.Len(t, root.Children, 2)

	gd := root.Children[0]
	assert.Equal(t, "GetDigits", gd.XMLName.Local)
	for name, want := range map[string]string{
		"action":    "https://ivr.example.com/ivr/action?lang=en",
		"method":    "POST",
		"numDigits": "1",
		"timeout":   "7",
		"retries":   "1",
	} {
		got, ok := attr(gd, name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}
	require.Len(t, gd.Children, 1)
	assert.Equal(t, "Speak", gd.Children[0].XMLName.Local)
	assert.Equal(t, "Press 1.", gd.Children[0].Text)

	assert.Contains(t, string(doc), `action="https://ivr.example.com/ivr/action?lang=en"`)
}

func TestDialWrapsNumber(t *testing.T) {
	root := parse(t, mustRender(t, Speak{Text: "Connecting you to an associate."}, Dial{Number: "+11234567890"}))

	assert.Equal(t, []string{"Speak", "Dial"}, names(root.Children))
	dial := root.Children[1]
	require.Len(t, dial.Children, 1)
	assert.Equal(t, "Number", dial.Children[0].XMLName.Local)
	assert.Equal(t, "+11234567890", dial.Children[0].Text)
}

func TestEmptyFieldsPassThrough(t *testing.T) {
	root := parse(t, mustRender(t, GetDigits{}, Speak{}, Play{}))

	assert.Equal(t, []string{"GetDigits", "Speak", "Play"}, names(root.Children))
	action, ok := attr(root.Children[0], "action")
	assert.True(t, ok)
	assert.Empty(t, action)
	assert.Len(t, root.Children[0].Children, 1)
}

func TestEscapesText(t *testing.T) {
	doc := mustRender(t, Speak{Text: "Tom & Jerry <3"}, Play{URL: "https://x.test/a.mp3?a=1&b=2"})
	assert.Contains(t, string(doc), "Tom &amp; Jerry &lt;3")

	root := parse(t, doc)
	assert.Equal(t, "Tom & Jerry <3", root.Children[0].Text)
	assert.Equal(t, "https://x.test/a.mp3?a=1&b=2", root.Children[1].Text)
}

func TestBuildReturnsFreshTrees(t *testing.T) {
	prompt := GetDigits{Prompt: Speak{Text: "first"}}
	a := Build(prompt)
	b := Build(prompt)
	a.Children[0].Children[0].Text = "changed"
	assert.Equal(t, "first", b.Children[0].Children[0].Text)
	assert.Equal(t, "first", prompt.Prompt.Text)
}

func TestEmptyResponse(t *testing.T) {
	root := parse(t, mustRender(t))
	assert.Equal(t, "Response", root.XMLName.Local)
	assert.Empty(t, root.Children)
}

func mustRender(t *testing.T, directives ...Directive) []byte {
	t.Helper()
	doc, err := Render(directives...)
	require.NoError(t, err)
	return doc
}
