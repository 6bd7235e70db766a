package notify

import (
	"encoding/xml"
	"strings"
)

// ToastXML renders the Windows toast for n. Every activation is a protocol
// launch of the driverwatch: scheme, which starts a fresh process.
func ToastXML(n Notification) string {
	var b strings.Builder

	b.WriteString(`<toast activationType="protocol" launch="`)
	b.WriteString(xmlEscape(n.Download().URI()))
	b.WriteString(`"><visual><binding template="ToastGeneric">`)
	b.WriteString(`<text>` + xmlEscape(n.Title) + `</text>`)
	b.WriteString(`<text>` + xmlEscape(n.Body) + `</text>`)
	b.WriteString(`<group>`)
	writeColumn(&b, "Current version", n.Current.String())
	writeColumn(&b, "Latest version", n.Latest.Version.String())
	b.WriteString(`</group></binding></visual><actions>`)
	writeAction(&b, "Install", n.Download())
	writeAction(&b, "Skip", n.Skip())
	b.WriteString(`</actions></toast>`)

	return b.String()
}

func writeColumn(b *strings.Builder, label, value string) {
	b.WriteString(`<subgroup>`)
	b.WriteString(`<text hint-style="base">` + xmlEscape(label) + `</text>`)
	b.WriteString(`<text hint-style="captionSubtle">` + xmlEscape(value) + `</text>`)
	b.WriteString(`</subgroup>`)
}

func writeAction(b *strings.Builder, content string, p Payload) {
	b.WriteString(`<action content="` + xmlEscape(content) + `" activationType="protocol" arguments="` + xmlEscape(p.URI()) + `"/>`)
}

// xmlEscape encodes a string so it is safe for XML text and attributes.
func xmlEscape(s string) string {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return ""
	}
	return b.String()
}
