package html

import (
	"fmt"
	"html/template"
	"strings"
)

// bodyContent is used to populate the email body template
type bodyContent struct {
	Lang    string
	Title   string
	Content template.HTML
}

// Using tables for layout to avoid cross-client irregularities.
// See here for best practices:
// https://www.smashingmagazine.com/2017/01/introduction-building-sending-html-email-for-web-developers/#using-html-tables-for-layout
const emailBodyHTML = `<!DOCTYPE html>
<html lang="{{ .Lang }}">
<head>
<meta charset="utf-8">
<title>{{ .Title }}</title>
</head>
<body>
<table role="presentation" width="100%">
<tbody>
<tr>
<td>{{ .Content }}</td>
</tr>
</tbody>
</table>
</body>
</html>`

var emailBodyTemplate = template.Must(template.New("body").Parse(emailBodyHTML))

// EmailBody wraps content in a complete HTML document for email clients.
// content is inserted as-is, so anything a user controls must already be
// escaped. title is plain text and lang is the BCP 47 tag of the content.
func EmailBody(lang, title string, content template.HTML) (string, error) {
	var str strings.Builder
	err := emailBodyTemplate.Execute(&str, bodyContent{
		Lang:    lang,
		Title:   title,
		Content: content,
	})
	if err != nil {
		return "", fmt.Errorf("can't populate the email body template: %v", err)
	}
	return str.String(), nil
}
