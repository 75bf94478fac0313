package export

import (
	"bytes"
	"html/template"
	"time"
)

var inviteTemplate = template.Must(template.New("invite").Funcs(template.FuncMap{
	"formatDate": func(t time.Time, layout string) string {
		return t.Format(layout)
	},
}).Parse(inviteHTML))

const inviteHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  @page { size: 5in 7in; margin: 0; }
  body {
    font-family: Georgia, 'Times New Roman', serif;
    color: #2c2420;
    margin: 0;
    padding: 0.5in 0.45in;
    background: #faf7f2;
  }
  .card { text-align: center; }
  .occasion {
    text-transform: uppercase;
    letter-spacing: 0.25em;
    font-size: 10px;
    color: #8c6f4e;
  }
  h1 {
    font-size: 26px;
    font-weight: normal;
    margin: 12px 0 4px;
  }
  .host { font-style: italic; font-size: 13px; margin-bottom: 2px; }
  .date { font-size: 13px; margin-bottom: 18px; }
  hr { border: none; border-top: 1px solid #d9cbb8; margin: 14px 24px; }
  .course { margin: 10px 0; }
  .course .name {
    text-transform: uppercase;
    letter-spacing: 0.2em;
    font-size: 9px;
    color: #8c6f4e;
  }
  .course .dish { font-size: 14px; margin-top: 2px; }
  .course .wine { font-size: 11px; font-style: italic; color: #6b5b48; }
  .note { margin-top: 18px; font-size: 11px; font-style: italic; }
</style>
</head>
<body>
<div class="card">
  {{if .Occasion}}<div class="occasion">{{.Occasion}}</div>{{end}}
  <h1>{{.Title}}</h1>
  {{if .Host}}<div class="host">hosted by {{.Host}}</div>{{end}}
  <div class="date">{{formatDate .Date "Monday, January 2 at 15:04"}}</div>
  <hr>
  {{range .Courses}}
  <div class="course">
    <div class="name">{{.Name}}</div>
    <div class="dish">{{.Dish}}</div>
    {{if .Wine}}<div class="wine">{{.Wine}}</div>{{end}}
  </div>
  {{end}}
  {{if .Note}}<hr><div class="note">{{.Note}}</div>{{end}}
</div>
</body>
</html>`

// RenderInviteHTML renders the invitation card markup.
func RenderInviteHTML(invitation Invitation) (string, error) {
	var buf bytes.Buffer
	if err := inviteTemplate.Execute(&buf, invitation); err != nil {
		return "", err
	}
	return buf.String(), nil
}
