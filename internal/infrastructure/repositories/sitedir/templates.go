package sitedir

import "html/template"

const pageStyle = `
    body { font-family: Arial, sans-serif; margin: 40px; line-height: 1.6; }
    h1, h2 { color: #333; }
    .container { max-width: 800px; margin: 0 auto; }
    .info { background-color: #f4f4f4; padding: 20px; border-radius: 5px; margin-bottom: 20px; }
    .file-list { background-color: #f9f9f9; padding: 20px; border-radius: 5px; max-height: 400px; overflow-y: auto; }
    ul { padding-left: 20px; }
    li { margin-bottom: 5px; }
    a { color: #0366d6; text-decoration: none; }
    a:hover { text-decoration: underline; }`

//nolint:gochecknoglobals // parsed once
var directoryIndex = template.Must(template.New("directory").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>{{.Title}} - Directory Index</title>
  <style>` + pageStyle + `
  </style>
</head>
<body>
  <div class="container">
    <h1>{{.Title}}</h1>
    <div class="info">
      <p>This is an automatically generated index of HTML files in this directory.</p>
    </div>
    <h2>HTML Files</h2>
    <div class="file-list">
      <ul>
{{- range .Files}}
        <li><a href="{{.Path}}">{{.Path}}</a></li>
{{- end}}
      </ul>
    </div>
  </div>
</body>
</html>
`))

//nolint:gochecknoglobals // parsed once
var repositoryPreview = template.Must(template.New("preview").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>{{.Title}} - Repository Preview</title>
  <style>` + pageStyle + `
  </style>
</head>
<body>
  <div class="container">
    <h1>{{.Title}}</h1>
    <div class="info">
      <p>This is an automatically generated preview of the repository.</p>
      <p>The repository does not contain a pre-built static website, so this fallback page has been created.</p>
{{- if .SourceURL}}
      <p>Source: <a href="{{.SourceURL}}">{{.SourceURL}}</a></p>
{{- end}}
    </div>
    <h2>Repository Files</h2>
    <div class="file-list">
      <ul>
{{- range .Files}}
{{- if eq .Kind "page"}}
        <li><a href="{{.Path}}">{{.Path}}</a></li>
{{- else if eq .Kind "code"}}
        <li><strong>{{.Path}}</strong> - Code file</li>
{{- else if eq .Kind "image"}}
        <li><strong>{{.Path}}</strong> - Image file</li>
{{- else}}
        <li>{{.Path}}</li>
{{- end}}
{{- end}}
      </ul>
{{- if .Truncated}}
      <p><em>Showing only the first {{len .Files}} files...</em></p>
{{- end}}
    </div>
  </div>
</body>
</html>
`))

type pageFile struct {
	Path string
	Kind string
}

type pageData struct {
	Title     string
	SourceURL string
	Files     []pageFile
	Truncated bool
}
