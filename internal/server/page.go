package server

import (
	"html/template"

	"github.com/maauso/animgen/internal/session"
)

// pageRefreshSeconds is how often the page reloads while a submission is in flight.
const pageRefreshSeconds = 2

type pageData struct {
	Prompt          string
	Submitting      bool
	Error           string
	Video           *VideoResponse
	MaxPromptLength int
	RefreshSeconds  int
}

func newPageData(s session.State, maxPromptLength int) pageData {
	resp := toStateResponse(s)
	return pageData{
		Prompt:          s.Prompt,
		Submitting:      s.InFlight(),
		Error:           resp.Error,
		Video:           resp.Video,
		MaxPromptLength: maxPromptLength,
		RefreshSeconds:  pageRefreshSeconds,
	}
}

var pageTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
{{- if .Submitting}}
<meta http-equiv="refresh" content="{{.RefreshSeconds}}">
{{- end}}
<title>Animation Generator</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; }
textarea { width: 100%; min-height: 8rem; box-sizing: border-box; }
.error { background: #fde8e8; color: #9b1c1c; padding: .75rem 1rem; border-radius: .375rem; }
.spinner { color: #555; }
video { width: 100%; margin-top: 1rem; background: #000; }
</style>
</head>
<body>
<h1>Animation Generator</h1>
<form method="post" action="/submit">
<label for="prompt">Describe the animation</label>
<textarea id="prompt" name="prompt" maxlength="{{.MaxPromptLength}}" placeholder="Explain the Pythagorean theorem"{{if .Submitting}} disabled{{end}}>{{.Prompt}}</textarea>
<button type="submit"{{if .Submitting}} disabled{{end}}>{{if .Submitting}}Generating...{{else}}Generate{{end}}</button>
</form>
{{- if .Submitting}}
<p class="spinner" role="status">Generating...</p>
{{- end}}
{{- if .Error}}
<p class="error" role="alert">{{.Error}}</p>
{{- end}}
{{- with .Video}}
<video src="{{.URL}}" controls autoplay loop playsinline></video>
<p><a href="{{.DownloadURL}}" download="{{.Filename}}">Download</a></p>
{{- end}}
</body>
</html>
`))
