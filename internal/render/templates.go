package render

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Subject}}</title>
</head>
<body style="margin:0;padding:0;background:#f4f4f5;font-family:Georgia,serif;color:#18181b;">
{{- if .PreviewText}}
<div style="display:none;max-height:0;overflow:hidden;">{{.PreviewText}}</div>
{{- end}}
<table role="presentation" width="100%" cellpadding="0" cellspacing="0">
<tr><td align="center">
<table role="presentation" width="600" cellpadding="24" cellspacing="0" style="background:#ffffff;">
<tr><td>
<p style="font-size:12px;letter-spacing:2px;margin:0;">{{upper .PublicationName}} &middot; {{.Section}}</p>
{{- with formatDate .IssueDate}}
<p style="font-size:12px;color:#71717a;margin:4px 0 0;">{{.}}</p>
{{- end}}
</td></tr>
{{- range .Items}}
<tr><td style="border-top:1px solid #e4e4e7;">
{{- if .Lead}}
<p style="font-size:11px;font-weight:bold;letter-spacing:2px;color:#b91c1c;margin:0 0 8px;">{{upper .LeadLabel}}</p>
{{- end}}
<h2 style="font-size:20px;margin:0 0 4px;">{{.Podcast}}{{if .Guest}} with {{.Guest}}{{end}}</h2>
{{- if .Title}}
<p style="margin:0 0 12px;"><a href="{{.URL}}" style="color:#1d4ed8;">{{.Title}}</a>{{with formatDuration .DurationSecs}} &middot; {{.}}{{end}}</p>
{{- end}}
{{- if .ThumbnailURL}}
<a href="{{.URL}}"><img src="{{.ThumbnailURL}}" alt="{{.Title}}" width="552" style="display:block;width:100%;height:auto;"></a>
{{- end}}
{{- if .Actor}}
<p><strong>Actor:</strong> {{.Actor}}</p>
{{- end}}
{{- if .Topics}}
<p><strong>Topics:</strong> {{.Topics}}</p>
{{- end}}
{{- if .Bullets}}
<p><strong>{{.BulletLabel}}:</strong></p>
<ul>
{{- range .Bullets}}
<li>{{.}}</li>
{{- end}}
</ul>
{{- end}}
{{- if .Rationale}}
<p><strong>{{.RationaleLabel}}:</strong> {{.Rationale}}</p>
{{- end}}
{{- if .Framework}}
<p><strong>Framework:</strong> {{.Framework}}</p>
{{- end}}
{{- if or .ListenIf .SkipIf}}
<p>{{if .ListenIf}}Listen if {{.ListenIf}}.{{end}}{{if and .ListenIf .SkipIf}} {{end}}{{if .SkipIf}}Skip if {{.SkipIf}}.{{end}}</p>
{{- end}}
{{- if .Horizon}}
<p style="color:#71717a;"><em>Relevance horizon: {{.Horizon}}</em></p>
{{- end}}
</td></tr>
{{- end}}
<tr><td style="border-top:1px solid #e4e4e7;font-size:12px;color:#71717a;">
Reply to this email with feedback. <a href="*|UNSUB|*" style="color:#71717a;">Unsubscribe</a>
</td></tr>
</table>
</td></tr>
</table>
</body>
</html>
`

const textTemplate = `{{upper .PublicationName}} | {{.Section}}
{{- with formatDate .IssueDate}}
{{.}}
{{- end}}
{{range .Items}}
{{- if .Lead}}
{{upper .LeadLabel}}
{{- end}}
{{.Podcast}}{{if .Guest}} with {{.Guest}}{{end}}
{{- if .Title}}
{{.Title}}{{with formatDuration .DurationSecs}} ({{.}}){{end}}
{{- end}}
{{- if .URL}}
{{.URL}}
{{- end}}
{{- if .Actor}}

Actor: {{.Actor}}
{{- end}}
{{- if .Topics}}
Topics: {{.Topics}}
{{- end}}
{{- if .Bullets}}

{{.BulletLabel}}:
{{- range .Bullets}}
- {{.}}
{{- end}}
{{- end}}
{{- if .Rationale}}

{{.RationaleLabel}}: {{.Rationale}}
{{- end}}
{{- if .Framework}}
Framework: {{.Framework}}
{{- end}}
{{- if or .ListenIf .SkipIf}}

{{if .ListenIf}}Listen if {{.ListenIf}}.{{end}}{{if and .ListenIf .SkipIf}} {{end}}{{if .SkipIf}}Skip if {{.SkipIf}}.{{end}}
{{- end}}
{{- if .Horizon}}
Relevance horizon: {{.Horizon}}
{{- end}}

----
{{end}}
Reply to this email with feedback. Unsubscribe: *|UNSUB|*
`
