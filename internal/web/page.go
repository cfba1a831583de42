package web

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	"github.com/toolboxtech/qr-utility/internal/generator"
	"github.com/toolboxtech/qr-utility/internal/models"
)

var dotShapes = []models.DotShape{models.DotSquare, models.DotDots, models.DotRounded, models.DotClassy}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexPage(e.Session.State()).Render(r.Context(), w); err != nil {
		s.logger.Error("Error rendering index page", zap.Error(err))
	}
}

// indexPage страница генератора с начальным состоянием сессии
func indexPage(st generator.State) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var sb strings.Builder
		sb.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		sb.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		sb.WriteString(`<title>QR Generator</title></head><body>`)
		sb.WriteString(`<main id="app">`)
		sb.WriteString(`<h1>QR Generator</h1>`)
		sb.WriteString(`<p id="auth-status">` + templ.EscapeString(authLabel(st.Auth)) + `</p>`)

		sb.WriteString(`<section id="content"><div role="tablist">`)
		for _, ct := range models.ContentTypes() {
			sb.WriteString(`<button type="button" data-type="` + templ.EscapeString(string(ct)) + `"`)
			if ct == st.ContentType {
				sb.WriteString(` aria-selected="true"`)
			}
			sb.WriteString(`>` + templ.EscapeString(string(ct)) + `</button>`)
		}
		sb.WriteString(`</div>`)
		sb.WriteString(`<input id="input" type="text" value="` + templ.EscapeString(st.Input) +
			`" placeholder="` + templ.EscapeString(st.Placeholder) + `">`)
		if st.JarPreview != "" {
			sb.WriteString(`<p id="jar-preview">` + templ.EscapeString(st.JarPreview) + `</p>`)
		}
		sb.WriteString(`</section>`)

		sb.WriteString(`<section id="shorten"`)
		if st.ContentType != models.ContentShortLink {
			sb.WriteString(` hidden`)
		}
		sb.WriteString(`><input id="custom-code" type="text" value="` + templ.EscapeString(st.CustomCode) + `">`)
		sb.WriteString(`<button id="shorten-btn" type="button"`)
		if !st.CanShorten {
			sb.WriteString(` disabled`)
		}
		sb.WriteString(`>Shorten</button>`)
		sb.WriteString(`<p id="short-status">` + templ.EscapeString(st.ShortLink.Status) + `</p>`)
		sb.WriteString(`<p id="short-link">` + templ.EscapeString(st.ShortLinkPreview) + `</p>`)
		sb.WriteString(`</section>`)

		sb.WriteString(`<section id="style">`)
		sb.WriteString(`<input id="dot-color" type="color" value="` + templ.EscapeString(st.Style.DotColor) + `">`)
		sb.WriteString(`<input id="bg-color" type="color" value="` + templ.EscapeString(st.Style.BackgroundColor) + `">`)
		sb.WriteString(`<select id="dot-shape">`)
		for _, shape := range dotShapes {
			sb.WriteString(`<option value="` + templ.EscapeString(string(shape)) + `"`)
			if shape == st.Style.DotShape {
				sb.WriteString(` selected`)
			}
			sb.WriteString(`>` + templ.EscapeString(string(shape)) + `</option>`)
		}
		sb.WriteString(`</select><label><input id="logo" type="checkbox"`)
		if st.Style.Logo {
			sb.WriteString(` checked`)
		}
		sb.WriteString(`> Logo</label></section>`)

		sb.WriteString(`<section id="preview"><img id="qr" src="/api/session/preview.svg" alt="QR code" width="300" height="300">`)
		sb.WriteString(`<a href="/api/session/download/png">PNG</a> <a href="/api/session/download/svg">SVG</a>`)
		sb.WriteString(`</section></main>`)
		sb.WriteString(`<script>` + pageScript + `</script></body></html>`)

		_, err := io.WriteString(w, sb.String())
		return err
	})
}

func authLabel(a generator.AuthState) string {
	switch a {
	case generator.AuthReady:
		return "Live (Auth Ready)"
	case generator.AuthFailed:
		return "Offline (Auth Failed)"
	default:
		return "Loading Auth..."
	}
}

// placeholderSVG заглушка предпросмотра, пока рендерер недоступен
func placeholderSVG(msg string) []byte {
	return []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="300" height="300" viewBox="0 0 300 300">` +
		`<rect width="300" height="300" fill="#f1f5f9"/>` +
		`<text x="150" y="150" text-anchor="middle" font-family="sans-serif" font-size="14" fill="#64748b">` +
		templ.EscapeString(msg) + `</text></svg>`)
}

const pageScript = `
const api = (method, path, body) => fetch('/api/session' + path, {
  method, headers: {'Content-Type': 'application/json'},
  body: body === undefined ? undefined : JSON.stringify(body),
}).then(r => r.json().catch(() => ({})));
const $ = id => document.getElementById(id);
let timer;
const refresh = () => setTimeout(() => { $('qr').src = '/api/session/preview.svg?t=' + Date.now(); }, 350);
const apply = st => {
  if (!st || !st.contentType) return;
  $('shorten').hidden = st.contentType !== 'ShortLink';
  $('input').placeholder = st.placeholder;
  $('shorten-btn').disabled = !st.canShorten;
  $('short-status').textContent = (st.shortLink && st.shortLink.status) || '';
  $('short-link').textContent = st.shortLinkPreview || '';
  refresh();
};
document.querySelectorAll('[data-type]').forEach(b => b.onclick = () => api('PUT', '/type', {contentType: b.dataset.type}).then(apply));
$('input').oninput = e => { clearTimeout(timer); timer = setTimeout(() => api('PUT', '/input', {input: e.target.value}).then(apply), 50); };
$('custom-code').oninput = e => api('PUT', '/code', {customCode: e.target.value}).then(st => { if (st.customCode !== undefined) e.target.value = st.customCode; });
$('shorten-btn').onclick = () => api('POST', '/shorten').then(r => apply(r.state || r));
$('dot-color').onchange = e => api('PUT', '/style', {dotColor: e.target.value}).then(apply);
$('bg-color').onchange = e => api('PUT', '/style', {backgroundColor: e.target.value}).then(apply);
$('dot-shape').onchange = e => api('PUT', '/style', {dotShape: e.target.value}).then(apply);
$('logo').onchange = e => api('PUT', '/style', {logo: e.target.checked}).then(apply);
$('qr').onerror = () => setTimeout(refresh, 1000);
`
