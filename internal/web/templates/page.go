package templates

import (
	"context"
	"io"

	"github.com/Conceptual-Machines/refinery-api/internal/studio"
	"github.com/a-h/templ"
)

// PageData is everything the studio page needs besides the forest
type PageData struct {
	View          studio.View
	Callbacks     Callbacks
	Generate      string
	Credential    string
	HasCredential bool
	MaskedKey     string
	DefaultCount  int
	MinCount      int
	MaxCount      int
}

// Page renders the complete studio document
func Page(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.print(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		hw.print(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		hw.print(`<title>Refinery</title><style>` + pageCSS + `</style></head><body>`)

		hw.print(`<header><h1>Refinery</h1>`)
		if data.HasCredential {
			hw.printf(`<span class="key">API key %s</span>`, esc(data.MaskedKey))
		} else {
			hw.printf(`<form id="credential" data-url="%s"><input type="password" name="apiKey" placeholder="Image API key"><button type="submit">Save key</button></form>`,
				esc(data.Credential))
		}
		hw.print(`</header>`)

		hw.printf(`<form id="generate" data-url="%s" enctype="multipart/form-data">`, esc(data.Generate))
		hw.print(`<input type="file" name="references" accept="image/*" multiple required>`)
		hw.printf(`<textarea name="prompt" placeholder="Describe the image" required>%s</textarea>`, esc(data.View.Prompt))
		hw.printf(`<input type="number" name="count" min="%d" max="%d" value="%d">`, data.MinCount, data.MaxCount, data.DefaultCount)
		if data.View.GenerationPending {
			hw.print(`<button type="submit" disabled>Generating…</button>`)
		} else {
			hw.print(`<button type="submit">Generate</button>`)
		}
		hw.print(`</form><p id="status" role="status"></p>`)

		hw.printf(`<main id="forest-root" data-fragment="%s" data-navigate="%s" data-modal="%s">`,
			esc(data.Callbacks.Fragment), esc(data.Callbacks.Navigate), esc(data.Callbacks.Modal))
		if hw.err != nil {
			return hw.err
		}
		if err := Forest(data.View, data.Callbacks).Render(ctx, w); err != nil {
			return err
		}
		hw.print(`</main><script>` + pageJS + `</script></body></html>`)
		return hw.err
	})
}

const pageCSS = `
body{font-family:system-ui,sans-serif;margin:0 2rem;background:#111;color:#eee}
header{display:flex;justify-content:space-between;align-items:center}
#generate{display:grid;gap:.5rem;max-width:40rem}
textarea{min-height:5rem}
.level{display:flex;flex-wrap:wrap;gap:1rem;margin:.5rem 0 .5rem 1.5rem}
.level.depth-0{margin-left:0}
.node{border:2px solid transparent;border-radius:6px;padding:.25rem}
.node.selected{border-color:#4af}
.node.pending{opacity:.6}
.thumb{background:none;border:0;padding:0;cursor:pointer}
.thumb img{width:160px;height:160px;object-fit:cover;border-radius:4px}
.modal{position:fixed;inset:0;background:rgba(0,0,0,.85);display:flex;align-items:center;justify-content:center}
.modal img{max-width:90vw;max-height:90vh}
`

const pageJS = `
const root = document.getElementById('forest-root');
const status = document.getElementById('status');

async function post(url, body, isForm) {
  const opts = {method: 'POST', credentials: 'same-origin'};
  if (isForm) { opts.body = body; } else {
    opts.headers = {'Content-Type': 'application/json'};
    opts.body = JSON.stringify(body);
  }
  const res = await fetch(url, opts);
  const data = await res.json().catch(() => ({}));
  if (!res.ok) { status.textContent = data.error || res.statusText; } else { status.textContent = ''; }
  return res.ok;
}

async function refresh() {
  const res = await fetch(root.dataset.fragment, {credentials: 'same-origin'});
  if (res.ok) { root.innerHTML = await res.text(); }
}

root.addEventListener('click', async (e) => {
  const thumb = e.target.closest('[data-action="select"]');
  if (thumb) { await post(thumb.dataset.url, {id: thumb.dataset.id}); return refresh(); }
  const modal = e.target.closest('[data-action="modal"]');
  if (modal) { await post(modal.dataset.url, {open: false}); return refresh(); }
});

root.addEventListener('submit', async (e) => {
  const form = e.target.closest('[data-action="refine"]');
  if (!form) return;
  e.preventDefault();
  const instruction = form.elements.instruction.value;
  form.querySelector('button').disabled = true;
  const pending = refresh();
  await post(form.dataset.url, {targetId: form.dataset.id, instruction});
  await pending;
  refresh();
});

document.getElementById('generate').addEventListener('submit', async (e) => {
  e.preventDefault();
  status.textContent = 'Generating…';
  await post(e.target.dataset.url, new FormData(e.target), true);
  refresh();
});

const credential = document.getElementById('credential');
if (credential) {
  credential.addEventListener('submit', async (e) => {
    e.preventDefault();
    const res = await fetch(credential.dataset.url, {
      method: 'PUT', credentials: 'same-origin',
      headers: {'Content-Type': 'application/json'},
      body: JSON.stringify({apiKey: credential.elements.apiKey.value}),
    });
    if (res.ok) location.reload();
  });
}

document.addEventListener('keydown', async (e) => {
  if (e.target.matches('input, textarea')) return;
  if (e.key === 'ArrowLeft' || e.key === 'ArrowRight') {
    e.preventDefault();
    await post(root.dataset.navigate, {direction: e.key === 'ArrowLeft' ? 'left' : 'right'});
    refresh();
  } else if (e.key === 'Enter' || e.key === ' ') {
    const selected = root.querySelector('.node.selected');
    if (selected) { e.preventDefault(); await post(root.dataset.modal, {open: true}); refresh(); }
  } else if (e.key === 'Escape') {
    await post(root.dataset.modal, {open: false});
    refresh();
  }
});
`
