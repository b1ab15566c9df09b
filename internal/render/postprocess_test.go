package render

import "testing"

func TestStripAnchorAttrs(t *testing.T) {
	in := `<a href="/x" target="_blank" rel="noopener">x</a>`
	want := `<a href="/x">x</a>`
	if got := stripAnchorAttrs(in); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRewriteResourceURLs(t *testing.T) {
	in := `<img src="app://local.host/attachments/img.png">`
	want := `<img src="/attachments/img.png">`
	if got := rewriteResourceURLs(in); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRemoveCopyButtons(t *testing.T) {
	in := `<pre><code>x</code></pre><button class="copy-code-button">copy</button>`
	want := `<pre><code>x</code></pre>`
	if got := removeCopyButtons(in); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRemoveCopyButtons_LeavesOtherButtons(t *testing.T) {
	in := `<button class="toggle">theme</button>`
	if got := removeCopyButtons(in); got != in {
		t.Errorf("got %q, want unchanged", got)
	}
}
