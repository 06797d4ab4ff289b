// Package corpus reads indexable documents from a local directory of
// Markdown and plain-text files.
//
// The loader walks the corpus root in sorted path order, parsing YAML
// front matter for attribution metadata and stripping Markdown
// formatting down to plain text. Document IDs derive from paths
// relative to the root, so the same file always resolves to the same
// document across runs.
//
// The watcher keeps the index current while the server runs: file
// writes re-index the file, removals delete the document, with a
// debounce so editors that write in bursts trigger one pass.
package corpus
