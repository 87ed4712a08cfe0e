// Package report renders tracking run results.
//
// Three writers share the Writer interface: SimpleWriter prints a
// human-readable summary for the terminal, JSONWriter emits the
// snapshot shape for tool integration, and MarkdownWriter produces a
// table suitable for sharing or committing to a repository.
package report
