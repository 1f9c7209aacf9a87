// Package verify inspects a generated docs tree: relative links must resolve,
// page front matter must agree with the page's file name, navigation entries
// must point at existing files, and adjacent episodes must not carry
// near-identical Chinese text (the usual symptom of a bad range split).
package verify
