// Package language maps transcript language codes to ISO 639-1 and to the
// headings used for page sections.
package language
