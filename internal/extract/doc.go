// Package extract turns episode documents into normalized plain text.
//
// Plain-text sources are read directly. Legacy word-processor documents are
// handed to an external converter (macOS textutil or antiword) discovered on
// PATH in configured order; the converter is treated as a black box that
// prints text on stdout. Both paths share the same decoding and newline
// normalization so downstream segmentation sees identical input shapes.
package extract
