// Package textutil provides text processing utilities for fingerprinting, similarity,
// and slug generation.
//
// The primary use cases are:
//   - Creating token-based fingerprints from bilingual script text for comparison
//   - Computing cosine similarity between fingerprints
//   - Turning episode titles into ASCII path segments
//
// Fingerprints use term frequency vectors normalized for efficient comparison.
// Latin text is split on non-alphanumeric characters with tokens shorter than
// three characters dropped; Chinese text is split into character bigrams.
package textutil
