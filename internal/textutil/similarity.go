package textutil

// Similarity returns the cosine similarity of two fingerprints, clamped to
// [0, 1]. A nil or empty fingerprint is similar to nothing.
func (f *Fingerprint) Similarity(other *Fingerprint) float64 {
	if f == nil || other == nil || f.norm == 0 || other.norm == 0 {
		return 0
	}
	small, large := f.tokens, other.tokens
	if len(small) > len(large) {
		small, large = large, small
	}
	var dot float64
	for token, weight := range small {
		dot += weight * large[token]
	}
	return min(dot/(f.norm*other.norm), 1)
}

// WeightedFingerprints fingerprints each text and applies IDF weights taken
// from the same texts, so terms every episode shares (character names, stage
// directions) count less than terms unique to one. Texts without tokens map
// to nil.
func WeightedFingerprints(texts []string) []*Fingerprint {
	corpus := NewCorpus()
	prints := make([]*Fingerprint, len(texts))
	for i, text := range texts {
		prints[i] = NewFingerprint(text)
		corpus.Add(prints[i])
	}
	idf := corpus.IDF()
	for i := range prints {
		prints[i] = prints[i].WithIDF(idf)
	}
	return prints
}
