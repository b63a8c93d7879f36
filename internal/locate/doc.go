// Package locate resolves quoted text back to an exact byte range of a document.
//
// Plugins receive quotes from an analysis service that may have re-typed
// quotation marks, collapsed whitespace, changed case or paraphrased. The
// engine tries a fixed chain of strategies, strictest first, and returns the
// first hit:
//
//	exact → quote-normalized → case-insensitive → whitespace-normalized →
//	context → partial → key-phrase
//
// Every normalisation keeps a byte map back to the source text, so a match
// found in normalised space is always reported as a slice of the original:
// text[m.StartOffset:m.EndOffset] == m.MatchedText.
//
// An Engine holds no mutable state and is safe for concurrent use.
package locate
