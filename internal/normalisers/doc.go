// Package normalisers holds implementations of the Normaliser interface.
// The corpus is plain text, so the plaintext normaliser is the only one;
// it keeps file content unchanged and rejects bytes that are not UTF-8.
package normalisers
