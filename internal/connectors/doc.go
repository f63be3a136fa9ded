// Package connectors provides implementations of the DocumentSource port.
// A connector knows how to read documents from one kind of location; the
// corpus of docqa is a single flat directory, read by the filesystem connector.
package connectors
