// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// The query pipeline refuses to build without these:
//
//   - DocumentSource: Reads the corpus directory
//   - EmbeddingService: Turns text into vectors
//   - LLMService: Generates answers from prompts
//   - VectorIndexFactory: Creates a fresh VectorIndex per build
//   - PostProcessorPipeline: Splits documents into chunks
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingCache: Persists chunk embeddings between builds
//   - HistoryStore: Records asked questions
//   - PromptStore: Supplies the answer prompt (required; files override the built-in default)
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
