// Package memory provides an in-memory search engine.
//
// It backs the "memory" engine setting and the service tests. Item
// results mirror Elasticsearch's bulk answers, and hooks allow tests to
// reject individual operations or fail whole requests.
package memory
