// Package elastic implements the search engine port against an
// Elasticsearch cluster through the go-elasticsearch esapi client.
//
// Documents are written with the bulk API. Per-item rejections are
// returned to the caller; only transport and request-level failures are
// reported as errors.
package elastic
