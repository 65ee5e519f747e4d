// Package bleveindex implements the search engine port with Bleve.
//
// Each index lives in its own directory under the configured root.
// Documents carry a stored copy of their JSON body so that update
// operations can merge partial documents the way Elasticsearch does.
package bleveindex
