// Package file loads the searchsync configuration from a TOML file.
//
// The file declares the search engine, the databases records are read
// from and the registered indices with their models. A ".env" file next
// to the configuration is loaded first and "${NAME}" references are
// expanded from the environment.
package file
