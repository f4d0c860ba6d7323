// Package types defines the entity types, configuration, amounts and
// standard errors shared by the xvault ledger, its contracts and its
// storage backend.
package types
