// Package types defines the storage-facing vocabulary shared by the model
// layer and its backends: keys, raw entities, the Store collaborator
// interface, backend configuration, and the standard errors.
package types
