// Package uploading implements the universal upload endpoint logic: a chain of
// gateways behind a WebUploader, and the translation of each attempt into a
// JSON envelope.
package uploading
