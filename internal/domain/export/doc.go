// Package export holds the regulatory serializers that read the ledger and
// invoices: the pipe-delimited ledger text file, the audit-file XML and the
// CII e-invoice XML. Every function here is pure and deterministic; callers
// load the rows and write the result wherever it needs to go.
package export
