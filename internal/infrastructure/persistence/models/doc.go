// Package models contains the GORM models behind the ledger and invoicing
// repositories. Domain types carry no ORM tags; each model converts to and
// from its domain type with ToDomain / <Model>FromDomain.
//
//   - base.go: shared id, timestamp and version columns
//   - ledger.go: accounts, journal_entries
//   - invoicing.go: invoices, invoice_lines, payments, payment_allocations, parties
package models
