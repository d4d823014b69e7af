// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Key Principles:
// 1. Domain entities are free of GORM tags and infrastructure concerns
// 2. Persistence models contain all GORM annotations and table mappings
// 3. ToDomain / FromDomain convert between the two
// 4. Repositories use persistence models for database operations
//
// Structure:
// - base.go: shared aggregate and versioning columns
// - fee.go: fee catalog, bills and the payment ledger
// - payroll.go: salary structures and records
// - directory.go: students, teachers and attendance summaries
// - types.go: column types stored as JSON
package models
