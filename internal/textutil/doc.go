// Package textutil provides small text helpers shared across packages:
// filename sanitization and a generic conditional.
package textutil
