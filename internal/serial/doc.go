// Package serial provides the version-serial authority for vellum.
//
// Every change flowing through a vellum graph is stamped with a Serial
// allocated by an Authority. Serials give a total order over changes:
// comparing two serials answers "which happened first" without wall-clock
// timestamps or per-node bookkeeping.
//
// CRITICAL PATTERNS:
//
// Monotonic Counter:
// The Authority's counter is non-decreasing except at wraparound.
// NEVER use wall-clock timestamps for ordering.
//
// Grouped Updates:
// One external event (one edit) often triggers a cascade of dependent
// recomputations. Inside a grouped update every allocation on the entering
// goroutine observes one frozen serial, so downstream observers see one
// atomic change instead of N successive ones.
//
// The Authority is an explicit, injectable service, not a hidden singleton.
// Tests and independent graphs each construct their own.
package serial
