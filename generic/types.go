/*
Package generic provides the domain-agnostic kernel of the labor engine.

PURPOSE:
  Holds the small value types every other package builds on: calendar
  dates, periods, identifiers, the holiday contract and the error
  vocabulary. Nothing here knows about attendance, leave or
  overtime rules.

KEY CONCEPTS IN THIS FILE (types.go):
  - TenantID / EmployeeID: Type-safe identifiers
  - GlobalTenant: The scope of national reference data

DESIGN PRINCIPLES:
  1. Type Safety: Strong typing for IDs prevents mixing tenant/employee IDs
  2. Explicit scope: Tenant is always passed, never read from ambient state

SEE ALSO:
  - time.go: TimePoint and the HolidayCalendar contract
  - period.go: Inclusive date ranges
  - errors.go: Sentinel and structured errors
*/
package generic

// =============================================================================
// IDENTIFIERS
// =============================================================================

// TenantID scopes every query. The empty tenant means "global" data such as
// national holidays.
type TenantID string

type EmployeeID string

const GlobalTenant TenantID = ""
