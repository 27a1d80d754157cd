package models

import "database/sql/driver"

// The enum types below marshal to text for the API; Value keeps them stored
// as plain integers regardless of what the SQL driver does with
// TextMarshaler or Stringer.

func (t MediaType) Value() (driver.Value, error)     { return int64(t), nil }
func (s ReportStatus) Value() (driver.Value, error)  { return int64(s), nil }
func (r ReportReason) Value() (driver.Value, error)  { return int64(r), nil }
func (s DisabledState) Value() (driver.Value, error) { return int64(s), nil }
func (p Privacy) Value() (driver.Value, error)       { return int64(p), nil }
