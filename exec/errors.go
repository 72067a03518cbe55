package exec

import "errors"

// ErrPrimaryKeyImmutable is returned when an Update's assignments target
// a primary-key column (spec §4.7.5 "fail PrimaryKeyImmutable").
var ErrPrimaryKeyImmutable = errors.New("exec: primary key column is immutable")
