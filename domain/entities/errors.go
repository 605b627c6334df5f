package entities

import "errors"

// ErrDuplicateName is returned when creating a lottery whose name already
// exists in the guild, in either the active or completed bucket
var ErrDuplicateName = errors.New("lottery name already exists")
