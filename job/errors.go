package job

import "errors"

// ErrAlreadyFlashing is returned by RunFlash when a flash is already in
// progress on this controller.
var ErrAlreadyFlashing = errors.New("job: a flash is already in progress")
