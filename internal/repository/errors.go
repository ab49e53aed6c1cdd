package repository

import "errors"

// ErrInvalidData данные в хранилище не разбираются
var ErrInvalidData = errors.New("invalid data")
