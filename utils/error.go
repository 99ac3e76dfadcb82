package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

var ErrorUserIdRequired = errors.New("user id is required")
