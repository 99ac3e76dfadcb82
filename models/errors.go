package models

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/budgets_backend/utils"
)

// InvalidRangeError is returned by every range-taking operation when end is before start.
type InvalidRangeError struct {
	Start time.Time
	End   time.Time
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range: end %s is before start %s",
		e.End.Format(time.DateOnly), e.Start.Format(time.DateOnly))
}

// CheckRange returns an *InvalidRangeError when end < start.
func CheckRange(start, end time.Time) error {
	if end.Before(start) {
		return &InvalidRangeError{Start: start, End: end}
	}
	return nil
}

type NotFoundError struct {
	Resource string
	Id       any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Resource, e.Id)
}

func (e *NotFoundError) Is(target error) bool {
	return target == utils.ErrorRecordNotFound
}

// ValidationError carries field -> rule pairs from input validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, rule := range e.Fields {
		parts = append(parts, field+": "+rule)
	}
	sort.Strings(parts)
	return "validation failed: " + strings.Join(parts, ", ")
}
