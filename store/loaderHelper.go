package store

import (
	"reflect"

	"bitbucket.org/mmdatafocus/budgets_backend/models"
	"github.com/graph-gophers/dataloader/v7"
)

// handleError creates array of result with the same error repeated for as many items requested
func handleError[T any](itemsLength int, err error) []*dataloader.Result[T] {
	result := make([]*dataloader.Result[T], itemsLength)
	for i := 0; i < itemsLength; i++ {
		result[i] = &dataloader.Result[T]{Error: err}
	}
	return result
}

// alignById orders results like ids, filling unknown ids with GetDefault.
// (T must be a struct)
func alignById[T models.Data](results []T, ids []int) []*T {
	resultMap := make(map[int]T)
	for _, result := range results {
		resultMap[result.GetId()] = result
	}

	aligned := make([]*T, 0, len(ids))
	for _, id := range ids {
		data := resultMap[id]
		if reflect.ValueOf(data).IsZero() {
			data = data.GetDefault(id).(T)
		}
		aligned = append(aligned, &data)
	}
	return aligned
}
