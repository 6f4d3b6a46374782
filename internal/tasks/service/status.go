package service

import "hotelops/pkg/model"

var taskTransitions = map[model.TaskStatus][]model.TaskStatus{
	model.TaskPending:    {model.TaskInProgress, model.TaskDone, model.TaskCancelled},
	model.TaskInProgress: {model.TaskDone, model.TaskCancelled},
}

func canTransition(from, to model.TaskStatus) bool {
	if from == to {
		return true
	}
	for _, next := range taskTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
