package rbac

import "github.com/assess-hub/assesshub-backend/internal/model"

// Default policy. Trainers own their exams and staff; evaluators only grade.
var RolePermissions = map[string][]string{
	model.RoleLearner: {
		"exam:view",
		"attempt:start",
		"attempt:status",
		"attempt:complete",
		"submission:create",
		"submission:view-own",
		"asset:upload",
	},
	model.RoleTrainer: {
		"exam:view",
		"exam:create",
		"exam:update",
		"exam:publish",
		"submission:view-all",
		"submission:status",
		"users:manage",
		"users:list",
	},
	model.RoleEvaluator: {
		"exam:view",
		"submission:view-all",
		"submission:evaluate",
		"speech:score",
	},
	model.RoleAdmin: {
		"*", // everything
	},
}
