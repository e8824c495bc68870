// file: internals/route/details/learning_routes.go
package details

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"akademiku_backend/internals/features/learning/events"
	knowledgeController "akademiku_backend/internals/features/learning/knowledge/controller"
	knowledgeService "akademiku_backend/internals/features/learning/knowledge/service"
	questionController "akademiku_backend/internals/features/learning/questions/controller"
	questionService "akademiku_backend/internals/features/learning/questions/service"
	quizController "akademiku_backend/internals/features/learning/quizzes/controller"
	quizService "akademiku_backend/internals/features/learning/quizzes/service"
	submissionController "akademiku_backend/internals/features/learning/submissions/controller"
	submissionService "akademiku_backend/internals/features/learning/submissions/service"
	taskController "akademiku_backend/internals/features/learning/tasks/controller"
	taskService "akademiku_backend/internals/features/learning/tasks/service"
	"akademiku_backend/internals/middlewares"
)

// learningWiring builds the service graph once per route group. Deletion
// guards point content services at the task service; the question guard is
// the quiz service, since quizzes are what pin questions.
type learningWiring struct {
	Knowledge   *knowledgeController.KnowledgeController
	Questions   *questionController.QuestionController
	Quizzes     *quizController.QuizController
	Tasks       *taskController.TaskController
	Assignments *taskController.AssignmentController
	Submissions *submissionController.SubmissionController
}

func buildLearningWiring(db *gorm.DB) learningWiring {
	pub := events.NewLogPublisher()

	tasks := taskService.NewTaskService(db, pub)
	assignments := taskService.NewAssignmentService(db, pub)

	knowledge := knowledgeService.NewKnowledgeService(db, tasks)
	quizzes := quizService.NewQuizService(db, tasks)
	questions := questionService.NewQuestionService(db, quizzes)
	submissions := submissionService.NewSubmissionService(db, assignments)

	return learningWiring{
		Knowledge:   knowledgeController.NewKnowledgeController(knowledge),
		Questions:   questionController.NewQuestionController(questions),
		Quizzes:     quizController.NewQuizController(quizzes),
		Tasks:       taskController.NewTaskController(tasks),
		Assignments: taskController.NewAssignmentController(assignments, tasks),
		Submissions: submissionController.NewSubmissionController(submissions),
	}
}

// LearningUserRoutes: read access plus the student-side assignment and
// submission flow. Visibility details (current-only reads for students) are
// enforced in the services.
func LearningUserRoutes(r fiber.Router, db *gorm.DB) {
	w := buildLearningWiring(db)

	kn := r.Group("/knowledge")
	kn.Get("/", w.Knowledge.List)
	kn.Get("/:resource_id", w.Knowledge.GetCurrent)
	kn.Get("/:resource_id/versions/:version", w.Knowledge.GetVersion)

	qs := r.Group("/questions")
	qs.Get("/:resource_id", w.Questions.GetCurrent)

	qz := r.Group("/quizzes")
	qz.Get("/", w.Quizzes.List)
	qz.Get("/:resource_id", w.Quizzes.GetCurrent)

	tk := r.Group("/tasks")
	tk.Get("/", w.Tasks.List)
	tk.Get("/:id", w.Tasks.Get)

	as := r.Group("/assignments")
	as.Get("/", w.Assignments.ListMine)
	as.Get("/:id", w.Assignments.Get)
	as.Get("/:id/progress", w.Assignments.Progress)
	as.Post("/:id/knowledge/:task_knowledge_id/complete", w.Assignments.MarkKnowledgeCompleted)
	as.Get("/:assignment_id/submissions", w.Submissions.ListForAssignment)

	sb := r.Group("/submissions", middlewares.SubmissionRateLimiter())
	sb.Post("/", w.Submissions.Start)
	sb.Get("/:id", w.Submissions.Get)
	sb.Put("/:id/answers", w.Submissions.SaveAnswer)
	sb.Post("/:id/submit", w.Submissions.Submit)
}

// LearningAdminRoutes: authoring, publish, delete, task management and
// manual grading. The group already gates on teacher-and-above roles.
func LearningAdminRoutes(r fiber.Router, db *gorm.DB) {
	w := buildLearningWiring(db)

	kn := r.Group("/knowledge")
	kn.Post("/", w.Knowledge.Create)
	kn.Post("/:resource_id/revisions", w.Knowledge.CreateRevision)
	kn.Patch("/versions/:id", w.Knowledge.UpdateDraft)
	kn.Post("/versions/:id/publish", w.Knowledge.Publish)
	kn.Get("/:resource_id/versions", w.Knowledge.ListVersions)
	kn.Delete("/:resource_id", w.Knowledge.Delete)
	kn.Post("/:resource_id/tags", w.Knowledge.AttachTag)
	kn.Delete("/:resource_id/tags/:tag_name", w.Knowledge.DetachTag)

	qs := r.Group("/questions")
	qs.Get("/", w.Questions.List)
	qs.Post("/", w.Questions.Create)
	qs.Post("/:resource_id/revisions", w.Questions.CreateRevision)
	qs.Patch("/versions/:id", w.Questions.UpdateDraft)
	qs.Post("/versions/:id/publish", w.Questions.Publish)
	qs.Get("/:resource_id/versions", w.Questions.ListVersions)
	qs.Get("/:resource_id/versions/:version", w.Questions.GetVersion)
	qs.Delete("/:resource_id", w.Questions.Delete)

	qz := r.Group("/quizzes")
	qz.Post("/", w.Quizzes.Create)
	qz.Post("/:resource_id/revisions", w.Quizzes.CreateRevision)
	qz.Patch("/versions/:id", w.Quizzes.UpdateDraft)
	qz.Post("/versions/:id/publish", w.Quizzes.Publish)
	qz.Get("/:resource_id/versions", w.Quizzes.ListVersions)
	qz.Get("/:resource_id/versions/:version", w.Quizzes.GetVersion)
	qz.Delete("/:resource_id", w.Quizzes.Delete)

	tk := r.Group("/tasks")
	tk.Post("/", w.Tasks.Create)
	tk.Post("/:id/close", w.Tasks.Close)
	tk.Delete("/:id", w.Tasks.Delete)

	as := r.Group("/assignments")
	as.Get("/:id", w.Assignments.Get)
	as.Get("/:id/progress", w.Assignments.Progress)
	as.Get("/:assignment_id/submissions", w.Submissions.ListForAssignment)

	sb := r.Group("/submissions")
	sb.Get("/:id", w.Submissions.Get)
	sb.Post("/:id/grade", w.Submissions.GradeSubjective)
}
