package migrations

func init() {
	Migrations.MustRegister(execFile("create_completed_quizzes.sql"), dropTable("completed_quizzes"))
}
