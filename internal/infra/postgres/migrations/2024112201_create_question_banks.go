package migrations

func init() {
	Migrations.MustRegister(execFile("create_question_banks.sql"), dropTable("question_banks"))
}
