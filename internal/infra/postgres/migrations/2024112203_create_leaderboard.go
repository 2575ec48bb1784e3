package migrations

func init() {
	Migrations.MustRegister(execFile("create_leaderboard.sql"), dropTable("leaderboard"))
}
