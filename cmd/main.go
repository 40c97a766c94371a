package main

import "github.com/adanyl0v/go-reminders/internal/app"

func main() {
	app.InitDefaultLogger()
	app.MustReadEnv()
	app.MustInitApplicationLogger()

	app.MustConnectPostgres()
	defer app.DisconnectPostgres()
	app.MustMigratePostgres()

	app.MustInitServices()
	defer app.CloseServices()

	stopSweeper := app.StartSweeper()
	defer stopSweeper()

	app.MustListenAndServeHTTP()
}
