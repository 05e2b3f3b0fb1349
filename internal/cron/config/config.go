package cron_config

type Config struct {
	// Heartbeat check, every minute
	CronScheduleHeartbeat string `env:"CRON_SCHEDULE_HEARTBEAT" envDefault:"0 * * * * *"`
	// Purchase session sweep, every minute
	CronScheduleSessionSweep string `env:"CRON_SCHEDULE_SESSION_SWEEP" envDefault:"0 * * * * *"`
	// Registrar dates refresh for active domains, daily at midnight
	CronScheduleRegistrarDates string `env:"CRON_SCHEDULE_REGISTRAR_DATES" envDefault:"0 0 0 * * *"`
}
