package cron_config

type Config struct {
	// Heartbeat check, every minute
	CronScheduleHeartbeat string `env:"CRON_SCHEDULE_HEARTBEAT" envDefault:"0 * * * * *"`
	// Relay sweep of expired dataLayer records, every five minutes
	CronScheduleRelaySweep string `env:"CRON_SCHEDULE_RELAY_SWEEP" envDefault:"0 */5 * * * *"`
	// Form host probe, every fifteen minutes
	CronScheduleHostProbe string `env:"CRON_SCHEDULE_HOST_PROBE" envDefault:"0 */15 * * * *"`
}
