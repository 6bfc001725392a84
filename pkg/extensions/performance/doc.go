// Package performance is the built-in extension that shows CPU usage.
//
// While enabled it samples global CPU usage on a cron schedule
// ("@every <interval>") and hands each Sample to a Sink. Its configuration
// has one category, General, with the sampling interval in milliseconds and
// the display unit (percent or fraction). The scheduler does not fire more
// often than once per second.
package performance
