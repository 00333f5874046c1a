// Package notify forwards monitor events to external systems.
//
// The monitor's in-process event stream is canonical; sinks are best-effort
// exports of it. A Sink receives one event at a time and may fail without
// affecting monitoring or other sinks.
//
// # Basic Usage
//
//	m := monitor.New()
//	// ... register services ...
//
//	sink := notify.NewWebhookSink(notify.WebhookConfig{
//		URL:         "https://alerts.internal/hook",
//		BearerToken: os.Getenv("ALERT_TOKEN"),
//	})
//
//	go notify.Forward(ctx, m, notify.ForwardOptions{
//		Types: []monitor.EventType{
//			monitor.EventServiceDown,
//			monitor.EventServiceRecovered,
//		},
//	}, sink)
//
//	m.Start(ctx)
//
// Built-in sinks cover structured logging (LogSink), Kafka topics
// (KafkaSink) and HTTP endpoints (WebhookSink). SinkFunc adapts any
// function.
package notify
