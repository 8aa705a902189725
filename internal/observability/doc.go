// Package observability records report runs in a JSONL event log, derives
// run metrics from it, evaluates alert conditions over generated reports,
// and delivers alerts to a webhook.
package observability
