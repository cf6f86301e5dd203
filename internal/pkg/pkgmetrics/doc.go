// Package pkgmetrics holds the Prometheus collectors exported on /metrics.
//
// Collectors are registered on the default registry at init time; callers use
// the Record*/Set* helpers instead of touching the vectors directly.
//
// HTTP:
//   - chemviz_http_requests_total{method,route,status}
//   - chemviz_http_request_duration_seconds{method,route}
//   - chemviz_http_requests_in_flight
//
// Uploads:
//   - chemviz_uploads_total{result}      accepted, rejected, failed
//   - chemviz_upload_rows                rows per accepted upload
//
// Storage and reports:
//   - chemviz_storage_operation_duration_seconds{operation,driver}
//   - chemviz_storage_breaker_state{name}  0=closed 1=half-open 2=open
//   - chemviz_report_cache_total{result}   hit, miss
//   - chemviz_report_render_duration_seconds
package pkgmetrics
