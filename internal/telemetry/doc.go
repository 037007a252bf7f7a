// Package telemetry provides sinks for the key/value diagnostics written by
// the slide controller and the vision detector.
//
// A sink collects pairs through AddData and closes the batch with Update:
//
//   - [SlogSink]: one structured log record per batch
//   - [Recorder]: in-memory frames, used by the simulator and tests
//   - [FileSink]: CBOR-encoded frames appended to a file, read back with [Reader]
//   - [PromSink]: latest numeric value per key as a Prometheus gauge
//   - [MQTTSink]: CBOR frames published to an MQTT topic
//   - [Multi]: fan-out to several sinks
//   - [Noop]: discards everything
package telemetry
