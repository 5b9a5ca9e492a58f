// Package assertions checks a finished exchange against one-line
// expectations such as those given with --expect.
//
// Supported assertions:
//   - Status code checks (status == 200, status in [200,201])
//   - Header validation (header Content-Type contains json)
//   - Body content checks (body contains "success")
//   - JSON path queries (body.data.id exists, body.items[0].name == "a")
//   - JSON Schema validation (body schema ./schema.json)
//   - Length and type checks (body.items length 10, body.items type array)
//   - Latency checks (duration < 500)
//
// Expected values are read as JSON when they parse as JSON, and as plain
// text otherwise.
package assertions
