// Package ws carries the realtime event protocol over WebSocket.
//
// The package implements:
//   - Handler: authenticates the handshake, upgrades, and runs the read and
//     write pumps of each connection
//   - Client: one live connection with a bounded, non-blocking send queue
//   - Hub: local connection set with named rooms, room broadcast, unscoped
//     broadcast, and direct emit
//
// Frames are JSON text messages. Clients send {"event","data","ackId"};
// the server sends {"event","args"} and answers ack requests with
// {"event":"ack","ackId","args":[ok]}.
package ws
