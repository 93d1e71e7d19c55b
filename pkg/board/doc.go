// Package board implements the message board served by the actor system.
//
// A Dispatcher owns a pool of Workers, each with its own Store. Clients ask the
// dispatcher for a session with InitCommunication; the dispatcher picks a
// worker round-robin and the worker answers with InitAck, after which the
// client talks to that worker directly.
//
// Workers enforce two kinds of failure:
//
//   - structural faults (unknown session, unknown message type, malformed
//     vote removal) are returned synchronously from Tell or Receive;
//   - business rejections from the Store become OperationFailed or
//     UserBanned replies to the client.
package board
