// Package actor provides a deterministic, tick-driven actor system.
//
// Nothing runs concurrently. A System owns a logical clock and a registry of
// actors in spawn order. Each Tick steps every registered actor once and then
// advances the clock. Stepping an actor delivers every message in its mailbox
// whose due tick has been reached, one Receive at a time.
//
// The following diagram shows one tick with a client sending a request that
// takes two ticks to arrive.
//
//	,------.          ,------.          ,-------.          ,-----.
//	|Client|          |System|          |Mailbox|          |Actor|
//	`--+---'          `--+---'          `---+---'          `--+--'
//	   |  Tell(msg) @t    |                 |                 |
//	   | ------------------------------------------------------>|
//	   |                  |  push(t+2, seq) |                 |
//	   |                  |<-----------------------------------|
//	   |                  |                 |                 |
//	   |          Tick() @t+2               |                 |
//	   |                  |----.            |                 |
//	   |                  |    | snapshot   |                 |
//	   |                  |<---'            |                 |
//	   |                  |  popDue(t+2)    |                 |
//	   |                  |---------------->|                 |
//	   |                  |      msg        |                 |
//	   |                  |<----------------|                 |
//	   |                  |            Receive(msg)           |
//	   |                  |---------------------------------->|
//	   |                  |----.            |                 |
//	   |                  |    | clock++    |                 |
//	   |                  |<---'            |                 |
//	,--+---.          ,--+---.          ,---+---.          ,--+--.
//	|Client|          |System|          |Mailbox|          |Actor|
//	`------'          `------'          `-------'          `-----'
//
// Actors are user structs that embed Cell and implement Receive. Tell may be
// overridden to validate requests synchronously before they are queued.
package actor
