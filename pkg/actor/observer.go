package actor

// Observer is notified of kernel events. Hooks run synchronously on the
// simulation goroutine and must not call back into the System.
type Observer interface {
	OnSpawn(a Actor, tick int64)
	OnStop(a Actor, tick int64)
	OnSend(to Actor, msg Message, tick, due int64)
	OnDeliver(to Actor, msg Message, tick int64)
}
