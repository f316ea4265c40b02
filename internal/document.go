package internal

/*
	event    --> normalized change notification, fixed size text fields.
	queue    --> lock protected fifo between backend goroutines and the poller.
	registry --> start/stop lifecycle of the single active watch.
	backend  --> os specific watchers (fsnotify, notify) normalizing raw notifications.

	** Usage
	1 - create a backend and a queue, then a registry over both.
	2 - start watching a root, the backend pushes events into the queue.
	3 - drain the queue once per tick from the consumer goroutine.
	4 - stop the registry, remaining events are still delivered by drain.
*/
