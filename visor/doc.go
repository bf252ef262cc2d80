/*
Package visor holds the pieces shared by every part of procvisor: the package
level logger and the debug switch.

procvisor is a small process supervisor meant to run as the entrypoint of a
container. It starts a fixed set of child tasks (see [task.Task]) and keeps
them alive as a unit. The first task to exit, or the first termination signal
delivered to the supervisor, tears the whole group down:

	signal or child exit
	        |
	        v
	supervisor ---- Terminate() ----> every task ---- SIGTERM ----> process groups
	        |                              |
	        |<---------- Done() -----------+
	        v
	re-raise signal / exit(1)

The subpackages are layered leaves first:

	exitreason   how a task or subprocess ended
	rendezvous   single slot "I exited" notification
	port         one owned OS subprocess (own process group)
	task         the Child Task state machine over a set of members
	logmux       log following task
	appserver    application server task
	metrics      optional prometheus task
	exitwaiter   wait for tasks to stop
	supervisor   signal routing and shutdown
	config       defaults, yaml, env
*/
package visor
