// Package sequencer implements the timed action queue that plays out a crate
// reveal over several fixed tick intervals.
//
// ARCHITECTURE:
//
// A Queue is a finite ordered list of Stages bound to one Subject (the
// requesting player and the crate entity). The Sequencer registers each
// started queue with the host Scheduler as a repeating callback. Every
// invocation of that callback runs exactly one stage: all of its actions,
// in list order, before the callback returns. After the last stage the
// callback cancels its own registration.
//
// Queue States:
//
//	Pending --first tick--> Running(i) --last stage--> Drained
//	   |                        |
//	   +----subject invalid-----+-----------------> Aborted
//
// Actions never wait. Suspension between stages belongs to the scheduler.
//
// Abort policy: when the subject is invalid at the start of a tick, the
// queue is Aborted and no further stages run. Effects of stages that already
// ran are kept; there are no compensating actions.
//
// Concurrency: the sequencer is driven from the host tick goroutine only and
// carries no locks. One queue per owner is active at a time; a second start
// for a busy owner is rejected (PolicyReject) or queued behind the active
// one (PolicyEnqueue).
package sequencer
