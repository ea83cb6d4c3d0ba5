// Package conversation drives a single chat view's transcript.
//
// # Overview
//
// A Controller owns the ordered entries of one chat view. Submitting a
// question appends the user's text and a pending placeholder together, then
// asks the backend on a separate goroutine. When the answer (or a failure)
// arrives the placeholder is replaced in place by index:
//
//	[user "¿Qué dice el artículo 5?", pending]
//	[user "¿Qué dice el artículo 5?", assistant "El artículo 5 establece..."]
//
// Failures never reach the transcript as raw errors. The placeholder becomes
// FallbackText instead.
//
// # In-flight slot
//
// At most one question is outstanding per Controller. The slot is acquired
// before the entries are appended and released only after the placeholder is
// reconciled, so a second Submit can never interleave with the first.
//
// # Teardown
//
// Close is called when the view unmounts. Outstanding questions still run to
// completion (there is no cancellation), but their results are discarded.
//
// # Change events
//
// Views subscribe to a Broadcaster to learn when to re-render:
//
//	ch, _ := ctrl.Subscribe(ctx)
//	for change := range ch {
//	    // re-read ctrl.Entries()
//	}
package conversation
