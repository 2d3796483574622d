// Package crowdfund implements the escrow state machine for deadline-bound
// crowdfunding.
//
// The host runtime calls Machine.Apply once per request with a Ledger view of
// the persistent state, an ActionQueue and the trusted Invocation context.
// Apply validates every precondition before its first write, so a rejected
// request leaves the ledger untouched. Writes and queued actions of an
// accepted request must be committed by the host as one unit; hosts run Apply
// over a ledger.Overlay and drop it when anything downstream fails.
//
// A project moves through four derived phases (see models.Phase): Open until
// its deadline, then SucceededPending or FailedPending depending on whether
// the target was met, and Finalized once the creator withdraws.
package crowdfund
