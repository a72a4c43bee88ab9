// Package session implements the chat orchestrator: a small Idle/Sending/Error
// state machine that appends the user's turn optimistically, dispatches
// exactly one provider call at a time, appends the reply or surfaces a
// user-visible notice, and hands completed sessions to the conversation store
// on archive and new-conversation transitions.
package session
