// Package events provides an in-process publish/subscribe mechanism.
//
// Services emit events after their work is committed and never learn who
// handles them. The task package subscribes and turns events into
// background tasks.
package events
