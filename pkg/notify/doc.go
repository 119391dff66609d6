// Package notify shows transient messages returned by the server. Each
// message gets its own element inside the messages container and its own
// two-phase teardown: after Delay the element is marked as fading, and after
// FadeDuration it is removed. Timers are independent and never cancelled.
package notify
