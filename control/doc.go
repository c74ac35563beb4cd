// Package control manages the lifecycle of probed flows.
//
// A [Service] owns the flow pool and serializes every access to it.
// Flows are admitted and withdrawn through [Service] methods,
// [Command] messages (see [Apply] and [Consumer]),
// or the HTTP API built by [NewAPI].
package control
